package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/sessionkit/pkg/errors"
	"github.com/charlesng35/sessionkit/pkg/response"
)

// RateStore coordinates rate limiting counters for a specific key.
type RateStore interface {
	Increment(key string, window time.Duration) (count int, resetIn time.Duration)
}

// MemoryRateStore provides process-local fixed window counters. Stale windows
// are dropped lazily so no background goroutine is needed.
type MemoryRateStore struct {
	mu          sync.Mutex
	data        map[string]*memoryCounter
	clock       func() time.Time
	nextCleanup time.Time
}

type memoryCounter struct {
	count     int
	windowEnd time.Time
}

// NewMemoryRateStore constructs an in-memory rate store. A nil clock means time.Now.
func NewMemoryRateStore(clock func() time.Time) *MemoryRateStore {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryRateStore{
		data:  make(map[string]*memoryCounter),
		clock: clock,
	}
}

func (s *MemoryRateStore) Increment(key string, window time.Duration) (int, time.Duration) {
	if window <= 0 {
		window = time.Minute
	}

	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if now.After(s.nextCleanup) {
		for k, counter := range s.data {
			if now.After(counter.windowEnd) {
				delete(s.data, k)
			}
		}
		s.nextCleanup = now.Add(window)
	}

	counter, ok := s.data[key]
	if !ok || now.After(counter.windowEnd) {
		counter = &memoryCounter{windowEnd: now.Add(window)}
		s.data[key] = counter
	}
	counter.count++

	return counter.count, counter.windowEnd.Sub(now)
}

// RateLimit limits requests per (clientIP, route) within a fixed window.
// A non-positive limit or window disables limiting.
func RateLimit(store RateStore, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil || maxRequests <= 0 || window <= 0 {
			c.Next()
			return
		}

		count, resetIn := store.Increment(c.ClientIP()+"|"+c.FullPath(), window)

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(max(0, maxRequests-count)))
		c.Header("X-RateLimit-Reset", strconv.Itoa(int(resetIn.Seconds())))

		if count > maxRequests {
			response.Abort(c, errors.ErrTooManyRequests)
			return
		}

		c.Next()
	}
}
