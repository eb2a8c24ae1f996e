package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/charlesng35/sessionkit/internal/models"
)

// quietInterval keeps the background sweeper out of deterministic tests.
const quietInterval = time.Hour

type testClock struct {
	mu      sync.Mutex
	current time.Time
}

func newTestClock() *testClock {
	return &testClock{current: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

func newTestManager(t *testing.T, cfg Config, opts ...Option) (*Manager, *testClock) {
	t.Helper()

	if cfg.SessionCleanupInterval == 0 {
		cfg.SessionCleanupInterval = quietInterval
	}
	clock := newTestClock()
	opts = append([]Option{WithClock(clock.Now), WithLogger(zap.NewNop())}, opts...)

	m, err := NewManager(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(m.Shutdown)
	return m, clock
}

func testUser(id string, perms ...string) models.User {
	return models.User{
		ID:          id,
		Username:    id,
		Email:       id + "@example.com",
		Role:        "member",
		Permissions: perms,
	}
}

func mustCreate(t *testing.T, m *Manager, user models.User) *models.Session {
	t.Helper()
	s, err := m.CreateSession(user, ClientInfo{})
	require.NoError(t, err)
	return s
}
