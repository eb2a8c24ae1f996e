// Package session issues, validates, rotates and revokes user sessions held in
// process memory. A Manager owns its store and a background sweeper that
// reclaims sessions whose access token expired; Shutdown stops both.
package session

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/charlesng35/sessionkit/internal/models"
	"github.com/charlesng35/sessionkit/pkg/logger"
	"github.com/charlesng35/sessionkit/pkg/metrics"
)

const maxGenerateAttempts = 4

var (
	// ErrManagerClosed is returned by CreateSession after Shutdown.
	ErrManagerClosed = errors.New("session: manager is shut down")
	// ErrTokenCollision signals that the generator kept returning values already in use.
	ErrTokenCollision = errors.New("session: generated value collides with a live session")
)

// ClientInfo describes the client a session is issued to. Attributes is an
// opaque bag stored on the session as-is.
type ClientInfo struct {
	IPAddress  string
	UserAgent  string
	Attributes map[string]any
}

// SessionMetrics is a point-in-time view of store occupancy.
type SessionMetrics struct {
	TotalSessions   int   `json:"total_sessions"`
	TotalUsers      int   `json:"total_users"`
	SessionsPerUser []int `json:"sessions_per_user"`
}

// Status describes the manager lifecycle for health probes. Sweep times
// are wall clock times regardless of the configured clock.
type Status struct {
	Closed      bool
	StartedAt   time.Time
	LastSweepAt time.Time
	Sweeps      uint64
}

// Option customises the Manager.
type Option func(*Manager)

// WithClock overrides the time source used for every expiry decision.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithGenerator replaces the default crypto/rand backed TokenGenerator.
func WithGenerator(g TokenGenerator) Option {
	return func(m *Manager) {
		if g != nil {
			m.tokens = g
		}
	}
}

// WithLogger overrides the logger, primarily for tests.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// Manager is the authority over the session lifecycle. All methods are safe
// for concurrent use; one mutex covers the session table and every index.
type Manager struct {
	cfg      Config
	now      func() time.Time
	tokens   TokenGenerator
	eviction evictionPolicy
	log      *zap.Logger

	mu          sync.Mutex
	store       *store
	closed      bool
	startedAt   time.Time
	lastSweepAt time.Time
	sweeps      uint64

	sweeper      *sweeper
	shutdownOnce sync.Once
}

// NewManager validates cfg, applies defaults and starts the expiration sweeper.
// Callers own the returned Manager and must call Shutdown to stop the sweeper.
func NewManager(cfg Config, opts ...Option) (*Manager, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	m := &Manager{
		cfg:      cfg,
		now:      time.Now,
		tokens:   NewRandomGenerator(DefaultTokenBytes),
		eviction: evictionPolicy{maxPerUser: cfg.MaxSessionsPerUser},
		log:      logger.WithModule("session"),
		store:    newStore(),

		startedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.sweeper = newSweeper(cfg.SessionCleanupInterval, m.log)
	m.sweeper.start(func() { m.PurgeExpired() })

	return m, nil
}

// Config returns the effective configuration after defaults.
func (m *Manager) Config() Config {
	return m.cfg
}

// CreateSession issues a new session for an already authenticated user. When
// the user is at capacity their oldest sessions are evicted first. The only
// failures are generator errors and use after Shutdown.
func (m *Manager) CreateSession(user models.User, client ClientInfo) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrManagerClosed
	}

	id, err := m.uniqueLocked(m.tokens.NewID)
	if err != nil {
		return nil, err
	}
	token, err := m.uniqueLocked(m.tokens.NewToken)
	if err != nil {
		return nil, err
	}
	refresh, err := m.uniqueLocked(m.tokens.NewToken, token)
	if err != nil {
		return nil, err
	}

	now := m.now()
	s := &models.Session{
		ID:             id,
		UserID:         user.ID,
		User:           user.Clone(),
		Token:          token,
		RefreshToken:   refresh,
		CreatedAt:      now,
		ExpiresAt:      now.Add(m.cfg.AccessTokenExpiry),
		LastActivityAt: now,
		IPAddress:      strings.TrimSpace(client.IPAddress),
		UserAgent:      strings.TrimSpace(client.UserAgent),
	}
	if client.Attributes != nil {
		s.Metadata = maps.Clone(client.Attributes)
	}

	for _, evicted := range m.eviction.makeRoom(m.store, user.ID) {
		metrics.SessionsRemoved.WithLabelValues(metrics.ReasonEvicted).Inc()
		metrics.ActiveSessions.Dec()
		m.log.Debug("session evicted",
			zap.String("session_id", evicted.ID),
			zap.String("user_id", evicted.UserID),
			zap.Time("created_at", evicted.CreatedAt),
		)
	}

	m.store.insert(s)
	metrics.SessionsCreated.Inc()
	metrics.ActiveSessions.Inc()

	m.log.Debug("session created", zap.String("session_id", s.ID), zap.String("user_id", s.UserID))
	return s.Clone(), nil
}

// ValidateSession resolves an access token. Expired sessions are removed on
// sight. A successful lookup records activity and returns a copy.
func (m *Manager) ValidateSession(token string) (*models.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.store.byToken(token)
	if !ok {
		metrics.SessionValidations.WithLabelValues("missing").Inc()
		return nil, false
	}

	now := m.now()
	if s.Expired(now) {
		m.removeLocked(s.ID, metrics.ReasonExpired)
		metrics.SessionValidations.WithLabelValues("expired").Inc()
		return nil, false
	}

	if now.After(s.LastActivityAt) {
		s.LastActivityAt = now
	}
	metrics.SessionValidations.WithLabelValues("valid").Inc()
	return s.Clone(), true
}

// RefreshSession exchanges a refresh token for a new access token. The refresh
// token itself is kept and stays valid until CreatedAt + RefreshTokenExpiry,
// however often it is used. A generator failure leaves the session untouched.
func (m *Manager) RefreshSession(refreshToken string) (*models.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.store.byRefreshToken(refreshToken)
	if !ok {
		metrics.SessionRefreshes.WithLabelValues("missing").Inc()
		return nil, false
	}

	now := m.now()
	if now.After(s.CreatedAt.Add(m.cfg.RefreshTokenExpiry)) {
		m.removeLocked(s.ID, metrics.ReasonRefreshExpired)
		metrics.SessionRefreshes.WithLabelValues("expired").Inc()
		return nil, false
	}

	token, err := m.uniqueLocked(m.tokens.NewToken)
	if err != nil {
		metrics.SessionRefreshes.WithLabelValues("error").Inc()
		m.log.Warn("session refresh failed", zap.String("session_id", s.ID), zap.Error(err))
		return nil, false
	}

	m.store.rotateToken(s, token)
	s.ExpiresAt = now.Add(m.cfg.AccessTokenExpiry)
	metrics.SessionRefreshes.WithLabelValues("rotated").Inc()

	m.log.Debug("session refreshed", zap.String("session_id", s.ID), zap.Time("expires_at", s.ExpiresAt))
	return s.Clone(), true
}

// InvalidateSession removes the session and reports whether it existed.
func (m *Manager) InvalidateSession(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.removeLocked(id, metrics.ReasonInvalidated)
}

// InvalidateAllUserSessions removes every session of the user and returns how
// many were removed.
func (m *Manager) InvalidateAllUserSessions(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for _, id := range m.store.idsForUser(userID) {
		if m.removeLocked(id, metrics.ReasonInvalidated) {
			removed++
		}
	}
	if removed > 0 {
		m.log.Debug("user sessions invalidated", zap.String("user_id", userID), zap.Int("count", removed))
	}
	return removed
}

// ValidatePermission checks permission against the user snapshot of the
// user's first live, unexpired session. Admins are granted everything. Users
// without such a session are denied.
func (m *Manager) ValidatePermission(userID, permission string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for _, s := range m.store.sessionsForUser(userID) {
		if s.Expired(now) {
			continue
		}
		allowed := s.User.HasPermission(permission)
		if allowed {
			metrics.PermissionChecks.WithLabelValues("allowed").Inc()
		} else {
			metrics.PermissionChecks.WithLabelValues("denied").Inc()
		}
		return allowed
	}

	metrics.PermissionChecks.WithLabelValues("denied").Inc()
	return false
}

// GetSession returns a copy of the session without touching its activity time.
func (m *Manager) GetSession(id string) (*models.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.store.byID(id)
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// GetUserSessions returns copies of the user's sessions in creation order.
func (m *Manager) GetUserSessions(userID string) []*models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	sessions := m.store.sessionsForUser(userID)
	out := make([]*models.Session, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Clone())
	}
	return out
}

// GetActiveSessionCount returns the number of sessions held, expired ones included until swept.
func (m *Manager) GetActiveSessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.store.len()
}

// GetUserCount returns the number of distinct users holding at least one session.
func (m *Manager) GetUserCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.store.userCount()
}

// GetSessionMetrics returns a snapshot of session and user counts.
func (m *Manager) GetSessionMetrics() SessionMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	return SessionMetrics{
		TotalSessions:   m.store.len(),
		TotalUsers:      m.store.userCount(),
		SessionsPerUser: m.store.perUserCounts(),
	}
}

// Status reports whether the manager is closed and when the sweeper last ran.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Status{
		Closed:      m.closed,
		StartedAt:   m.startedAt,
		LastSweepAt: m.lastSweepAt,
		Sweeps:      m.sweeps,
	}
}

// PurgeExpired removes every session whose access token has expired and
// returns how many were removed. Refresh token expiry is not considered here.
// The background sweeper calls it on every tick.
func (m *Manager) PurgeExpired() int {
	start := time.Now()

	m.mu.Lock()
	now := m.now()
	removed := 0
	for _, id := range m.store.expired(now) {
		if m.removeLocked(id, metrics.ReasonExpired) {
			removed++
		}
	}
	remaining := m.store.len()
	m.lastSweepAt = start
	m.sweeps++
	m.mu.Unlock()

	metrics.SweepDuration.Observe(time.Since(start).Seconds())
	if removed > 0 {
		m.log.Info("expired sessions purged", zap.Int("removed", removed), zap.Int("remaining", remaining))
	}
	return removed
}

// Shutdown stops the sweeper, waiting for a running sweep to finish, and drops
// every session. It is safe to call more than once; once it returns no
// background mutation happens.
func (m *Manager) Shutdown() {
	m.shutdownOnce.Do(func() {
		m.sweeper.stop()

		m.mu.Lock()
		defer m.mu.Unlock()

		released := m.store.len()
		m.store.reset()
		m.closed = true
		metrics.SessionsRemoved.WithLabelValues(metrics.ReasonShutdown).Add(float64(released))
		metrics.ActiveSessions.Sub(float64(released))

		m.log.Info("session manager shut down", zap.Int("released", released))
	})
}

// removeLocked deletes a session from all indexes. m.mu must be held.
func (m *Manager) removeLocked(id, reason string) bool {
	s, ok := m.store.removeByID(id)
	if !ok {
		return false
	}
	metrics.SessionsRemoved.WithLabelValues(reason).Inc()
	metrics.ActiveSessions.Dec()
	m.log.Debug("session removed",
		zap.String("session_id", s.ID),
		zap.String("user_id", s.UserID),
		zap.String("reason", reason),
	)
	return true
}

// uniqueLocked draws from gen until it yields a value not used by any live
// session and not in exclude. m.mu must be held.
func (m *Manager) uniqueLocked(gen func() (string, error), exclude ...string) (string, error) {
	for range maxGenerateAttempts {
		value, err := gen()
		if err != nil {
			return "", err
		}
		if value == "" || m.store.inUse(value) || slices.Contains(exclude, value) {
			continue
		}
		return value, nil
	}
	return "", fmt.Errorf("%w after %d attempts", ErrTokenCollision, maxGenerateAttempts)
}
