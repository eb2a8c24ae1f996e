package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/charlesng35/sessionkit/internal/api"
	"github.com/charlesng35/sessionkit/internal/app"
	iauth "github.com/charlesng35/sessionkit/internal/auth"
	"github.com/charlesng35/sessionkit/internal/middleware"
	"github.com/charlesng35/sessionkit/internal/models"
	"github.com/charlesng35/sessionkit/internal/session"
	"github.com/charlesng35/sessionkit/pkg/crypto"
	"github.com/charlesng35/sessionkit/pkg/response"
)

// Env encapsulates a fully-wired API instance backed by an in-memory session
// manager and user directory for handler tests.
type Env struct {
	T        *testing.T
	Router   *gin.Engine
	Sessions *session.Manager
	Config   *app.Config

	accounts []iauth.Account
	clock    *Clock
}

// Clock is a manually advanced time source shared by the manager under test.
type Clock struct {
	now time.Time
}

func (c *Clock) Now() time.Time          { return c.now }
func (c *Clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// Option adjusts the environment configuration before the router is built.
type Option func(*app.Config)

// NewEnv provisions a fresh handler test environment. Accounts must be added
// with AddUser before Start is called.
func NewEnv(t *testing.T, opts ...Option) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	cfg := &app.Config{
		Server: app.ServerConfig{Port: 8000},
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
			Health:     app.HealthConfig{Enabled: true},
		},
		Auth: app.AuthConfig{
			Session: app.SessionSettings{
				AccessTTL:          15 * time.Minute,
				RefreshTTL:         time.Hour,
				CleanupInterval:    time.Hour,
				MaxSessionsPerUser: 3,
			},
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Env{
		T:      t,
		Config: cfg,
		clock:  &Clock{now: time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)},
	}
}

// AddUser registers a directory account with a random username and returns its user record.
func (e *Env) AddUser(password, role string, permissions ...string) models.User {
	e.T.Helper()
	require.Nil(e.T, e.Router, "AddUser must be called before Start")

	username := "user-" + uuid.NewString()[:8]
	hashed, err := crypto.HashPassword(password)
	require.NoError(e.T, err)

	acc := iauth.Account{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hashed,
		Role:         role,
		Permissions:  permissions,
	}
	e.accounts = append(e.accounts, acc)

	return models.User{
		ID:          acc.ID,
		Username:    acc.Username,
		Email:       acc.Email,
		Role:        role,
		Permissions: permissions,
	}
}

// Start builds the manager, directory and router. opts are applied to the
// session manager after the environment's clock and logger.
func (e *Env) Start(opts ...session.Option) *Env {
	e.T.Helper()

	directory, err := iauth.NewDirectory(e.accounts, e.Config.Auth.DirectoryConfig())
	require.NoError(e.T, err)

	opts = append([]session.Option{session.WithClock(e.clock.Now), session.WithLogger(zap.NewNop())}, opts...)
	sessions, err := session.NewManager(e.Config.Auth.SessionManagerConfig(), opts...)
	require.NoError(e.T, err)
	e.T.Cleanup(sessions.Shutdown)

	router, err := api.NewRouter(e.Config, sessions, directory, middleware.NewMemoryRateStore(e.clock.Now))
	require.NoError(e.T, err)

	e.Sessions = sessions
	e.Router = router
	return e
}

// Advance moves the clock seen by the session manager and rate limiter.
func (e *Env) Advance(d time.Duration) {
	e.clock.Advance(d)
}

// TokenPair mirrors the handler token payload.
type TokenPair struct {
	SessionID    string    `json:"session_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int       `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// LoginResult bundles the JSON response from POST /api/auth/login.
type LoginResult struct {
	Tokens TokenPair   `json:"tokens"`
	User   models.User `json:"user"`
}

// Login authenticates against the directory and returns the issued token pair.
func (e *Env) Login(username, password string) LoginResult {
	e.T.Helper()

	payload := map[string]string{
		"identifier": username,
		"password":   password,
	}

	w := e.Request(http.MethodPost, "/api/auth/login", payload, "")
	require.Equal(e.T, http.StatusOK, w.Code, w.Body.String())

	resp := DecodeResponse(e.T, w)
	require.True(e.T, resp.Success, w.Body.String())

	var result LoginResult
	DecodeInto(e.T, resp.Data, &result)
	require.NotEmpty(e.T, result.Tokens.AccessToken)
	require.NotEmpty(e.T, result.Tokens.RefreshToken)
	require.Greater(e.T, result.Tokens.ExpiresIn, 0)
	require.Equal(e.T, username, result.User.Username)

	return result
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes an HTTP request against the test router, applying JSON encoding and auth headers automatically.
func (e *Env) Request(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.T.Helper()
	require.NotNil(e.T, e.Router, "Start must be called before Request")

	var buf *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}
