package main

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/charlesng35/sessionkit/internal/app"
	"github.com/charlesng35/sessionkit/pkg/crypto"
)

func TestBootstrapRuntimeServesLogin(t *testing.T) {
	hash, err := crypto.HashPassword("Secret123!")
	require.NoError(t, err)

	cfg := &app.Config{
		Monitoring: app.MonitoringConfig{Health: app.HealthConfig{Enabled: true}},
		Auth: app.AuthConfig{
			Session: app.SessionSettings{CleanupInterval: time.Hour},
			Users: []app.UserEntry{{
				ID:           "usr-1",
				Username:     "alice",
				PasswordHash: hash,
			}},
		},
	}

	stack, err := bootstrapRuntime(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { stack.Shutdown(zap.NewNop()) })

	require.Equal(t, 15*time.Minute, stack.Sessions.Config().AccessTokenExpiry)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"identifier":"alice","password":"Secret123!"}`))
	req.Header.Set("Content-Type", "application/json")
	stack.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, 1, stack.Sessions.GetActiveSessionCount())

	stack.Shutdown(zap.NewNop())
	require.Zero(t, stack.Sessions.GetActiveSessionCount())
}

func TestBootstrapRuntimeRejectsInvalidSessionConfig(t *testing.T) {
	cfg := &app.Config{
		Auth: app.AuthConfig{
			Session: app.SessionSettings{AccessTTL: time.Hour, RefreshTTL: time.Minute},
		},
	}

	_, err := bootstrapRuntime(cfg, zap.NewNop())
	require.ErrorContains(t, err, "initialise session manager")
}

func TestLoadApplicationConfig(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("server:\n  port: 9443\n"), 0o600))

	for _, path := range []string{dir, file} {
		cfg, err := loadApplicationConfig(path)
		require.NoError(t, err)
		require.Equal(t, 9443, cfg.Server.Port)
	}

	_, err := loadApplicationConfig(filepath.Join(dir, "missing"))
	require.ErrorContains(t, err, "does not exist")
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	dir := t.TempDir()
	content := "server:\n  port: " + strconv.Itoa(port) + "\n  shutdown_timeout: 2s\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, run(ctx, []string{"-config", dir}))
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server:\n  log_level: loud\n"), 0o600))

	err := run(context.Background(), []string{"-config", dir})
	require.ErrorContains(t, err, "log_level")
}
