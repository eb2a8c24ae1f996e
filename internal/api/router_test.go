package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/sessionkit/internal/app"
	iauth "github.com/charlesng35/sessionkit/internal/auth"
	"github.com/charlesng35/sessionkit/internal/middleware"
	"github.com/charlesng35/sessionkit/internal/session"
)

func newTestRouter(t *testing.T, cfg *app.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sessions, err := session.NewManager(session.Config{SessionCleanupInterval: time.Hour}, session.WithLogger(zap.NewNop()))
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	t.Cleanup(sessions.Shutdown)

	directory, err := iauth.NewDirectory(nil, iauth.DirectoryConfig{})
	if err != nil {
		t.Fatalf("directory: %v", err)
	}

	router, err := NewRouter(cfg, sessions, directory, middleware.NewMemoryRateStore(nil))
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	return router
}

func defaultConfig() *app.Config {
	return &app.Config{
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
			Health:     app.HealthConfig{Enabled: true},
		},
	}
}

func TestRouter_PublicAndProtectedRoutes(t *testing.T) {
	router := newTestRouter(t, defaultConfig())

	// Health should be public
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)
	if w.Code != 200 {
		t.Fatalf("expected 200 for /health, got %d", w.Code)
	}

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/auth/me"},
		{http.MethodPost, "/api/auth/logout"},
		{http.MethodPost, "/api/auth/logout-all"},
		{http.MethodGet, "/api/sessions"},
		{http.MethodGet, "/api/sessions/metrics"},
		{http.MethodDelete, "/api/sessions/abc"},
	} {
		w = httptest.NewRecorder()
		req, _ = http.NewRequest(route.method, route.path, nil)
		router.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s %s without token, got %d", route.method, route.path, w.Code)
		}
	}

	// Login is public; an empty body fails validation rather than auth
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty login, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/api/unknown", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown route, got %d", w.Code)
	}
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, defaultConfig())

	// Trigger a request to generate metrics
	rec := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for /health, got %d", rec.Code)
	}

	metricsRec := httptest.NewRecorder()
	metricsReq, _ := http.NewRequest(http.MethodGet, "/metrics", nil)
	router.ServeHTTP(metricsRec, metricsReq)
	if metricsRec.Code != http.StatusOK {
		t.Fatalf("expected 200 for /metrics, got %d", metricsRec.Code)
	}

	body := metricsRec.Body.String()
	if !strings.Contains(body, `sessionkit_api_latency_seconds_count{method="GET",path="/health",status="200"}`) {
		t.Fatalf("metrics output missing latency series: %s", body)
	}
	if !strings.Contains(body, "sessionkit_active_sessions") {
		t.Fatalf("metrics output missing session gauge: %s", body)
	}
}

func TestRouter_DisabledMonitoring(t *testing.T) {
	router := newTestRouter(t, &app.Config{})

	for _, path := range []string{"/health", "/metrics"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		router.ServeHTTP(w, req)
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404 for %s when disabled, got %d", path, w.Code)
		}
	}
}

func TestNewRouterRequiresDependencies(t *testing.T) {
	if _, err := NewRouter(nil, nil, nil, nil); err == nil {
		t.Fatal("expected error without config")
	}
	if _, err := NewRouter(defaultConfig(), nil, nil, nil); err == nil {
		t.Fatal("expected error without session manager")
	}
}

func TestRouter_ReadinessReflectsShutdown(t *testing.T) {
	gin.SetMode(gin.TestMode)

	sessions, err := session.NewManager(session.Config{SessionCleanupInterval: time.Hour}, session.WithLogger(zap.NewNop()))
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	directory, _ := iauth.NewDirectory(nil, iauth.DirectoryConfig{})
	router, err := NewRouter(defaultConfig(), sessions, directory, nil)
	if err != nil {
		t.Fatalf("router: %v", err)
	}

	probe := func(path string) int {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		router.ServeHTTP(w, req)
		return w.Code
	}

	if code := probe("/health/ready"); code != http.StatusOK {
		t.Fatalf("expected ready before shutdown, got %d", code)
	}

	sessions.Shutdown()

	if code := probe("/health/ready"); code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 after shutdown, got %d", code)
	}
	if code := probe("/health"); code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 on /health after shutdown, got %d", code)
	}
	if code := probe("/health/live"); code != http.StatusOK {
		t.Fatalf("expected liveness to stay up, got %d", code)
	}
}
