package api

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/sessionkit/internal/app"
	"github.com/charlesng35/sessionkit/internal/handlers"
	"github.com/charlesng35/sessionkit/internal/middleware"
	"github.com/charlesng35/sessionkit/internal/session"
)

// NewRouter builds the Gin engine, wires middleware and registers the token
// and session routes on top of the session manager.
func NewRouter(cfg *app.Config, sessions *session.Manager, directory handlers.Authenticator, rateStore middleware.RateStore) (*gin.Engine, error) {
	if cfg == nil {
		return nil, errors.New("config must be provided")
	}
	if sessions == nil {
		return nil, errors.New("session manager must be provided")
	}
	if directory == nil {
		return nil, errors.New("user directory must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())

	registerHealthRoutes(r, cfg, sessions)
	registerMetricsRoutes(r, cfg)

	api := r.Group("/api")
	api.Use(middleware.Auth(sessions))

	limit := cfg.Server.LoginRateLimit
	registerAuthRoutes(r, api, authRouteDeps{
		AuthHandler: handlers.NewAuthHandler(directory, sessions),
		LoginLimit:  middleware.RateLimit(rateStore, limit.Requests, limit.Window),
	})
	registerSessionRoutes(api, handlers.NewSessionHandler(sessions), sessions)

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
