package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/sessionkit/internal/api"
	"github.com/charlesng35/sessionkit/internal/app"
	iauth "github.com/charlesng35/sessionkit/internal/auth"
	"github.com/charlesng35/sessionkit/internal/middleware"
	"github.com/charlesng35/sessionkit/internal/session"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	Directory *iauth.Directory
	Sessions  *session.Manager
	RateStore middleware.RateStore
	Router    *gin.Engine
}

// bootstrapRuntime initialises the user directory, the session manager and the HTTP router.
func bootstrapRuntime(cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(log)
		}
	}()

	// enable gin debug mod
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.Directory, err = iauth.NewDirectory(cfg.Auth.DirectoryAccounts(), cfg.Auth.DirectoryConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise user directory: %w", err)
	}
	if len(cfg.Auth.Users) == 0 {
		log.Warn("user directory is empty; logins will be rejected")
	}

	stack.Sessions, err = session.NewManager(cfg.Auth.SessionManagerConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise session manager: %w", err)
	}

	effective := stack.Sessions.Config()
	log.Info("session manager started",
		zap.Duration("access_token_expiry", effective.AccessTokenExpiry),
		zap.Duration("refresh_token_expiry", effective.RefreshTokenExpiry),
		zap.Duration("cleanup_interval", effective.SessionCleanupInterval),
		zap.Int("max_sessions_per_user", effective.MaxSessionsPerUser),
	)

	stack.RateStore = middleware.NewMemoryRateStore(nil)

	stack.Router, err = api.NewRouter(cfg, stack.Sessions, stack.Directory, stack.RateStore)
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// Shutdown stops the sweeper and releases every session.
func (s *runtimeStack) Shutdown(log *zap.Logger) {
	if s == nil || s.Sessions == nil {
		return
	}

	released := s.Sessions.GetActiveSessionCount()
	s.Sessions.Shutdown()
	log.Info("session manager stopped", zap.Int("released", released))
}
