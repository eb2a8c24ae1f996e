package session

import (
	"errors"
	"fmt"
	"time"
)

const (
	DefaultAccessTokenExpiry      = 15 * time.Minute
	DefaultRefreshTokenExpiry     = 7 * 24 * time.Hour
	DefaultSessionCleanupInterval = time.Minute
	DefaultMaxSessionsPerUser     = 5
)

// Config holds the lifetimes and capacity bounds enforced by the Manager.
// Zero values select the package defaults.
type Config struct {
	// AccessTokenExpiry is measured from creation or the latest refresh.
	AccessTokenExpiry time.Duration
	// RefreshTokenExpiry is measured from creation only and is never extended.
	RefreshTokenExpiry     time.Duration
	SessionCleanupInterval time.Duration
	MaxSessionsPerUser     int
}

func (c Config) withDefaults() Config {
	if c.AccessTokenExpiry == 0 {
		c.AccessTokenExpiry = DefaultAccessTokenExpiry
	}
	if c.RefreshTokenExpiry == 0 {
		c.RefreshTokenExpiry = DefaultRefreshTokenExpiry
	}
	if c.SessionCleanupInterval == 0 {
		c.SessionCleanupInterval = DefaultSessionCleanupInterval
	}
	if c.MaxSessionsPerUser == 0 {
		c.MaxSessionsPerUser = DefaultMaxSessionsPerUser
	}
	return c
}

func (c Config) validate() error {
	var errs []error
	if c.AccessTokenExpiry < 0 {
		errs = append(errs, errors.New("access token expiry must be positive"))
	}
	if c.RefreshTokenExpiry < 0 {
		errs = append(errs, errors.New("refresh token expiry must be positive"))
	}
	if c.SessionCleanupInterval < 0 {
		errs = append(errs, errors.New("session cleanup interval must be positive"))
	}
	if c.MaxSessionsPerUser < 0 {
		errs = append(errs, errors.New("max sessions per user must be positive"))
	}
	if c.RefreshTokenExpiry < c.AccessTokenExpiry {
		errs = append(errs, fmt.Errorf("refresh token expiry %s is shorter than access token expiry %s",
			c.RefreshTokenExpiry, c.AccessTokenExpiry))
	}
	if len(errs) > 0 {
		return fmt.Errorf("session: invalid config: %w", errors.Join(errs...))
	}
	return nil
}
