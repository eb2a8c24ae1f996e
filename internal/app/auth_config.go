package app

import (
	"strings"
	"time"

	"github.com/charlesng35/sessionkit/internal/auth"
	"github.com/charlesng35/sessionkit/internal/session"
)

// SessionManagerConfig converts AuthConfig into session.Manager parameters.
// Unset values are left zero so the manager applies its own defaults.
func (c AuthConfig) SessionManagerConfig() session.Config {
	return session.Config{
		AccessTokenExpiry:      c.Session.AccessTTL,
		RefreshTokenExpiry:     c.Session.RefreshTTL,
		SessionCleanupInterval: c.Session.CleanupInterval,
		MaxSessionsPerUser:     c.Session.MaxSessionsPerUser,
	}
}

const (
	defaultLockoutThreshold = 5
	defaultLockoutDuration  = 15 * time.Minute
)

// DirectoryConfig converts AuthConfig into Directory parameters.
func (c AuthConfig) DirectoryConfig() auth.DirectoryConfig {
	duration := c.Local.LockoutDuration
	if duration <= 0 {
		duration = defaultLockoutDuration
	}

	threshold := c.Local.LockoutThreshold
	if threshold <= 0 {
		threshold = defaultLockoutThreshold
	}

	return auth.DirectoryConfig{
		LockoutThreshold: threshold,
		LockoutDuration:  duration,
	}
}

// DirectoryAccounts converts the configured users into directory accounts.
func (c AuthConfig) DirectoryAccounts() []auth.Account {
	accounts := make([]auth.Account, 0, len(c.Users))
	for _, u := range c.Users {
		accounts = append(accounts, auth.Account{
			ID:           strings.TrimSpace(u.ID),
			Username:     strings.TrimSpace(u.Username),
			Email:        strings.TrimSpace(u.Email),
			PasswordHash: u.PasswordHash,
			Role:         strings.TrimSpace(u.Role),
			Permissions:  u.Permissions,
			FirstName:    u.FirstName,
			LastName:     u.LastName,
		})
	}
	return accounts
}
