package models

import (
	"maps"
	"time"
)

// Session binds a user snapshot to its access and refresh tokens.
type Session struct {
	ID             string         `json:"id"`
	UserID         string         `json:"user_id"`
	User           User           `json:"user"`
	Token          string         `json:"-"`
	RefreshToken   string         `json:"-"`
	CreatedAt      time.Time      `json:"created_at"`
	ExpiresAt      time.Time      `json:"expires_at"`
	LastActivityAt time.Time      `json:"last_activity_at"`
	IPAddress      string         `json:"ip_address,omitempty"`
	UserAgent      string         `json:"user_agent,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// Expired reports whether the access token has lapsed at now. A session is
// still valid at exactly ExpiresAt.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Clone returns a copy whose user snapshot and metadata map are detached from s.
// Metadata values themselves are shared.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cpy := *s
	cpy.User = s.User.Clone()
	if s.Metadata != nil {
		cpy.Metadata = maps.Clone(s.Metadata)
	}
	return &cpy
}
