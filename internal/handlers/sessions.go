package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/sessionkit/internal/middleware"
	"github.com/charlesng35/sessionkit/internal/models"
	"github.com/charlesng35/sessionkit/internal/session"
	"github.com/charlesng35/sessionkit/pkg/errors"
	"github.com/charlesng35/sessionkit/pkg/response"
)

type SessionHandler struct {
	sessions *session.Manager
}

func NewSessionHandler(sessions *session.Manager) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// sessionView is the client facing shape of a session. Tokens never leave
// the login and refresh responses.
type sessionView struct {
	ID             string         `json:"id"`
	CreatedAt      time.Time      `json:"created_at"`
	ExpiresAt      time.Time      `json:"expires_at"`
	LastActivityAt time.Time      `json:"last_activity_at"`
	IPAddress      string         `json:"ip_address,omitempty"`
	UserAgent      string         `json:"user_agent,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	Current        bool           `json:"current"`
}

func newSessionView(s *models.Session, currentID string) sessionView {
	return sessionView{
		ID:             s.ID,
		CreatedAt:      s.CreatedAt,
		ExpiresAt:      s.ExpiresAt,
		LastActivityAt: s.LastActivityAt,
		IPAddress:      s.IPAddress,
		UserAgent:      s.UserAgent,
		Metadata:       s.Metadata,
		Current:        s.ID == currentID,
	}
}

// GET /api/sessions
func (h *SessionHandler) ListMine(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}
	currentID := c.GetString(middleware.CtxSessionIDKey)

	sessions := h.sessions.GetUserSessions(userID)
	views := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, newSessionView(s, currentID))
	}
	response.SuccessWithMeta(c, http.StatusOK, views, &response.Meta{Total: len(views)})
}

// DELETE /api/sessions/:id
func (h *SessionHandler) Revoke(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	// sessions of other users are reported as missing
	target, ok := h.sessions.GetSession(c.Param("id"))
	if !ok || target.UserID != userID {
		response.Error(c, errors.ErrNotFound)
		return
	}

	if !h.sessions.InvalidateSession(target.ID) {
		response.Error(c, errors.ErrNotFound)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"revoked": true})
}

// GET /api/sessions/metrics
func (h *SessionHandler) Metrics(c *gin.Context) {
	view := h.sessions.GetSessionMetrics()
	response.Success(c, http.StatusOK, gin.H{
		"total_sessions":    view.TotalSessions,
		"total_users":       view.TotalUsers,
		"sessions_per_user": view.SessionsPerUser,
		"active_sessions":   h.sessions.GetActiveSessionCount(),
		"active_users":      h.sessions.GetUserCount(),
	})
}
