package handlers

import (
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	iauth "github.com/charlesng35/sessionkit/internal/auth"
	"github.com/charlesng35/sessionkit/internal/middleware"
	"github.com/charlesng35/sessionkit/internal/models"
	"github.com/charlesng35/sessionkit/internal/session"
	"github.com/charlesng35/sessionkit/pkg/errors"
	"github.com/charlesng35/sessionkit/pkg/logger"
	"github.com/charlesng35/sessionkit/pkg/metrics"
	"github.com/charlesng35/sessionkit/pkg/response"
)

// Authenticator verifies login credentials.
type Authenticator interface {
	Authenticate(input iauth.AuthenticateInput) (models.User, error)
}

// AuthHandler manages authentication flows (login/refresh/logout/me).
type AuthHandler struct {
	directory Authenticator
	sessions  *session.Manager
	log       *zap.Logger
}

func NewAuthHandler(directory Authenticator, sessions *session.Manager) *AuthHandler {
	return &AuthHandler{directory: directory, sessions: sessions, log: logger.WithModule("auth")}
}

type loginRequest struct {
	Identifier string         `json:"identifier" validate:"required"`
	Password   string         `json:"password" validate:"required"`
	Attributes map[string]any `json:"attributes"`
}

type tokenResponse struct {
	SessionID    string    `json:"session_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int       `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// newTokenResponse describes a freshly issued or rotated access token, which
// always lives for the full access token expiry.
func (h *AuthHandler) newTokenResponse(s *models.Session) tokenResponse {
	return tokenResponse{
		SessionID:    s.ID,
		AccessToken:  s.Token,
		RefreshToken: s.RefreshToken,
		ExpiresIn:    int(h.sessions.Config().AccessTokenExpiry / time.Second),
		ExpiresAt:    s.ExpiresAt,
	}
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}
	req.Identifier = strings.TrimSpace(req.Identifier)
	if req.Identifier == "" {
		response.Error(c, errors.NewBadRequest("identifier is required"))
		return
	}

	user, err := h.directory.Authenticate(iauth.AuthenticateInput{
		Identifier: req.Identifier,
		Password:   req.Password,
	})
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		if stderrors.Is(err, iauth.ErrAccountLocked) {
			response.Error(c, errors.ErrAccountLocked)
			return
		}
		// Normalise auth errors to 401
		response.Error(c, errors.ErrInvalidCredentials)
		return
	}

	s, err := h.sessions.CreateSession(user, session.ClientInfo{
		IPAddress:  c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
		Attributes: req.Attributes,
	})
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		if stderrors.Is(err, session.ErrManagerClosed) {
			response.Error(c, errors.ErrUnavailable)
			return
		}
		h.log.Error("create session", zap.String("user_id", user.ID), zap.Error(err))
		response.Error(c, errors.Wrap(err, "failed to create session"))
		return
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()

	response.Success(c, http.StatusOK, gin.H{
		"tokens": h.newTokenResponse(s),
		"user":   s.User,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindAndValidate(c, &req) {
		return
	}
	req.RefreshToken = strings.TrimSpace(req.RefreshToken)
	if req.RefreshToken == "" {
		response.Error(c, errors.NewBadRequest("refresh token is required"))
		return
	}

	s, ok := h.sessions.RefreshSession(req.RefreshToken)
	if !ok {
		response.Error(c, errors.ErrSessionExpired)
		return
	}

	response.Success(c, http.StatusOK, h.newTokenResponse(s))
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	sid := c.GetString(middleware.CtxSessionIDKey)
	if sid == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"revoked": h.sessions.InvalidateSession(sid)})
}

// POST /api/auth/logout-all
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"revoked": h.sessions.InvalidateAllUserSessions(userID)})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	s, ok := middleware.CurrentSession(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"user":    s.User,
		"session": newSessionView(s, s.ID),
	})
}
