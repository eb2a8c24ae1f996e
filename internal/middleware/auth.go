package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/sessionkit/internal/models"
	"github.com/charlesng35/sessionkit/pkg/errors"
	"github.com/charlesng35/sessionkit/pkg/response"
)

const (
	CtxSessionKey   = "session"
	CtxUserIDKey    = "userID"
	CtxSessionIDKey = "sessionID"
)

// SessionValidator resolves an access token to a live session.
type SessionValidator interface {
	ValidateSession(token string) (*models.Session, bool)
}

// Auth enforces bearer token authentication against the session manager.
func Auth(sessions SessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c)
		if !ok {
			response.Abort(c, errors.ErrUnauthorized)
			return
		}

		s, ok := sessions.ValidateSession(token)
		if !ok {
			// Normalise all validation failures to 401
			c.Header("WWW-Authenticate", "Bearer")
			response.Abort(c, errors.ErrUnauthorized)
			return
		}

		c.Set(CtxSessionKey, s)
		c.Set(CtxUserIDKey, s.UserID)
		c.Set(CtxSessionIDKey, s.ID)

		c.Next()
	}
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(c *gin.Context) (string, bool) {
	authz := c.GetHeader("Authorization")
	if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(authz[7:])
	return token, token != ""
}

// CurrentSession returns the session Auth stored on the context.
func CurrentSession(c *gin.Context) (*models.Session, bool) {
	v, ok := c.Get(CtxSessionKey)
	if !ok {
		return nil, false
	}
	s, ok := v.(*models.Session)
	return s, ok && s != nil
}
