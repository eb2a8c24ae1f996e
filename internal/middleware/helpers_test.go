package middleware

import (
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/charlesng35/sessionkit/internal/models"
	"github.com/charlesng35/sessionkit/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newManager(t *testing.T) *session.Manager {
	t.Helper()
	m, err := session.NewManager(session.Config{SessionCleanupInterval: time.Hour}, session.WithLogger(zap.NewNop()))
	require.NoError(t, err)
	t.Cleanup(m.Shutdown)
	return m
}

func issue(t *testing.T, m *session.Manager, user models.User) *models.Session {
	t.Helper()
	s, err := m.CreateSession(user, session.ClientInfo{})
	require.NoError(t, err)
	return s
}
