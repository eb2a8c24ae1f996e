package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/sessionkit/internal/models"
)

func TestRequirePermissionWithoutAuth(t *testing.T) {
	m := newManager(t)

	r := gin.New()
	r.GET("/secure", RequirePermission(m, "sessions.metrics"), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequirePermission(t *testing.T) {
	m := newManager(t)
	member := issue(t, m, models.User{ID: "member", Permissions: []string{"sessions.read"}})
	operator := issue(t, m, models.User{ID: "operator", Permissions: []string{"sessions.metrics"}})
	admin := issue(t, m, models.User{ID: "admin", Role: models.RoleAdmin})

	r := gin.New()
	r.GET("/metrics", Auth(m), RequirePermission(m, "sessions.metrics"), func(c *gin.Context) { c.Status(http.StatusOK) })

	for token, want := range map[string]int{
		member.Token:   http.StatusForbidden,
		operator.Token: http.StatusOK,
		admin.Token:    http.StatusOK,
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)
		require.Equal(t, want, w.Code)
	}
}
