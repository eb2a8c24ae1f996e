package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/sessionkit/internal/models"
	"github.com/charlesng35/sessionkit/pkg/response"
)

func TestAuthMiddleware(t *testing.T) {
	m := newManager(t)
	s := issue(t, m, models.User{ID: "user-123", Username: "alice"})

	r := gin.New()
	r.GET("/secure", Auth(m), func(c *gin.Context) {
		current, ok := CurrentSession(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{
			"user_id":    c.GetString(CtxUserIDKey),
			"session_id": c.GetString(CtxSessionIDKey),
			"username":   current.User.Username,
		})
	})

	// Missing Authorization header -> 401
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Unknown token -> 401 with challenge
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer nope")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))

	var failure response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &failure))
	require.Equal(t, "UNAUTHORIZED", failure.Error.Code)

	// Valid token -> downstream handler executes
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "bearer "+s.Token)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	require.Equal(t, "user-123", payload["user_id"])
	require.Equal(t, s.ID, payload["session_id"])
	require.Equal(t, "alice", payload["username"])
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	m := newManager(t)
	s := issue(t, m, models.User{ID: "user-1"})
	require.True(t, m.InvalidateSession(s.ID))

	r := gin.New()
	r.GET("/secure", Auth(m), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+s.Token)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBearerToken(t *testing.T) {
	for header, want := range map[string]string{
		"":                "",
		"Basic abc":       "",
		"Bearer ":         "",
		"Bearer    ":      "",
		"Bearer abc":      "abc",
		"BEARER  abc.def ": "abc.def",
	} {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request.Header.Set("Authorization", header)

		got, ok := BearerToken(c)
		require.Equal(t, want, got, "header %q", header)
		require.Equal(t, want != "", ok, "header %q", header)
	}
}
