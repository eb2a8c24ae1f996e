package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/sessionkit/pkg/errors"
	"github.com/charlesng35/sessionkit/pkg/response"
)

// PermissionChecker answers whether a user holds a permission.
type PermissionChecker interface {
	ValidatePermission(userID, permission string) bool
}

// RequirePermission checks that the authenticated user has the provided permission ID.
func RequirePermission(checker PermissionChecker, permissionID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(CtxUserIDKey)
		if userID == "" {
			response.Abort(c, errors.ErrUnauthorized)
			return
		}
		if !checker.ValidatePermission(userID, permissionID) {
			response.Abort(c, errors.ErrForbidden)
			return
		}
		c.Next()
	}
}
