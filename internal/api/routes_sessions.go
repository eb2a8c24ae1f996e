package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/sessionkit/internal/handlers"
	"github.com/charlesng35/sessionkit/internal/middleware"
)

// PermissionSessionMetrics gates the store occupancy endpoint.
const PermissionSessionMetrics = "sessions.metrics"

func registerSessionRoutes(api *gin.RouterGroup, handler *handlers.SessionHandler, checker middleware.PermissionChecker) {
	sessions := api.Group("/sessions")
	{
		sessions.GET("", handler.ListMine)
		sessions.GET("/metrics", middleware.RequirePermission(checker, PermissionSessionMetrics), handler.Metrics)
		sessions.DELETE("/:id", handler.Revoke)
	}
}
