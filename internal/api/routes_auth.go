package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/sessionkit/internal/handlers"
)

type authRouteDeps struct {
	AuthHandler *handlers.AuthHandler
	LoginLimit  gin.HandlerFunc
}

func registerAuthRoutes(engine *gin.Engine, api *gin.RouterGroup, deps authRouteDeps) {
	auth := engine.Group("/api/auth")
	{
		auth.POST("/login", deps.LoginLimit, deps.AuthHandler.Login)
		auth.POST("/refresh", deps.LoginLimit, deps.AuthHandler.Refresh)
	}

	api.GET("/auth/me", deps.AuthHandler.Me)
	api.POST("/auth/logout", deps.AuthHandler.Logout)
	api.POST("/auth/logout-all", deps.AuthHandler.LogoutAll)
}
