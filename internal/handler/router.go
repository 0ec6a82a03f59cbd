package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mdocs/mdocs/internal/middleware"
)

type RouterDeps struct {
	Pages *PageHandler
	Site  *SiteHandler
	Auth  *AuthHandler
	Build *BuildHandler
	// Livereload registers the websocket endpoint, nil when disabled.
	Livereload gin.HandlerFunc

	JWTSecret      []byte
	EditingEnabled bool
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/pages", deps.Pages.List)
	api.GET("/pages/*name", deps.Pages.Get)
	api.GET("/sitemap", deps.Site.Sitemap)
	api.GET("/diagnostics", deps.Site.Diagnostics)
	api.GET("/status", deps.Site.Status)

	searchGroup := api.Group("")
	searchGroup.Use(middleware.RateLimit(200 * time.Millisecond))
	searchGroup.GET("/search", deps.Site.Search)

	loginGroup := api.Group("")
	loginGroup.Use(middleware.RateLimit(time.Second))
	loginGroup.POST("/auth/login", deps.Auth.Login)

	if deps.EditingEnabled {
		editGroup := api.Group("")
		editGroup.Use(middleware.JWTAuth(deps.JWTSecret))
		editGroup.PUT("/pages/*name", deps.Pages.Update)
		editGroup.POST("/build", deps.Build.Build)
	}

	if deps.Livereload != nil {
		api.GET("/ws", deps.Livereload)
	}
}
