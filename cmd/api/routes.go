package main

import (
	"github.com/gin-gonic/gin"
	"github.com/therealutkarshpriyadarshi/downloader/internal/middleware"
	"github.com/therealutkarshpriyadarshi/downloader/internal/tracing"
)

func setupRouter(api *API) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(api.logger))
	router.Use(tracing.Middleware())

	// Health check
	router.GET("/health", api.healthCheck)

	// Auth routes resolve the session themselves
	authGroup := router.Group("/api/auth")
	{
		authGroup.POST("/login", middleware.RateLimit(api.loginLimiter), api.login)
		authGroup.POST("/logout", api.logout)
		authGroup.GET("/session", api.session)
	}

	protected := router.Group("/api")
	protected.Use(middleware.SessionAuth(api.auth, api.secureCookie))
	{
		// Downloads
		protected.GET("/downloads", api.listDownloads)
		protected.POST("/downloads", api.addDownload)
		protected.GET("/downloads/:id", api.getDownload)
		protected.DELETE("/downloads/:id", api.cancelDownload)

		// Paths
		protected.GET("/paths", api.listPaths)
		protected.POST("/paths", api.addPath)
		protected.DELETE("/paths", api.deletePathByName)
		protected.PUT("/paths/:id/default", api.setDefaultPath)
		protected.DELETE("/paths/:id", api.deletePath)
		protected.GET("/paths/browse", api.browse)
		protected.POST("/paths/create-folder", api.createFolder)

		// Settings
		protected.GET("/settings", api.getSettings)
		protected.PUT("/settings", api.updateSettings)

		// Plex
		protected.POST("/plex/check", api.checkPlex)
		protected.POST("/plex/refresh", api.refreshPlex)
	}

	return router
}
