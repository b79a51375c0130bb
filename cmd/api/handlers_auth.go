package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/therealutkarshpriyadarshi/downloader/internal/apperror"
	"github.com/therealutkarshpriyadarshi/downloader/internal/middleware"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Health check endpoint
func (api *API) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	// Check database health
	if err := api.health.Health(ctx); err != nil {
		api.logger.WithError(err).Warn("Health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}

// POST /api/auth/login
func (api *API) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.respondBadRequest(c)
		return
	}

	result, err := api.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if !apperror.Is(err, apperror.KindInternal) {
			api.logger.LogAuthEvent("login", req.Username, c.ClientIP(), false)
		}
		api.respondError(c, err)
		return
	}

	api.logger.LogAuthEvent("login", result.User.Username, c.ClientIP(), true)
	middleware.SetSessionCookie(c, result.Token, result.Session.ExpiresAt, api.secureCookie)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    result.User,
	})
}

// POST /api/auth/logout
func (api *API) logout(c *gin.Context) {
	token, _ := c.Cookie(middleware.SessionCookieName)

	if err := api.auth.Logout(c.Request.Context(), token); err != nil {
		api.respondError(c, err)
		return
	}

	middleware.ClearSessionCookie(c, api.secureCookie)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GET /api/auth/session
func (api *API) session(c *gin.Context) {
	token, err := c.Cookie(middleware.SessionCookieName)
	if err != nil || token == "" {
		c.JSON(http.StatusOK, gin.H{"authenticated": false, "user": nil})
		return
	}

	user, err := api.auth.Authenticate(c.Request.Context(), token)
	if err != nil {
		if !apperror.Is(err, apperror.KindUnauthorized) {
			api.respondError(c, err)
			return
		}
		middleware.ClearSessionCookie(c, api.secureCookie)
		c.JSON(http.StatusOK, gin.H{"authenticated": false, "user": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"user":          user,
	})
}
