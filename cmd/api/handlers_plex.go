package main

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// POST /api/plex/check
func (api *API) checkPlex(c *gin.Context) {
	libraries, err := api.plex.Check(c.Request.Context())
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   fmt.Sprintf("Connected to Plex (%d libraries)", len(libraries)),
		"libraries": libraries,
	})
}

// POST /api/plex/refresh
func (api *API) refreshPlex(c *gin.Context) {
	if err := api.plex.Refresh(c.Request.Context()); err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Library refresh started",
	})
}
