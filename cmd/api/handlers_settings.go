package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GET /api/settings
func (api *API) getSettings(c *gin.Context) {
	settings, err := api.settings.Get(c.Request.Context())
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// PUT /api/settings
func (api *API) updateSettings(c *gin.Context) {
	var partial map[string]*string
	if err := c.ShouldBindJSON(&partial); err != nil {
		api.respondBadRequest(c)
		return
	}

	if err := api.settings.Put(c.Request.Context(), partial); err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Settings saved",
	})
}
