package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/therealutkarshpriyadarshi/downloader/internal/downloads"
)

// GET /api/downloads
func (api *API) listDownloads(c *gin.Context) {
	list, err := api.downloads.List(c.Request.Context())
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"downloads": list})
}

// POST /api/downloads
func (api *API) addDownload(c *gin.Context) {
	var req downloads.AddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.respondBadRequest(c)
		return
	}

	d, err := api.downloads.Add(c.Request.Context(), req)
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"download": d,
	})
}

// GET /api/downloads/:id
func (api *API) getDownload(c *gin.Context) {
	d, err := api.downloads.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, d)
}

// DELETE /api/downloads/:id cancels, it never removes the row
func (api *API) cancelDownload(c *gin.Context) {
	if _, err := api.downloads.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Download cancelled",
	})
}
