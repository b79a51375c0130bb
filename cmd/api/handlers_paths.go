package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type addPathRequest struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

type createFolderRequest struct {
	ParentPath string `json:"parentPath"`
	FolderName string `json:"folderName"`
}

// GET /api/paths
func (api *API) listPaths(c *gin.Context) {
	paths, err := api.paths.List(c.Request.Context())
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"paths": paths})
}

// POST /api/paths
func (api *API) addPath(c *gin.Context) {
	var req addPathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.respondBadRequest(c)
		return
	}

	p, err := api.paths.Add(c.Request.Context(), req.Name, req.Path)
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"path":    p,
	})
}

// PUT /api/paths/:id/default
func (api *API) setDefaultPath(c *gin.Context) {
	if err := api.paths.SetDefault(c.Request.Context(), c.Param("id")); err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Default path updated",
	})
}

// DELETE /api/paths/:id
func (api *API) deletePath(c *gin.Context) {
	if err := api.paths.Delete(c.Request.Context(), c.Param("id")); err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Path deleted",
	})
}

// DELETE /api/paths?name= is kept for older clients
func (api *API) deletePathByName(c *gin.Context) {
	if err := api.paths.DeleteByName(c.Request.Context(), c.Query("name")); err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Path deleted",
	})
}

// GET /api/paths/browse?path=
func (api *API) browse(c *gin.Context) {
	result, err := api.browser.Browse(c.Request.Context(), c.Query("path"))
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// POST /api/paths/create-folder
func (api *API) createFolder(c *gin.Context) {
	var req createFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.respondBadRequest(c)
		return
	}

	path, err := api.browser.CreateFolder(c.Request.Context(), req.ParentPath, req.FolderName)
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"path":    path,
	})
}
