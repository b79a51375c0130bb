package main

import (
	"github.com/gin-gonic/gin"
	"github.com/therealutkarshpriyadarshi/downloader/internal/apperror"
	"github.com/therealutkarshpriyadarshi/downloader/internal/metrics"
)

// respondError writes the single error envelope used by every endpoint.
// Internal errors are logged with their cause and reported generically.
func (api *API) respondError(c *gin.Context, err error) {
	status := apperror.HTTPStatus(err)
	if status >= 500 {
		api.logger.WithError(err).WithField("path", c.Request.URL.Path).Error("Request failed")
		metrics.RecordError("api", string(apperror.KindOf(err)))
	}

	c.JSON(status, gin.H{
		"success": false,
		"message": apperror.Message(err),
	})
}

func (api *API) respondBadRequest(c *gin.Context) {
	api.respondError(c, apperror.Validation("Invalid request body"))
}
