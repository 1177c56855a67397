package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/cipherroom/internal/apperr"
	"go.uber.org/zap"
)

// respondError maps a service error to a status code. Errors outside the
// apperr taxonomy are internal: logged with their cause and reported to
// the client as a bare 500.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	kind, ok := apperr.KindOf(err)
	if !ok {
		logger.Error("internal error", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	status := http.StatusInternalServerError
	switch kind {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindForbidden:
		status = http.StatusForbidden
	case apperr.KindConflict:
		status = http.StatusConflict
	}

	c.JSON(status, gin.H{"error": apperr.Message(err)})
}
