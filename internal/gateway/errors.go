package gateway

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sim-trading-engine/internal/logger"
	"sim-trading-engine/internal/types"
)

// respondError maps domain errors onto status codes. Anything that is
// neither a validation nor a not-found error is a 500 with a generic body.
func respondError(c *gin.Context, err error) {
	var ve *types.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   ve.Error(),
			"details": gin.H{"field": ve.Field, "reason": ve.Reason},
		})
	case types.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		logger.ErrorWithErr(c.Request.Context(), "Unhandled gateway error", err, "path", c.Request.URL.Path)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func badRequest(c *gin.Context, msg string, err error) {
	body := gin.H{"error": msg}
	if err != nil {
		body["details"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, body)
}
