package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/newsdesk/app/apperr"
)

// respondError writes the JSON error body for err. Errors outside the
// apperr kinds are reported as internal without details.
func respondError(c *gin.Context, err error) {
	var validationErr *apperr.ValidationError
	var upstreamErr *apperr.UpstreamError
	var authorizationErr *apperr.AuthorizationError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
	case errors.As(err, &upstreamErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch articles", "details": err.Error()})
	case errors.As(err, &authorizationErr):
		c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
	default:
		slog.Error("Request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// respondBindError reports a request body that failed to decode or validate.
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
}
