package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	customErrors "github.com/mslee98/crawl-back/internal/domain/auth/errors"
)

// writeError maps service errors to status codes. Internal details go to c.Errors, never to the client.
func writeError(c *gin.Context, err error) {
	var fe *customErrors.FieldError
	var ce *customErrors.ConflictError

	switch {
	case errors.As(err, &fe):
		c.JSON(http.StatusBadRequest, gin.H{"error": fe.Msg, "field": fe.Field})
	case customErrors.IsInvalidArgument(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &ce):
		c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("%s is already in use", ce.Field), "field": ce.Field})
	case customErrors.IsAlreadyExists(err):
		c.JSON(http.StatusConflict, gin.H{"error": "already exists"})
	case customErrors.IsInvalidCredentials(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case customErrors.IsInvalidToken(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
	case customErrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
	case customErrors.IsUnavailable(err):
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service temporarily unavailable"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
