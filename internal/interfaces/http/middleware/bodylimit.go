package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vendorbill/backend/internal/interfaces/http/dto"
)

// DefaultMaxBodyBytes caps billing request bodies; receivables with many
// line items still fit comfortably.
const DefaultMaxBodyBytes int64 = 1 << 20

// BodyLimit returns a middleware that limits request body size
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
				"REQUEST_TOO_LARGE",
				"Request body exceeds maximum allowed size",
				GetRequestID(c),
			))
			return
		}

		// Bodies without a Content-Length are cut off while streaming
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
