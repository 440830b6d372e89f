package middlewares

import (
	"github.com/geocoder89/quicknotes/internal/apperr"
	"github.com/gin-gonic/gin"
)

func RequestIDFrom(c *gin.Context) string {
	if v, ok := c.Get(CtxRequestID); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return c.GetHeader(requestIDHeader)
}

// abort writes the same error body the handlers use and stops the chain.
func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":     message,
		"code":      code,
		"requestId": RequestIDFrom(c),
	})
}

func abortApp(c *gin.Context, status int, err *apperr.Error) {
	abort(c, status, err.Code, err.Message)
}
