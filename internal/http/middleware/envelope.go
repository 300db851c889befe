package middleware

import "github.com/gin-gonic/gin"

// abortWithError writes the standard error envelope and aborts the chain.
// Handlers use the same shape via handlers.ErrorResponse.
func abortWithError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"requestId": GetRequestID(c),
		"code":      code,
		"message":   msg,
	})
}
