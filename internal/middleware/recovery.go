// internal/middleware/recovery.go
package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/pirotecnica-backend/internal/utils"
)

// ErrorDetails marks whether internal error details may be sent to clients.
func ErrorDetails(expose bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(utils.ContextKeyExposeDetails, expose)
		c.Next()
	}
}

// Recovery turns a panic into the same response as any other internal error.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		utils.ErrorFromErr(c, fmt.Errorf("panic: %v", recovered))
		c.Abort()
	})
}
