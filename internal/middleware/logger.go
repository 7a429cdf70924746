package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pawpack/backend/internal/logger"
)

// CustomLoggerMiddleware prints one line per request to stdout and logs server errors.
func CustomLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		userID, _ := CurrentUserID(c)

		fmt.Printf("[API] %s | %s | %d | %s | %s | User: %d\n",
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			latency.String(),
			c.ClientIP(),
			userID,
		)

		if c.Writer.Status() >= 500 {
			logger.Error("Request failed", map[string]interface{}{
				"method":  c.Request.Method,
				"path":    c.FullPath(),
				"status":  c.Writer.Status(),
				"latency": latency.String(),
				"user_id": userID,
				"errors":  c.Errors.String(),
			})
		}
	}
}
