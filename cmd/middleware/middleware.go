package middleware

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wb-go/wbf/zlog"

	"clubevents/internal/dto"
)

const AdminTokenHeader = "X-Admin-Token"

func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		ev := zlog.Logger.Info()
		if status >= http.StatusInternalServerError {
			ev = zlog.Logger.Error()
		} else if status >= http.StatusBadRequest {
			ev = zlog.Logger.Warn()
		}
		ev.Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}

// AdminOnly rejects requests whose X-Admin-Token header does not match
// token. An empty token leaves the routes open.
func AdminOnly(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		got := c.GetHeader(AdminTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			dto.ErrorResponse(c, http.StatusUnauthorized, dto.AdminTokenRequired, "Admin token required")
			c.Abort()
			return
		}
		c.Next()
	}
}
