package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/tollgate/internal/shared/constants"
	"github.com/orris-inc/tollgate/internal/shared/logger"
)

// quietPaths are probed constantly and only logged when they fail.
var quietPaths = map[string]bool{
	"/healthz": true,
	"/metrics": true,
}

// CustomLogger emits one structured line per request, keyed by the matched
// route template so that /billing/subscriptions/:key groups across plans.
func CustomLogger(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		if quietPaths[c.Request.URL.Path] && status < 500 {
			return
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		fields := []any{
			"method", c.Request.Method,
			"route", route,
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
			"bytes", c.Writer.Size(),
		}
		if rid := c.GetString(constants.ContextKeyRequestID); rid != "" {
			fields = append(fields, "request_id", rid)
		}
		if uid, ok := CurrentUserID(c); ok {
			fields = append(fields, "user_id", uid)
		}
		if remaining := c.Writer.Header().Get(HeaderCreditsRemaining); remaining != "" {
			fields = append(fields, "credits_remaining", remaining)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "error", c.Errors.String())
		}

		if status >= 500 {
			log.Errorw("request failed", fields...)
		} else if status >= 400 {
			log.Warnw("request rejected", fields...)
		} else {
			log.Infow("request served", fields...)
		}
	}
}
