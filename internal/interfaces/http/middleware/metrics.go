package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

type requestRecorder interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// Metrics records every request under its route template so that path
// parameters do not explode label cardinality.
func Metrics(recorder requestRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		recorder.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
