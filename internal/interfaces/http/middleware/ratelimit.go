package middleware

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/tollgate/internal/infrastructure/ratelimit"
	apperrors "github.com/orris-inc/tollgate/internal/shared/errors"
	"github.com/orris-inc/tollgate/internal/shared/logger"
	"github.com/orris-inc/tollgate/internal/shared/utils"
)

type limiter interface {
	Allow(ctx context.Context, key string, limit ratelimit.Limit) (bool, error)
}

// RateLimit throttles a route per signed-in user, falling back to the client
// IP. Limiter errors let the request through.
func RateLimit(l limiter, scope string, limit ratelimit.Limit, log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := scope + ":ip:" + c.ClientIP()
		if userID, ok := CurrentUserID(c); ok {
			key = scope + ":user:" + strconv.FormatUint(uint64(userID), 10)
		}

		allowed, err := l.Allow(c.Request.Context(), key, limit)
		if err != nil {
			log.Warnw("rate limiter unavailable", "scope", scope, "error", err)
			c.Next()
			return
		}
		if !allowed {
			log.Infow("rate limit exceeded", "scope", scope, "key", key)
			utils.AbortWithError(c, apperrors.NewRateLimitedError("too many requests", scope))
			return
		}

		c.Next()
	}
}
