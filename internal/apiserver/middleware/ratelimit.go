package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bellalabs/bellaprep/internal/common/errorx"
	"github.com/bellalabs/bellaprep/internal/ratelimit"
	"github.com/bellalabs/bellaprep/pkg/metrics"
)

// RateLimit applies the fixed-window budget, keyed by ip or ip:userId
// when authenticated. Rejections carry retryAfterSeconds.
func RateLimit(limiter *ratelimit.Limiter, m *metrics.Metrics, points int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if claims, ok := ClaimsFromContext(c); ok {
			key = key + ":" + claims.UserID
		}

		result, err := limiter.Allow(c.Request.Context(), key, points, window)
		if err != nil {
			// Fail open on store errors; the limiter is an abuse guard.
			c.Next()
			return
		}
		if !result.Allowed {
			if m != nil {
				m.RateLimitRejected(c.FullPath())
			}
			c.Header("Retry-After", strconv.Itoa(result.RetryAfterSeconds))
			abort(c, errorx.RateLimitedError(result.RetryAfterSeconds))
			return
		}
		c.Next()
	}
}
