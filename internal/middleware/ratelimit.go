// Package middleware holds gin middleware shared by the HTTP surface.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"nearby-api/internal/logger"
	"nearby-api/internal/metrics"
)

// RateLimit returns a process-wide token bucket limiter.
//
// Requests beyond the bucket are answered 429 and counted in
// nearby_rate_limited_total.
// Constraints: no queueing and no per-client buckets; qps <= 0 disables
// the limit, burst < 1 is raised to 1.
func RateLimit(qps float64, burst int) gin.HandlerFunc {
	if qps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst < 1 {
		burst = 1
	}
	lim := rate.NewLimiter(rate.Limit(qps), burst)
	return func(c *gin.Context) {
		if !lim.Allow() {
			metrics.RateLimitedTotal.Inc()
			logger.L().Debug("rate_limited", "path", c.Request.URL.Path, "ip", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
