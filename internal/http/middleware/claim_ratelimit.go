package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// ClaimRateLimit limits reward claims per user (not per IP) using Redis.
// Uses JWT user ID from context. Requires JWT middleware to run before this.
func ClaimRateLimit(maxClaims int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		rdb := limiterClient()
		if rdb == nil {
			// Redis not configured, fail-open
			c.Next()
			return
		}

		userID, ok := c.Get(CtxUserID)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		uid, ok := userID.(int64)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid user"})
			return
		}

		key := "claim_rl:" + strconv.FormatInt(uid, 10) + ":" + strconv.FormatInt(int64(window.Seconds()), 10)
		ctx := c.Request.Context()

		val, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			c.Header("X-ClaimRateLimit-Error", "redis-error")
			c.Next()
			return
		}
		if val == 1 {
			rdb.Expire(ctx, key, window)
		}

		c.Header("X-ClaimRateLimit-Limit", strconv.Itoa(maxClaims))
		c.Header("X-ClaimRateLimit-Remaining", strconv.FormatInt(max(0, int64(maxClaims)-val), 10))

		if val > int64(maxClaims) {
			RLBlocked.WithLabelValues("claim:" + c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "claim rate limit exceeded",
				"retry_after": int(window.Seconds()),
			})
			return
		}

		RLRequests.WithLabelValues("claim:" + c.FullPath()).Inc()
		c.Next()
	}
}
