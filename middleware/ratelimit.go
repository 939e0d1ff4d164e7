package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is a per-IP token bucket. Buckets refill continuously at
// `rate` tokens per second up to bucketSize; entries idle for an hour are
// dropped on the fly.
type RateLimiter struct {
	tokens     map[string]float64
	lastRefill map[string]time.Time
	mu         sync.Mutex
	rate       float64
	bucketSize float64
}

func NewRateLimiter(rate, bucketSize float64) *RateLimiter {
	return &RateLimiter{
		tokens:     make(map[string]float64),
		lastRefill: make(map[string]time.Time),
		rate:       rate,
		bucketSize: bucketSize,
	}
}

// RateLimit returns the gin middleware. Health checks are exempt so load
// balancer probes never get throttled.
func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/api/health" {
			c.Next()
			return
		}

		ip := c.ClientIP()

		rl.mu.Lock()
		now := time.Now()

		last, exists := rl.lastRefill[ip]
		if !exists {
			rl.tokens[ip] = rl.bucketSize
		} else {
			elapsed := now.Sub(last).Seconds()
			rl.tokens[ip] = minFloat(rl.bucketSize, rl.tokens[ip]+elapsed*rl.rate)
		}
		rl.lastRefill[ip] = now

		// Opportunistic eviction of stale buckets.
		for other, t := range rl.lastRefill {
			if now.Sub(t) > time.Hour {
				delete(rl.lastRefill, other)
				delete(rl.tokens, other)
			}
		}

		if rl.tokens[ip] < 1 {
			rl.mu.Unlock()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
			})
			c.Abort()
			return
		}

		rl.tokens[ip]--
		rl.mu.Unlock()

		c.Next()
	}
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
