// internal/middleware/rate_limit.go
package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/javajoker/lease-backend/internal/utils"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	visitors map[string]*visitor
	mtx      sync.Mutex
	rate     rate.Limit
	burst    int
}

func NewRateLimiter(r rate.Limit, b int) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     r,
		burst:    b,
	}
}

// Cleanup forgets clients idle for more than three minutes, checking once a minute until ctx ends.
func (rl *RateLimiter) Cleanup(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.evict(time.Now().Add(-3 * time.Minute))
		}
	}
}

func (rl *RateLimiter) evict(idleSince time.Time) {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()
	for ip, v := range rl.visitors {
		if v.lastSeen.Before(idleSince) {
			delete(rl.visitors, ip)
		}
	}
}

func (rl *RateLimiter) getVisitor(ip string) *rate.Limiter {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		limiter := rate.NewLimiter(rl.rate, rl.burst)
		rl.visitors[ip] = &visitor{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.getVisitor(c.ClientIP()).Allow() {
			utils.ErrorResponse(c, http.StatusTooManyRequests, "RATE_LIMITED", "Rate limit exceeded. Please try again later.", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RateLimits groups the limiters the router applies.
type RateLimits struct {
	General *RateLimiter
	Auth    *RateLimiter
	Upload  *RateLimiter
}

// DefaultRateLimits: 10 req/s overall, 5 auth attempts and 10 uploads per minute, per IP.
func DefaultRateLimits() RateLimits {
	return RateLimits{
		General: NewRateLimiter(rate.Every(100*time.Millisecond), 20),
		Auth:    NewRateLimiter(rate.Every(12*time.Second), 5),
		Upload:  NewRateLimiter(rate.Every(6*time.Second), 10),
	}
}

// Unlimited disables rate limiting, for tests and trusted deployments.
func Unlimited() RateLimits {
	return RateLimits{
		General: NewRateLimiter(rate.Inf, 1),
		Auth:    NewRateLimiter(rate.Inf, 1),
		Upload:  NewRateLimiter(rate.Inf, 1),
	}
}

// Cleanup runs visitor eviction for every limiter until ctx ends.
func (r RateLimits) Cleanup(ctx context.Context) {
	for _, rl := range []*RateLimiter{r.General, r.Auth, r.Upload} {
		go rl.Cleanup(ctx)
	}
}
