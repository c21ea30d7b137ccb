package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"adminpanel/internal/core/apperror"
)

// RateLimitConfig configures the per-client token bucket.
type RateLimitConfig struct {
	PerSecond float64
	Burst     int
	// IdleTTL evicts buckets of clients that have been quiet this long.
	IdleTTL time.Duration
}

// RejectCounter counts rejected requests by route.
type RejectCounter interface {
	Reject(path string)
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// ClientLimiter keeps one token bucket per client IP.
type ClientLimiter struct {
	cfg     RateLimitConfig
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

// NewClientLimiter creates a limiter. Call Sweep periodically to evict idle
// clients.
func NewClientLimiter(cfg RateLimitConfig) *ClientLimiter {
	if cfg.PerSecond <= 0 {
		cfg.PerSecond = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 5 * time.Minute
	}
	return &ClientLimiter{cfg: cfg, buckets: make(map[string]*bucket), now: time.Now}
}

// Allow consumes a token for key.
func (l *ClientLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rate.Limit(l.cfg.PerSecond), l.cfg.Burst)}
		l.buckets[key] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1)
}

// Sweep drops buckets idle for longer than IdleTTL and returns how many remain.
func (l *ClientLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.cfg.IdleTTL)
	for k, b := range l.buckets {
		if b.seen.Before(cutoff) {
			delete(l.buckets, k)
		}
	}
	return len(l.buckets)
}

// RateLimit rejects clients that exceed the limiter with 429. rejects may be nil.
func RateLimit(l *ClientLimiter, rejects RejectCounter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !l.Allow(ip) {
			if rejects != nil {
				rejects.Reject(c.FullPath())
			}
			_ = c.Error(apperror.NewTooManyRequests())
			c.Abort()
			return
		}
		c.Next()
	}
}
