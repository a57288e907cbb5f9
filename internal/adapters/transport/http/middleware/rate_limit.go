package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// NewHTTPRateLimitPerIP limits requests per client IP with a token bucket kept in an expirable LRU.
// A visitor idle for ttl starts over with a full bucket.
func NewHTTPRateLimitPerIP(limit, burst, cacheSize int, ttl time.Duration) gin.HandlerFunc {
	visitors := expirable.NewLRU[string, *rate.Limiter](cacheSize, nil, ttl)
	var mu sync.Mutex

	return func(c *gin.Context) {
		host := c.ClientIP()

		mu.Lock()
		lim, ok := visitors.Get(host)
		if !ok {
			lim = rate.NewLimiter(rate.Limit(limit), burst)
		}
		visitors.Add(host, lim)
		mu.Unlock()

		if !lim.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// WindowLimiter counts hits per key within a fixed window.
type WindowLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// MemoryWindow is the single-instance WindowLimiter used when no Redis is configured.
type MemoryWindow struct {
	mu     sync.Mutex
	limit  int
	counts *expirable.LRU[string, *windowCount]
}

// added once per window so the entry expires a fixed time after the first hit
type windowCount struct {
	n int
}

func NewMemoryWindow(limit int, window time.Duration, cacheSize int) *MemoryWindow {
	return &MemoryWindow{
		limit:  limit,
		counts: expirable.NewLRU[string, *windowCount](cacheSize, nil, window),
	}
}

func (m *MemoryWindow) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	wc, ok := m.counts.Get(key)
	if !ok {
		wc = &windowCount{}
		m.counts.Add(key, wc)
	}
	wc.n++
	return wc.n <= m.limit, nil
}

// LimitAuth applies a WindowLimiter keyed by client IP and route.
// A failing limiter lets the request through.
func LimitAuth(l WindowLimiter, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := l.Allow(c.Request.Context(), c.FullPath()+"|"+c.ClientIP())
		if err != nil {
			log.Warn("auth rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many attempts"})
			return
		}
		c.Next()
	}
}
