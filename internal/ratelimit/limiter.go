package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"form-shield/internal/submission"
)

const DefaultIdleTTL = 10 * time.Minute

type client struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps one token bucket per client key. Buckets idle for longer
// than the idle TTL are evicted on the next sweep.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*client

	limit rate.Limit
	burst int
	idle  time.Duration
	clock func() time.Time

	lastSweep time.Time
}

// PerMinute allows n requests per minute with a burst of n.
func PerMinute(n int) *Limiter {
	if n <= 0 {
		n = 60
	}
	return New(rate.Every(time.Minute/time.Duration(n)), n)
}

func New(limit rate.Limit, burst int) *Limiter {
	return &Limiter{
		clients: map[string]*client{},
		limit:   limit,
		burst:   burst,
		idle:    DefaultIdleTTL,
		clock:   time.Now,
	}
}

// Allow consumes one token for key.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if now.Sub(l.lastSweep) >= l.idle {
		l.sweep(now)
		l.lastSweep = now
	}

	c, ok := l.clients[key]
	if !ok {
		c = &client{lim: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	return c.lim.AllowN(now, 1)
}

func (l *Limiter) sweep(now time.Time) {
	for k, c := range l.clients {
		if now.Sub(c.lastSeen) > l.idle {
			delete(l.clients, k)
		}
	}
}

// Len is the number of tracked clients.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Middleware rejects requests over budget with 429, keyed by client IP.
func Middleware(l *Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := submission.ClientIP(c.Request)
		if key == "" {
			key = "unknown"
		}
		if !l.Allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
