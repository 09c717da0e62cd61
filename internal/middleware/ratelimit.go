package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is a fixed-window counter per key.
type RateLimiter struct {
	mu       sync.Mutex
	attempts map[string]*window
	limit    int
	window   time.Duration
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

type window struct {
	count   int
	resetAt time.Time
}

func NewRateLimiter(limit int, every time.Duration) *RateLimiter {
	return NewRateLimiterWithNow(limit, every, time.Now)
}

func NewRateLimiterWithNow(limit int, every time.Duration, now func() time.Time) *RateLimiter {
	rl := &RateLimiter{
		attempts: make(map[string]*window),
		limit:    limit,
		window:   every,
		now:      now,
		stop:     make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) cleanup() {
	if rl.window <= 0 {
		return
	}

	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
		}
		rl.mu.Lock()
		now := rl.now()
		for key, w := range rl.attempts {
			if now.After(w.resetAt) {
				delete(rl.attempts, key)
			}
		}
		rl.mu.Unlock()
	}
}

func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, exists := rl.attempts[key]
	if !exists || now.After(w.resetAt) {
		rl.attempts[key] = &window{count: 1, resetAt: now.Add(rl.window)}
		return true
	}

	if w.count >= rl.limit {
		return false
	}

	w.count++
	return true
}

// LoginAttemptKey groups login attempts by client address and the username
// being tried, so one noisy client cannot lock everybody out.
func LoginAttemptKey(c *gin.Context) string {
	return c.ClientIP() + "|" + c.PostForm("username")
}

func RateLimitMiddleware(rl *RateLimiter, key func(*gin.Context) string) gin.HandlerFunc {
	if key == nil {
		key = func(c *gin.Context) string { return c.ClientIP() }
	}
	return func(c *gin.Context) {
		if !rl.Allow(key(c)) {
			AbortWithError(c, http.StatusTooManyRequests, "Too many login attempts", "")
			return
		}
		c.Next()
	}
}
