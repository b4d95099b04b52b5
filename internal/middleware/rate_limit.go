package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/yigit/schoolbook/internal/pkg/apperrors"
)

// LoginRateLimiter counts login attempts per client IP and username in a
// fixed window
type LoginRateLimiter struct {
	attempts *cache.Cache
	limit    int
	window   time.Duration
}

// NewLoginRateLimiter allows limit attempts per window
func NewLoginRateLimiter(limit int, window time.Duration) *LoginRateLimiter {
	return &LoginRateLimiter{
		attempts: cache.New(window, 2*window),
		limit:    limit,
		window:   window,
	}
}

// Allow records one attempt for key and reports whether it is within the limit
func (l *LoginRateLimiter) Allow(key string) bool {
	if err := l.attempts.Add(key, 1, l.window); err == nil {
		return true
	}
	n, err := l.attempts.IncrementInt(key, 1)
	if err != nil {
		// expired between Add and IncrementInt
		l.attempts.Set(key, 1, l.window)
		return true
	}
	return n <= l.limit
}

// Reset forgets the attempts of key
func (l *LoginRateLimiter) Reset(key string) {
	l.attempts.Delete(key)
}

// LoginKey derives the limiter key from the request without consuming its body
func LoginKey(c *gin.Context) string {
	var body struct {
		Username string `json:"username"`
	}
	if c.Request.Body != nil {
		raw, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<16))
		if err == nil {
			_ = json.Unmarshal(raw, &body)
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(raw))
	}
	return c.ClientIP() + "|" + strings.ToLower(strings.TrimSpace(body.Username))
}

// Middleware rejects requests over the limit with 429. A successful (2xx)
// login clears the counter.
func (l *LoginRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := LoginKey(c)
		if !l.Allow(key) {
			HandleAPIError(c, apperrors.ErrTooManyRequests)
			c.Abort()
			return
		}

		c.Next()

		if c.Writer.Status() < 300 {
			l.Reset(key)
		}
	}
}
