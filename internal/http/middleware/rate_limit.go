package middleware

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tixhive/auth-api/internal/http/response"
)

// RateLimitConfig defines fixed-window limiting parameters.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	// KeyFunc derives the limit keys for a request; defaults to client IP.
	KeyFunc func(r *http.Request) []string
}

// RateLimiter counts requests per key in redis. Redis failures fail open:
// losing the limiter must not take the auth endpoints with it.
type RateLimiter struct {
	rdb    redis.Cmdable
	config RateLimitConfig
}

func NewRateLimiter(rdb redis.Cmdable, config RateLimitConfig) *RateLimiter {
	if config.KeyFunc == nil {
		config.KeyFunc = ClientIPKeyFunc
	}
	return &RateLimiter{rdb: rdb, config: config}
}

func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, key := range rl.config.KeyFunc(r) {
				if !rl.allow(r.Context(), key) {
					response.RateLimit(w, "too many requests, try again later")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) allow(ctx context.Context, key string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	// Keys are hashed so raw IPs and phone numbers never land in redis.
	hashed := fmt.Sprintf("ratelimit:%x", sha256.Sum256([]byte(key)))

	count, err := rl.rdb.Incr(ctx, hashed).Result()
	if err != nil {
		return true
	}
	if count == 1 {
		if err := rl.rdb.Expire(ctx, hashed, rl.config.Window).Err(); err != nil {
			return true
		}
	}
	return count <= int64(rl.config.Requests)
}

// ClientIPKeyFunc limits by client IP, honoring proxy headers.
func ClientIPKeyFunc(r *http.Request) []string {
	if ip := clientIP(r); ip != "" {
		return []string{"ip:" + ip}
	}
	return nil
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
