// Package middleware holds the storefront's HTTP middleware.
package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shashiranjanraj/storefront/pkg/cache"
	"github.com/shashiranjanraj/storefront/pkg/response"
)

// bucket is a fixed-window counter for one client.
type bucket struct {
	mu      sync.Mutex
	count   int
	resetAt time.Time
}

func (b *bucket) allow(max int, window time.Duration) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	if now.After(b.resetAt) {
		b.count = 0
		b.resetAt = now.Add(window)
	}

	b.count++
	return b.count <= max
}

type limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	window  time.Duration
}

func newLimiter(window time.Duration) *limiter {
	l := &limiter{buckets: map[string]*bucket{}, window: window}
	go l.evict()
	return l
}

func (l *limiter) evict() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		now := time.Now()
		l.mu.Lock()
		for key, b := range l.buckets {
			b.mu.Lock()
			expired := now.After(b.resetAt)
			b.mu.Unlock()
			if expired {
				delete(l.buckets, key)
			}
		}
		l.mu.Unlock()
	}
}

func (l *limiter) get(key string) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	if b, ok := l.buckets[key]; ok {
		return b
	}
	b := &bucket{resetAt: time.Now().Add(l.window)}
	l.buckets[key] = b
	return b
}

// allowRedis shares the window across replicas. ok is false when Redis is
// unavailable or errors, and the caller falls back to the local bucket.
func allowRedis(key string, max int, window time.Duration) (allowed, ok bool) {
	if !cache.Available() {
		return false, false
	}
	slot := time.Now().UnixNano() / int64(window)
	k := fmt.Sprintf("ratelimit:%s:%d", key, slot)

	pipe := cache.RDB.TxPipeline()
	incr := pipe.Incr(cache.Ctx, k)
	pipe.Expire(cache.Ctx, k, window)
	if _, err := pipe.Exec(cache.Ctx); err != nil {
		return false, false
	}
	return incr.Val() <= int64(max), true
}

// RateLimit limits each client IP to max requests per window.
func RateLimit(max int, window time.Duration) func(http.Handler) http.Handler {
	local := newLimiter(window)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)

			allowed, ok := allowRedis(ip, max, window)
			if !ok {
				allowed = local.get(ip).allow(max, window)
			}
			if !allowed {
				w.Header().Set("Retry-After", fmt.Sprint(int(window.Seconds())))
				response.Error(w, http.StatusTooManyRequests, "Too Many Requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
