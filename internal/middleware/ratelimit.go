package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// idleBucketTTL is how long an unused client bucket is kept.
const idleBucketTTL = 10 * time.Minute

// bucket is a token bucket. Tokens are fractional so a slow refill still accrues.
type bucket struct {
	tokens   float64
	updated  time.Time
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client key.
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	capacity float64
	perSec   float64
	now      func() time.Time
}

func NewRateLimiter(capacity, refillPerSec int) *RateLimiter {
	return &RateLimiter{
		buckets:  make(map[string]*bucket),
		capacity: float64(capacity),
		perSec:   float64(refillPerSec),
		now:      time.Now,
	}
}

// Allow takes one token from key's bucket. When the bucket is empty it returns false
// and the wait until the next token.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: rl.capacity, updated: now}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	if rl.perSec > 0 {
		b.tokens = math.Min(rl.capacity, b.tokens+now.Sub(b.updated).Seconds()*rl.perSec)
	}
	b.updated = now

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	if rl.perSec <= 0 {
		return false, time.Minute
	}
	return false, time.Duration((1 - b.tokens) / rl.perSec * float64(time.Second))
}

// sweep drops buckets idle for longer than idleBucketTTL.
func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-idleBucketTTL)
	for k, b := range rl.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(rl.buckets, k)
		}
	}
}

// RateLimitMiddleware limits each client key + IP to capacity requests in a burst,
// refilled at refillPerSec tokens per second. Public paths are not counted.
func RateLimitMiddleware(capacity, refillPerSec int) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(capacity, refillPerSec)
	go func() {
		for range time.Tick(idleBucketTTL / 2) {
			limiter.sweep()
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			ok, wait := limiter.Allow(GetClientFromContext(r.Context()) + ":" + clientIP(r))
			if !ok {
				secs := int(math.Ceil(wait.Seconds()))
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				http.Error(w, "rate limit exceeded, please try again later", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port from RemoteAddr so reconnects share a bucket.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
