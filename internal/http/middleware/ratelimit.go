package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimiter throttles callers per IP with a token bucket. The public quote
// endpoint takes anonymous traffic, so each source IP gets its own bucket.
type RateLimiter struct {
	mu      sync.Mutex
	visits  map[string]*tokenBucket
	refill  float64 // tokens per second
	burst   float64
	nowFunc func() time.Time
}

type tokenBucket struct {
	tokens float64
	seen   time.Time
}

// NewRateLimiter creates a limiter allowing refill requests/sec with the
// given burst per IP. Idle buckets are evicted in the background.
func NewRateLimiter(refill float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		visits:  make(map[string]*tokenBucket),
		refill:  refill,
		burst:   float64(burst),
		nowFunc: time.Now,
	}
	go rl.evictLoop()
	return rl
}

// Allow reports whether a request from ip fits the budget, consuming one
// token when it does.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.nowFunc()
	b, ok := rl.visits[ip]
	if !ok {
		rl.visits[ip] = &tokenBucket{tokens: rl.burst - 1, seen: now}
		return true
	}

	b.tokens += now.Sub(b.seen).Seconds() * rl.refill
	if b.tokens > rl.burst {
		b.tokens = rl.burst
	}
	b.seen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (rl *RateLimiter) evictLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := rl.nowFunc().Add(-10 * time.Minute)
		rl.mu.Lock()
		for ip, b := range rl.visits {
			if b.seen.Before(cutoff) {
				delete(rl.visits, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimit rejects requests exceeding the configured rate with
// 429 Too Many Requests and a Retry-After hint.
func RateLimit(refill float64, burst int) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(refill, burst)
	retryAfter := "1"
	if refill > 0 && refill < 1 {
		retryAfter = strconv.Itoa(int(1 / refill))
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := r.RemoteAddr
			// chi's RealIP middleware rewrites RemoteAddr, but keep the
			// header fallback for setups that run without it.
			if xri := r.Header.Get("X-Real-Ip"); xri != "" {
				ip = xri
			}
			if !limiter.Allow(ip) {
				w.Header().Set("Retry-After", retryAfter)
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
