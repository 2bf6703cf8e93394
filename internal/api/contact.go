package api

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/Anthony4834/fmr-edge/internal/gateway"
	"golang.org/x/time/rate"
)

// contactRetryAfterSeconds is the fixed backoff hint for a throttled
// submission.
const contactRetryAfterSeconds = 60

// ContactLimiter throttles contact-form submissions per client IP,
// independent of the tier quotas. In-process state is acceptable here: the
// form is low-volume and a restart resetting it is harmless.
type ContactLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewContactLimiter allows 3 submissions per IP with a slow refill.
func NewContactLimiter() *ContactLimiter {
	return &ContactLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(1.0 / 60.0), // one per minute
		burst:    3,
	}
}

// Allow reports whether ip may submit now.
func (cl *ContactLimiter) Allow(ip string) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Prevent unbounded growth across many distinct IPs.
	if len(cl.limiters) >= 10000 {
		cl.limiters = make(map[string]*rate.Limiter)
	}

	limiter, exists := cl.limiters[ip]
	if !exists {
		limiter = rate.NewLimiter(cl.limit, cl.burst)
		cl.limiters[ip] = limiter
	}

	return limiter.Allow()
}

// Middleware enforces the limiter in front of the contact handler.
func (cl *ContactLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !cl.Allow(gateway.ClientIP(r)) {
			w.Header().Set("Retry-After", strconv.Itoa(contactRetryAfterSeconds))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate_limited","message":"Too many submissions. Please try again later."}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}
