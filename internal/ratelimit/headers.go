// internal/ratelimit/headers.go
package ratelimit

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// UnlimitedValue is the literal header value for unbounded quotas.
const UnlimitedValue = "unlimited"

// SetHeaders writes the standard rate-limit headers for a decision.
// Every gatewayed response carries all three.
func SetHeaders(w http.ResponseWriter, d Decision) {
	if d.Unbounded() {
		w.Header().Set("X-RateLimit-Limit", UnlimitedValue)
		w.Header().Set("X-RateLimit-Remaining", UnlimitedValue)
		w.Header().Set("X-RateLimit-Reset", UnlimitedValue)
		return
	}

	w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(d.Limit, 10))
	w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.UnixMilli(), 10))
}

// WriteRejection writes the generic 429 response for API-shaped routes:
// no internal detail, a Retry-After computed from the decision.
func WriteRejection(w http.ResponseWriter, d Decision) {
	retryAfter := d.RetryAfter(time.Now())
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	body := fmt.Sprintf(`{"error":"rate_limited","message":"Too many requests. Try again in %d seconds."}`, retryAfter)
	_, _ = w.Write([]byte(body))
}
