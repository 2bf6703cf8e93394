package ratelimit

import (
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetHeaders_Bounded(t *testing.T) {
	w := httptest.NewRecorder()
	reset := time.Now().Add(30 * time.Second)

	SetHeaders(w, Decision{Allowed: true, Limit: 50, Remaining: 12, ResetAt: reset})

	assert.Equal(t, "50", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "12", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, strconv.FormatInt(reset.UnixMilli(), 10), w.Header().Get("X-RateLimit-Reset"))
}

func TestSetHeaders_Unlimited(t *testing.T) {
	w := httptest.NewRecorder()

	SetHeaders(w, Decision{Allowed: true, Limit: Unlimited, Remaining: Unlimited})

	assert.Equal(t, "unlimited", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "unlimited", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "unlimited", w.Header().Get("X-RateLimit-Reset"))
}

func TestWriteRejection(t *testing.T) {
	w := httptest.NewRecorder()
	d := Decision{Allowed: false, Limit: 50, Remaining: 0, ResetAt: time.Now().Add(45 * time.Second)}

	WriteRejection(w, d)

	assert.Equal(t, 429, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	retryAfter, err := strconv.Atoi(w.Header().Get("Retry-After"))
	assert.NoError(t, err)
	assert.InDelta(t, 45, retryAfter, 1, "Retry-After must be within 1s of the reset time")
	assert.Contains(t, w.Body.String(), `"error":"rate_limited"`)
	assert.NotContains(t, w.Body.String(), "redis", "no internal detail in rejections")
}

func TestRetryAfter_NeverBelowOneSecond(t *testing.T) {
	d := Decision{ResetAt: time.Now().Add(-time.Second)}
	assert.Equal(t, 1, d.RetryAfter(time.Now()))
}
