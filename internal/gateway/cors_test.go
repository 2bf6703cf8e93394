package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORSPolicy_ExtensionAlwaysAllowed(t *testing.T) {
	p := NewCORSPolicy("https://fmr.example.com", nil)

	origin := "chrome-extension://abcdefghijklmnop"
	assert.Equal(t, origin, p.AllowOrigin(origin))
}

func TestCORSPolicy_CanonicalOrigin(t *testing.T) {
	p := NewCORSPolicy("https://fmr.example.com", nil)

	assert.Equal(t, "https://fmr.example.com", p.AllowOrigin("https://fmr.example.com"))
}

func TestCORSPolicy_ExtraOrigins(t *testing.T) {
	p := NewCORSPolicy("https://fmr.example.com", []string{"https://staging.fmr.example.com"})

	assert.Equal(t, "https://staging.fmr.example.com", p.AllowOrigin("https://staging.fmr.example.com"))
}

func TestCORSPolicy_UnlistedOriginDenied(t *testing.T) {
	p := NewCORSPolicy("https://fmr.example.com", []string{"https://staging.fmr.example.com"})

	assert.Empty(t, p.AllowOrigin("https://evil.example.com"))
	assert.Empty(t, p.AllowOrigin("https://fmr.example.com.evil.com"))
	assert.Empty(t, p.AllowOrigin(""))
}

func TestCORSPolicy_Apply(t *testing.T) {
	p := NewCORSPolicy("https://fmr.example.com", nil)

	t.Run("allowed origin gets headers", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/fmr", nil)
		req.Header.Set("Origin", "https://fmr.example.com")
		w := httptest.NewRecorder()

		p.Apply(w, req)

		assert.Equal(t, "https://fmr.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Methods"))
		assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Headers"))
		assert.Equal(t, "Origin", w.Header().Get("Vary"))
	})

	t.Run("unlisted origin gets no allow header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/fmr", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := httptest.NewRecorder()

		p.Apply(w, req)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "Origin", w.Header().Get("Vary"))
	})
}

func TestCORSPolicy_WritePreflight(t *testing.T) {
	p := NewCORSPolicy("https://fmr.example.com", nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/fmr", nil)
	req.Header.Set("Origin", "chrome-extension://anyid")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()

	p.WritePreflight(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "chrome-extension://anyid", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
}

func TestCORSPolicy_TrailingSlashNormalized(t *testing.T) {
	p := NewCORSPolicy("https://fmr.example.com/", nil)

	assert.Equal(t, "https://fmr.example.com", p.AllowOrigin("https://fmr.example.com"))
}
