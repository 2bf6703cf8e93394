package gateway

import (
	"net/http"
	"strings"
	"sync"
)

// ExtensionScheme is the browser-extension URI scheme; any origin under it
// is allowed verbatim so the extension client can call the API cross-origin.
const ExtensionScheme = "chrome-extension://"

const (
	corsAllowedMethods = "GET, POST, OPTIONS"
	corsAllowedHeaders = "Authorization, Content-Type, X-Script-Request"
	corsMaxAge         = "86400"
)

// CORSPolicy computes the allow-listed origin for each request. The parsed
// allow-list is built once on first use and only read afterwards, so it is
// safe under concurrent readers for the process lifetime.
type CORSPolicy struct {
	canonical string
	extras    []string

	once    sync.Once
	allowed map[string]struct{}
}

// NewCORSPolicy creates a policy from the deployment's canonical origin and
// the operator-configured extra origins.
func NewCORSPolicy(canonical string, extras []string) *CORSPolicy {
	return &CORSPolicy{canonical: canonical, extras: extras}
}

func (p *CORSPolicy) allowList() map[string]struct{} {
	p.once.Do(func() {
		p.allowed = make(map[string]struct{}, len(p.extras)+1)
		if origin := strings.TrimSuffix(p.canonical, "/"); origin != "" {
			p.allowed[origin] = struct{}{}
		}
		for _, extra := range p.extras {
			if origin := strings.TrimSuffix(strings.TrimSpace(extra), "/"); origin != "" {
				p.allowed[origin] = struct{}{}
			}
		}
	})
	return p.allowed
}

// AllowOrigin returns the origin to echo in Access-Control-Allow-Origin,
// or "" when the origin is not allow-listed (browsers then reject the read).
func (p *CORSPolicy) AllowOrigin(origin string) string {
	if origin == "" {
		return ""
	}
	if strings.HasPrefix(origin, ExtensionScheme) {
		return origin
	}
	if _, ok := p.allowList()[strings.TrimSuffix(origin, "/")]; ok {
		return origin
	}
	return ""
}

// Apply sets CORS response headers for a request. Runs on every request
// regardless of the gateway outcome.
func (p *CORSPolicy) Apply(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Vary", "Origin")

	if origin := p.AllowOrigin(r.Header.Get("Origin")); origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", corsAllowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", corsAllowedHeaders)
	}
}

// WritePreflight answers an OPTIONS preflight with the same decision plus a
// cache lifetime for the preflight result.
func (p *CORSPolicy) WritePreflight(w http.ResponseWriter, r *http.Request) {
	p.Apply(w, r)
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		w.Header().Set("Access-Control-Max-Age", corsMaxAge)
	}
	w.WriteHeader(http.StatusNoContent)
}
