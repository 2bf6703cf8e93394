// internal/gateway/gateway.go
package gateway

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Anthony4834/fmr-edge/internal/activity"
	"github.com/Anthony4834/fmr-edge/internal/auth"
	"github.com/Anthony4834/fmr-edge/internal/ratelimit"
	"go.uber.org/zap"
)

// RateLimitedFlag marks a page redirect issued after a quota rejection.
// Requests already carrying it are never re-checked (loop prevention).
const (
	RateLimitedFlag     = "rate_limited"
	RateLimitResetParam = "reset"
)

// Config wires the gateway's policy surface.
type Config struct {
	// Secret verifies session cookies and extension bearer tokens.
	Secret string
	// CanonicalOrigin and ExtraOrigins feed the CORS allow-list.
	CanonicalOrigin string
	ExtraOrigins    []string
	// BypassPrefixes skip tier resolution and rate limiting entirely:
	// health/cron internals, the auth endpoints (own limiter), the contact
	// form (own limiter), and analytics endpoints.
	BypassPrefixes []string
	// AnalyticsPrefixes are bypass routes that still stamp a guest id for
	// anonymous callers.
	AnalyticsPrefixes []string
	// HomePath is the redirect destination for page-route rejections.
	HomePath string
}

func defaultBypassPrefixes() []string {
	return []string{
		"/health", "/ready", "/version", "/metrics",
		"/api/cron/", "/api/auth/", "/api/contact", "/api/track",
	}
}

// Gateway is the edge middleware run in front of every request. It never
// fails closed: any internal defect degrades to "admitted, no limit data".
type Gateway struct {
	logger     *zap.Logger
	identities *IdentityResolver
	guests     *GuestManager
	limiter    *ratelimit.Limiter
	cors       *CORSPolicy
	metrics    *Metrics

	bypassPrefixes    []string
	analyticsPrefixes []string
	homePath          string
}

// New assembles a gateway from its collaborators.
func New(cfg Config, limiter *ratelimit.Limiter, tracker *activity.Tracker, logger *zap.Logger) *Gateway {
	if cfg.BypassPrefixes == nil {
		cfg.BypassPrefixes = defaultBypassPrefixes()
	}
	if cfg.AnalyticsPrefixes == nil {
		cfg.AnalyticsPrefixes = []string{"/api/track"}
	}
	if cfg.HomePath == "" {
		cfg.HomePath = "/"
	}

	return &Gateway{
		logger:            logger,
		identities:        NewIdentityResolver(auth.NewVerifier(cfg.Secret)),
		guests:            NewGuestManager(tracker, logger),
		limiter:           limiter,
		cors:              NewCORSPolicy(cfg.CanonicalOrigin, cfg.ExtraOrigins),
		metrics:           NewMetrics(),
		bypassPrefixes:    cfg.BypassPrefixes,
		analyticsPrefixes: cfg.AnalyticsPrefixes,
		homePath:          cfg.HomePath,
	}
}

// Middleware wraps a handler with the full gateway pipeline.
func (g *Gateway) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.admit(w, r) {
			next.ServeHTTP(w, r)
		}
	})
}

// admit runs the pipeline and reports whether the request proceeds
// downstream. The whole pipeline sits behind one recover boundary: an
// unanticipated defect anywhere converts to an admitted request with CORS
// headers still applied.
func (g *Gateway) admit(w http.ResponseWriter, r *http.Request) (proceed bool) {
	defer func() {
		if rec := recover(); rec != nil {
			g.logger.Error("gateway panic, failing open",
				zap.Any("panic", rec),
				zap.String("path", r.URL.Path))
			g.cors.Apply(w, r)
			g.metrics.FailOpensTotal.Inc()
			g.metrics.RequestsTotal.WithLabelValues(OutcomeFailOpen).Inc()
			proceed = true
		}
	}()

	if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
		g.cors.WritePreflight(w, r)
		return false
	}

	g.cors.Apply(w, r)

	path := r.URL.Path
	if g.isBypass(path) {
		if g.isAnalytics(path) {
			// Analytics beacons still get a guest id stamped for anonymous
			// ordinary callers, but are never rate limited.
			if class := Classify(r.Header); class == ClassOrdinary && g.identities.Resolve(r) == nil {
				g.guests.EnsureGuestID(w, r, class)
			}
		}
		ratelimit.SetHeaders(w, unboundedDecision())
		g.metrics.RequestsTotal.WithLabelValues(OutcomeBypassed).Inc()
		return true
	}

	class := Classify(r.Header)
	g.metrics.ClassificationsTotal.WithLabelValues(class.String()).Inc()

	switch class {
	case ClassBot:
		// Crawler traffic is never throttled and never appears in guest
		// analytics; the shared sentinel cookie is re-stamped and that is all.
		g.guests.EnsureGuestID(w, r, class)
		g.metrics.RequestsTotal.WithLabelValues(OutcomeAdmitted).Inc()
		return true

	case ClassScript:
		guestID, _ := g.guests.EnsureGuestID(w, r, class)
		g.guests.RecordGuestActivity(r, guestID, false, class)
		ratelimit.SetHeaders(w, unboundedDecision())
		g.metrics.RequestsTotal.WithLabelValues(OutcomeAdmitted).Inc()
		return true
	}

	identity := g.identities.Resolve(r)
	tier := TierFor(identity)
	quota := ratelimit.QuotaFor(tier)

	var key, guestID string
	if identity != nil {
		key = identity.UserID
	} else {
		guestID, _ = g.guests.EnsureGuestID(w, r, class)
		key = guestID
	}

	// A page already redirected for exceeding its quota is not re-checked.
	if !isAPIRoute(path) && r.URL.Query().Get(RateLimitedFlag) == "1" {
		ratelimit.SetHeaders(w, ratelimit.Decision{
			Allowed:   true,
			Limit:     quota.Limit,
			Remaining: quota.Limit,
			ResetAt:   time.Now().Add(quota.Window),
		})
		g.metrics.RequestsTotal.WithLabelValues(OutcomeAdmitted).Inc()
		return true
	}

	start := time.Now()
	decision, err := g.limiter.Check(r.Context(), tier, key, quota)
	g.metrics.LimiterLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		g.metrics.FailOpensTotal.Inc()
	}

	ratelimit.SetHeaders(w, decision)

	if identity != nil {
		g.guests.RecordUserActivity(identity.UserID)
	} else {
		g.guests.RecordGuestActivity(r, guestID, !decision.Allowed, class)
	}

	if !decision.Allowed {
		g.metrics.RequestsTotal.WithLabelValues(OutcomeRejected).Inc()
		if isAPIRoute(path) {
			ratelimit.WriteRejection(w, decision)
		} else {
			g.redirectRateLimited(w, r, decision)
		}
		return false
	}

	g.metrics.RequestsTotal.WithLabelValues(OutcomeAdmitted).Inc()
	return true
}

// redirectRateLimited sends a browsing human back to the home page with a
// rate-limit flag instead of a raw 429 error page.
func (g *Gateway) redirectRateLimited(w http.ResponseWriter, r *http.Request, d ratelimit.Decision) {
	dest := g.homePath + "?" + url.Values{
		RateLimitedFlag:     {"1"},
		RateLimitResetParam: {strconv.FormatInt(d.ResetAt.UnixMilli(), 10)},
	}.Encode()

	http.Redirect(w, r, dest, http.StatusFound)
}

func (g *Gateway) isBypass(path string) bool {
	for _, prefix := range g.bypassPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (g *Gateway) isAnalytics(path string) bool {
	for _, prefix := range g.analyticsPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func isAPIRoute(path string) bool {
	return strings.HasPrefix(path, "/api/")
}

// unboundedDecision is the header payload for admitted responses that never
// consult a quota: bypass routes and script traffic. Bot responses carry no
// quota headers at all.
func unboundedDecision() ratelimit.Decision {
	return ratelimit.Decision{Allowed: true, Limit: ratelimit.Unlimited, Remaining: ratelimit.Unlimited}
}
