// internal/gateway/guest.go
package gateway

import (
	"context"
	"net/http"

	"github.com/Anthony4834/fmr-edge/internal/activity"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GuestCookie carries the durable pseudonymous id for unauthenticated,
// non-automated callers.
const GuestCookie = "guest_id"

// Sentinel ids shared by all script and all bot traffic, so automation
// cannot inflate unique-guest counts or fragment into thousands of buckets.
const (
	ScriptGuestID = "00000000-0000-4000-a000-000000000001"
	BotGuestID    = "00000000-0000-4000-a000-000000000002"
)

const guestCookieMaxAge = 365 * 24 * 60 * 60 // 1 year

// GuestManager issues and persists guest identities.
type GuestManager struct {
	tracker *activity.Tracker
	logger  *zap.Logger
}

// NewGuestManager creates a guest manager. tracker may be nil when no
// activity store is configured; recording then becomes a no-op.
func NewGuestManager(tracker *activity.Tracker, logger *zap.Logger) *GuestManager {
	return &GuestManager{tracker: tracker, logger: logger}
}

// EnsureGuestID returns the guest id for this request, minting one when an
// ordinary caller arrives without a valid cookie. Script and bot traffic
// always resolve to their fixed sentinels. The cookie is (re-)stamped in
// every case.
func (g *GuestManager) EnsureGuestID(w http.ResponseWriter, r *http.Request, class Classification) (guestID string, isNew bool) {
	switch class {
	case ClassScript:
		guestID = ScriptGuestID
	case ClassBot:
		guestID = BotGuestID
	default:
		if cookie, err := r.Cookie(GuestCookie); err == nil && isUUIDv4(cookie.Value) {
			guestID = cookie.Value
		} else {
			guestID = uuid.NewString()
			isNew = true
			g.logger.Debug("minted guest id", zap.String("guest_id", guestID))
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     GuestCookie,
		Value:    guestID,
		Path:     "/",
		MaxAge:   guestCookieMaxAge,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	return guestID, isNew
}

// RecordGuestActivity schedules a best-effort activity write for a guest.
// Bot traffic is excluded from guest analytics entirely. Never blocks the
// request path.
func (g *GuestManager) RecordGuestActivity(r *http.Request, guestID string, wasLimited bool, class Classification) {
	if g.tracker == nil || class == ClassBot {
		return
	}

	ip := ClientIP(r)
	userAgent := r.Header.Get("User-Agent")
	g.tracker.Dispatch(func(ctx context.Context) error {
		return g.tracker.RecordGuestActivity(ctx, guestID, ip, userAgent, wasLimited)
	})
}

// RecordUserActivity schedules a best-effort last-seen write for an
// authenticated user.
func (g *GuestManager) RecordUserActivity(userID string) {
	if g.tracker == nil {
		return
	}

	g.tracker.Dispatch(func(ctx context.Context) error {
		return g.tracker.RecordUserActivity(ctx, userID)
	})
}

// isUUIDv4 reports whether s is a textual UUIDv4, the only shape we accept
// from inbound guest cookies.
func isUUIDv4(s string) bool {
	id, err := uuid.Parse(s)
	if err != nil || len(s) != 36 {
		return false
	}
	return id.Version() == 4
}
