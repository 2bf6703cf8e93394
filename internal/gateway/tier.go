package gateway

import "github.com/Anthony4834/fmr-edge/internal/ratelimit"

// TierFor maps a resolved identity to an access tier. Anonymous callers are
// logged-out; an admin role is unbounded regardless of tier; free_forever
// is grandfathered onto the paid quota.
func TierFor(id *Identity) ratelimit.Tier {
	if id == nil {
		return ratelimit.TierLoggedOut
	}
	if id.Role == "admin" {
		return ratelimit.TierAdmin
	}

	switch id.Tier {
	case "paid", "free_forever":
		return ratelimit.TierPaid
	default:
		return ratelimit.TierFree
	}
}
