package ratelimit

import "time"

// Tier is a named access class determining quota.
type Tier string

const (
	TierLoggedOut Tier = "logged-out"
	TierFree      Tier = "free"
	TierPaid      Tier = "paid"
	TierAdmin     Tier = "admin"
)

// Unlimited marks a quota with no request cap.
const Unlimited int64 = -1

// Quota bounds admitted requests per key per window.
type Quota struct {
	Limit  int64
	Window time.Duration
}

// Unbounded reports whether the quota has no cap.
func (q Quota) Unbounded() bool {
	return q.Limit == Unlimited
}

// QuotaFor returns the fixed quota table entry for a tier. The table is
// ascending: logged-out is the most restrictive, admin is unbounded and
// never consults a counter.
func QuotaFor(tier Tier) Quota {
	switch tier {
	case TierAdmin:
		return Quota{Limit: Unlimited}
	case TierPaid:
		return Quota{Limit: 1000, Window: time.Hour}
	case TierFree:
		return Quota{Limit: 250, Window: time.Hour}
	default:
		return Quota{Limit: 50, Window: time.Hour}
	}
}
