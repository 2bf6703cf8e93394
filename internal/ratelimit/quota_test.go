package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuotaFor_Table(t *testing.T) {
	assert.True(t, QuotaFor(TierAdmin).Unbounded())

	loggedOut := QuotaFor(TierLoggedOut)
	free := QuotaFor(TierFree)
	paid := QuotaFor(TierPaid)

	assert.False(t, loggedOut.Unbounded())
	assert.Less(t, loggedOut.Limit, free.Limit, "logged-out must be the most restrictive")
	assert.Less(t, free.Limit, paid.Limit)
}

func TestQuotaFor_UnknownTierGetsMostRestrictive(t *testing.T) {
	assert.Equal(t, QuotaFor(TierLoggedOut), QuotaFor(Tier("mystery")))
}
