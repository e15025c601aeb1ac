package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTier(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected Tier
	}{
		{name: "starter", raw: "starter", expected: TierStarter},
		{name: "standard", raw: "standard", expected: TierStandard},
		{name: "premium", raw: "premium", expected: TierPremium},
		{name: "uppercase", raw: "PREMIUM", expected: TierPremium},
		{name: "mixed case with spaces", raw: "  Standard ", expected: TierStandard},
		{name: "unknown plan", raw: "enterprise", expected: TierStarter},
		{name: "empty", raw: "", expected: TierStarter},
		{name: "garbage", raw: "???", expected: TierStarter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseTier(tt.raw))
		})
	}
}

func TestAccessForTier(t *testing.T) {
	tests := []struct {
		name     string
		tier     Tier
		expected Access
	}{
		{
			name:     "starter has no data capabilities",
			tier:     TierStarter,
			expected: Access{},
		},
		{
			name:     "standard unlocks economic context only",
			tier:     TierStandard,
			expected: Access{EconomicContext: true},
		},
		{
			name:     "premium unlocks everything",
			tier:     TierPremium,
			expected: Access{EconomicContext: true, LiveData: true, ScenarioPlanning: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AccessForTier(tt.tier))
		})
	}
}

// Upgrading must never remove a capability.
func TestAccessForTier_Monotonic(t *testing.T) {
	tiers := AllTiers()
	for i := 1; i < len(tiers); i++ {
		lower := AccessForTier(tiers[i-1])
		higher := AccessForTier(tiers[i])

		if lower.EconomicContext {
			assert.True(t, higher.EconomicContext, "%s lost economic context over %s", tiers[i], tiers[i-1])
		}
		if lower.LiveData {
			assert.True(t, higher.LiveData, "%s lost live data over %s", tiers[i], tiers[i-1])
		}
		if lower.ScenarioPlanning {
			assert.True(t, higher.ScenarioPlanning, "%s lost scenario planning over %s", tiers[i], tiers[i-1])
		}
	}
}

func TestTier_Next(t *testing.T) {
	next, ok := TierStarter.Next()
	assert.True(t, ok)
	assert.Equal(t, TierStandard, next)

	next, ok = TierStandard.Next()
	assert.True(t, ok)
	assert.Equal(t, TierPremium, next)

	_, ok = TierPremium.Next()
	assert.False(t, ok)
}

func TestTier_Rank(t *testing.T) {
	assert.Less(t, TierStarter.Rank(), TierStandard.Rank())
	assert.Less(t, TierStandard.Rank(), TierPremium.Rank())
}

func TestTier_DisplayName(t *testing.T) {
	assert.Equal(t, "Starter", TierStarter.DisplayName())
	assert.Equal(t, "Standard", TierStandard.DisplayName())
	assert.Equal(t, "Premium", TierPremium.DisplayName())
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModeDemo, ParseMode("demo"))
	assert.Equal(t, ModeDemo, ParseMode(" DEMO "))
	assert.Equal(t, ModeLive, ParseMode("live"))
	assert.Equal(t, ModeLive, ParseMode(""))
	assert.Equal(t, ModeLive, ParseMode("production"))
}
