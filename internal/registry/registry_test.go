package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hartfield/compass/internal/domain"
)

// Every source available to a tier must stay available to all higher tiers.
func TestCatalog_AvailabilityIsMonotonic(t *testing.T) {
	tiers := domain.AllTiers()
	for _, cfg := range All() {
		for i := 1; i < len(tiers); i++ {
			if cfg.Allows(tiers[i-1]) {
				assert.True(t, cfg.Allows(tiers[i]),
					"source %s available to %s but not to %s", cfg.ID, tiers[i-1], tiers[i])
			}
		}
	}
}

// Live sources must refresh at least every 5 minutes, non-live sources
// must not churn that fast.
func TestCatalog_LiveTTLBounds(t *testing.T) {
	for _, cfg := range All() {
		if cfg.Live {
			assert.LessOrEqual(t, cfg.CacheTTL, 5*time.Minute, "live source %s has a slow TTL", cfg.ID)
		} else {
			assert.Greater(t, cfg.CacheTTL, 5*time.Minute, "stable source %s has a live-style TTL", cfg.ID)
		}
	}
}

func TestSourcesForTier(t *testing.T) {
	tests := []struct {
		name        string
		tier        domain.Tier
		expectedIDs []string
	}{
		{
			name:        "starter gets account sources only",
			tier:        domain.TierStarter,
			expectedIDs: []string{"account_snapshot", "transaction_history"},
		},
		{
			name:        "standard adds economic sources",
			tier:        domain.TierStandard,
			expectedIDs: []string{"account_snapshot", "transaction_history", "economic_indicators", "mortgage_benchmarks"},
		},
		{
			name:        "premium gets everything",
			tier:        domain.TierPremium,
			expectedIDs: []string{"account_snapshot", "transaction_history", "economic_indicators", "mortgage_benchmarks", "live_market_rates", "treasury_yield_curve"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sources := SourcesForTier(tt.tier)
			ids := make([]string, len(sources))
			for i, cfg := range sources {
				ids[i] = cfg.ID
			}
			assert.Equal(t, tt.expectedIDs, ids)
		})
	}
}

func TestAvailableAndUnavailablePartitionCatalog(t *testing.T) {
	for _, tier := range domain.AllTiers() {
		available := SourcesForTier(tier)
		unavailable := UnavailableForTier(tier)
		assert.Equal(t, len(All()), len(available)+len(unavailable), "tier %s", tier)

		for _, cfg := range unavailable {
			assert.False(t, cfg.Allows(tier))
		}
	}
}

func TestUpgradeSuggestions(t *testing.T) {
	starter := UpgradeSuggestions(domain.TierStarter)
	require.NotEmpty(t, starter)
	assert.Contains(t, starter[0], "Standard")

	standard := UpgradeSuggestions(domain.TierStandard)
	require.NotEmpty(t, standard)
	assert.Contains(t, standard[0], "Premium")
	// Premium also unlocks scenario planning, not tied to a source.
	assert.Contains(t, standard[len(standard)-1], "scenario planning")

	assert.Empty(t, UpgradeSuggestions(domain.TierPremium))
}

func TestTierLimitations(t *testing.T) {
	assert.NotEmpty(t, TierLimitations(domain.TierStarter))
	assert.NotEmpty(t, TierLimitations(domain.TierStandard))

	premium := TierLimitations(domain.TierPremium)
	require.Len(t, premium, 1)
	assert.Equal(t, "Full access to all data sources", premium[0])
}

func TestGet(t *testing.T) {
	cfg, ok := Get("live_market_rates")
	require.True(t, ok)
	assert.Equal(t, "ratefeed", cfg.Provider)
	assert.True(t, cfg.Live)
	assert.Equal(t, CategoryExternal, cfg.Category)

	_, ok = Get("crypto_prices")
	assert.False(t, ok)
}
