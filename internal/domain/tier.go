// Package domain provides core domain models and types.
package domain

import "strings"

// Tier represents a subscription plan level
type Tier string

const (
	// TierStarter is the free plan with account-only context
	TierStarter Tier = "starter"
	// TierStandard adds economic indicator context
	TierStandard Tier = "standard"
	// TierPremium adds live market data and scenario planning
	TierPremium Tier = "premium"
)

// ParseTier normalizes a raw plan string to a known tier.
// Unknown or empty values map to TierStarter so a malformed plan
// can never unlock paid data.
func ParseTier(raw string) Tier {
	switch Tier(strings.ToLower(strings.TrimSpace(raw))) {
	case TierStandard:
		return TierStandard
	case TierPremium:
		return TierPremium
	default:
		return TierStarter
	}
}

// AllTiers returns the tiers in ascending order of entitlement
func AllTiers() []Tier {
	return []Tier{TierStarter, TierStandard, TierPremium}
}

// Rank returns the tier's position on the upgrade ladder (starter = 0)
func (t Tier) Rank() int {
	switch t {
	case TierPremium:
		return 2
	case TierStandard:
		return 1
	default:
		return 0
	}
}

// Next returns the next tier up the ladder.
// The second return is false when the tier is already the highest.
func (t Tier) Next() (Tier, bool) {
	switch t {
	case TierStarter:
		return TierStandard, true
	case TierStandard:
		return TierPremium, true
	default:
		return t, false
	}
}

// DisplayName returns the capitalized plan name for user-facing text
func (t Tier) DisplayName() string {
	switch t {
	case TierStandard:
		return "Standard"
	case TierPremium:
		return "Premium"
	default:
		return "Starter"
	}
}

// Mode distinguishes the fixed-data sandbox from the live data path.
// It partitions caches only and never affects entitlements.
type Mode string

const (
	// ModeDemo is the fixed-data sandbox mode
	ModeDemo Mode = "demo"
	// ModeLive is the normal live-provider path
	ModeLive Mode = "live"
)

// ParseMode normalizes a raw mode string. Unknown values map to ModeLive.
func ParseMode(raw string) Mode {
	if Mode(strings.ToLower(strings.TrimSpace(raw))) == ModeDemo {
		return ModeDemo
	}
	return ModeLive
}

// AllModes returns both data modes
func AllModes() []Mode {
	return []Mode{ModeDemo, ModeLive}
}

// Access represents the data capabilities a tier unlocks
type Access struct {
	EconomicContext  bool `json:"has_economic_context"`
	LiveData         bool `json:"has_live_data"`
	ScenarioPlanning bool `json:"has_scenario_planning"`
}

// AccessForTier returns the capability set for the given tier.
// Capabilities are monotonic: each tier keeps everything below it.
func AccessForTier(t Tier) Access {
	switch t {
	case TierPremium:
		return Access{EconomicContext: true, LiveData: true, ScenarioPlanning: true}
	case TierStandard:
		return Access{EconomicContext: true}
	default:
		return Access{}
	}
}
