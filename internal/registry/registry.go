// Package registry catalogs the data sources behind the market context
// and which subscription tiers may use each one. The catalog is static
// configuration data, there is no I/O here.
package registry

import (
	"fmt"
	"time"

	"github.com/hartfield/compass/internal/domain"
)

// Category groups data sources by origin
type Category string

const (
	// CategoryAccount covers data from the member's linked accounts
	CategoryAccount Category = "account"
	// CategoryEconomic covers published economic indicator series
	CategoryEconomic Category = "economic"
	// CategoryExternal covers third-party live market feeds
	CategoryExternal Category = "external"
)

// SourceConfig describes one data source and its availability
type SourceConfig struct {
	ID          string
	Name        string
	Description string
	Category    Category
	Provider    string        // upstream provider identifier
	Tiers       []domain.Tier // tiers permitted to use the source
	CacheTTL    time.Duration
	Live        bool // live sources carry short TTLs, at most 5 minutes
}

// catalog is ordered from cheapest to most premium source. Availability
// is monotonic: every source available to a tier stays available to all
// higher tiers.
var catalog = []SourceConfig{
	{
		ID:          "account_snapshot",
		Name:        "Account Snapshot",
		Description: "Balances and holdings from your linked accounts",
		Category:    CategoryAccount,
		Provider:    "ledgerlink",
		Tiers:       []domain.Tier{domain.TierStarter, domain.TierStandard, domain.TierPremium},
		CacheTTL:    time.Hour,
	},
	{
		ID:          "transaction_history",
		Name:        "Transaction History",
		Description: "Recent transactions across your linked accounts",
		Category:    CategoryAccount,
		Provider:    "ledgerlink",
		Tiers:       []domain.Tier{domain.TierStarter, domain.TierStandard, domain.TierPremium},
		CacheTTL:    time.Hour,
	},
	{
		ID:          "economic_indicators",
		Name:        "Economic Indicators",
		Description: "Fed policy rate, inflation, mortgage rates and credit card APR benchmarks",
		Category:    CategoryEconomic,
		Provider:    "fred",
		Tiers:       []domain.Tier{domain.TierStandard, domain.TierPremium},
		CacheTTL:    24 * time.Hour,
	},
	{
		ID:          "mortgage_benchmarks",
		Name:        "Mortgage Benchmarks",
		Description: "Weekly primary mortgage market survey averages",
		Category:    CategoryEconomic,
		Provider:    "fred",
		Tiers:       []domain.Tier{domain.TierStandard, domain.TierPremium},
		CacheTTL:    12 * time.Hour,
	},
	{
		ID:          "live_market_rates",
		Name:        "Live Market Rates",
		Description: "Current CD rates, treasury yields and mortgage rate boards",
		Category:    CategoryExternal,
		Provider:    "ratefeed",
		Tiers:       []domain.Tier{domain.TierPremium},
		CacheTTL:    5 * time.Minute,
		Live:        true,
	},
	{
		ID:          "treasury_yield_curve",
		Name:        "Treasury Yield Curve",
		Description: "Intraday treasury yields across maturities",
		Category:    CategoryExternal,
		Provider:    "ratefeed",
		Tiers:       []domain.Tier{domain.TierPremium},
		CacheTTL:    5 * time.Minute,
		Live:        true,
	},
}

// tierLimitations is the static per-tier copy shown to members.
// The top tier has exactly one entry.
var tierLimitations = map[domain.Tier][]string{
	domain.TierStarter: {
		"Guidance is grounded in your linked account data only",
		"No economic indicator context (Fed rate, inflation, mortgage benchmarks)",
		"No live market rates (CDs, treasuries, mortgages)",
		"No scenario planning tools",
	},
	domain.TierStandard: {
		"No live market rates (CDs, treasuries, mortgages)",
		"No scenario planning tools",
	},
	domain.TierPremium: {
		"Full access to all data sources",
	},
}

// All returns the full catalog in declaration order
func All() []SourceConfig {
	out := make([]SourceConfig, len(catalog))
	copy(out, catalog)
	return out
}

// Get returns the source with the given id
func Get(id string) (SourceConfig, bool) {
	for _, cfg := range catalog {
		if cfg.ID == id {
			return cfg, true
		}
	}
	return SourceConfig{}, false
}

// Allows reports whether the source is available to the tier
func (c SourceConfig) Allows(tier domain.Tier) bool {
	for _, t := range c.Tiers {
		if t == tier {
			return true
		}
	}
	return false
}

// SourcesForTier returns the sources available to the tier
func SourcesForTier(tier domain.Tier) []SourceConfig {
	var out []SourceConfig
	for _, cfg := range catalog {
		if cfg.Allows(tier) {
			out = append(out, cfg)
		}
	}
	return out
}

// UnavailableForTier returns the sources the tier cannot use yet
func UnavailableForTier(tier domain.Tier) []SourceConfig {
	var out []SourceConfig
	for _, cfg := range catalog {
		if !cfg.Allows(tier) {
			out = append(out, cfg)
		}
	}
	return out
}

// UpgradeSuggestions returns human-readable lines describing what the
// next tier up unlocks. The top tier gets an empty slice.
func UpgradeSuggestions(tier domain.Tier) []string {
	next, ok := tier.Next()
	if !ok {
		return nil
	}

	var out []string
	for _, cfg := range catalog {
		if !cfg.Allows(tier) && cfg.Allows(next) {
			out = append(out, fmt.Sprintf("Upgrade to %s for %s: %s", next.DisplayName(), cfg.Name, cfg.Description))
		}
	}

	current := domain.AccessForTier(tier)
	upgraded := domain.AccessForTier(next)
	if upgraded.ScenarioPlanning && !current.ScenarioPlanning {
		out = append(out, fmt.Sprintf("Upgrade to %s for scenario planning tools", next.DisplayName()))
	}
	return out
}

// TierLimitations returns the static limitation copy for the tier
func TierLimitations(tier domain.Tier) []string {
	limits, ok := tierLimitations[tier]
	if !ok {
		return tierLimitations[domain.TierStarter]
	}
	out := make([]string, len(limits))
	copy(out, limits)
	return out
}
