package domain

import "context"

// EconomicProvider supplies the economic indicator bundle.
// Implementations degrade internally (cache, last known good, placeholder)
// and return a structurally complete bundle whenever the error is nil.
// Used by the orchestrator and the scheduler warmup job.
type EconomicProvider interface {
	// GetEconomicIndicators returns the current indicator bundle
	GetEconomicIndicators(ctx context.Context) (*EconomicIndicators, error)
}

// LiveMarketProvider supplies the live rate boards for entitled tiers.
// This interface keeps the orchestrator independent of the concrete
// rate feed client wiring.
type LiveMarketProvider interface {
	// GetLiveMarketData returns the current rate boards.
	// Tiers without live data access get (nil, nil) without any
	// upstream call; transient upstream failures are returned as errors
	// so the caller can decide how to degrade.
	GetLiveMarketData(ctx context.Context, tier Tier) (*LiveMarketData, error)
}
