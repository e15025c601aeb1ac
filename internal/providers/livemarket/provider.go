// Package livemarket serves the live rate bundle (CD rates, treasury
// yields, mortgage rates) to entitled tiers, with a short-TTL cache.
package livemarket

import (
	"context"
	"fmt"
	"time"

	"github.com/hartfield/compass/internal/cache"
	"github.com/hartfield/compass/internal/domain"
	"github.com/rs/zerolog"
)

// bundleCacheKey is the single cache key covering the whole rate bundle
const bundleCacheKey = "live_market_data"

// bundleTTL is short, quoted rates move throughout the trading day
const bundleTTL = 5 * time.Minute

// BoardsClient fetches the current rate boards from the upstream feed
type BoardsClient interface {
	HasCredential() bool
	FetchRateBoards(ctx context.Context) (*domain.LiveMarketData, error)
	SandboxRateBoards() *domain.LiveMarketData
}

// Provider resolves the live rate bundle for tiers entitled to it
type Provider struct {
	client BoardsClient
	cache  *cache.Cache
	log    zerolog.Logger
}

// NewProvider creates a new live market data provider
func NewProvider(client BoardsClient, c *cache.Cache, log zerolog.Logger) *Provider {
	return &Provider{
		client: client,
		cache:  c,
		log:    log.With().Str("service", "live_market_provider").Logger(),
	}
}

// GetLiveMarketData returns the rate bundle for a tier with live-data
// access, and (nil, nil) with zero upstream calls for any other tier.
// The gate lives here, not in the caller, so an accidental call can
// never leak paid-tier data. Upstream failures propagate to the caller.
func (p *Provider) GetLiveMarketData(ctx context.Context, tier domain.Tier) (*domain.LiveMarketData, error) {
	if !domain.AccessForTier(tier).LiveData {
		return nil, nil
	}

	if data, ok := p.cache.Get(bundleCacheKey); ok {
		if bundle, ok := data.(*domain.LiveMarketData); ok {
			return bundle, nil
		}
	}

	bundle, err := p.fetchBoards(ctx)
	if err != nil {
		return nil, err
	}

	p.cache.Set(bundleCacheKey, bundle, bundleTTL)
	p.log.Debug().
		Int("cd_rates", len(bundle.CDRates)).
		Int("treasury_yields", len(bundle.TreasuryYields)).
		Int("mortgage_rates", len(bundle.MortgageRates)).
		Msg("Cached live rate bundle")

	return bundle, nil
}

// fetchBoards fetches the rate boards, serving deterministic sandbox
// boards when no upstream credential is configured
func (p *Provider) fetchBoards(ctx context.Context) (*domain.LiveMarketData, error) {
	if p.client == nil {
		return nil, fmt.Errorf("rate feed client is not configured")
	}

	if !p.client.HasCredential() {
		p.log.Debug().Msg("No rate feed credential configured, serving sandbox boards")
		return p.client.SandboxRateBoards(), nil
	}

	return p.client.FetchRateBoards(ctx)
}
