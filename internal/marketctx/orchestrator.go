// Package marketctx builds tier-appropriate market context for the chat
// product. The orchestrator owns a per-(tier, mode) summary cache, fans
// out to the data providers on refresh, and absorbs their failures so a
// context request always yields a well-formed result.
package marketctx

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hartfield/compass/internal/cache"
	"github.com/hartfield/compass/internal/domain"
	"github.com/hartfield/compass/internal/observations"
	"github.com/hartfield/compass/internal/registry"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// DefaultRefreshInterval bounds how long a summary is served before the
// next request triggers a provider refresh
const DefaultRefreshInterval = time.Hour

// SummaryKey partitions the summary cache by tier and mode
type SummaryKey struct {
	Tier domain.Tier
	Mode domain.Mode
}

// String renders the key in the form used for pattern invalidation and
// diagnostics, e.g. "market_context_premium_live".
func (k SummaryKey) String() string {
	return fmt.Sprintf("market_context_%s_%s", k.Tier, k.Mode)
}

// Summary is one assembled market context for a (tier, mode) pair
type Summary struct {
	LastUpdate      time.Time `json:"last_update"`
	EconomicSummary string    `json:"economic_summary"`
	MarketSummary   string    `json:"market_summary"`
	CacheKey        string    `json:"cache_key"`
	Insights        []string  `json:"insights"`
}

// TierAwareContext is the structured variant of the market context for
// callers that need entitlement metadata rather than prose.
type TierAwareContext struct {
	Tier               domain.Tier   `json:"tier"`
	TierName           string        `json:"tier_name"`
	Access             domain.Access `json:"access"`
	MarketContext      string        `json:"market_context"`
	AvailableSources   []string      `json:"available_sources"`
	UnavailableSources []string      `json:"unavailable_sources"`
	UpgradeSuggestions []string      `json:"upgrade_suggestions"`
	TierLimitations    []string      `json:"tier_limitations"`
}

// CacheStats reports both cache layers for the diagnostics endpoint
type CacheStats struct {
	SummaryEntries int         `json:"summary_entries"`
	SummaryKeys    []string    `json:"summary_keys"`
	DataCache      cache.Stats `json:"data_cache"`
}

// TrendSource serves recent metric history for trend analysis.
// Newest-first ordering is expected, matching the observations store.
type TrendSource interface {
	Series(metric string, limit int) ([]observations.Observation, error)
}

// Orchestrator assembles and caches tiered market context
type Orchestrator struct {
	economic        domain.EconomicProvider
	live            domain.LiveMarketProvider
	trends          TrendSource
	dataCache       *cache.Cache
	refreshInterval time.Duration

	mu        sync.RWMutex
	summaries map[SummaryKey]*Summary
	sf        singleflight.Group

	log zerolog.Logger
}

// NewOrchestrator creates a new orchestrator. A non-positive
// refreshInterval falls back to DefaultRefreshInterval. trends may be
// nil, trend insights are then skipped.
func NewOrchestrator(
	economic domain.EconomicProvider,
	live domain.LiveMarketProvider,
	trends TrendSource,
	dataCache *cache.Cache,
	refreshInterval time.Duration,
	log zerolog.Logger,
) *Orchestrator {
	if refreshInterval <= 0 {
		refreshInterval = DefaultRefreshInterval
	}
	return &Orchestrator{
		economic:        economic,
		live:            live,
		trends:          trends,
		dataCache:       dataCache,
		refreshInterval: refreshInterval,
		summaries:       make(map[SummaryKey]*Summary),
		log:             log.With().Str("service", "market_context").Logger(),
	}
}

// GetContextSummary returns the summary for a tier and mode, refreshing
// it when absent or older than the refresh interval. Unrecognized tiers
// normalize to starter, unrecognized modes to live. The call never
// fails: a refresh where every provider errors still yields a summary
// with empty sections.
func (o *Orchestrator) GetContextSummary(ctx context.Context, tier domain.Tier, mode domain.Mode) *Summary {
	key := SummaryKey{
		Tier: domain.ParseTier(string(tier)),
		Mode: domain.ParseMode(string(mode)),
	}

	o.mu.RLock()
	summary, ok := o.summaries[key]
	o.mu.RUnlock()
	if ok && time.Since(summary.LastUpdate) < o.refreshInterval {
		return summary
	}

	return o.refresh(ctx, key)
}

// GetFormattedContext returns the prompt-ready text rendering of the
// summary for a tier and mode
func (o *Orchestrator) GetFormattedContext(ctx context.Context, tier domain.Tier, mode domain.Mode) string {
	return FormatSummary(o.GetContextSummary(ctx, tier, mode))
}

// GetTierAwareContext returns the structured context including
// entitlement metadata from the source registry
func (o *Orchestrator) GetTierAwareContext(ctx context.Context, tier domain.Tier, mode domain.Mode) *TierAwareContext {
	normalized := domain.ParseTier(string(tier))

	return &TierAwareContext{
		Tier:               normalized,
		TierName:           normalized.DisplayName(),
		Access:             domain.AccessForTier(normalized),
		MarketContext:      o.GetFormattedContext(ctx, normalized, mode),
		AvailableSources:   sourceNames(registry.SourcesForTier(normalized)),
		UnavailableSources: sourceNames(registry.UnavailableForTier(normalized)),
		UpgradeSuggestions: registry.UpgradeSuggestions(normalized),
		TierLimitations:    registry.TierLimitations(normalized),
	}
}

// InvalidateCache removes every summary whose rendered key contains
// pattern, forwards the pattern to the shared data cache, and returns
// the total number of entries removed from both layers.
func (o *Orchestrator) InvalidateCache(pattern string) int {
	o.mu.Lock()
	removed := 0
	for key := range o.summaries {
		if strings.Contains(key.String(), pattern) {
			delete(o.summaries, key)
			removed++
		}
	}
	o.mu.Unlock()

	removed += o.dataCache.Invalidate(pattern)

	o.log.Info().
		Str("pattern", pattern).
		Int("removed", removed).
		Msg("Invalidated cached market context")
	return removed
}

// ForceRefreshAll rebuilds the summary for every tier and mode
// unconditionally, regardless of age
func (o *Orchestrator) ForceRefreshAll(ctx context.Context) {
	o.log.Info().Msg("Force refreshing market context for all tiers and modes")
	for _, tier := range domain.AllTiers() {
		for _, mode := range domain.AllModes() {
			o.buildSummary(ctx, SummaryKey{Tier: tier, Mode: mode})
		}
	}
}

// GetCacheStats reports the summary map and the shared data cache
func (o *Orchestrator) GetCacheStats() CacheStats {
	o.mu.RLock()
	keys := make([]string, 0, len(o.summaries))
	for key := range o.summaries {
		keys = append(keys, key.String())
	}
	o.mu.RUnlock()
	sort.Strings(keys)

	return CacheStats{
		SummaryEntries: len(keys),
		SummaryKeys:    keys,
		DataCache:      o.dataCache.Stats(),
	}
}

// refresh rebuilds one summary. Concurrent refreshes of the same key are
// deduplicated so simultaneous chat requests trigger a single provider
// round trip.
func (o *Orchestrator) refresh(ctx context.Context, key SummaryKey) *Summary {
	v, _, _ := o.sf.Do(key.String(), func() (any, error) {
		// A flight that finished between our staleness check and this
		// call may already have stored a fresh summary.
		o.mu.RLock()
		existing, ok := o.summaries[key]
		o.mu.RUnlock()
		if ok && time.Since(existing.LastUpdate) < o.refreshInterval {
			return existing, nil
		}

		return o.buildSummary(ctx, key), nil
	})
	return v.(*Summary)
}

// buildSummary queries the providers the tier is entitled to, assembles
// the summary, and stores it. Provider failures are logged and their
// section omitted, they never propagate to the caller.
func (o *Orchestrator) buildSummary(ctx context.Context, key SummaryKey) *Summary {
	access := domain.AccessForTier(key.Tier)
	log := o.log.With().
		Str("tier", string(key.Tier)).
		Str("mode", string(key.Mode)).
		Str("refresh_id", uuid.New().String()).
		Logger()

	var (
		indicators *domain.EconomicIndicators
		live       *domain.LiveMarketData
		wg         sync.WaitGroup
	)

	if access.EconomicContext {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bundle, err := o.economic.GetEconomicIndicators(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("Economic provider failed, omitting economic section")
				return
			}
			indicators = bundle
		}()
	}

	if access.LiveData {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bundle, err := o.live.GetLiveMarketData(ctx, key.Tier)
			if err != nil {
				log.Warn().Err(err).Msg("Live market provider failed, omitting live data section")
				return
			}
			live = bundle
		}()
	}

	wg.Wait()

	insights := generateInsights(indicators, live)
	if access.EconomicContext {
		if insight, ok := o.policyTrendInsight(); ok {
			insights = append(insights, insight)
		}
	}

	summary := &Summary{
		LastUpdate:      time.Now(),
		EconomicSummary: formatEconomicSummary(indicators),
		MarketSummary:   formatMarketSummary(live),
		CacheKey:        key.String(),
		Insights:        insights,
	}

	o.mu.Lock()
	o.summaries[key] = summary
	o.mu.Unlock()

	log.Debug().
		Bool("has_economic", summary.EconomicSummary != "").
		Bool("has_live", summary.MarketSummary != "").
		Int("insights", len(summary.Insights)).
		Msg("Refreshed market context")

	return summary
}

// policyTrendInsight derives a trend insight from stored policy rate
// history. Absent or thin history yields none.
func (o *Orchestrator) policyTrendInsight() (string, bool) {
	if o.trends == nil {
		return "", false
	}

	series, err := o.trends.Series(observations.MetricFedFundsRate, trendWindow)
	if err != nil {
		o.log.Warn().Err(err).Msg("Trend history lookup failed")
		return "", false
	}

	return trendInsight(series)
}

// sourceNames projects configs onto their human-readable names
func sourceNames(configs []registry.SourceConfig) []string {
	names := make([]string, 0, len(configs))
	for _, c := range configs {
		names = append(names, c.Name)
	}
	return names
}
