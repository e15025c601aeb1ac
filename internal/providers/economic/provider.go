// Package economic assembles the four-point economic indicator bundle
// from upstream series data, with caching and layered fallbacks.
package economic

import (
	"context"
	"sync"
	"time"

	"github.com/hartfield/compass/internal/cache"
	"github.com/hartfield/compass/internal/clients/fred"
	"github.com/hartfield/compass/internal/domain"
	"github.com/hartfield/compass/internal/observations"
	"github.com/rs/zerolog"
)

// cacheKeyPrefix namespaces per-metric entries in the shared cache
const cacheKeyPrefix = "economic_indicators:"

// Source labels attached to data points so consumers can tell live
// values from substitutes.
const (
	sourceFRED        = "FRED"
	sourcePlaceholder = "placeholder"
	sourceFallback    = "fallback"
)

// Baseline values used when neither the upstream API nor stored history
// can produce a metric. Refreshed by hand from published series data.
const (
	baselineFedFunds      = 4.35
	baselineCPI           = 2.9
	baselineMortgage30Y   = 6.65
	baselineCreditCardAPR = 21.4
)

// metricSpec describes how one indicator metric is fetched and cached
type metricSpec struct {
	metric   string
	seriesID string
	units    string
	baseline float64
	ttl      time.Duration
}

// metricSpecs drive the bundle assembly. Order matches the field order
// of domain.EconomicIndicators.
var metricSpecs = [4]metricSpec{
	{
		metric:   observations.MetricFedFundsRate,
		seriesID: fred.SeriesFedFunds,
		baseline: baselineFedFunds,
		ttl:      12 * time.Hour,
	},
	{
		metric:   observations.MetricCPI,
		seriesID: fred.SeriesCPI,
		units:    fred.UnitsPercentChangeYoY,
		baseline: baselineCPI,
		ttl:      24 * time.Hour,
	},
	{
		metric:   observations.MetricMortgageRate30Y,
		seriesID: fred.SeriesMortgage30Y,
		baseline: baselineMortgage30Y,
		ttl:      12 * time.Hour,
	},
	{
		metric:   observations.MetricCreditCardAPR,
		seriesID: fred.SeriesCreditCardAPR,
		baseline: baselineCreditCardAPR,
		ttl:      24 * time.Hour,
	},
}

// Provider resolves the economic indicator bundle. It is not tier-aware,
// entitlement gating belongs to the orchestrator.
type Provider struct {
	client  SeriesClient
	cache   *cache.Cache
	history HistoryRepository
	log     zerolog.Logger
}

// NewProvider creates a new economic indicator provider
func NewProvider(client SeriesClient, c *cache.Cache, history HistoryRepository, log zerolog.Logger) *Provider {
	return &Provider{
		client:  client,
		cache:   c,
		history: history,
		log:     log.With().Str("service", "economic_provider").Logger(),
	}
}

// GetEconomicIndicators returns the four-point indicator bundle. The
// metrics resolve independently and concurrently, and a failed metric
// falls back to its last known good value instead of failing the bundle.
// Without an upstream credential a clearly-labeled placeholder bundle is
// returned so development environments stay functional.
func (p *Provider) GetEconomicIndicators(ctx context.Context) (*domain.EconomicIndicators, error) {
	if p.client == nil || !p.client.HasCredential() {
		p.log.Debug().Msg("No FRED credential configured, returning placeholder indicators")
		return p.placeholderBundle(), nil
	}

	var points [4]domain.MarketDataPoint
	var wg sync.WaitGroup
	for i := range metricSpecs {
		i := i // per-iteration copy; module builds with pre-1.22 loopvar semantics
		wg.Add(1)
		go func() {
			defer wg.Done()
			points[i] = p.resolveMetric(ctx, metricSpecs[i])
		}()
	}
	wg.Wait()

	return &domain.EconomicIndicators{
		FedFundsRate:    points[0],
		CPI:             points[1],
		MortgageRate30Y: points[2],
		CreditCardAPR:   points[3],
	}, nil
}

// resolveMetric returns a value for one metric: cached value, fresh
// fetch, stored history, then static baseline, in that order.
func (p *Provider) resolveMetric(ctx context.Context, spec metricSpec) domain.MarketDataPoint {
	key := cacheKeyPrefix + spec.metric

	if data, ok := p.cache.Get(key); ok {
		if point, ok := data.(domain.MarketDataPoint); ok {
			return point
		}
	}

	point, err := p.fetchMetric(ctx, spec)
	if err == nil {
		p.cache.Set(key, *point, spec.ttl)
		return *point
	}
	p.log.Warn().
		Err(err).
		Str("metric", spec.metric).
		Msg("Upstream fetch failed, falling back to stored history")

	return p.lastKnownGood(spec)
}

// fetchMetric fetches one metric from the upstream series and records it
// in the history store. A failed history write is logged, not returned,
// the fresh value is still good.
func (p *Provider) fetchMetric(ctx context.Context, spec metricSpec) (*domain.MarketDataPoint, error) {
	obs, err := p.client.LatestObservation(ctx, spec.seriesID, spec.units)
	if err != nil {
		return nil, err
	}

	p.log.Debug().
		Str("metric", spec.metric).
		Str("date", obs.Date).
		Float64("value", obs.Value).
		Msg("Fetched metric from upstream")

	if p.history != nil {
		record := observations.Observation{
			Metric:     spec.metric,
			ObservedAt: obs.Date,
			Value:      obs.Value,
			Source:     sourceFRED,
		}
		if err := p.history.Record(record); err != nil {
			p.log.Warn().Err(err).Str("metric", spec.metric).Msg("Failed to record observation")
		}
	}

	return &domain.MarketDataPoint{
		Value:       obs.Value,
		Date:        obs.Date,
		Source:      sourceFRED,
		LastUpdated: time.Now(),
	}, nil
}

// lastKnownGood returns the newest stored observation for the metric, or
// the static baseline when no history exists
func (p *Provider) lastKnownGood(spec metricSpec) domain.MarketDataPoint {
	if p.history != nil {
		stored, err := p.history.Latest(spec.metric)
		if err != nil {
			p.log.Warn().Err(err).Str("metric", spec.metric).Msg("History lookup failed")
		} else if stored != nil {
			p.log.Debug().
				Str("metric", spec.metric).
				Str("date", stored.ObservedAt).
				Float64("value", stored.Value).
				Msg("Using stored observation")
			return domain.MarketDataPoint{
				Value:       stored.Value,
				Date:        stored.ObservedAt,
				Source:      stored.Source,
				LastUpdated: stored.RecordedAt,
			}
		}
	}

	p.log.Warn().
		Str("metric", spec.metric).
		Float64("value", spec.baseline).
		Msg("No stored history, using baseline value")
	return domain.MarketDataPoint{
		Value:       spec.baseline,
		Date:        time.Now().Format("2006-01-02"),
		Source:      sourceFallback,
		LastUpdated: time.Now(),
	}
}

// placeholderBundle returns development-grade indicator values, labeled
// so downstream consumers can tell them from live data
func (p *Provider) placeholderBundle() *domain.EconomicIndicators {
	now := time.Now()
	date := now.Format("2006-01-02")

	point := func(value float64) domain.MarketDataPoint {
		return domain.MarketDataPoint{
			Value:       value,
			Date:        date,
			Source:      sourcePlaceholder,
			LastUpdated: now,
		}
	}

	return &domain.EconomicIndicators{
		FedFundsRate:    point(baselineFedFunds),
		CPI:             point(baselineCPI),
		MortgageRate30Y: point(baselineMortgage30Y),
		CreditCardAPR:   point(baselineCreditCardAPR),
	}
}
