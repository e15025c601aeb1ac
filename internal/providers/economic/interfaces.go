package economic

import (
	"context"

	"github.com/hartfield/compass/internal/clients/fred"
	"github.com/hartfield/compass/internal/observations"
)

// Interfaces for Provider dependencies. The provider defines what it needs,
// and the wiring layer implements it.

// SeriesClient fetches the latest published observation for an upstream
// data series.
type SeriesClient interface {
	HasCredential() bool
	LatestObservation(ctx context.Context, seriesID, units string) (*fred.SeriesPoint, error)
}

// HistoryRepository persists fetched values and serves them back as
// last-known-good fallbacks when the upstream is unavailable.
type HistoryRepository interface {
	Record(obs observations.Observation) error
	Latest(metric string) (*observations.Observation, error)
}
