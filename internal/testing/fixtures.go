package testing

import (
	"time"

	"github.com/hartfield/compass/internal/domain"
	"github.com/hartfield/compass/internal/observations"
)

// NewEconomicIndicatorsFixture returns a realistic indicator bundle for use in tests
func NewEconomicIndicatorsFixture() *domain.EconomicIndicators {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	return &domain.EconomicIndicators{
		FedFundsRate: domain.MarketDataPoint{
			Value:       5.33,
			Date:        "2026-08-01",
			Source:      "FRED",
			LastUpdated: now,
		},
		CPI: domain.MarketDataPoint{
			Value:       3.1,
			Date:        "2026-07-01",
			Source:      "FRED",
			LastUpdated: now,
		},
		MortgageRate30Y: domain.MarketDataPoint{
			Value:       6.72,
			Date:        "2026-08-14",
			Source:      "FRED",
			LastUpdated: now,
		},
		CreditCardAPR: domain.MarketDataPoint{
			Value:       21.9,
			Date:        "2026-07-01",
			Source:      "FRED",
			LastUpdated: now,
		},
	}
}

// NewLiveMarketDataFixture returns realistic rate boards for use in tests
func NewLiveMarketDataFixture() *domain.LiveMarketData {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	return &domain.LiveMarketData{
		CDRates: []domain.CDRate{
			{Term: "3-month", Rate: 5.25, LastUpdated: now},
			{Term: "6-month", Rate: 5.10, LastUpdated: now},
			{Term: "1-year", Rate: 4.85, LastUpdated: now},
		},
		TreasuryYields: []domain.TreasuryYield{
			{Term: "2-year", Yield: 4.60, LastUpdated: now},
			{Term: "10-year", Yield: 4.25, LastUpdated: now},
			{Term: "30-year", Yield: 4.45, LastUpdated: now},
		},
		MortgageRates: []domain.MortgageRate{
			{LoanType: "30-year fixed", Rate: 6.60, LastUpdated: now},
			{LoanType: "15-year fixed", Rate: 5.90, LastUpdated: now},
		},
	}
}

// NewObservationRowFixtures returns seed rows spanning the tracked metrics.
// recordedAt is applied to every row so tests can control retention cutoffs.
func NewObservationRowFixtures(recordedAt int64) []ObservationRow {
	return []ObservationRow{
		{Metric: observations.MetricFedFundsRate, ObservedAt: "2026-08-01", Value: 5.33, Source: "FRED", RecordedAt: recordedAt},
		{Metric: observations.MetricFedFundsRate, ObservedAt: "2026-07-01", Value: 5.33, Source: "FRED", RecordedAt: recordedAt},
		{Metric: observations.MetricCPI, ObservedAt: "2026-07-01", Value: 3.1, Source: "FRED", RecordedAt: recordedAt},
		{Metric: observations.MetricMortgageRate30Y, ObservedAt: "2026-08-14", Value: 6.72, Source: "FRED", RecordedAt: recordedAt},
		{Metric: observations.MetricCreditCardAPR, ObservedAt: "2026-07-01", Value: 21.9, Source: "FRED", RecordedAt: recordedAt},
	}
}
