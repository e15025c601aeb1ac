package marketctx

import (
	"github.com/hartfield/compass/internal/domain"
	"github.com/hartfield/compass/internal/observations"
	"gonum.org/v1/gonum/stat"
)

// Insight thresholds, in percent. Comparisons are strict: a value
// exactly at a threshold does not trigger the insight.
const (
	saverRateThreshold = 5.0
	inflationThreshold = 3.0
	refinanceThreshold = 6.0
	cdLadderThreshold  = 4.0
)

// Trend analysis over stored policy rate history
const (
	trendWindow     = 6
	minTrendPoints  = 4
	trendSlopeFloor = 0.04
)

// generateInsights derives advice bullets from the fetched data against
// fixed thresholds. Same inputs always produce the same insights in the
// same order. Nil inputs contribute nothing.
func generateInsights(indicators *domain.EconomicIndicators, live *domain.LiveMarketData) []string {
	var insights []string

	if indicators != nil {
		if indicators.FedFundsRate.Value > saverRateThreshold {
			insights = append(insights,
				"Interest rates favor savers right now - high-yield savings accounts and CDs are paying well")
		}
		if indicators.CPI.Value > inflationThreshold {
			insights = append(insights,
				"Inflation is running above target - consider inflation-protected instruments such as TIPS or I-Bonds")
		}
		if indicators.MortgageRate30Y.Value > refinanceThreshold {
			insights = append(insights,
				"Mortgage rates are elevated - it may pay to wait for refinancing until rates come down")
		}
	}

	if live != nil {
		for _, cd := range live.CDRates {
			if cd.Rate > cdLadderThreshold {
				insights = append(insights,
					"CD yields are attractive - consider laddering CDs across terms to lock in rates")
				break
			}
		}
	}

	return insights
}

// trendInsight fits a line through recent policy rate history and turns
// a clear slope into an insight. series is newest-first as served by
// the observations store.
func trendInsight(series []observations.Observation) (string, bool) {
	if len(series) < minTrendPoints {
		return "", false
	}

	// Oldest first for the regression
	xs := make([]float64, len(series))
	ys := make([]float64, len(series))
	for i, obs := range series {
		xs[i] = float64(i)
		ys[len(series)-1-i] = obs.Value
	}

	_, slope := stat.LinearRegression(xs, ys, nil, false)
	switch {
	case slope > trendSlopeFloor:
		return "The policy rate has been trending higher - locking in savings and CD yields early could pay off", true
	case slope < -trendSlopeFloor:
		return "The policy rate has been trending lower - refinancing windows may open and CD yields are likely to fall", true
	default:
		return "", false
	}
}
