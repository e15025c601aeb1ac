package marketctx

import (
	"fmt"
	"strings"

	"github.com/hartfield/compass/internal/domain"
)

// closingInstruction ends every formatted context block
const closingInstruction = "Use this market context to provide timely, relevant financial guidance."

// FormatSummary renders a summary as deterministic plain text for
// prompt assembly. Empty sections are omitted entirely rather than
// emitted empty, consumers detect entitlement by section presence.
func FormatSummary(s *Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "MARKET CONTEXT (as of %s):\n", s.LastUpdate.UTC().Format("2006-01-02 15:04 MST"))

	if s.EconomicSummary != "" {
		b.WriteString("\nECONOMIC INDICATORS:\n")
		b.WriteString(s.EconomicSummary)
		b.WriteString("\n")
	}

	if s.MarketSummary != "" {
		b.WriteString("\nLIVE MARKET DATA:\n")
		b.WriteString(s.MarketSummary)
		b.WriteString("\n")
	}

	if len(s.Insights) > 0 {
		b.WriteString("\nKEY INSIGHTS:\n")
		for _, insight := range s.Insights {
			b.WriteString("- ")
			b.WriteString(insight)
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(closingInstruction)
	return b.String()
}

// formatEconomicSummary renders the indicator bundle one line per
// metric, or "" when the bundle is absent
func formatEconomicSummary(indicators *domain.EconomicIndicators) string {
	if indicators == nil {
		return ""
	}

	lines := []string{
		formatDataPoint("Fed Funds Rate", indicators.FedFundsRate),
		formatDataPoint("Inflation (CPI YoY)", indicators.CPI),
		formatDataPoint("30-Year Mortgage Rate", indicators.MortgageRate30Y),
		formatDataPoint("Average Credit Card APR", indicators.CreditCardAPR),
	}
	return strings.Join(lines, "\n")
}

func formatDataPoint(label string, point domain.MarketDataPoint) string {
	if point.Date == "" {
		return fmt.Sprintf("%s: %.2f%%", label, point.Value)
	}
	return fmt.Sprintf("%s: %.2f%% (as of %s)", label, point.Value, point.Date)
}

// formatMarketSummary renders the live rate bundle one line per board
// with entries joined by commas. Empty boards are skipped, an absent or
// all-empty bundle renders "".
func formatMarketSummary(live *domain.LiveMarketData) string {
	if live == nil {
		return ""
	}

	var lines []string

	if len(live.CDRates) > 0 {
		entries := make([]string, 0, len(live.CDRates))
		for _, cd := range live.CDRates {
			entries = append(entries, fmt.Sprintf("%s: %.2f%%", cd.Term, cd.Rate))
		}
		lines = append(lines, "CD Rates: "+strings.Join(entries, ", "))
	}

	if len(live.TreasuryYields) > 0 {
		entries := make([]string, 0, len(live.TreasuryYields))
		for _, yield := range live.TreasuryYields {
			entries = append(entries, fmt.Sprintf("%s: %.2f%%", yield.Term, yield.Yield))
		}
		lines = append(lines, "Treasury Yields: "+strings.Join(entries, ", "))
	}

	if len(live.MortgageRates) > 0 {
		entries := make([]string, 0, len(live.MortgageRates))
		for _, rate := range live.MortgageRates {
			entries = append(entries, fmt.Sprintf("%s: %.2f%%", rate.LoanType, rate.Rate))
		}
		lines = append(lines, "Mortgage Rates: "+strings.Join(entries, ", "))
	}

	return strings.Join(lines, "\n")
}
