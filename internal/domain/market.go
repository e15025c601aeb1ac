package domain

import "time"

// MarketDataPoint represents a single fetched metric value with provenance
type MarketDataPoint struct {
	LastUpdated time.Time `json:"last_updated"`
	Date        string    `json:"date"`
	Source      string    `json:"source"`
	Value       float64   `json:"value"`
}

// EconomicIndicators bundles the slow-moving rate environment metrics
type EconomicIndicators struct {
	FedFundsRate    MarketDataPoint `json:"fed_funds_rate"`
	CPI             MarketDataPoint `json:"cpi"`
	MortgageRate30Y MarketDataPoint `json:"mortgage_rate_30y"`
	CreditCardAPR   MarketDataPoint `json:"credit_card_apr"`
}

// CDRate represents a certificate of deposit quote for a term
type CDRate struct {
	LastUpdated time.Time `json:"last_updated"`
	Term        string    `json:"term"`
	Rate        float64   `json:"rate"` // APY percent
}

// TreasuryYield represents a treasury yield quote for a maturity
type TreasuryYield struct {
	LastUpdated time.Time `json:"last_updated"`
	Term        string    `json:"term"`
	Yield       float64   `json:"yield"` // percent
}

// MortgageRate represents a mortgage rate quote for a loan type
type MortgageRate struct {
	LastUpdated time.Time `json:"last_updated"`
	LoanType    string    `json:"loan_type"`
	Rate        float64   `json:"rate"` // percent
}

// LiveMarketData bundles the current rate boards for premium members
type LiveMarketData struct {
	CDRates        []CDRate        `json:"cd_rates"`
	TreasuryYields []TreasuryYield `json:"treasury_yields"`
	MortgageRates  []MortgageRate  `json:"mortgage_rates"`
}
