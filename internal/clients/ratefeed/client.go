// Package ratefeed provides a client for the RateFeed consumer-rates API,
// which serves current CD, treasury and mortgage rate boards. Without an
// API key the client synthesizes a deterministic sandbox board instead of
// calling the network, so development setups work offline.
package ratefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/hartfield/compass/internal/domain"
)

const defaultBaseURL = "https://api.ratefeed.io/v1"

// ErrMissingAPIKey indicates the client was built without a credential.
type ErrMissingAPIKey struct{}

func (e ErrMissingAPIKey) Error() string {
	return "RateFeed API key is missing"
}

// ErrUpstreamStatus indicates a non-OK response from the rates API.
type ErrUpstreamStatus struct {
	StatusCode int
}

func (e ErrUpstreamStatus) Error() string {
	return fmt.Sprintf("RateFeed returned status %d", e.StatusCode)
}

// boardsResponse mirrors the RateFeed rate boards payload.
type boardsResponse struct {
	AsOf    string `json:"as_of"`
	CDRates []struct {
		Term string  `json:"term"`
		APY  float64 `json:"apy"`
	} `json:"cd_rates"`
	TreasuryYields []struct {
		Term  string  `json:"term"`
		Yield float64 `json:"yield"`
	} `json:"treasury_yields"`
	MortgageRates []struct {
		LoanType string  `json:"loan_type"`
		Rate     float64 `json:"rate"`
	} `json:"mortgage_rates"`
}

// Client is the RateFeed API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a new RateFeed client.
// baseURL is optional and defaults to the public API endpoint.
func NewClient(apiKey, baseURL string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log.With().Str("client", "ratefeed").Logger(),
	}
}

// HasCredential reports whether an API key is configured
func (c *Client) HasCredential() bool {
	return c.apiKey != ""
}

// FetchRateBoards fetches the current rate boards.
// Transient failures are returned to the caller, there is no silent
// fallback here. Callers decide whether stale or absent data is the
// right degradation.
func (c *Client) FetchRateBoards(ctx context.Context) (*domain.LiveMarketData, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey{}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/rates/boards", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-RATEFEED-KEY", c.apiKey)

	c.log.Debug().Msg("Fetching rate boards")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("RateFeed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, ErrUpstreamStatus{StatusCode: resp.StatusCode}
	}

	var parsed boardsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse rate boards: %w", err)
	}

	asOf := time.Now()
	if parsed.AsOf != "" {
		if t, err := time.Parse(time.RFC3339, parsed.AsOf); err == nil {
			asOf = t
		}
	}

	data := &domain.LiveMarketData{}
	for _, cd := range parsed.CDRates {
		data.CDRates = append(data.CDRates, domain.CDRate{
			Term: cd.Term, Rate: cd.APY, LastUpdated: asOf,
		})
	}
	for _, ty := range parsed.TreasuryYields {
		data.TreasuryYields = append(data.TreasuryYields, domain.TreasuryYield{
			Term: ty.Term, Yield: ty.Yield, LastUpdated: asOf,
		})
	}
	for _, mr := range parsed.MortgageRates {
		data.MortgageRates = append(data.MortgageRates, domain.MortgageRate{
			LoanType: mr.LoanType, Rate: mr.Rate, LastUpdated: asOf,
		})
	}

	if len(data.CDRates) == 0 && len(data.TreasuryYields) == 0 && len(data.MortgageRates) == 0 {
		return nil, fmt.Errorf("RateFeed returned empty rate boards")
	}

	c.log.Info().
		Int("cd_rates", len(data.CDRates)).
		Int("treasury_yields", len(data.TreasuryYields)).
		Int("mortgage_rates", len(data.MortgageRates)).
		Msg("Fetched rate boards")

	return data, nil
}

// anchor is a baseline rate for the offline sandbox board.
type anchor struct {
	label string
	rate  float64
}

// Realistic baselines the sandbox jitters around.
var (
	sandboxCDs = []anchor{
		{"3-month", 4.40},
		{"6-month", 4.50},
		{"1-year", 4.30},
		{"2-year", 4.05},
		{"5-year", 3.90},
	}
	sandboxTreasuries = []anchor{
		{"1-year", 4.15},
		{"2-year", 3.95},
		{"5-year", 4.00},
		{"10-year", 4.25},
		{"30-year", 4.55},
	}
	sandboxMortgages = []anchor{
		{"30-year fixed", 6.60},
		{"15-year fixed", 5.90},
		{"5/1 ARM", 6.10},
	}
)

// SandboxRateBoards synthesizes an offline rate board. Values are the
// anchors plus a small jitter seeded by the calendar day, so repeated
// calls within a day return identical boards.
func (c *Client) SandboxRateBoards() *domain.LiveMarketData {
	now := time.Now()
	rng := rand.New(rand.NewSource(int64(now.Year())*10000 + int64(now.YearDay())))

	jitter := func(rate float64) float64 {
		// +/- 7 basis points, rounded to 2 decimals
		j := (rng.Float64() - 0.5) * 0.14
		return math.Round((rate+j)*100) / 100
	}

	data := &domain.LiveMarketData{}
	for _, cd := range sandboxCDs {
		data.CDRates = append(data.CDRates, domain.CDRate{
			Term: cd.label, Rate: jitter(cd.rate), LastUpdated: now,
		})
	}
	for _, ty := range sandboxTreasuries {
		data.TreasuryYields = append(data.TreasuryYields, domain.TreasuryYield{
			Term: ty.label, Yield: jitter(ty.rate), LastUpdated: now,
		})
	}
	for _, mr := range sandboxMortgages {
		data.MortgageRates = append(data.MortgageRates, domain.MortgageRate{
			LoanType: mr.label, Rate: jitter(mr.rate), LastUpdated: now,
		})
	}

	c.log.Debug().Msg("Synthesized sandbox rate boards")

	return data
}
