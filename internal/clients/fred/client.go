// Package fred provides a client for the FRED (Federal Reserve Economic Data)
// API published by the St. Louis Fed. Series observations are fetched with a
// free API key; without a key every call fails fast so callers can fall back
// to placeholder data.
package fred

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultBaseURL = "https://api.stlouisfed.org/fred"

// Series IDs for the indicator bundle.
const (
	// SeriesFedFunds is the effective federal funds rate, percent
	SeriesFedFunds = "FEDFUNDS"
	// SeriesCPI is the CPI for all urban consumers, requested as
	// percent change from a year ago
	SeriesCPI = "CPIAUCSL"
	// SeriesMortgage30Y is the 30-year fixed mortgage average, percent
	SeriesMortgage30Y = "MORTGAGE30US"
	// SeriesCreditCardAPR is the commercial bank credit card rate, percent
	SeriesCreditCardAPR = "TERMCBCCALLNS"
)

// UnitsPercentChangeYoY asks FRED to transform a series into percent
// change from a year ago. Used for CPI so callers get an inflation rate
// instead of an index level.
const UnitsPercentChangeYoY = "pc1"

// ErrMissingAPIKey indicates the client was built without a credential.
type ErrMissingAPIKey struct{}

func (e ErrMissingAPIKey) Error() string {
	return "FRED API key is missing"
}

// ErrInvalidAPIKey indicates FRED rejected the configured credential.
type ErrInvalidAPIKey struct{}

func (e ErrInvalidAPIKey) Error() string {
	return "FRED API key is invalid"
}

// ErrSeriesNotFound indicates the requested series does not exist.
type ErrSeriesNotFound struct {
	SeriesID string
}

func (e ErrSeriesNotFound) Error() string {
	return fmt.Sprintf("FRED series not found: %s", e.SeriesID)
}

// SeriesPoint is a single observation from a series
type SeriesPoint struct {
	Date  string  // observation date, YYYY-MM-DD
	Value float64 // numeric value after any units transform
}

// observationsResponse mirrors the FRED series/observations payload.
type observationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// errorResponse mirrors the FRED error payload.
type errorResponse struct {
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// Client is the FRED API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a new FRED client.
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
		log: log.With().Str("client", "fred").Logger(),
	}
}

// HasCredential reports whether an API key is configured
func (c *Client) HasCredential() bool {
	return c.apiKey != ""
}

// LatestObservation fetches the most recent numeric observation for a
// series. units is an optional FRED transform (e.g. UnitsPercentChangeYoY),
// empty means the series' native units.
func (c *Client) LatestObservation(ctx context.Context, seriesID, units string) (*SeriesPoint, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey{}
	}

	params := url.Values{}
	params.Set("series_id", seriesID)
	params.Set("api_key", c.apiKey)
	params.Set("file_type", "json")
	params.Set("sort_order", "desc")
	// A few observations, the newest can be "." (not yet published).
	params.Set("limit", "5")
	if units != "" {
		params.Set("units", units)
	}

	reqURL := fmt.Sprintf("%s/series/observations?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.log.Debug().Str("series", seriesID).Str("units", units).Msg("Fetching series observation")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("FRED request failed for %s: %w", seriesID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read FRED response for %s: %w", seriesID, err)
	}

	if resp.StatusCode != http.StatusOK {
		if apiErr := c.checkAPIError(body, seriesID); apiErr != nil {
			return nil, apiErr
		}
		return nil, fmt.Errorf("FRED returned status %d for %s", resp.StatusCode, seriesID)
	}

	var parsed observationsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse FRED response for %s: %w", seriesID, err)
	}

	for _, obs := range parsed.Observations {
		value, ok := parseObservationValue(obs.Value)
		if !ok {
			// "." marks a period with no published value yet
			continue
		}

		c.log.Debug().
			Str("series", seriesID).
			Str("date", obs.Date).
			Float64("value", value).
			Msg("Fetched series observation")

		return &SeriesPoint{Date: obs.Date, Value: value}, nil
	}

	return nil, fmt.Errorf("no published observations for %s", seriesID)
}

// checkAPIError maps a FRED error payload to a typed error.
func (c *Client) checkAPIError(body []byte, seriesID string) error {
	var apiErr errorResponse
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.ErrorMessage == "" {
		return nil
	}

	msg := strings.ToLower(apiErr.ErrorMessage)
	switch {
	case strings.Contains(msg, "api_key"):
		return ErrInvalidAPIKey{}
	case strings.Contains(msg, "series does not exist"):
		return ErrSeriesNotFound{SeriesID: seriesID}
	default:
		return fmt.Errorf("FRED API error %d: %s", apiErr.ErrorCode, apiErr.ErrorMessage)
	}
}

// parseObservationValue parses a FRED observation value.
// FRED publishes "." for periods without a value.
func parseObservationValue(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "." {
		return 0, false
	}
	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
