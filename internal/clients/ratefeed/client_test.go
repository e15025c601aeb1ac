package ratefeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	client := NewClient("", "", zerolog.Nop())
	assert.NotNil(t, client)
	assert.Equal(t, defaultBaseURL, client.baseURL)
	assert.False(t, client.HasCredential())

	clientWithKey := NewClient("test-key", "http://localhost:9999", zerolog.Nop())
	assert.True(t, clientWithKey.HasCredential())
}

func TestFetchRateBoards_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/rates/boards", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-RATEFEED-KEY"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"as_of": "2025-08-23T14:00:00Z",
			"cd_rates": [
				{"term": "3-month", "apy": 5.25},
				{"term": "6-month", "apy": 5.35}
			],
			"treasury_yields": [
				{"term": "10-year", "yield": 4.25}
			],
			"mortgage_rates": [
				{"loan_type": "30-year fixed", "rate": 6.85}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, zerolog.Nop())

	data, err := client.FetchRateBoards(context.Background())
	require.NoError(t, err)
	require.NotNil(t, data)

	require.Len(t, data.CDRates, 2)
	assert.Equal(t, "3-month", data.CDRates[0].Term)
	assert.Equal(t, 5.25, data.CDRates[0].Rate)
	assert.Equal(t, "2025-08-23T14:00:00Z", data.CDRates[0].LastUpdated.UTC().Format(time.RFC3339))

	require.Len(t, data.TreasuryYields, 1)
	assert.Equal(t, 4.25, data.TreasuryYields[0].Yield)

	require.Len(t, data.MortgageRates, 1)
	assert.Equal(t, "30-year fixed", data.MortgageRates[0].LoanType)
}

func TestFetchRateBoards_MissingKey(t *testing.T) {
	// No server: the client must fail before any network call.
	client := NewClient("", "http://localhost:1", zerolog.Nop())

	_, err := client.FetchRateBoards(context.Background())
	require.Error(t, err)
	assert.IsType(t, ErrMissingAPIKey{}, err)
}

func TestFetchRateBoards_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, zerolog.Nop())

	_, err := client.FetchRateBoards(context.Background())
	require.Error(t, err)
	assert.IsType(t, ErrUpstreamStatus{}, err)
	assert.Contains(t, err.Error(), "503")
}

func TestFetchRateBoards_EmptyBoards(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"as_of": "2025-08-23T14:00:00Z"}`))
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, zerolog.Nop())

	_, err := client.FetchRateBoards(context.Background())
	assert.Error(t, err)
}

func TestSandboxRateBoards(t *testing.T) {
	client := NewClient("", "", zerolog.Nop())

	data := client.SandboxRateBoards()
	require.NotNil(t, data)

	assert.Len(t, data.CDRates, 5)
	assert.Len(t, data.TreasuryYields, 5)
	assert.Len(t, data.MortgageRates, 3)

	assert.Equal(t, "3-month", data.CDRates[0].Term)
	assert.Equal(t, "30-year fixed", data.MortgageRates[0].LoanType)

	// Jitter stays within sane bounds of the anchors.
	for i, cd := range data.CDRates {
		assert.InDelta(t, sandboxCDs[i].rate, cd.Rate, 0.08, "cd term %s", cd.Term)
	}
}

func TestSandboxRateBoardsDeterministicWithinDay(t *testing.T) {
	client := NewClient("", "", zerolog.Nop())

	first := client.SandboxRateBoards()
	second := client.SandboxRateBoards()

	require.Len(t, second.CDRates, len(first.CDRates))
	for i := range first.CDRates {
		assert.Equal(t, first.CDRates[i].Rate, second.CDRates[i].Rate)
	}
	for i := range first.TreasuryYields {
		assert.Equal(t, first.TreasuryYields[i].Yield, second.TreasuryYields[i].Yield)
	}
	for i := range first.MortgageRates {
		assert.Equal(t, first.MortgageRates[i].Rate, second.MortgageRates[i].Rate)
	}
}
