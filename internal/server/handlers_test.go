package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hartfield/compass/internal/cache"
	"github.com/hartfield/compass/internal/config"
	"github.com/hartfield/compass/internal/marketctx"
	"github.com/hartfield/compass/internal/scheduler"
	testingpkg "github.com/hartfield/compass/internal/testing"
	"github.com/hartfield/compass/pkg/logger"
)

// testServer bundles a wired server with the pieces tests poke at
type testServer struct {
	srv   *Server
	sched *scheduler.Scheduler
	econ  *testingpkg.MockEconomicProvider
	live  *testingpkg.MockLiveMarketProvider
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, cleanup := testingpkg.NewTestDB(t)
	t.Cleanup(cleanup)

	log := logger.New(logger.Config{Level: "error", Pretty: false})

	econ := testingpkg.NewMockEconomicProvider()
	econ.SetIndicators(testingpkg.NewEconomicIndicatorsFixture())

	live := testingpkg.NewMockLiveMarketProvider()
	live.SetBundle(testingpkg.NewLiveMarketDataFixture())

	orch := marketctx.NewOrchestrator(econ, live, nil, cache.New(time.Hour), time.Hour, log)
	sched := scheduler.New(log)

	srv := New(Config{
		Log: log,
		Cfg: &config.Config{
			DataDir: t.TempDir(),
			Port:    8010,
			DevMode: true,
		},
		DB:           db,
		Orchestrator: orch,
		Scheduler:    sched,
	})

	return &testServer{srv: srv, sched: sched, econ: econ, live: live}
}

func (ts *testServer) request(t *testing.T, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	ts.srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	decodeBody(t, rec, &body)

	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "compass", body["service"])
	assert.NotEmpty(t, body["version"])
}

func TestGetContext(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		wantTier     string
		wantEconomic bool
		wantLive     bool
	}{
		{
			name:         "premium gets full access",
			path:         "/api/context/premium",
			wantTier:     "premium",
			wantEconomic: true,
			wantLive:     true,
		},
		{
			name:         "standard gets economic context only",
			path:         "/api/context/standard",
			wantTier:     "standard",
			wantEconomic: true,
			wantLive:     false,
		},
		{
			name:         "starter gets account data only",
			path:         "/api/context/starter",
			wantTier:     "starter",
			wantEconomic: false,
			wantLive:     false,
		},
		{
			name:         "unknown tier normalizes to starter",
			path:         "/api/context/platinum",
			wantTier:     "starter",
			wantEconomic: false,
			wantLive:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)

			rec := ts.request(t, http.MethodGet, tt.path, "")
			require.Equal(t, http.StatusOK, rec.Code)

			var body struct {
				Tier   string `json:"tier"`
				Access struct {
					HasEconomicContext bool `json:"has_economic_context"`
					HasLiveData        bool `json:"has_live_data"`
				} `json:"access"`
				MarketContext    string   `json:"market_context"`
				AvailableSources []string `json:"available_sources"`
				TierLimitations  []string `json:"tier_limitations"`
			}
			decodeBody(t, rec, &body)

			assert.Equal(t, tt.wantTier, body.Tier)
			assert.Equal(t, tt.wantEconomic, body.Access.HasEconomicContext)
			assert.Equal(t, tt.wantLive, body.Access.HasLiveData)
			assert.NotEmpty(t, body.MarketContext)
			assert.NotEmpty(t, body.AvailableSources)
			assert.NotEmpty(t, body.TierLimitations)
		})
	}
}

func TestGetFormattedContext(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		wantSections []string
		skipSections []string
	}{
		{
			name:         "premium includes every section",
			path:         "/api/context/premium/formatted",
			wantSections: []string{"ECONOMIC INDICATORS:", "LIVE MARKET DATA:", "KEY INSIGHTS:"},
		},
		{
			name:         "standard omits live market data",
			path:         "/api/context/standard/formatted",
			wantSections: []string{"ECONOMIC INDICATORS:"},
			skipSections: []string{"LIVE MARKET DATA:"},
		},
		{
			name:         "starter omits all data sections",
			path:         "/api/context/starter/formatted",
			skipSections: []string{"ECONOMIC INDICATORS:", "LIVE MARKET DATA:", "KEY INSIGHTS:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)

			rec := ts.request(t, http.MethodGet, tt.path, "")
			require.Equal(t, http.StatusOK, rec.Code)

			var body FormattedContextResponse
			decodeBody(t, rec, &body)

			assert.Contains(t, body.FormattedContext, "MARKET CONTEXT (as of ")
			assert.Contains(t, body.FormattedContext, "Use this market context to provide timely, relevant financial guidance.")
			for _, section := range tt.wantSections {
				assert.Contains(t, body.FormattedContext, section)
			}
			for _, section := range tt.skipSections {
				assert.NotContains(t, body.FormattedContext, section)
			}
		})
	}
}

func TestGetFormattedContext_ModeQueryParam(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodGet, "/api/context/premium/formatted?mode=demo", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body FormattedContextResponse
	decodeBody(t, rec, &body)

	assert.Equal(t, "premium", body.Tier)
	assert.Equal(t, "demo", body.Mode)
}

func TestGetSources(t *testing.T) {
	ts := newTestServer(t)

	var lastAvailable int
	for _, tier := range []string{"starter", "standard", "premium"} {
		rec := ts.request(t, http.MethodGet, "/api/sources/"+tier, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var body SourcesResponse
		decodeBody(t, rec, &body)

		assert.Equal(t, tier, body.Tier)
		assert.Greater(t, len(body.Available), lastAvailable,
			"each tier should unlock more sources than the one below")
		lastAvailable = len(body.Available)
	}
}

func TestGetSources_Starter(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodGet, "/api/sources/starter", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body SourcesResponse
	decodeBody(t, rec, &body)

	assert.Len(t, body.Available, 2)
	assert.Len(t, body.Unavailable, 4)
	assert.NotEmpty(t, body.UpgradeSuggestions)
	assert.NotEmpty(t, body.TierLimitations)

	for _, source := range body.Available {
		assert.Equal(t, "account", source.Category)
		assert.False(t, source.Live)
	}
}

func TestGetSources_Premium(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodGet, "/api/sources/premium", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body SourcesResponse
	decodeBody(t, rec, &body)

	assert.Len(t, body.Available, 6)
	assert.Empty(t, body.Unavailable)
	assert.Empty(t, body.UpgradeSuggestions)
	assert.Equal(t, []string{"Full access to all data sources"}, body.TierLimitations)
}

func TestRefreshContext(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodPost, "/api/context/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	decodeBody(t, rec, &body)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "Market context refreshed for all tiers", body["message"])

	// Every tier and mode pair is now cached
	statsRec := ts.request(t, http.MethodGet, "/api/cache/stats", "")
	require.Equal(t, http.StatusOK, statsRec.Code)

	var stats marketctx.CacheStats
	decodeBody(t, statsRec, &stats)
	assert.Equal(t, 6, stats.SummaryEntries)
}

func TestCacheStats(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodGet, "/api/cache/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats marketctx.CacheStats
	decodeBody(t, rec, &stats)
	assert.Equal(t, 0, stats.SummaryEntries)

	ts.request(t, http.MethodGet, "/api/context/premium", "")

	rec = ts.request(t, http.MethodGet, "/api/cache/stats", "")
	decodeBody(t, rec, &stats)
	assert.Equal(t, 1, stats.SummaryEntries)
	assert.Contains(t, stats.SummaryKeys, "market_context_premium_live")
}

func TestInvalidateCache(t *testing.T) {
	ts := newTestServer(t)

	// Prime the summary cache
	ts.request(t, http.MethodGet, "/api/context/premium", "")

	rec := ts.request(t, http.MethodPost, "/api/cache/invalidate", `{"pattern": "premium"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status  string `json:"status"`
		Pattern string `json:"pattern"`
		Removed int    `json:"removed"`
	}
	decodeBody(t, rec, &body)

	assert.Equal(t, "success", body.Status)
	assert.Equal(t, "premium", body.Pattern)
	assert.Equal(t, 1, body.Removed)
}

func TestInvalidateCache_MissingPattern(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodPost, "/api/cache/invalidate", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	decodeBody(t, rec, &body)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "pattern is required", body["message"])
}

func TestInvalidateCache_InvalidBody(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodPost, "/api/cache/invalidate", "not json")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	decodeBody(t, rec, &body)
	assert.Equal(t, "error", body["status"])
	assert.Contains(t, body["message"], "invalid request body")
}
