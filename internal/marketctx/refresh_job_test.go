package marketctx

import (
	"testing"

	"github.com/hartfield/compass/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshJob_Run(t *testing.T) {
	eco := &mockEconomicProvider{bundle: indicatorsFixture(5.33, 3.1, 6.7, 21.4)}
	live := &mockLiveProvider{bundle: liveFixture(5.25)}
	orch, _ := newTestOrchestrator(eco, live, nil, 0)
	log := logger.New(logger.Config{Level: "error", Pretty: false})

	job := NewRefreshJob(orch, log)
	require.NoError(t, job.Run())

	assert.Equal(t, "context_refresh", job.Name())
	assert.Equal(t, 6, orch.GetCacheStats().SummaryEntries)
}
