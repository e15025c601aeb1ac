package marketctx

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// refreshTimeout bounds one full refresh sweep across tiers and modes
const refreshTimeout = 2 * time.Minute

// RefreshJob rebuilds every cached summary so chat requests are served
// warm context instead of paying the provider round trip themselves.
// It should be scheduled at the orchestrator's refresh interval.
type RefreshJob struct {
	orch *Orchestrator
	log  zerolog.Logger
}

// NewRefreshJob creates a new context refresh job.
func NewRefreshJob(orch *Orchestrator, log zerolog.Logger) *RefreshJob {
	return &RefreshJob{
		orch: orch,
		log:  log.With().Str("job", "context_refresh").Logger(),
	}
}

// Run refreshes the summaries for all tiers and modes.
func (j *RefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	started := time.Now()
	j.orch.ForceRefreshAll(ctx)

	j.log.Info().
		Dur("took", time.Since(started)).
		Int("summaries", j.orch.GetCacheStats().SummaryEntries).
		Msg("Refreshed market context caches")
	return nil
}

// Name returns the job name for scheduling and logging.
func (j *RefreshJob) Name() string {
	return "context_refresh"
}
