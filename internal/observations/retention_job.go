package observations

import (
	"github.com/rs/zerolog"
)

// RetentionJob prunes observation history past the retention window.
// It should be scheduled to run daily.
type RetentionJob struct {
	repo          *Repository
	retentionDays int
	log           zerolog.Logger
}

// NewRetentionJob creates a new observation retention job.
func NewRetentionJob(repo *Repository, retentionDays int, log zerolog.Logger) *RetentionJob {
	return &RetentionJob{
		repo:          repo,
		retentionDays: retentionDays,
		log:           log.With().Str("job", "observation_retention").Logger(),
	}
}

// Run executes the retention job, removing observations recorded before
// the retention window.
func (j *RetentionJob) Run() error {
	deleted, err := j.repo.DeleteOlderThan(j.retentionDays)
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to delete old observations")
		return err
	}

	if deleted > 0 {
		j.log.Info().
			Int64("deleted", deleted).
			Int("retention_days", j.retentionDays).
			Msg("Pruned old observations")
	}

	return nil
}

// Name returns the job name for scheduling and logging.
func (j *RetentionJob) Name() string {
	return "observation_retention"
}
