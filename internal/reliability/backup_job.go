package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const backupTimeout = 10 * time.Minute

// BackupJob creates a backup archive, uploads it, and rotates old archives.
type BackupJob struct {
	backups       *BackupService
	retentionDays int
	log           zerolog.Logger
}

// NewBackupJob creates the scheduled backup job.
func NewBackupJob(backups *BackupService, retentionDays int, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		backups:       backups,
		retentionDays: retentionDays,
		log:           log.With().Str("job", "backup").Logger(),
	}
}

// Run creates and uploads a backup, then applies the retention policy.
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), backupTimeout)
	defer cancel()

	startTime := time.Now()

	if err := j.backups.CreateAndUploadBackup(ctx); err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	if err := j.backups.RotateOldBackups(ctx, j.retentionDays); err != nil {
		// The fresh backup is already safe, rotation can wait a day
		j.log.Warn().Err(err).Msg("Backup rotation failed")
	}

	j.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Msg("Backup job finished")

	return nil
}

// Name returns the job name for the scheduler.
func (j *BackupJob) Name() string {
	return "s3_backup"
}
