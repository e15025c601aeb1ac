package reliability

import (
	"context"
	"fmt"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/hartfield/compass/internal/database"
	"github.com/hartfield/compass/internal/observations"
)

const integrityCheckTimeout = time.Minute

// MaintenanceJob performs daily upkeep of the observations database:
// integrity check, WAL checkpoint, disk space check, and a growth report.
type MaintenanceJob struct {
	db      *database.DB
	history *observations.Repository
	dataDir string
	log     zerolog.Logger
}

// NewMaintenanceJob creates the daily maintenance job.
func NewMaintenanceJob(db *database.DB, history *observations.Repository, dataDir string, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		db:      db,
		history: history,
		dataDir: dataDir,
		log:     log.With().Str("job", "daily_maintenance").Logger(),
	}
}

// Run executes the daily maintenance steps.
func (j *MaintenanceJob) Run() error {
	j.log.Info().Msg("Starting daily maintenance")
	startTime := time.Now()

	// Step 1: Integrity check
	ctx, cancel := context.WithTimeout(context.Background(), integrityCheckTimeout)
	defer cancel()

	if err := j.db.HealthCheck(ctx); err != nil {
		j.log.Error().Err(err).Msg("CRITICAL: Database integrity check failed")
		return fmt.Errorf("integrity check failed: %w", err)
	}

	// Step 2: WAL checkpoint (prevent bloat)
	if err := j.db.WALCheckpoint("TRUNCATE"); err != nil {
		j.log.Warn().Err(err).Msg("WAL checkpoint failed")
		// Not critical, the next checkpoint will catch up
	}

	// Step 3: Check disk space
	if err := j.checkDiskSpace(); err != nil {
		return err // HALT if critical
	}

	// Step 4: Report database growth
	j.reportGrowth()

	j.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Msg("Daily maintenance completed successfully")

	return nil
}

// Name returns the job name for the scheduler.
func (j *MaintenanceJob) Name() string {
	return "daily_maintenance"
}

// checkDiskSpace verifies sufficient disk space is available
func (j *MaintenanceJob) checkDiskSpace() error {
	stat := syscall.Statfs_t{}
	if err := syscall.Statfs(j.dataDir, &stat); err != nil {
		return fmt.Errorf("failed to stat filesystem: %w", err)
	}

	availableBytes := stat.Bavail * uint64(stat.Bsize)
	availableGB := float64(availableBytes) / 1e9

	j.log.Debug().Float64("available_gb", availableGB).Msg("Disk space check")

	// CRITICAL: Less than 500MB
	if availableGB < 0.5 {
		j.log.Error().
			Float64("available_gb", availableGB).
			Msg("CRITICAL: Insufficient disk space")
		return fmt.Errorf("CRITICAL: Only %.2f GB free", availableGB)
	}

	// ERROR: Less than 5GB
	if availableGB < 5.0 {
		j.log.Error().
			Float64("available_gb", availableGB).
			Msg("Low disk space - consider cleanup")
	}

	// WARNING: Less than 10GB
	if availableGB < 10.0 {
		j.log.Warn().
			Float64("available_gb", availableGB).
			Msg("Disk space running low")
	}

	return nil
}

// reportGrowth logs the size of the database and the row count per metric.
func (j *MaintenanceJob) reportGrowth() {
	stats, err := j.db.GetStats()
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to get database stats")
		return
	}

	j.log.Info().
		Float64("size_mb", float64(stats.SizeBytes)/1024/1024).
		Float64("wal_size_mb", float64(stats.WALSizeBytes)/1024/1024).
		Int64("free_pages", stats.FreelistCount).
		Msg("Database metrics")

	if j.history == nil {
		return
	}

	counts, err := j.history.CountByMetric()
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to count observations")
		return
	}

	for metric, count := range counts {
		j.log.Debug().
			Str("metric", metric).
			Int64("rows", count).
			Msg("Observation count")
	}
}

// VacuumJob compacts the observations database. VACUUM rewrites the whole
// file, so it runs on a weekly schedule rather than daily.
type VacuumJob struct {
	db  *database.DB
	log zerolog.Logger
}

// NewVacuumJob creates the weekly vacuum job.
func NewVacuumJob(db *database.DB, log zerolog.Logger) *VacuumJob {
	return &VacuumJob{
		db:  db,
		log: log.With().Str("job", "weekly_vacuum").Logger(),
	}
}

// Run executes VACUUM and logs the space reclaimed.
func (j *VacuumJob) Run() error {
	j.log.Info().Msg("Starting VACUUM")
	startTime := time.Now()

	sizeBefore := j.logicalSizeMB()

	if err := j.db.Vacuum(); err != nil {
		return fmt.Errorf("VACUUM failed: %w", err)
	}

	sizeAfter := j.logicalSizeMB()

	j.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Float64("size_before_mb", sizeBefore).
		Float64("size_after_mb", sizeAfter).
		Float64("space_reclaimed_mb", sizeBefore-sizeAfter).
		Msg("VACUUM completed")

	return nil
}

// Name returns the job name for the scheduler.
func (j *VacuumJob) Name() string {
	return "weekly_vacuum"
}

func (j *VacuumJob) logicalSizeMB() float64 {
	stats, err := j.db.GetStats()
	if err != nil {
		return 0
	}
	return float64(stats.PageCount*stats.PageSize) / 1024 / 1024
}
