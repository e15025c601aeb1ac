package server

import (
	"encoding/json"
	"net/http"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/hartfield/compass/internal/database"
	"github.com/hartfield/compass/internal/marketctx"
	"github.com/hartfield/compass/internal/reliability"
	"github.com/hartfield/compass/internal/scheduler"
	"github.com/hartfield/compass/internal/version"
)

// SystemHandlers handles system monitoring and operations endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	dataDir     string
	startupTime time.Time
	db          *database.DB
	orch        *marketctx.Orchestrator
	sched       *scheduler.Scheduler
	backups     *reliability.BackupService

	// Jobs (set after job registration in main.go)
	contextRefreshJob scheduler.Job
	backupJob         scheduler.Job
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(
	log zerolog.Logger,
	dataDir string,
	db *database.DB,
	orch *marketctx.Orchestrator,
	sched *scheduler.Scheduler,
	backups *reliability.BackupService,
) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("component", "system_handlers").Logger(),
		dataDir:     dataDir,
		startupTime: time.Now(),
		db:          db,
		orch:        orch,
		sched:       sched,
		backups:     backups,
	}
}

// SetJobs registers job references for manual triggering.
// Called after jobs are registered in main.go.
func (h *SystemHandlers) SetJobs(contextRefresh, backup scheduler.Job) {
	h.contextRefreshJob = contextRefresh
	h.backupJob = backup
}

// SystemStatusResponse represents the system status response
type SystemStatusResponse struct {
	Status           string         `json:"status"` // "healthy" or "degraded"
	Version          string         `json:"version"`
	UptimeHours      float64        `json:"uptime_hours"`
	CPUPercent       float64        `json:"cpu_percent"`
	RAMPercent       float64        `json:"ram_percent"`
	DiskFreeGB       float64        `json:"disk_free_gb"`
	Database         DatabaseStatus `json:"database"`
	SummaryEntries   int            `json:"summary_entries"`
	DataCacheEntries int            `json:"data_cache_entries"`
}

// DatabaseStatus represents observations database statistics
type DatabaseStatus struct {
	SizeMB    float64 `json:"size_mb"`
	WALSizeMB float64 `json:"wal_size_mb"`
	FreePages int64   `json:"free_pages"`
}

// JobsStatusResponse represents scheduler job status
type JobsStatusResponse struct {
	TotalJobs int      `json:"total_jobs"`
	Jobs      []string `json:"jobs"`
}

// BackupsResponse lists stored backup archives
type BackupsResponse struct {
	Status  string                   `json:"status"`
	Count   int                      `json:"count"`
	Backups []reliability.BackupInfo `json:"backups"`
}

// HandleSystemStatus returns process and storage health
// GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	cpuPercent, ramPercent := h.getSystemStats()
	cacheStats := h.orch.GetCacheStats()

	response := SystemStatusResponse{
		Status:           "healthy",
		Version:          version.Version,
		UptimeHours:      time.Since(h.startupTime).Hours(),
		CPUPercent:       cpuPercent,
		RAMPercent:       ramPercent,
		DiskFreeGB:       h.diskFreeGB(),
		SummaryEntries:   cacheStats.SummaryEntries,
		DataCacheEntries: cacheStats.DataCache.Size,
	}

	dbStats, err := h.db.GetStats()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get database stats")
		response.Status = "degraded"
	} else {
		response.Database = DatabaseStatus{
			SizeMB:    float64(dbStats.SizeBytes) / 1024 / 1024,
			WALSizeMB: float64(dbStats.WALSizeBytes) / 1024 / 1024,
			FreePages: dbStats.FreelistCount,
		}
	}

	h.writeJSON(w, response)
}

// HandleJobsStatus returns scheduler job status
// GET /api/system/jobs
func (h *SystemHandlers) HandleJobsStatus(w http.ResponseWriter, r *http.Request) {
	jobs := h.sched.Jobs()

	h.writeJSON(w, JobsStatusResponse{
		TotalJobs: len(jobs),
		Jobs:      jobs,
	})
}

// HandleListBackups returns the backup archives in the object store
// GET /api/system/backups
func (h *SystemHandlers) HandleListBackups(w http.ResponseWriter, r *http.Request) {
	if h.backups == nil {
		h.writeJSON(w, map[string]string{
			"status":  "disabled",
			"message": "Backups are not configured",
		})
		return
	}

	backups, err := h.backups.ListBackups(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list backups")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, BackupsResponse{
		Status:  "success",
		Count:   len(backups),
		Backups: backups,
	})
}

// HandleTriggerContextRefresh triggers the context refresh job immediately
// POST /api/system/jobs/context-refresh
func (h *SystemHandlers) HandleTriggerContextRefresh(w http.ResponseWriter, r *http.Request) {
	if h.contextRefreshJob == nil {
		h.log.Warn().Msg("Context refresh job not registered yet")
		h.writeJSON(w, map[string]string{
			"status":  "error",
			"message": "Context refresh job not registered",
		})
		return
	}

	h.log.Info().Msg("Manual context refresh job triggered")
	h.runInBackground(h.contextRefreshJob)

	h.writeJSON(w, map[string]string{
		"status":  "success",
		"message": "Context refresh triggered successfully",
	})
}

// HandleTriggerBackup triggers the backup job immediately
// POST /api/system/jobs/backup
func (h *SystemHandlers) HandleTriggerBackup(w http.ResponseWriter, r *http.Request) {
	if h.backupJob == nil {
		h.log.Warn().Msg("Backup job not registered yet")
		h.writeJSON(w, map[string]string{
			"status":  "error",
			"message": "Backup job not registered",
		})
		return
	}

	h.log.Info().Msg("Manual backup triggered")
	h.runInBackground(h.backupJob)

	h.writeJSON(w, map[string]string{
		"status":  "success",
		"message": "Backup triggered successfully",
	})
}

// runInBackground executes a job without holding the request open.
// Failures land in the log, same as scheduled runs.
func (h *SystemHandlers) runInBackground(job scheduler.Job) {
	go func() {
		if err := h.sched.RunNow(job); err != nil {
			h.log.Error().Err(err).Str("job", job.Name()).Msg("Manually triggered job failed")
		}
	}()
}

// diskFreeGB reports free space on the volume holding the data directory
func (h *SystemHandlers) diskFreeGB() float64 {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(h.dataDir, &stat); err != nil {
		h.log.Warn().Err(err).Msg("Failed to check disk space")
		return 0
	}
	return float64(stat.Bavail*uint64(stat.Bsize)) / 1024 / 1024 / 1024
}

// getSystemStats calculates CPU and RAM usage percentages.
// Uses a 100ms sampling interval so the status endpoint stays fast.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

// writeJSON writes a JSON response with a 200 status
func (h *SystemHandlers) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
