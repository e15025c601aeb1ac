// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir         string // Base directory for local state (observations DB, backup staging), always absolute
	LogLevel        string
	FredAPIKey      string // FRED API key, optional; placeholder indicators when empty
	FredBaseURL     string
	RateFeedAPIKey  string // rate feed API key, optional; sandbox rate boards when empty
	RateFeedBaseURL string
	Port            int
	DevMode         bool
	RefreshInterval time.Duration // how often cached market context is considered stale
	RetentionDays   int           // observation history retention window
	Backup          *BackupConfig
}

// BackupConfig holds S3 backup configuration for the observations database.
// Backups stay disabled unless every credential field is set.
type BackupConfig struct {
	Bucket          string
	Region          string
	Endpoint        string // optional, for S3-compatible stores
	AccessKeyID     string
	SecretAccessKey string
	RetentionDays   int
	Schedule        string // cron spec (with seconds field)
}

// Enabled reports whether backup credentials are fully configured
func (b *BackupConfig) Enabled() bool {
	return b.Bucket != "" && b.AccessKeyID != "" && b.SecretAccessKey != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Resolve the data directory to an absolute path and make sure it
	// exists before anything tries to open a database under it.
	dataDir := getEnv("COMPASS_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:         absDataDir,
		Port:            getEnvAsInt("PORT", 8010),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		FredAPIKey:      getEnv("FRED_API_KEY", ""),
		FredBaseURL:     getEnv("FRED_BASE_URL", "https://api.stlouisfed.org/fred"),
		RateFeedAPIKey:  getEnv("RATEFEED_API_KEY", ""),
		RateFeedBaseURL: getEnv("RATEFEED_BASE_URL", "https://api.ratefeed.io/v1"),
		RefreshInterval: getEnvAsDuration("CONTEXT_REFRESH_INTERVAL", time.Hour),
		RetentionDays:   getEnvAsInt("OBSERVATION_RETENTION_DAYS", 180),
		Backup:          loadBackupConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present and sane
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.RefreshInterval < time.Minute {
		return fmt.Errorf("refresh interval too short: %s (minimum 1m)", c.RefreshInterval)
	}
	if c.RetentionDays < 1 {
		return fmt.Errorf("invalid observation retention: %d days", c.RetentionDays)
	}

	// Upstream credentials are optional. Without them the providers run
	// on placeholder and sandbox data, which is a valid deployment.
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// loadBackupConfig loads S3 backup settings. Credentials left empty keep
// the backup job disabled.
func loadBackupConfig() *BackupConfig {
	return &BackupConfig{
		Bucket:          getEnv("S3_BACKUP_BUCKET", ""),
		Region:          getEnv("S3_BACKUP_REGION", "auto"),
		Endpoint:        getEnv("S3_BACKUP_ENDPOINT", ""),
		AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		RetentionDays:   getEnvAsInt("S3_BACKUP_RETENTION_DAYS", 30),
		Schedule:        getEnv("S3_BACKUP_SCHEDULE", "0 0 4 * * *"),
	}
}
