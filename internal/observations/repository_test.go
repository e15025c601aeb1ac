package observations

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSchema mirrors the observations schema applied by database.Migrate.
const testSchema = `
CREATE TABLE observations (
    metric      TEXT NOT NULL,
    observed_at TEXT NOT NULL,
    value       REAL NOT NULL,
    source      TEXT NOT NULL DEFAULT '',
    recorded_at INTEGER NOT NULL,
    PRIMARY KEY (metric, observed_at)
);

CREATE INDEX idx_observations_recorded ON observations(recorded_at);
`

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	return db
}

func TestRecordAndLatest(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	err := repo.Record(Observation{
		Metric:     MetricFedFundsRate,
		ObservedAt: "2025-08-01",
		Value:      5.33,
		Source:     "FRED",
	})
	require.NoError(t, err)

	latest, err := repo.Latest(MetricFedFundsRate)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, MetricFedFundsRate, latest.Metric)
	assert.Equal(t, "2025-08-01", latest.ObservedAt)
	assert.Equal(t, 5.33, latest.Value)
	assert.Equal(t, "FRED", latest.Source)
	assert.WithinDuration(t, time.Now(), latest.RecordedAt, 5*time.Second)
}

func TestLatestNoHistory(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	latest, err := repo.Latest(MetricCPI)
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestLatestPicksNewestObservationDate(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	dates := []string{"2025-06-01", "2025-08-01", "2025-07-01"}
	for i, date := range dates {
		err := repo.Record(Observation{
			Metric:     MetricCPI,
			ObservedAt: date,
			Value:      3.0 + float64(i)*0.1,
			Source:     "FRED",
		})
		require.NoError(t, err)
	}

	latest, err := repo.Latest(MetricCPI)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "2025-08-01", latest.ObservedAt)
}

func TestRecordDeduplicatesSameDate(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	err := repo.Record(Observation{Metric: MetricCPI, ObservedAt: "2025-08-01", Value: 3.1, Source: "FRED"})
	require.NoError(t, err)
	err = repo.Record(Observation{Metric: MetricCPI, ObservedAt: "2025-08-01", Value: 3.2, Source: "FRED"})
	require.NoError(t, err)

	series, err := repo.Series(MetricCPI, 10)
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, 3.2, series[0].Value)
}

func TestRecordValidation(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	err := repo.Record(Observation{ObservedAt: "2025-08-01", Value: 1})
	assert.Error(t, err)

	err = repo.Record(Observation{Metric: MetricCPI, Value: 1})
	assert.Error(t, err)
}

func TestSeriesNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	for _, date := range []string{"2025-05-01", "2025-06-01", "2025-07-01", "2025-08-01"} {
		err := repo.Record(Observation{Metric: MetricMortgageRate30Y, ObservedAt: date, Value: 6.8, Source: "FRED"})
		require.NoError(t, err)
	}

	series, err := repo.Series(MetricMortgageRate30Y, 3)
	require.NoError(t, err)
	require.Len(t, series, 3)
	assert.Equal(t, "2025-08-01", series[0].ObservedAt)
	assert.Equal(t, "2025-07-01", series[1].ObservedAt)
	assert.Equal(t, "2025-06-01", series[2].ObservedAt)
}

func TestSeriesEmptyMetric(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	series, err := repo.Series("unknown_metric", 10)
	require.NoError(t, err)
	assert.Empty(t, series)
}

func TestCountByMetric(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	require.NoError(t, repo.Record(Observation{Metric: MetricCPI, ObservedAt: "2025-07-01", Value: 3.0}))
	require.NoError(t, repo.Record(Observation{Metric: MetricCPI, ObservedAt: "2025-08-01", Value: 3.1}))
	require.NoError(t, repo.Record(Observation{Metric: MetricFedFundsRate, ObservedAt: "2025-08-01", Value: 5.3}))

	counts, err := repo.CountByMetric()
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[MetricCPI])
	assert.Equal(t, int64(1), counts[MetricFedFundsRate])
}

func TestDeleteOlderThan(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	oldRecordedAt := time.Now().AddDate(0, 0, -200)
	require.NoError(t, repo.Record(Observation{
		Metric:     MetricCPI,
		ObservedAt: "2025-01-01",
		Value:      3.4,
		RecordedAt: oldRecordedAt,
	}))
	require.NoError(t, repo.Record(Observation{
		Metric:     MetricCPI,
		ObservedAt: "2025-08-01",
		Value:      3.1,
	}))

	deleted, err := repo.DeleteOlderThan(180)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	series, err := repo.Series(MetricCPI, 10)
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, "2025-08-01", series[0].ObservedAt)
}

func TestDeleteOlderThanInvalidWindow(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	_, err := repo.DeleteOlderThan(0)
	assert.Error(t, err)
}
