// Package observations provides persistent history for fetched market metrics.
// Every successful upstream fetch is recorded here, giving the providers a
// last-known-good fallback that survives restarts and giving the insight
// engine a series to compute trends over.
package observations

import (
	"database/sql"
	"fmt"
	"time"
)

// Metric names recorded by the providers.
const (
	MetricFedFundsRate    = "fed_funds_rate"
	MetricCPI             = "cpi"
	MetricMortgageRate30Y = "mortgage_rate_30y"
	MetricCreditCardAPR   = "credit_card_apr"
)

// Observation is one recorded metric value
type Observation struct {
	Metric     string
	ObservedAt string // series observation date, YYYY-MM-DD
	Source     string
	Value      float64
	RecordedAt time.Time
}

// Repository provides storage operations for metric observations.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new observations repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Record stores an observation, replacing any earlier row for the same
// metric and observation date.
func (r *Repository) Record(obs Observation) error {
	if obs.Metric == "" {
		return fmt.Errorf("observation metric is empty")
	}
	if obs.ObservedAt == "" {
		return fmt.Errorf("observation date is empty for metric %s", obs.Metric)
	}

	recordedAt := obs.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}

	_, err := r.db.Exec(
		"INSERT OR REPLACE INTO observations (metric, observed_at, value, source, recorded_at) VALUES (?, ?, ?, ?, ?)",
		obs.Metric, obs.ObservedAt, obs.Value, obs.Source, recordedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record observation for %s: %w", obs.Metric, err)
	}

	return nil
}

// Latest returns the most recent observation for a metric regardless of
// age. Stale history is still a better fallback than nothing.
// Returns nil, nil when the metric has no history.
func (r *Repository) Latest(metric string) (*Observation, error) {
	row := r.db.QueryRow(
		"SELECT metric, observed_at, value, source, recorded_at FROM observations WHERE metric = ? ORDER BY observed_at DESC LIMIT 1",
		metric,
	)

	obs, err := scanObservation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest observation for %s: %w", metric, err)
	}

	return obs, nil
}

// Series returns up to limit observations for a metric, newest first.
func (r *Repository) Series(metric string, limit int) ([]Observation, error) {
	if limit <= 0 {
		limit = 30
	}

	rows, err := r.db.Query(
		"SELECT metric, observed_at, value, source, recorded_at FROM observations WHERE metric = ? ORDER BY observed_at DESC LIMIT ?",
		metric, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query observation series for %s: %w", metric, err)
	}
	defer rows.Close()

	var series []Observation
	for rows.Next() {
		obs, err := scanObservation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan observation for %s: %w", metric, err)
		}
		series = append(series, *obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate observations for %s: %w", metric, err)
	}

	return series, nil
}

// CountByMetric returns the number of stored observations per metric.
func (r *Repository) CountByMetric() (map[string]int64, error) {
	rows, err := r.db.Query("SELECT metric, COUNT(*) FROM observations GROUP BY metric")
	if err != nil {
		return nil, fmt.Errorf("failed to count observations: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var metric string
		var count int64
		if err := rows.Scan(&metric, &count); err != nil {
			return nil, fmt.Errorf("failed to scan observation count: %w", err)
		}
		counts[metric] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate observation counts: %w", err)
	}

	return counts, nil
}

// DeleteOlderThan removes observations recorded before the retention
// window. Returns the number of rows deleted.
func (r *Repository) DeleteOlderThan(retentionDays int) (int64, error) {
	if retentionDays < 1 {
		return 0, fmt.Errorf("invalid retention window: %d days", retentionDays)
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays).Unix()

	result, err := r.db.Exec("DELETE FROM observations WHERE recorded_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old observations: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanObservation(s scanner) (*Observation, error) {
	var obs Observation
	var recordedAt int64
	if err := s.Scan(&obs.Metric, &obs.ObservedAt, &obs.Value, &obs.Source, &recordedAt); err != nil {
		return nil, err
	}
	obs.RecordedAt = time.Unix(recordedAt, 0)
	return &obs, nil
}
