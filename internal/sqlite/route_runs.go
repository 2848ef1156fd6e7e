package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// RouteRun summarizes how often a given point list has been optimized
type RouteRun struct {
	Fingerprint string    `json:"fingerprint"`
	PointCount  int       `json:"pointCount"`
	DistanceKm  float64   `json:"distanceKm"`
	Runs        int       `json:"runs"`
	LastRunAt   time.Time `json:"lastRunAt"`
}

// RouteRunRepository records optimization runs keyed by request fingerprint
type RouteRunRepository struct {
	store *Store
}

// Record stores a run, incrementing the counter when the fingerprint is known
func (r *RouteRunRepository) Record(ctx context.Context, fingerprint string, pointCount int, distanceKm float64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	query := `INSERT INTO route_runs (fingerprint, point_count, distance_km, runs, last_run_at)
	          VALUES (?, ?, ?, 1, ?)
	          ON CONFLICT(fingerprint) DO UPDATE SET
	              point_count = excluded.point_count,
	              distance_km = excluded.distance_km,
	              runs = route_runs.runs + 1,
	              last_run_at = excluded.last_run_at`

	_, err := r.store.db.ExecContext(ctx, query, fingerprint, pointCount, distanceKm, r.store.now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to record route run: %w", err)
	}

	return nil
}

// Get returns the run summary for fingerprint, or nil when it was never recorded
func (r *RouteRunRepository) Get(ctx context.Context, fingerprint string) (*RouteRun, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	query := `SELECT fingerprint, point_count, distance_km, runs, last_run_at
	          FROM route_runs WHERE fingerprint = ?`

	var run RouteRun
	var lastRun int64
	err := r.store.db.QueryRowContext(ctx, query, fingerprint).Scan(
		&run.Fingerprint, &run.PointCount, &run.DistanceKm, &run.Runs, &lastRun,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get route run: %w", err)
	}

	run.LastRunAt = time.Unix(0, lastRun)
	return &run, nil
}
