package store

import (
	"database/sql"
	"log"
	"time"

	"github.com/lox/weather8/internal/weatherapi"
)

// FetchRun is one provider call, recorded for diagnostics.
type FetchRun struct {
	ID                int64
	StartedAt         time.Time
	Endpoint          string // "current.json", "forecast.json", "search.json"
	Query             string
	HTTPStatus        sql.NullInt64
	ResponseSizeBytes sql.NullInt64
	DurationMS        int64
	Success           bool
	ErrorKind         sql.NullString
	ErrorMessage      sql.NullString
}

// InsertFetchRun records run and returns its ID.
func (s *Store) InsertFetchRun(run FetchRun) (int64, error) {
	result, err := s.db.Exec(`
		INSERT INTO fetch_runs (started_at, endpoint, query, http_status, response_size_bytes, duration_ms, success, error_kind, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.StartedAt.UTC(), run.Endpoint, run.Query, run.HTTPStatus, run.ResponseSizeBytes,
		run.DurationMS, run.Success, run.ErrorKind, run.ErrorMessage)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// RecordFetch stores a client FetchResult. It matches the weatherapi.WithObserver
// signature; failures are logged rather than returned.
func (s *Store) RecordFetch(r weatherapi.FetchResult) {
	run := FetchRun{
		StartedAt:  time.Now().Add(-r.Duration).UTC(),
		Endpoint:   r.Endpoint,
		Query:      r.Query,
		DurationMS: r.Duration.Milliseconds(),
		Success:    r.Err == nil,
	}
	if r.HTTPStatus > 0 {
		run.HTTPStatus = sql.NullInt64{Int64: int64(r.HTTPStatus), Valid: true}
	}
	if r.ResponseSize > 0 {
		run.ResponseSizeBytes = sql.NullInt64{Int64: int64(r.ResponseSize), Valid: true}
	}
	if r.Err != nil {
		kind, _ := weatherapi.KindOf(r.Err)
		run.ErrorKind = sql.NullString{String: kind.String(), Valid: true}
		run.ErrorMessage = sql.NullString{String: r.Err.Error(), Valid: true}
	}

	if _, err := s.InsertFetchRun(run); err != nil {
		log.Printf("store: record fetch %s: %v", r.Endpoint, err)
	}
}

// RecentFetchRuns returns the newest runs first.
func (s *Store) RecentFetchRuns(limit int) ([]FetchRun, error) {
	rows, err := s.db.Query(`
		SELECT id, started_at, endpoint, query, http_status, response_size_bytes,
			   duration_ms, success, error_kind, error_message
		FROM fetch_runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []FetchRun
	for rows.Next() {
		var r FetchRun
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.Endpoint, &r.Query, &r.HTTPStatus,
			&r.ResponseSizeBytes, &r.DurationMS, &r.Success, &r.ErrorKind, &r.ErrorMessage); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// FetchSummary aggregates runs for one endpoint.
type FetchSummary struct {
	Endpoint      string
	TotalRuns     int
	FailedRuns    int
	AvgDurationMS float64
	LastStartedAt sql.NullString
}

// FetchSummaries returns per-endpoint totals ordered by endpoint.
func (s *Store) FetchSummaries() ([]FetchSummary, error) {
	rows, err := s.db.Query(`
		SELECT
			endpoint,
			COUNT(*) as total_runs,
			SUM(CASE WHEN NOT success THEN 1 ELSE 0 END) as failed_runs,
			COALESCE(AVG(duration_ms), 0) as avg_duration_ms,
			MAX(started_at) as last_started_at
		FROM fetch_runs
		GROUP BY endpoint
		ORDER BY endpoint
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []FetchSummary
	for rows.Next() {
		var f FetchSummary
		if err := rows.Scan(&f.Endpoint, &f.TotalRuns, &f.FailedRuns, &f.AvgDurationMS, &f.LastStartedAt); err != nil {
			return nil, err
		}
		results = append(results, f)
	}
	return results, rows.Err()
}
