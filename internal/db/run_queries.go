package db

import (
	"context"
	"fmt"
	"strings"
)

// RunCounts is the per-status increment applied to an ingestion run when a
// record operation lands.
type RunCounts struct {
	Total     int64
	New       int64
	Updated   int64
	Duplicate int64
}

// IngestionMetrics aggregates run counters over a started_at window.
type IngestionMetrics struct {
	TotalRuns        int64 `json:"total_runs"`
	RecordsProcessed int64 `json:"records_processed"`
	NewRecords       int64 `json:"new_records"`
	UpdatedRecords   int64 `json:"updated_records"`
	DuplicateRecords int64 `json:"duplicate_records"`
}

// CreateIngestionRun opens a new run in running state and returns its id.
func (p *Pool) CreateIngestionRun(ctx context.Context, source *string, startedAt string, metadata *string) (int64, error) {
	if strings.TrimSpace(startedAt) == "" {
		return 0, fmt.Errorf("startedAt is required")
	}

	const q = `
INSERT INTO ingestion_runs (source, started_at, metadata)
VALUES (?, ?, ?)
RETURNING id`

	var runID int64
	if err := p.QueryRow(ctx, q, source, startedAt, metadata).Scan(&runID); err != nil {
		return 0, fmt.Errorf("insert ingestion run: %w", err)
	}
	return runID, nil
}

// CompleteIngestionRun closes a run. A nil metadata keeps whatever the run
// already carries.
func (p *Pool) CompleteIngestionRun(ctx context.Context, runID int64, status, completedAt string, metadata *string) error {
	const q = `
UPDATE ingestion_runs
   SET status = ?,
       completed_at = ?,
       metadata = COALESCE(?, metadata)
 WHERE id = ?`

	tag, err := p.Exec(ctx, q, status, completedAt, metadata, runID)
	if err != nil {
		return fmt.Errorf("complete ingestion run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ingestion run %d not found", runID)
	}
	return nil
}

// IncrementIngestionRun bumps run counters inside the caller's transaction
// so the record write and its accounting commit together.
func IncrementIngestionRun(ctx context.Context, tx Tx, runID int64, counts RunCounts) error {
	const q = `
UPDATE ingestion_runs
   SET total_records = total_records + ?,
       new_records = new_records + ?,
       updated_records = updated_records + ?,
       duplicate_records = duplicate_records + ?
 WHERE id = ?`

	tag, err := tx.Exec(ctx, q, counts.Total, counts.New, counts.Updated, counts.Duplicate, runID)
	if err != nil {
		return fmt.Errorf("increment ingestion run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ingestion run %d not found", runID)
	}
	return nil
}

// IngestionRunByID fetches a single run row.
func (p *Pool) IngestionRunByID(ctx context.Context, runID int64) (*IngestionRun, error) {
	const q = `
SELECT id, source, started_at, completed_at, status,
       total_records, new_records, updated_records, duplicate_records, metadata
FROM ingestion_runs
WHERE id = ?`

	var run IngestionRun
	err := p.QueryRow(ctx, q, runID).Scan(
		&run.ID,
		&run.Source,
		&run.StartedAt,
		&run.CompletedAt,
		&run.Status,
		&run.TotalRecords,
		&run.NewRecords,
		&run.UpdatedRecords,
		&run.DuplicateRecords,
		&run.Metadata,
	)
	if err != nil {
		return nil, fmt.Errorf("query ingestion run: %w", err)
	}
	return &run, nil
}

// QueryIngestionMetrics sums run counters over runs whose started_at date
// falls in the inclusive range. Empty bounds leave that side open.
func (p *Pool) QueryIngestionMetrics(ctx context.Context, startDate, endDate string) (*IngestionMetrics, error) {
	query := []string{`
SELECT COUNT(*),
       COALESCE(SUM(total_records), 0),
       COALESCE(SUM(new_records), 0),
       COALESCE(SUM(updated_records), 0),
       COALESCE(SUM(duplicate_records), 0)
FROM ingestion_runs`}
	var (
		clauses []string
		args    []any
	)
	if startDate != "" {
		clauses = append(clauses, "date(started_at) >= ?")
		args = append(args, DatePart(startDate))
	}
	if endDate != "" {
		clauses = append(clauses, "date(started_at) <= ?")
		args = append(args, DatePart(endDate))
	}
	if len(clauses) > 0 {
		query = append(query, "WHERE "+strings.Join(clauses, " AND "))
	}

	var metrics IngestionMetrics
	err := p.QueryRow(ctx, strings.Join(query, "\n"), args...).Scan(
		&metrics.TotalRuns,
		&metrics.RecordsProcessed,
		&metrics.NewRecords,
		&metrics.UpdatedRecords,
		&metrics.DuplicateRecords,
	)
	if err != nil {
		return nil, fmt.Errorf("query ingestion metrics: %w", err)
	}
	return &metrics, nil
}
