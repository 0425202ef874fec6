package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"imagestudio/internal/infra"
	"imagestudio/internal/sqlinline"
	"imagestudio/internal/studio"
)

// Queries is the generation-history store. It is optional; the service runs
// without it when no database is configured.
type Queries struct {
	db infra.SQLExecutor
}

// New wraps an executor.
func New(db infra.SQLExecutor) *Queries {
	return &Queries{db: db}
}

// EnsureSchema creates the generations table when it does not exist yet.
func (q *Queries) EnsureSchema(ctx context.Context) error {
	if _, err := q.db.Exec(ctx, sqlinline.QCreateGenerationsTable); err != nil {
		return fmt.Errorf("history: ensure schema: %w", err)
	}
	return nil
}

// RecordGeneration persists one finished provider call. It satisfies
// studio.Recorder.
func (q *Queries) RecordGeneration(ctx context.Context, rec studio.GenerationRecord) error {
	_, err := q.db.Exec(ctx, sqlinline.QInsertGeneration,
		rec.SessionID,
		rec.RequestID,
		rec.Prompt,
		rec.Mode,
		rec.Provider,
		rec.Model,
		rec.Status,
		rec.Message,
		rec.Elapsed.Milliseconds(),
		int64(rec.SizeBytes),
	)
	if err != nil {
		return fmt.Errorf("history: record generation: %w", err)
	}
	return nil
}

// Generation is one history row.
type Generation struct {
	ID        uuid.UUID
	SessionID string
	RequestID string
	Prompt    string
	Mode      string
	Provider  sql.NullString
	Model     sql.NullString
	Status    string
	Message   sql.NullString
	ElapsedMS int64
	SizeBytes int64
	CreatedAt time.Time
}

// ListRecent returns the newest rows, newest first.
func (q *Queries) ListRecent(ctx context.Context, limit int32) ([]Generation, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := q.db.Query(ctx, sqlinline.QListRecentGenerations, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list recent: %w", err)
	}
	defer rows.Close()

	var out []Generation
	for rows.Next() {
		var g Generation
		if err := rows.Scan(
			&g.ID,
			&g.SessionID,
			&g.RequestID,
			&g.Prompt,
			&g.Mode,
			&g.Provider,
			&g.Model,
			&g.Status,
			&g.Message,
			&g.ElapsedMS,
			&g.SizeBytes,
			&g.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("history: scan row: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate rows: %w", err)
	}
	return out, nil
}

// SummaryRow aggregates the table.
type SummaryRow struct {
	Total        int64
	Succeeded    int64
	Failed       int64
	SuccessRate  sql.NullFloat64
	AvgElapsedMS sql.NullFloat64
}

// Summary returns totals and the success rate.
func (q *Queries) Summary(ctx context.Context) (SummaryRow, error) {
	row := q.db.QueryRow(ctx, sqlinline.QGenerationSummary)
	var s SummaryRow
	if err := row.Scan(&s.Total, &s.Succeeded, &s.Failed, &s.SuccessRate, &s.AvgElapsedMS); err != nil {
		return SummaryRow{}, fmt.Errorf("history: summary: %w", err)
	}
	return s, nil
}

// PurgeBefore deletes rows older than the cutoff and reports how many went.
func (q *Queries) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := q.db.Exec(ctx, sqlinline.QPurgeGenerationsBefore, cutoff)
	if err != nil {
		return 0, fmt.Errorf("history: purge: %w", err)
	}
	return tag.RowsAffected(), nil
}

var _ studio.Recorder = (*Queries)(nil)
