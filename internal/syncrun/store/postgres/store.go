// Package postgres persists run records in the sync_history table.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/bellsc7/hrsyncad/internal/syncrun/models"
	"github.com/bellsc7/hrsyncad/pkg/platform/sentinel"
)

const selectColumns = `
	id, sync_type, status, triggered_by, message, details, start_time, end_time,
	updated_count, not_found_count, skipped_count, error_count, error_message`

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, run *models.Run) error {
	query := `
		INSERT INTO sync_history (id, sync_type, status, triggered_by, start_time)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query, run.ID, run.Kind, string(run.Status), run.TriggeredBy, run.StartedAt)
	if err != nil {
		return fmt.Errorf("insert sync history: %w", err)
	}
	return nil
}

// Finalize only updates rows still running, so a record is finalized once.
func (s *Store) Finalize(ctx context.Context, run *models.Run) error {
	query := `
		UPDATE sync_history
		SET status = $2, message = $3, details = $4, end_time = $5,
			updated_count = $6, not_found_count = $7, skipped_count = $8,
			error_count = $9, error_message = $10
		WHERE id = $1 AND status = 'running'
	`
	res, err := s.db.ExecContext(ctx, query,
		run.ID,
		string(run.Status),
		run.Message,
		nullJSON(run.Details),
		run.EndedAt,
		run.UpdatedCount,
		run.NotFoundCount,
		run.SkippedCount,
		run.ErrorCount,
		run.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("finalize sync history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finalize sync history: %w", err)
	}
	if n == 1 {
		return nil
	}

	var exists bool
	err = s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM sync_history WHERE id = $1)`, run.ID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check sync history: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrInvalidState
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*models.Run, error) {
	query := `SELECT` + selectColumns + ` FROM sync_history WHERE id = $1`
	run, err := scanRun(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return run, nil
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]*models.Run, error) {
	query := `SELECT` + selectColumns + `
		FROM sync_history
		ORDER BY start_time DESC
		LIMIT $1`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query sync history: %w", err)
	}
	defer rows.Close()

	var out []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sync history: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*models.Run, error) {
	var run models.Run
	var status string
	var triggeredBy, message, errorMessage sql.NullString
	var details []byte
	var endTime sql.NullTime
	err := row.Scan(
		&run.ID, &run.Kind, &status, &triggeredBy, &message, &details, &run.StartedAt, &endTime,
		&run.UpdatedCount, &run.NotFoundCount, &run.SkippedCount, &run.ErrorCount, &errorMessage,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan sync history: %w", err)
	}
	run.Status = models.Status(status)
	run.TriggeredBy = triggeredBy.String
	run.Message = message.String
	run.ErrorMessage = errorMessage.String
	if len(details) > 0 {
		run.Details = details
	}
	if endTime.Valid {
		t := endTime.Time
		run.EndedAt = &t
	}
	return &run, nil
}

func nullJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
