// Package postgres persists personnel records in the employee table.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/bellsc7/hrsyncad/internal/personnel/models"
	txcontext "github.com/bellsc7/hrsyncad/pkg/platform/tx"
	"github.com/bellsc7/hrsyncad/pkg/requestcontext"
)

const selectColumns = `
	id, employee_id, fname, lname, phone, department, position, status,
	start_date, resigndate, account_expires_date, ad_updated, last_updated`

// Store reads pending employees and writes their sync markers.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// ListPending returns employees whose directory marker is false, ordered by id.
func (s *Store) ListPending(ctx context.Context) ([]models.Record, error) {
	query := `SELECT` + selectColumns + `
		FROM employee
		WHERE ad_updated = FALSE
		ORDER BY id`

	rows, err := s.execer(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query pending employees: %w", err)
	}
	defer rows.Close()

	var out []models.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending employees: %w", err)
	}
	return out, nil
}

// SaveBatch writes the markers of records in a single transaction. A row is
// only written while last_updated still matches the value read by
// ListPending; rows edited or deleted since are left untouched and their IDs
// returned so the next run picks them up.
func (s *Store) SaveBatch(ctx context.Context, records []models.Record) ([]int64, error) {
	if len(records) == 0 {
		return nil, nil
	}
	now := requestcontext.Now(ctx)
	var stale []int64
	err := txcontext.RunInTx(ctx, s.db, func(ctx context.Context) error {
		stale = stale[:0]
		query := `
			UPDATE employee
			SET ad_updated = $1, last_updated = $2
			WHERE id = $3 AND last_updated = $4
		`
		for _, r := range records {
			res, err := s.execer(ctx).ExecContext(ctx, query, r.DirectorySynced, now, r.ID, r.LastUpdated)
			if err != nil {
				return fmt.Errorf("update employee %d: %w", r.ID, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("update employee %d: %w", r.ID, err)
			}
			if n == 0 {
				stale = append(stale, r.ID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stale, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (models.Record, error) {
	var r models.Record
	var employeeID, givenName, familyName, phone, department, position, status sql.NullString
	var startDate, resignDate, expiresDate, updated sql.NullTime
	err := row.Scan(
		&r.ID, &employeeID, &givenName, &familyName, &phone, &department, &position, &status,
		&startDate, &resignDate, &expiresDate, &r.DirectorySynced, &updated,
	)
	if err != nil {
		return models.Record{}, fmt.Errorf("scan employee: %w", err)
	}
	r.EmployeeID = employeeID.String
	r.GivenName = givenName.String
	r.FamilyName = familyName.String
	r.Phone = phone.String
	r.Department = department.String
	r.Position = position.String
	r.Status = status.String
	r.StartDate = toDate(startDate)
	r.ResignationDate = toDate(resignDate)
	r.AccountExpiryDate = toDate(expiresDate)
	if updated.Valid {
		r.LastUpdated = updated.Time
	}
	return r, nil
}

// toDate reads a DATE column. lib/pq returns dates as midnight UTC.
func toDate(v sql.NullTime) *civil.Date {
	if !v.Valid {
		return nil
	}
	d := civil.DateOf(v.Time.In(time.UTC))
	return &d
}
