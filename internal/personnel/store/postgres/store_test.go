package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bellsc7/hrsyncad/internal/personnel/models"
	"github.com/bellsc7/hrsyncad/pkg/requestcontext"
)

var employeeColumns = []string{
	"id", "employee_id", "fname", "lname", "phone", "department", "position", "status",
	"start_date", "resigndate", "account_expires_date", "ad_updated", "last_updated",
}

func TestStore_ListPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := New(db)
	updated := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	resigned := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(employeeColumns).
		AddRow(1, "E-100", "Ann", "Lee", "0812345678", "IT", "Engineer", "active",
			nil, resigned, nil, false, updated).
		AddRow(2, nil, "Bo", nil, nil, nil, nil, nil,
			nil, nil, nil, false, nil)

	mock.ExpectQuery(regexp.QuoteMeta("FROM employee")).
		WillReturnRows(rows)

	got, err := store.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, "E-100", got[0].EmployeeID)
	assert.Equal(t, "Engineer", got[0].Position)
	require.NotNil(t, got[0].ResignationDate)
	assert.Equal(t, civil.Date{Year: 2025, Month: 12, Day: 31}, *got[0].ResignationDate)
	assert.Nil(t, got[0].AccountExpiryDate)
	assert.Equal(t, updated, got[0].LastUpdated)

	assert.Equal(t, "Bo", got[1].GivenName)
	assert.Empty(t, got[1].FamilyName)
	assert.False(t, got[1].HasName())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListPendingQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM employee")).
		WillReturnError(errors.New("connection reset"))

	_, err = New(db).ListPending(context.Background())
	assert.ErrorContains(t, err, "query pending employees")
}

func TestStore_SaveBatch(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	listedAt := time.Date(2025, 6, 1, 18, 30, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	update := regexp.QuoteMeta("UPDATE employee")

	t.Run("commits every marker in one transaction", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(update).WithArgs(true, now, int64(1), listedAt).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(update).WithArgs(true, now, int64(2), listedAt).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		stale, err := New(db).SaveBatch(ctx, []models.Record{
			{ID: 1, DirectorySynced: true, LastUpdated: listedAt},
			{ID: 2, DirectorySynced: true, LastUpdated: listedAt},
		})
		require.NoError(t, err)
		assert.Empty(t, stale)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("row changed since listing is skipped", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(update).WithArgs(true, now, int64(1), listedAt).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(update).WithArgs(true, now, int64(9), listedAt).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		stale, err := New(db).SaveBatch(ctx, []models.Record{
			{ID: 1, DirectorySynced: true, LastUpdated: listedAt},
			{ID: 9, DirectorySynced: true, LastUpdated: listedAt},
		})
		require.NoError(t, err)
		assert.Equal(t, []int64{9}, stale)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("exec failure rolls back", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(update).WithArgs(true, now, int64(1), listedAt).WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		_, err = New(db).SaveBatch(ctx, []models.Record{{ID: 1, DirectorySynced: true, LastUpdated: listedAt}})
		assert.ErrorContains(t, err, "update employee 1")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty batch touches nothing", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		stale, err := New(db).SaveBatch(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, stale)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
