package database

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS employee")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchemaDeclaresTables(t *testing.T) {
	for _, table := range []string{"employee", "sync_history", "outbox"} {
		assert.Contains(t, Schema(), "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
}

func TestSchemaRequeuesEditedEmployees(t *testing.T) {
	assert.Contains(t, Schema(), "CREATE TRIGGER employee_touch BEFORE UPDATE ON employee")
	assert.Contains(t, Schema(), "NEW.ad_updated := FALSE")
}
