package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO readings").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err = WithTx(context.Background(), db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(context.Background(), "INSERT INTO readings (patient_fk) VALUES (?)", 1)
		return err
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()

	err = WithTx(context.Background(), db, func(tx *sql.Tx) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = WithTx(context.Background(), db, func(tx *sql.Tx) error { panic("kaboom") })
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadMigrations_EmbeddedFilesAreOrdered(t *testing.T) {
	migs, err := LoadMigrations()
	require.NoError(t, err)
	require.Len(t, migs, 2)
	assert.Equal(t, 1, migs[0].Version)
	assert.Equal(t, 2, migs[1].Version)
	assert.Contains(t, migs[0].Statements[0], "CREATE TABLE IF NOT EXISTS accounts")
}

func TestLoadMigrations_SkipsUnversionedFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"m/010_b.sql":  {Data: []byte("SELECT 2;")},
		"m/002_a.sql":  {Data: []byte("SELECT 1; SELECT 1;")},
		"m/notes.sql":  {Data: []byte("SELECT 3;")},
		"m/readme.txt": {Data: []byte("x")},
	}
	migs, err := loadMigrations(fsys, "m")
	require.NoError(t, err)
	require.Len(t, migs, 2)
	assert.Equal(t, 2, migs[0].Version)
	assert.Len(t, migs[0].Statements, 2)
	assert.Equal(t, 10, migs[1].Version)
}

func TestMigrate_SkipsAppliedVersions(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version FROM schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(1))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS readings").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS alerts").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS alert_violations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO schema_migrations").WithArgs(2, "002_telemetry.sql").
		WillReturnResult(sqlmock.NewResult(1, 1))

	n, err := Migrate(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
