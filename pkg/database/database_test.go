package database

import (
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(Config{
		Driver:          DriverSQLite,
		Path:            filepath.Join(t.TempDir(), "ledger.db"),
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRebind(t *testing.T) {
	query := "SELECT id FROM purchases WHERE created_at >= ? AND created_at < ?"

	sqlite := &DB{driver: DriverSQLite}
	assert.Equal(t, query, sqlite.Rebind(query))

	postgres := &DB{driver: DriverPostgres}
	assert.Equal(t, "SELECT id FROM purchases WHERE created_at >= $1 AND created_at < $2", postgres.Rebind(query))
}

func TestNew_UnsupportedDriver(t *testing.T) {
	_, err := New(Config{Driver: "oracle"}, zap.NewNop())
	assert.Error(t, err)
}

func TestMigrator_MigrateLedger(t *testing.T) {
	db := openTestDB(t)
	migrator := NewMigrator(db, zap.NewNop())

	require.NoError(t, migrator.MigrateLedger())
	// Second run is a no-op
	require.NoError(t, migrator.MigrateLedger())

	for _, table := range []string{"purchases", "purchase_sales_tax_infos", "zip_tax_rates"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 2, count)
}

func TestMigrator_DuplicateVersion(t *testing.T) {
	db := openTestDB(t)
	migrator := NewMigrator(db, zap.NewNop())

	fsys := fstest.MapFS{
		"m/001_a.sql": {Data: []byte("CREATE TABLE a (id INTEGER);")},
		"m/001_b.sql": {Data: []byte("CREATE TABLE b (id INTEGER);")},
	}
	err := migrator.RunMigrations(fsys, "m")
	assert.ErrorContains(t, err, "duplicate migration version 1")
}

func TestWithTransaction_RollsBack(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, NewMigrator(db, zap.NewNop()).MigrateLedger())

	err := db.WithTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO zip_tax_rates (country, combined_rate) VALUES ('IN', 0.18)`)
		require.NoError(t, err)
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM zip_tax_rates").Scan(&count))
	assert.Equal(t, 0, count)
}
