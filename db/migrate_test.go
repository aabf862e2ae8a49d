package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestMigrate(t *testing.T) {
	t.Run("creates schema_migrations and records versions", func(t *testing.T) {
		db, err := Open("sqlite3", filepath.Join(t.TempDir(), "test.db"), nil)
		require.NoError(t, err)
		defer db.Close()

		require.NoError(t, Migrate(db, SQLite, zaptest.NewLogger(t).Sugar()))

		var versions []string
		rows, err := db.Query("SELECT version FROM schema_migrations ORDER BY version")
		require.NoError(t, err)
		defer rows.Close()
		for rows.Next() {
			var v string
			require.NoError(t, rows.Scan(&v))
			versions = append(versions, v)
		}
		require.NoError(t, rows.Err())
		assert.Equal(t, []string{"000", "001"}, versions)
	})

	t.Run("reports applied versions", func(t *testing.T) {
		db, err := OpenWithMigrations("sqlite3", filepath.Join(t.TempDir(), "test.db"), nil)
		require.NoError(t, err)
		defer db.Close()

		versions, err := AppliedVersions(db, SQLite)
		require.NoError(t, err)
		assert.Equal(t, []string{"000", "001"}, versions)
	})

	t.Run("is idempotent", func(t *testing.T) {
		db, err := Open("sqlite3", filepath.Join(t.TempDir(), "test.db"), nil)
		require.NoError(t, err)
		defer db.Close()

		require.NoError(t, Migrate(db, SQLite, nil))
		require.NoError(t, Migrate(db, SQLite, nil))

		var count int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
		assert.Equal(t, 2, count)
	})

	t.Run("counters default to zero", func(t *testing.T) {
		db, err := Open("sqlite3", filepath.Join(t.TempDir(), "test.db"), nil)
		require.NoError(t, err)
		defer db.Close()
		require.NoError(t, Migrate(db, SQLite, nil))

		_, err = db.Exec(`INSERT INTO energy_benchmarks
			(algorithm_name, algorithm_type, data_size, execution_time_ms, energy_joules, power_watts,
			 measurement_method, benchmark_timestamp)
			VALUES ('quicksort', 'comparison', 1000, 12.5, 0.003, 0.24, 'rapl', '2025-01-01T00:00:00')`)
		require.NoError(t, err)

		var comparisons, swaps, iterations, memoryAccesses int64
		require.NoError(t, db.QueryRow(
			"SELECT comparisons, swaps, iterations, memory_accesses FROM energy_benchmarks",
		).Scan(&comparisons, &swaps, &iterations, &memoryAccesses))
		assert.Zero(t, comparisons+swaps+iterations+memoryAccesses)
	})

	t.Run("nil database", func(t *testing.T) {
		assert.Error(t, Migrate(nil, SQLite, nil))
	})

	t.Run("postgres migrations are embedded", func(t *testing.T) {
		entries, err := migrations.ReadDir(migrationDir(Postgres))
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})
}

func TestDialect(t *testing.T) {
	d, err := DialectFor("postgresql")
	require.NoError(t, err)
	assert.Equal(t, Postgres, d)

	d, err = DialectFor("")
	require.NoError(t, err)
	assert.Equal(t, SQLite, d)

	_, err = DialectFor("oracle")
	assert.Error(t, err)

	q := "SELECT * FROM t WHERE a = ? AND b = '?' AND c = ?"
	assert.Equal(t, q, SQLite.Rebind(q))
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = '?' AND c = $2", Postgres.Rebind(q))
}
