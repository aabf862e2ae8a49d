package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/joulebench/db"
	"github.com/teranos/joulebench/errors"
)

// setupTestStore opens a file-backed SQLite database with the schema applied
func setupTestStore(t *testing.T) (*SQLStore, *sql.DB) {
	t.Helper()
	handle, err := db.Open("sqlite3", filepath.Join(t.TempDir(), "bench.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { handle.Close() })

	store := NewSQLStore(handle, db.SQLite, zaptest.NewLogger(t).Sugar())
	require.NoError(t, store.EnsureSchema(context.Background()))
	return store, handle
}

func record(name, typ string, size int, energy float64) Record {
	return Record{
		AlgorithmName:      name,
		AlgorithmType:      typ,
		DataSize:           size,
		ExecutionTimeMS:    energy * 1000,
		EnergyJoules:       energy,
		PowerWatts:         0.25,
		Comparisons:        100,
		Swaps:              10,
		MeasurementMethod:  "rapl",
		BenchmarkTimestamp: "2025-03-14T10:22:01",
	}
}

func TestSQLStore_InsertAndAlgorithmResults(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestStore(t)

	first, err := store.Insert(ctx, record("quicksort", "comparison", 1000, 0.003))
	require.NoError(t, err)
	second, err := store.Insert(ctx, record("quicksort", "comparison", 500, 0.001))
	require.NoError(t, err)
	_, err = store.Insert(ctx, record("bubblesort", "comparison", 1000, 0.03))
	require.NoError(t, err)
	assert.Greater(t, second, first)

	all, err := store.AlgorithmResults(ctx, "quicksort", nil, 100)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second, all[0].ID, "same created_at second falls back to id, newest first")
	assert.Equal(t, first, all[1].ID)
	assert.Equal(t, "rapl", all[0].MeasurementMethod)
	assert.Equal(t, int64(100), all[0].Comparisons)
	assert.False(t, all[0].CreatedAt.IsZero())

	size := 1000
	sized, err := store.AlgorithmResults(ctx, "quicksort", &size, 100)
	require.NoError(t, err)
	require.Len(t, sized, 1)
	assert.Equal(t, first, sized[0].ID)

	limited, err := store.AlgorithmResults(ctx, "quicksort", nil, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := store.AlgorithmResults(ctx, "heapsort", nil, 100)
	require.NoError(t, err)
	assert.Empty(t, none)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestSQLStore_CountersDefaultToZero(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestStore(t)

	rec := record("linear_search", "search", 100, 0.0001)
	rec.Comparisons, rec.Swaps = 0, 0
	_, err := store.Insert(ctx, rec)
	require.NoError(t, err)

	rows, err := store.AlgorithmResults(ctx, "linear_search", nil, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Zero(t, rows[0].Comparisons)
	assert.Zero(t, rows[0].Swaps)
	assert.Zero(t, rows[0].Iterations)
	assert.Zero(t, rows[0].MemoryAccesses)
}

func TestSQLStore_Summary(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestStore(t)

	for _, rec := range []Record{
		record("quicksort", "comparison", 1000, 0.002),
		record("quicksort", "comparison", 1000, 0.004),
		record("bubblesort", "comparison", 100, 0.01),
		record("binary_search", "search", 1000, 0.0001),
	} {
		_, err := store.Insert(ctx, rec)
		require.NoError(t, err)
	}

	rows, err := store.Summary(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// Ordered by type, size, name
	assert.Equal(t, "bubblesort", rows[0].AlgorithmName)
	assert.Equal(t, "quicksort", rows[1].AlgorithmName)
	assert.Equal(t, int64(2), rows[1].Count)
	assert.InDelta(t, 0.003, rows[1].AvgEnergyJoules, 1e-12)
	assert.Equal(t, "binary_search", rows[2].AlgorithmName)
	assert.Equal(t, "search", rows[2].AlgorithmType)
}

func TestSQLStore_Comparison(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestStore(t)

	for _, rec := range []Record{
		record("bubblesort", "comparison", 1000, 0.03),
		record("quicksort", "comparison", 1000, 0.003),
		record("mergesort", "comparison", 1000, 0.003),
		record("quicksort", "comparison", 10, 0.00001),
	} {
		_, err := store.Insert(ctx, rec)
		require.NoError(t, err)
	}

	rows, err := store.Comparison(ctx, 1000)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "mergesort", rows[0].AlgorithmName, "equal energy breaks ties by name")
	assert.Equal(t, "quicksort", rows[1].AlgorithmName)
	assert.Equal(t, "bubblesort", rows[2].AlgorithmName)
	assert.InDelta(t, 100, rows[0].AvgComparisons, 1e-9)

	empty, err := store.Comparison(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSQLStore_InTx(t *testing.T) {
	ctx := context.Background()

	t.Run("commits on success", func(t *testing.T) {
		store, _ := setupTestStore(t)
		err := store.InTx(ctx, func(tx Store) error {
			_, err := tx.Insert(ctx, record("quicksort", "comparison", 1000, 0.003))
			return err
		})
		require.NoError(t, err)

		n, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		store, _ := setupTestStore(t)
		boom := errors.New("boom")
		err := store.InTx(ctx, func(tx Store) error {
			if _, err := tx.Insert(ctx, record("quicksort", "comparison", 1000, 0.003)); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		n, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("nested call reuses transaction", func(t *testing.T) {
		store, _ := setupTestStore(t)
		err := store.InTx(ctx, func(tx Store) error {
			require.NoError(t, tx.EnsureSchema(ctx))
			return tx.InTx(ctx, func(inner Store) error {
				_, err := inner.Insert(ctx, record("quicksort", "comparison", 1000, 0.003))
				return err
			})
		})
		require.NoError(t, err)
	})
}

func TestSQLStore_Unavailable(t *testing.T) {
	ctx := context.Background()
	store := NewSQLStore(nil, db.SQLite, nil)

	checks := map[string]error{
		"EnsureSchema": store.EnsureSchema(ctx),
		"InTx":         store.InTx(ctx, func(Store) error { return nil }),
	}
	_, checks["Insert"] = store.Insert(ctx, Record{})
	_, checks["Summary"] = store.Summary(ctx)
	_, checks["AlgorithmResults"] = store.AlgorithmResults(ctx, "q", nil, 1)
	_, checks["Comparison"] = store.Comparison(ctx, 1)
	_, checks["Count"] = store.Count(ctx)

	for name, err := range checks {
		assert.Equal(t, errors.KindStorageUnavailable, errors.KindOf(err), name)
	}
}

func TestSQLStore_ClosedDatabase(t *testing.T) {
	store, handle := setupTestStore(t)
	require.NoError(t, handle.Close())

	_, err := store.Insert(context.Background(), record("quicksort", "comparison", 1, 0.1))
	assert.Equal(t, errors.KindStorageUnavailable, errors.KindOf(err))
}

func TestSQLStore_InsertFailure(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectExec("INSERT INTO energy_benchmarks").
		WithArgs("quicksort", "comparison", 1000, sqlmock.AnyArg(), 0.003, 0.25,
			int64(100), int64(10), int64(0), int64(0), "rapl", "2025-03-14T10:22:01").
		WillReturnError(errors.New("disk I/O error"))

	store := NewSQLStore(mockDB, db.SQLite, nil)
	_, err = store.Insert(context.Background(), record("quicksort", "comparison", 1000, 0.003))
	require.Error(t, err)
	assert.Equal(t, errors.KindStorage, errors.KindOf(err))
	assert.Contains(t, err.Error(), "disk I/O error")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_PostgresInsertUsesReturning(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectQuery(`(?s)INSERT INTO energy_benchmarks.*VALUES \(\$1, \$2, .*\$12\) RETURNING id`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	store := NewSQLStore(mockDB, db.Postgres, nil)
	id, err := store.Insert(context.Background(), record("quicksort", "comparison", 1000, 0.003))
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_CommitFailure(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO energy_benchmarks").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit().WillReturnError(errors.New("database is locked"))

	store := NewSQLStore(mockDB, db.SQLite, nil)
	err = store.InTx(context.Background(), func(tx Store) error {
		_, err := tx.Insert(context.Background(), record("quicksort", "comparison", 1000, 0.003))
		return err
	})
	require.Error(t, err)
	assert.Equal(t, errors.KindStorage, errors.KindOf(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_QueryFailure(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectQuery("SELECT algorithm_name, algorithm_type,").
		WithArgs(1000).
		WillReturnError(errors.New("no such table: energy_benchmarks"))

	store := NewSQLStore(mockDB, db.SQLite, nil)
	_, err = store.Comparison(context.Background(), 1000)
	assert.Equal(t, errors.KindStorage, errors.KindOf(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}
