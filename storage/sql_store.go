package storage

import (
	"context"
	"database/sql"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/teranos/joulebench/db"
	"github.com/teranos/joulebench/errors"
)

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// SQLStore implements Store over database/sql
type SQLStore struct {
	db      *sql.DB
	q       querier
	inTx    bool
	dialect db.Dialect
	logger  *zap.SugaredLogger

	schemaReady *atomic.Bool
}

// NewSQLStore wraps an open database handle. The caller owns the handle and
// closes it. A nil handle yields a store whose every call reports
// ErrStorageUnavailable.
func NewSQLStore(handle *sql.DB, dialect db.Dialect, logger *zap.SugaredLogger) *SQLStore {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &SQLStore{
		db:          handle,
		dialect:     dialect,
		logger:      logger,
		schemaReady: &atomic.Bool{},
	}
	if handle != nil {
		s.q = handle
	}
	return s
}

// Dialect returns the SQL dialect the store speaks
func (s *SQLStore) Dialect() db.Dialect {
	return s.dialect
}

func (s *SQLStore) available() error {
	if s.q == nil {
		return errors.WithHint(
			errors.Mark(errors.New("no database connection"), errors.ErrStorageUnavailable),
			"check database.driver and database.path or database.dsn in am.toml")
	}
	return nil
}

// EnsureSchema applies the embedded migrations once per store. Inside a
// transaction it is a no-op; callers ensure the schema before starting one.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	if err := s.available(); err != nil {
		return err
	}
	if s.inTx || s.schemaReady.Load() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "ensure schema")
	}
	if err := db.Migrate(s.db, s.dialect, s.logger); err != nil {
		return errors.Wrap(err, "ensure schema")
	}
	s.schemaReady.Store(true)
	return nil
}

const insertColumns = `algorithm_name, algorithm_type, data_size,
	execution_time_ms, energy_joules, power_watts,
	comparisons, swaps, iterations, memory_accesses,
	measurement_method, benchmark_timestamp`

// Insert writes one record. created_at is assigned by the database.
func (s *SQLStore) Insert(ctx context.Context, rec Record) (int64, error) {
	if err := s.available(); err != nil {
		return 0, err
	}

	query := `INSERT INTO ` + Table + ` (` + insertColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	args := []interface{}{
		rec.AlgorithmName, rec.AlgorithmType, rec.DataSize,
		rec.ExecutionTimeMS, rec.EnergyJoules, rec.PowerWatts,
		rec.Comparisons, rec.Swaps, rec.Iterations, rec.MemoryAccesses,
		rec.MeasurementMethod, rec.BenchmarkTimestamp,
	}

	var id int64
	if s.dialect == db.Postgres {
		// lib/pq does not implement LastInsertId
		err := s.q.QueryRowContext(ctx, s.dialect.Rebind(query+" RETURNING id"), args...).Scan(&id)
		if err != nil {
			return 0, db.ClassifyError(err, "insert "+rec.AlgorithmName)
		}
	} else {
		res, err := s.q.ExecContext(ctx, s.dialect.Rebind(query), args...)
		if err != nil {
			return 0, db.ClassifyError(err, "insert "+rec.AlgorithmName)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return 0, db.ClassifyError(err, "read inserted id")
		}
	}

	s.logger.Debugw("Inserted benchmark row",
		"id", id,
		"algorithm", rec.AlgorithmName,
		"data_size", rec.DataSize,
	)
	return id, nil
}

// InTx runs fn inside one transaction. Nested calls reuse the open transaction.
func (s *SQLStore) InTx(ctx context.Context, fn func(Store) error) error {
	if err := s.available(); err != nil {
		return err
	}
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return db.ClassifyError(err, "begin transaction")
	}

	txStore := &SQLStore{
		db:          s.db,
		q:           tx,
		inTx:        true,
		dialect:     s.dialect,
		logger:      s.logger,
		schemaReady: s.schemaReady,
	}

	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.Warnw("Rollback failed", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return db.ClassifyError(err, "commit transaction")
	}
	return nil
}

// Summary groups all rows by (algorithm, type, size)
func (s *SQLStore) Summary(ctx context.Context) ([]SummaryRow, error) {
	if err := s.available(); err != nil {
		return nil, err
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT algorithm_name, algorithm_type, data_size,
			AVG(execution_time_ms) AS avg_time,
			AVG(energy_joules) AS avg_energy,
			AVG(power_watts) AS avg_power,
			COUNT(*) AS count
		FROM `+Table+`
		GROUP BY algorithm_name, algorithm_type, data_size
		ORDER BY algorithm_type, data_size, algorithm_name`)
	if err != nil {
		return nil, db.ClassifyError(err, "query summary")
	}
	defer rows.Close()

	result := []SummaryRow{}
	for rows.Next() {
		var r SummaryRow
		if err := rows.Scan(&r.AlgorithmName, &r.AlgorithmType, &r.DataSize,
			&r.AvgTimeMS, &r.AvgEnergyJoules, &r.AvgPowerWatts, &r.Count); err != nil {
			return nil, db.ClassifyError(err, "scan summary row")
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, db.ClassifyError(err, "iterate summary rows")
	}
	return result, nil
}

// AlgorithmResults returns the newest rows for one algorithm. Rows sharing a
// created_at are ordered by id so the newest insert still comes first.
func (s *SQLStore) AlgorithmResults(ctx context.Context, name string, size *int, limit int) ([]Record, error) {
	if err := s.available(); err != nil {
		return nil, err
	}

	var where strings.Builder
	where.WriteString("algorithm_name = ?")
	args := []interface{}{name}
	if size != nil {
		where.WriteString(" AND data_size = ?")
		args = append(args, *size)
	}
	args = append(args, limit)

	query := `SELECT id, ` + insertColumns + `, created_at
		FROM ` + Table + `
		WHERE ` + where.String() + `
		ORDER BY created_at DESC, id DESC
		LIMIT ?`

	rows, err := s.q.QueryContext(ctx, s.dialect.Rebind(query), args...)
	if err != nil {
		return nil, db.ClassifyError(err, "query algorithm results")
	}
	defer rows.Close()

	result := []Record{}
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID,
			&r.AlgorithmName, &r.AlgorithmType, &r.DataSize,
			&r.ExecutionTimeMS, &r.EnergyJoules, &r.PowerWatts,
			&r.Comparisons, &r.Swaps, &r.Iterations, &r.MemoryAccesses,
			&r.MeasurementMethod, &r.BenchmarkTimestamp, &r.CreatedAt); err != nil {
			return nil, db.ClassifyError(err, "scan algorithm row")
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, db.ClassifyError(err, "iterate algorithm rows")
	}
	return result, nil
}

// Comparison groups the rows of one size by (algorithm, type). Equal mean
// energy falls back to algorithm name, then type.
func (s *SQLStore) Comparison(ctx context.Context, size int) ([]ComparisonRow, error) {
	if err := s.available(); err != nil {
		return nil, err
	}

	rows, err := s.q.QueryContext(ctx, s.dialect.Rebind(`
		SELECT algorithm_name, algorithm_type,
			AVG(execution_time_ms) AS avg_time,
			AVG(energy_joules) AS avg_energy,
			AVG(power_watts) AS avg_power,
			AVG(comparisons) AS avg_comparisons,
			AVG(swaps) AS avg_swaps
		FROM `+Table+`
		WHERE data_size = ?
		GROUP BY algorithm_name, algorithm_type
		ORDER BY avg_energy ASC, algorithm_name ASC, algorithm_type ASC`), size)
	if err != nil {
		return nil, db.ClassifyError(err, "query comparison")
	}
	defer rows.Close()

	result := []ComparisonRow{}
	for rows.Next() {
		var r ComparisonRow
		if err := rows.Scan(&r.AlgorithmName, &r.AlgorithmType,
			&r.AvgTimeMS, &r.AvgEnergyJoules, &r.AvgPowerWatts,
			&r.AvgComparisons, &r.AvgSwaps); err != nil {
			return nil, db.ClassifyError(err, "scan comparison row")
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, db.ClassifyError(err, "iterate comparison rows")
	}
	return result, nil
}

// Count returns the number of stored rows
func (s *SQLStore) Count(ctx context.Context) (int64, error) {
	if err := s.available(); err != nil {
		return 0, err
	}
	var n int64
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+Table).Scan(&n); err != nil {
		return 0, db.ClassifyError(err, "count rows")
	}
	return n, nil
}

var _ Store = (*SQLStore)(nil)
