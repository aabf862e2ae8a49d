// Package storage is the persistence port for benchmark rows. The importer
// writes through it and the aggregator reads through it; SQLStore implements
// it over database/sql for every dialect package db can open.
package storage

import (
	"context"
	"time"
)

// Table holding one row per imported benchmark entry
const Table = "energy_benchmarks"

// Record is one persisted benchmark entry. ID and CreatedAt are assigned by the store.
type Record struct {
	ID                 int64     `json:"id"`
	AlgorithmName      string    `json:"algorithm_name"`
	AlgorithmType      string    `json:"algorithm_type"`
	DataSize           int       `json:"data_size"`
	ExecutionTimeMS    float64   `json:"execution_time_ms"`
	EnergyJoules       float64   `json:"energy_joules"`
	PowerWatts         float64   `json:"power_watts"`
	Comparisons        int64     `json:"comparisons"`
	Swaps              int64     `json:"swaps"`
	Iterations         int64     `json:"iterations"`
	MemoryAccesses     int64     `json:"memory_accesses"`
	MeasurementMethod  string    `json:"measurement_method"`
	BenchmarkTimestamp string    `json:"benchmark_timestamp"`
	CreatedAt          time.Time `json:"created_at"`
}

// SummaryRow aggregates every row sharing (algorithm, type, size)
type SummaryRow struct {
	AlgorithmName   string  `json:"algorithm_name"`
	AlgorithmType   string  `json:"algorithm_type"`
	DataSize        int     `json:"data_size"`
	AvgTimeMS       float64 `json:"avg_time"`
	AvgEnergyJoules float64 `json:"avg_energy"`
	AvgPowerWatts   float64 `json:"avg_power"`
	Count           int64   `json:"count"`
}

// ComparisonRow aggregates every row of one (algorithm, type) at a fixed size
type ComparisonRow struct {
	AlgorithmName   string  `json:"algorithm_name"`
	AlgorithmType   string  `json:"algorithm_type"`
	AvgTimeMS       float64 `json:"avg_time"`
	AvgEnergyJoules float64 `json:"avg_energy"`
	AvgPowerWatts   float64 `json:"avg_power"`
	AvgComparisons  float64 `json:"avg_comparisons"`
	AvgSwaps        float64 `json:"avg_swaps"`
}

// Store is the storage port. Every call takes the caller's context so the
// boundary decides timeouts.
type Store interface {
	// EnsureSchema creates the benchmark table if missing. Idempotent.
	EnsureSchema(ctx context.Context) error

	// Insert writes one record and returns its id
	Insert(ctx context.Context, rec Record) (int64, error)

	// InTx runs fn against a store bound to one transaction, committing when
	// fn returns nil and rolling back otherwise.
	InTx(ctx context.Context, fn func(Store) error) error

	// Summary groups all rows by (algorithm, type, size),
	// ordered by type, size, algorithm.
	Summary(ctx context.Context) ([]SummaryRow, error)

	// AlgorithmResults returns up to limit rows for one algorithm, newest first.
	// A nil size matches every size.
	AlgorithmResults(ctx context.Context, name string, size *int, limit int) ([]Record, error)

	// Comparison groups rows of one size by (algorithm, type), cheapest energy first
	Comparison(ctx context.Context, size int) ([]ComparisonRow, error)

	// Count returns the number of stored rows
	Count(ctx context.Context) (int64, error)
}
