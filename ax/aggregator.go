// Package ax answers read queries over imported benchmark rows: a grouped
// summary, the history of one algorithm, and an energy ranking at one size.
package ax

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/joulebench/errors"
	"github.com/teranos/joulebench/logger"
	"github.com/teranos/joulebench/storage"
)

const (
	// HistoryLimit caps AlgorithmResults
	HistoryLimit = 100

	// DefaultCompareSize is the data size compared when none is given
	DefaultCompareSize = 1000
)

// Ranked is a comparison row with its position and energy relative to the cheapest row
type Ranked struct {
	storage.ComparisonRow
	Rank        int     `json:"rank"`
	EnergyRatio float64 `json:"energy_ratio"`
}

// Aggregator runs read queries against a store
type Aggregator struct {
	store  storage.Store
	logger *zap.SugaredLogger
}

// NewAggregator creates an aggregator over store
func NewAggregator(store storage.Store, log *zap.SugaredLogger) *Aggregator {
	if log == nil {
		log = logger.ComponentLogger("ax")
	}
	return &Aggregator{store: store, logger: log}
}

func (a *Aggregator) available() error {
	if a.store == nil {
		return errors.Mark(errors.New("no storage configured"), errors.ErrStorageUnavailable)
	}
	return nil
}

// Summary returns mean time, energy and power with row counts per
// (algorithm, type, size), ordered by type, size, algorithm.
func (a *Aggregator) Summary(ctx context.Context) ([]storage.SummaryRow, error) {
	if err := a.available(); err != nil {
		return nil, err
	}
	rows, err := a.store.Summary(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "summary")
	}
	logger.FromContext(ctx, a.logger).Debugw("Summary computed", logger.FieldCount, len(rows))
	return rows, nil
}

// AlgorithmResults returns the most recent raw rows for name, newest first.
// A nil size matches every size.
func (a *Aggregator) AlgorithmResults(ctx context.Context, name string, size *int) ([]storage.Record, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.NewInvalidRequestError("algorithm name is required")
	}
	if size != nil && *size <= 0 {
		return nil, errors.NewInvalidRequestError("size must be positive, got %d", *size)
	}
	if err := a.available(); err != nil {
		return nil, err
	}

	rows, err := a.store.AlgorithmResults(ctx, name, size, HistoryLimit)
	if err != nil {
		return nil, errors.Wrapf(err, "results for %s", name)
	}
	return rows, nil
}

// Compare ranks every (algorithm, type) measured at size by mean energy,
// cheapest first. Equal energy falls back to algorithm name, then type.
func (a *Aggregator) Compare(ctx context.Context, size int) ([]Ranked, error) {
	if size <= 0 {
		return nil, errors.NewInvalidRequestError("size must be positive, got %d", size)
	}
	if err := a.available(); err != nil {
		return nil, err
	}

	rows, err := a.store.Comparison(ctx, size)
	if err != nil {
		return nil, errors.Wrapf(err, "compare size %d", size)
	}

	ranked := Rank(rows)
	logger.FromContext(ctx, a.logger).Debugw("Comparison computed",
		logger.FieldDataSize, size,
		logger.FieldCount, len(ranked))
	return ranked, nil
}

// Rank numbers rows in order and relates each row's mean energy to the first.
// A zero baseline leaves ratios at 0.
func Rank(rows []storage.ComparisonRow) []Ranked {
	ranked := make([]Ranked, len(rows))
	for i, row := range rows {
		ranked[i] = Ranked{ComparisonRow: row, Rank: i + 1}
	}
	if len(rows) > 0 && rows[0].AvgEnergyJoules > 0 {
		baseline := rows[0].AvgEnergyJoules
		for i := range ranked {
			ranked[i].EnergyRatio = ranked[i].AvgEnergyJoules / baseline
		}
	}
	return ranked
}
