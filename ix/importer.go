// Package ix imports parsed result documents into the storage port: one row
// per benchmark entry, stamped with the document's provenance. Imports are
// best-effort by default (rows before a failure stay written) or atomic on
// request. Every outcome is reported as a Result rather than a bare error.
package ix

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/joulebench/errors"
	"github.com/teranos/joulebench/logger"
	"github.com/teranos/joulebench/results"
	"github.com/teranos/joulebench/storage"
)

// Options configures an Importer
type Options struct {
	// Atomic writes every row in one transaction; any failure leaves nothing behind
	Atomic bool

	// Policy picks the stored counters (default LastRunMetrics)
	Policy MetricsPolicy

	// Emitter receives progress (default NopEmitter)
	Emitter ProgressEmitter

	Logger *zap.SugaredLogger
}

// Importer writes result documents through a storage.Store
type Importer struct {
	store   storage.Store
	atomic  bool
	policy  MetricsPolicy
	emitter ProgressEmitter
	logger  *zap.SugaredLogger
}

// NewImporter creates an importer over store
func NewImporter(store storage.Store, opts Options) *Importer {
	im := &Importer{
		store:   store,
		atomic:  opts.Atomic,
		policy:  opts.Policy,
		emitter: opts.Emitter,
		logger:  opts.Logger,
	}
	if im.policy == nil {
		im.policy = LastRunMetrics{}
	}
	if im.emitter == nil {
		im.emitter = NopEmitter{}
	}
	if im.logger == nil {
		im.logger = logger.ComponentLogger("ix")
	}
	return im
}

// WithEmitter returns a copy of the importer reporting to emitter
func (im *Importer) WithEmitter(emitter ProgressEmitter) *Importer {
	cp := *im
	if emitter == nil {
		emitter = NopEmitter{}
	}
	cp.emitter = emitter
	return &cp
}

// Policy returns the metrics policy in use
func (im *Importer) Policy() MetricsPolicy {
	return im.policy
}

// Import persists every entry of doc in order. It stops at the first entry
// that fails validation or cannot be written; no later entry is attempted.
func (im *Importer) Import(ctx context.Context, doc *results.Document) (res Result) {
	start := time.Now()
	res = NewResult(OpImport)
	res.BatchID = uuid.NewString()
	res.Atomic = im.atomic

	ctx = logger.WithBatchID(ctx, res.BatchID)
	log := logger.FromContext(ctx, im.logger)

	defer func() {
		res.Stats.DurationMs = time.Since(start).Milliseconds()
		im.emitter.EmitComplete(res)
	}()

	if im.store == nil {
		im.failed(log, &res, StageSchema, -1, errors.Mark(errors.New("no storage configured"), errors.ErrStorageUnavailable))
		return res
	}

	if doc == nil {
		im.failed(log, &res, StageValidate, -1, errors.NewSchemaError("no document to import"))
		return res
	}
	res.Stats.Entries = len(doc.Benchmarks)

	if err := doc.Meta.Validate(); err != nil {
		im.failed(log, &res, StageValidate, -1, err)
		return res
	}
	log = log.With(
		logger.FieldMethodTag, doc.Meta.MeasurementMethod,
		logger.FieldTimestamp, doc.Meta.Timestamp,
	)

	im.emitter.EmitStage(StageSchema, "ensuring benchmark table")
	if err := im.store.EnsureSchema(ctx); err != nil {
		im.failed(log, &res, StageSchema, -1, err)
		return res
	}

	im.emitter.EmitStage(StagePersist, fmt.Sprintf("importing %d entries", len(doc.Benchmarks)))

	if im.atomic {
		err := im.store.InTx(ctx, func(tx storage.Store) error {
			return im.writeEntries(ctx, tx, doc, &res)
		})
		if err != nil {
			if res.Stats.Written > 0 {
				res.AddWarning(StagePersist, "rolled_back",
					fmt.Sprintf("%d rows rolled back", res.Stats.Written))
			}
			res.Stats.Written = 0
			if res.err == nil {
				// Commit failed after every entry was written
				im.failed(log, &res, StagePersist, -1, err)
			}
			log.Warnw("Atomic import rolled back", logger.FieldError, err)
			return res
		}
	} else if err := im.writeEntries(ctx, im.store, doc, &res); err != nil {
		return res
	}

	res.Success = true
	im.emitter.EmitStage(StageComplete, res.Message())
	log.Infow("Import complete",
		logger.FieldWritten, res.Stats.Written,
		logger.FieldCount, res.Stats.Entries,
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
	)
	return res
}

// writeEntries validates and inserts entries in order, recording the first
// failure on res and returning it.
func (im *Importer) writeEntries(ctx context.Context, store storage.Store, doc *results.Document, res *Result) error {
	log := logger.FromContext(ctx, im.logger)

	for i, entry := range doc.Benchmarks {
		rec, err := im.BuildRecord(doc.Meta, entry)
		if err != nil {
			im.failed(log, res, StageValidate, i, err)
			return err
		}

		id, err := store.Insert(ctx, rec)
		if err != nil {
			im.failed(log, res, StagePersist, i, err)
			return err
		}
		rec.ID = id
		res.Stats.Written++
		im.emitter.EmitRow(i, rec)

		log.Debugw("Entry imported",
			logger.FieldIndex, i,
			logger.FieldAlgorithm, rec.AlgorithmName,
			logger.FieldDataSize, rec.DataSize,
		)
	}
	return nil
}

// BuildRecord validates one entry and maps it to the row it is stored as
func (im *Importer) BuildRecord(meta *results.Meta, entry results.Entry) (storage.Record, error) {
	if err := meta.Validate(); err != nil {
		return storage.Record{}, err
	}
	if err := entry.Validate(); err != nil {
		return storage.Record{}, err
	}
	size, ok := entry.EffectiveSize()
	if !ok || entry.Averages == nil {
		return storage.Record{}, errors.NewSchemaError("entry %q has no size or averages", entry.Algorithm)
	}

	metrics := im.policy.Select(entry.Results)
	return storage.Record{
		AlgorithmName:      entry.Algorithm,
		AlgorithmType:      entry.Type,
		DataSize:           size,
		ExecutionTimeMS:    entry.Averages.ExecutionTimeMS,
		EnergyJoules:       entry.Averages.EnergyJoules,
		PowerWatts:         entry.Averages.PowerWatts,
		Comparisons:        metrics.Comparisons,
		Swaps:              metrics.Swaps,
		Iterations:         metrics.Iterations,
		MemoryAccesses:     metrics.MemoryAccesses,
		MeasurementMethod:  meta.MeasurementMethod,
		BenchmarkTimestamp: meta.Timestamp,
	}, nil
}

func (im *Importer) failed(log *zap.SugaredLogger, res *Result, stage string, index int, err error) {
	res.fail(stage, index, err)
	im.emitter.EmitError(stage, err)
	log.Warnw("Import failed",
		"stage", stage,
		logger.FieldIndex, index,
		logger.FieldWritten, res.Stats.Written,
		logger.FieldErrorKind, errors.KindOf(err),
		logger.FieldError, err,
	)
}
