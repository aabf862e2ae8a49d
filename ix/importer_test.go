package ix

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/joulebench/db"
	"github.com/teranos/joulebench/errors"
	jbtest "github.com/teranos/joulebench/internal/testing"
	"github.com/teranos/joulebench/results"
	"github.com/teranos/joulebench/storage"
)


func decode(t *testing.T, doc string) *results.Document {
	t.Helper()
	d, err := results.Decode(strings.NewReader(doc))
	require.NoError(t, err)
	return d
}

const meta = `"meta": {"timestamp": "2025-03-14T10:22:01", "measurement_method": "rapl"}`

const quicksortEntry = `{"algorithm": "quicksort", "type": "comparison", "size": 1000,
	"averages": {"execution_time_ms": 12.5, "energy_joules": 0.003, "power_watts": 0.24},
	"results": [{"metrics": {"comparisons": 9965, "swaps": 1000}}]}`

const bubblesortEntry = `{"algorithm": "bubblesort", "type": "comparison", "size": 1000,
	"averages": {"execution_time_ms": 250, "energy_joules": 0.03, "power_watts": 0.12}}`

const missingAveragesEntry = `{"algorithm": "heapsort", "type": "comparison", "size": 1000}`

func document(entries ...string) string {
	return `{` + meta + `, "benchmarks": [` + strings.Join(entries, ",") + `]}`
}

func newImporter(t *testing.T, store storage.Store, opts Options) *Importer {
	opts.Logger = zaptest.NewLogger(t).Sugar()
	return NewImporter(store, opts)
}

func TestImport_QuicksortCounters(t *testing.T) {
	ctx := context.Background()
	store := jbtest.CreateTestStore(t)

	res := newImporter(t, store, Options{}).Import(ctx, decode(t, document(quicksortEntry)))
	require.True(t, res.Success, res.Message())
	assert.Equal(t, 1, res.Stats.Written)
	assert.Equal(t, -1, res.FailedIndex)
	assert.NotEmpty(t, res.BatchID)
	assert.Equal(t, "1 records inserted", res.Message())

	rows, err := store.AlgorithmResults(ctx, "quicksort", nil, 100)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, "comparison", row.AlgorithmType)
	assert.Equal(t, 1000, row.DataSize)
	assert.Equal(t, 12.5, row.ExecutionTimeMS)
	assert.Equal(t, 0.003, row.EnergyJoules)
	assert.Equal(t, 0.24, row.PowerWatts)
	assert.Equal(t, int64(9965), row.Comparisons)
	assert.Equal(t, int64(1000), row.Swaps)
	assert.Zero(t, row.Iterations)
	assert.Zero(t, row.MemoryAccesses)
	assert.Equal(t, "rapl", row.MeasurementMethod)
	assert.Equal(t, "2025-03-14T10:22:01", row.BenchmarkTimestamp)
}

func TestImport_AllEntries(t *testing.T) {
	ctx := context.Background()
	store := jbtest.CreateTestStore(t)

	res := newImporter(t, store, Options{}).Import(ctx, decode(t, document(quicksortEntry, bubblesortEntry, quicksortEntry)))
	require.True(t, res.Success)
	assert.Equal(t, 3, res.Stats.Written)
	assert.Equal(t, 3, res.Stats.Entries)
	assert.Empty(t, res.Errors)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	// Re-importing appends
	res = newImporter(t, store, Options{}).Import(ctx, decode(t, document(quicksortEntry)))
	require.True(t, res.Success)
	n, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestImport_MissingMetricsStoreZero(t *testing.T) {
	ctx := context.Background()
	store := jbtest.CreateTestStore(t)

	entry := `{"algorithm": "linear_search", "type": "search", "size": 100,
		"averages": {"execution_time_ms": 0.1, "energy_joules": 0.0001, "power_watts": 1},
		"results": [{"metrics": {"comparisons": 50}}, {"run": 2}]}`
	res := newImporter(t, store, Options{}).Import(ctx, decode(t, document(entry, bubblesortEntry)))
	require.True(t, res.Success)

	for _, name := range []string{"linear_search", "bubblesort"} {
		rows, err := store.AlgorithmResults(ctx, name, nil, 1)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Zero(t, rows[0].Comparisons, name)
		assert.Zero(t, rows[0].Swaps, name)
		assert.Zero(t, rows[0].Iterations, name)
		assert.Zero(t, rows[0].MemoryAccesses, name)
	}
}

func TestImport_SchemaFailureKeepsEarlierRows(t *testing.T) {
	ctx := context.Background()
	store := jbtest.CreateTestStore(t)

	res := newImporter(t, store, Options{}).Import(ctx, decode(t, document(quicksortEntry, missingAveragesEntry, bubblesortEntry)))
	assert.False(t, res.Success)
	assert.Equal(t, errors.KindSchema, res.Kind())
	assert.True(t, errors.Is(res.Err(), errors.ErrSchema))
	assert.Equal(t, 1, res.FailedIndex)
	assert.Equal(t, 1, res.Stats.Written)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, StageValidate, res.Errors[0].Stage)
	assert.Contains(t, res.Errors[0].Message, "averages")

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "first entry persisted, third never attempted")
}

func TestImport_AtomicRollsBack(t *testing.T) {
	ctx := context.Background()
	store := jbtest.CreateTestStore(t)

	res := newImporter(t, store, Options{Atomic: true}).Import(ctx, decode(t, document(quicksortEntry, missingAveragesEntry)))
	assert.False(t, res.Success)
	assert.True(t, res.Atomic)
	assert.Equal(t, errors.KindSchema, res.Kind())
	assert.Equal(t, 1, res.FailedIndex)
	assert.Zero(t, res.Stats.Written)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "rolled_back", res.Warnings[0].Code)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	res = newImporter(t, store, Options{Atomic: true}).Import(ctx, decode(t, document(quicksortEntry, bubblesortEntry)))
	require.True(t, res.Success)
	assert.Equal(t, 2, res.Stats.Written)
	n, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestImport_DocumentLevelFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("nil document", func(t *testing.T) {
		res := newImporter(t, jbtest.CreateTestStore(t), Options{}).Import(ctx, nil)
		assert.False(t, res.Success)
		assert.Equal(t, errors.KindSchema, res.Kind())
		assert.Equal(t, -1, res.FailedIndex)
	})

	t.Run("missing meta", func(t *testing.T) {
		doc := decode(t, `{"benchmarks": [`+quicksortEntry+`]}`)
		res := newImporter(t, jbtest.CreateTestStore(t), Options{}).Import(ctx, doc)
		assert.Equal(t, errors.KindSchema, res.Kind())
		assert.Zero(t, res.Stats.Written)
	})

	t.Run("no storage connection", func(t *testing.T) {
		store := storage.NewSQLStore(nil, db.SQLite, nil)
		res := newImporter(t, store, Options{}).Import(ctx, decode(t, document(quicksortEntry)))
		assert.False(t, res.Success)
		assert.Equal(t, errors.KindStorageUnavailable, res.Kind())
	})

	t.Run("nil store", func(t *testing.T) {
		res := newImporter(t, nil, Options{}).Import(ctx, decode(t, document(quicksortEntry)))
		assert.Equal(t, errors.KindStorageUnavailable, res.Kind())
	})

	t.Run("empty benchmarks", func(t *testing.T) {
		res := newImporter(t, jbtest.CreateTestStore(t), Options{}).Import(ctx, decode(t, document()))
		assert.True(t, res.Success)
		assert.Zero(t, res.Stats.Written)
	})
}

// failingStore fails the insert at index failAt
type failingStore struct {
	storage.Store
	failAt  int
	inserts int
}

func (s *failingStore) EnsureSchema(context.Context) error { return nil }

func (s *failingStore) Insert(_ context.Context, _ storage.Record) (int64, error) {
	defer func() { s.inserts++ }()
	if s.inserts == s.failAt {
		return 0, errors.WrapStorage(errors.New("constraint failed"), "insert")
	}
	return int64(s.inserts + 1), nil
}

func TestImport_StorageFailureStopsImport(t *testing.T) {
	store := &failingStore{failAt: 1}
	res := newImporter(t, store, Options{}).Import(context.Background(),
		decode(t, document(quicksortEntry, bubblesortEntry, quicksortEntry)))

	assert.False(t, res.Success)
	assert.Equal(t, errors.KindStorage, res.Kind())
	assert.Equal(t, 1, res.FailedIndex)
	assert.Equal(t, 1, res.Stats.Written)
	assert.Equal(t, 2, store.inserts, "no entry after the failing one is attempted")
	assert.Equal(t, StagePersist, res.Errors[0].Stage)
	assert.Contains(t, res.Message(), "constraint failed")
}

func TestImport_MeanPolicy(t *testing.T) {
	ctx := context.Background()
	store := jbtest.CreateTestStore(t)

	entry := `{"algorithm": "quicksort", "type": "comparison", "size": 1000,
		"averages": {"execution_time_ms": 12.5, "energy_joules": 0.003, "power_watts": 0.24},
		"results": [{"metrics": {"comparisons": 9000, "swaps": 900}}, {}, {"metrics": {"comparisons": 10001, "swaps": 1000}}]}`
	res := newImporter(t, store, Options{Policy: MeanRunMetrics{}}).Import(ctx, decode(t, document(entry)))
	require.True(t, res.Success)

	rows, err := store.AlgorithmResults(ctx, "quicksort", nil, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(9500), rows[0].Comparisons)
	assert.Equal(t, int64(950), rows[0].Swaps)
}

func TestImport_JSONProgress(t *testing.T) {
	var buf bytes.Buffer
	im := newImporter(t, jbtest.CreateTestStore(t), Options{Emitter: NewJSONEmitter(&buf)})
	res := im.Import(context.Background(), decode(t, document(quicksortEntry, missingAveragesEntry)))
	require.False(t, res.Success)

	var types []string
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var event ProgressEvent
		require.NoError(t, json.Unmarshal([]byte(line), &event))
		types = append(types, event.Type)
	}
	assert.Equal(t, []string{"stage", "stage", "row", "error", "complete"}, types)
}

func TestImport_ResultJSON(t *testing.T) {
	res := newImporter(t, jbtest.CreateTestStore(t), Options{}).Import(context.Background(), decode(t, document(quicksortEntry)))

	data, err := json.Marshal(res)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, true, decoded["success"])
	assert.Equal(t, float64(-1), decoded["failed_index"])
	assert.Equal(t, "import", decoded["op"])
	stats := decoded["stats"].(map[string]interface{})
	assert.Equal(t, float64(1), stats["written"])
}

func TestBuildRecord_SizeFallback(t *testing.T) {
	im := NewImporter(nil, Options{})
	doc := decode(t, document(`{"algorithm": "bubblesort", "type": "comparison", "data_size": 250,
		"averages": {"execution_time_ms": 1, "energy_joules": 0.1, "power_watts": 0.5}}`))

	rec, err := im.BuildRecord(doc.Meta, doc.Benchmarks[0])
	require.NoError(t, err)
	assert.Equal(t, 250, rec.DataSize)
}
