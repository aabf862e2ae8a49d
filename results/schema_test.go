package results

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/joulebench/errors"
)

func decodeEntries(t *testing.T, benchmarks string) []Entry {
	t.Helper()
	doc, err := Decode(strings.NewReader(`{"meta": {"timestamp": "t", "measurement_method": "m"}, "benchmarks": ` + benchmarks + `}`))
	require.NoError(t, err)
	return doc.Benchmarks
}

func TestEntryValidate_Decoded(t *testing.T) {
	tests := []struct {
		name    string
		entry   string
		wantErr string
	}{
		{
			name:  "complete entry",
			entry: `{"algorithm": "quicksort", "type": "comparison", "size": 1000, "averages": {"execution_time_ms": 1, "energy_joules": 0.1, "power_watts": 2}}`,
		},
		{
			name:  "data_size instead of size",
			entry: `{"algorithm": "quicksort", "type": "comparison", "data_size": 10, "averages": {"execution_time_ms": 1, "energy_joules": 0.1, "power_watts": 2}}`,
		},
		{
			name:  "null metrics tolerated",
			entry: `{"algorithm": "q", "type": "c", "size": 1, "averages": {"execution_time_ms": 1, "energy_joules": 0.1, "power_watts": 2}, "results": [{"metrics": null}, {}]}`,
		},
		{
			name:    "missing averages",
			entry:   `{"algorithm": "quicksort", "type": "comparison", "size": 1000}`,
			wantErr: "averages",
		},
		{
			name:    "averages missing a field",
			entry:   `{"algorithm": "quicksort", "type": "comparison", "size": 1000, "averages": {"execution_time_ms": 1, "power_watts": 2}}`,
			wantErr: "energy_joules",
		},
		{
			name:    "missing size",
			entry:   `{"algorithm": "quicksort", "type": "comparison", "averages": {"execution_time_ms": 1, "energy_joules": 0.1, "power_watts": 2}}`,
			wantErr: "size",
		},
		{
			name:    "type longer than column",
			entry:   `{"algorithm": "quicksort", "type": "` + strings.Repeat("x", MaxTypeLen+1) + `", "size": 1, "averages": {"execution_time_ms": 1, "energy_joules": 0.1, "power_watts": 2}}`,
			wantErr: "type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := decodeEntries(t, "["+tt.entry+"]")
			require.Len(t, entries, 1)

			err := entries[0].Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrSchema))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEntryValidate_Constructed(t *testing.T) {
	size := 1000
	entry := Entry{
		Algorithm: "quicksort",
		Type:      "comparison",
		Size:      &size,
		Averages:  &Averages{ExecutionTimeMS: 12.5, EnergyJoules: 0.003, PowerWatts: 0.24},
		Results:   []Run{{Metrics: &Metrics{Comparisons: 9965, Swaps: 1000}}},
	}
	assert.NoError(t, entry.Validate())

	entry.Averages = nil
	err := entry.Validate()
	require.Error(t, err)
	assert.Equal(t, errors.KindSchema, errors.KindOf(err))
}

func TestMetaValidate(t *testing.T) {
	var missing *Meta
	assert.True(t, errors.Is(missing.Validate(), errors.ErrSchema))
	assert.Error(t, (&Meta{Timestamp: "t"}).Validate())
	assert.Error(t, (&Meta{MeasurementMethod: "m"}).Validate())
	assert.Error(t, (&Meta{MeasurementMethod: strings.Repeat("m", MaxMethodLen+1), Timestamp: "t"}).Validate())
	assert.NoError(t, (&Meta{MeasurementMethod: "rapl", Timestamp: "2025-03-14T10:22:01"}).Validate())
}
