// Package results reads the benchmark result files written by the energy
// measurement tool. A result file is one JSON document holding the session's
// provenance (meta) and one entry per (algorithm, type, size) measured.
package results

import (
	"encoding/json"
	"sort"
	"time"
)

// Document is one parsed result file
type Document struct {
	Meta       *Meta   `json:"meta"`
	Benchmarks []Entry `json:"benchmarks"`
}

// Meta is the provenance shared by every entry of a document
type Meta struct {
	Timestamp         string                 `json:"timestamp"`
	MeasurementMethod string                 `json:"measurement_method"`
	SystemInfo        map[string]interface{} `json:"system_info,omitempty"`
}

// Entry is one measured (algorithm, type, size) unit
type Entry struct {
	Algorithm string    `json:"algorithm"`
	Type      string    `json:"type"`
	Size      *int      `json:"size,omitempty"`
	DataSize  *int      `json:"data_size,omitempty"` // older producers only write data_size
	Runs      int       `json:"runs,omitempty"`
	Averages  *Averages `json:"averages,omitempty"`
	Results   []Run     `json:"results,omitempty"`

	raw json.RawMessage
}

// Averages are the per-entry means computed by the producer
type Averages struct {
	ExecutionTimeMS float64 `json:"execution_time_ms"`
	EnergyJoules    float64 `json:"energy_joules"`
	PowerWatts      float64 `json:"power_watts"`
}

// Run is one repetition of an entry. Keys other than metrics are kept opaque.
type Run struct {
	Run           int                    `json:"run,omitempty"`
	Metrics       *Metrics               `json:"metrics,omitempty"`
	Energy        map[string]interface{} `json:"energy,omitempty"`
	AlgorithmInfo map[string]interface{} `json:"algorithm_info,omitempty"`
}

// Metrics are the operation counters of one run. Absent counters are 0.
type Metrics struct {
	Comparisons    int64 `json:"comparisons,omitempty"`
	Swaps          int64 `json:"swaps,omitempty"`
	Iterations     int64 `json:"iterations,omitempty"`
	MemoryAccesses int64 `json:"memory_accesses,omitempty"`
}

// UnmarshalJSON keeps the entry's source bytes so Validate checks what was
// actually in the file rather than the zero-filled struct.
func (e *Entry) UnmarshalJSON(data []byte) error {
	type plain Entry
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*e = Entry(p)
	e.raw = append(json.RawMessage(nil), data...)
	return nil
}

// EffectiveSize returns size, falling back to data_size
func (e Entry) EffectiveSize() (int, bool) {
	if e.Size != nil {
		return *e.Size, true
	}
	if e.DataSize != nil {
		return *e.DataSize, true
	}
	return 0, false
}

// FileSummary describes one result file for listings
type FileSummary struct {
	Name              string    `json:"name"`
	ModTime           time.Time `json:"mod_time"`
	Timestamp         string    `json:"timestamp"`
	MeasurementMethod string    `json:"measurement_method"`
	Algorithms        []string  `json:"algorithms"`
	Sizes             []int     `json:"sizes"`
	Entries           int       `json:"entries"`
}

// Summarize collects the distinct algorithms and sizes of doc
func Summarize(name string, modTime time.Time, doc *Document) FileSummary {
	fs := FileSummary{
		Name:       name,
		ModTime:    modTime,
		Algorithms: []string{},
		Sizes:      []int{},
	}
	if doc == nil {
		return fs
	}
	if doc.Meta != nil {
		fs.Timestamp = doc.Meta.Timestamp
		fs.MeasurementMethod = doc.Meta.MeasurementMethod
	}
	fs.Entries = len(doc.Benchmarks)

	algorithms := make(map[string]struct{})
	sizes := make(map[int]struct{})
	for _, entry := range doc.Benchmarks {
		if entry.Algorithm != "" {
			algorithms[entry.Algorithm] = struct{}{}
		}
		if size, ok := entry.EffectiveSize(); ok {
			sizes[size] = struct{}{}
		}
	}
	for name := range algorithms {
		fs.Algorithms = append(fs.Algorithms, name)
	}
	for size := range sizes {
		fs.Sizes = append(fs.Sizes, size)
	}
	sort.Strings(fs.Algorithms)
	sort.Ints(fs.Sizes)
	return fs
}
