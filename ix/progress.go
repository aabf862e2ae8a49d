package ix

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/pterm/pterm"

	"github.com/teranos/joulebench/logger"
	"github.com/teranos/joulebench/storage"
)

// ProgressEmitter receives import progress as it happens.
//
// Implementations include:
// - CLIEmitter: Pretty-printed terminal output using pterm
// - JSONEmitter: Newline-delimited JSON events for scripts and the server
// - NopEmitter: Discards everything
type ProgressEmitter interface {
	// EmitStage announces the start of an import stage
	EmitStage(stage string, message string)

	// EmitRow reports one persisted row; index is the entry's position in the document
	EmitRow(index int, rec storage.Record)

	// EmitComplete reports the final result, successful or not
	EmitComplete(res Result)

	// EmitError reports a failure in stage
	EmitError(stage string, err error)

	// EmitInfo reports an informational message
	EmitInfo(message string)
}

// ProgressEvent represents a structured JSON progress event
type ProgressEvent struct {
	Type      string                 `json:"type"` // "stage", "row", "complete", "error", "info"
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// CLIEmitter outputs pretty-printed progress to terminal using pterm
type CLIEmitter struct {
	verbosity int
}

// NewCLIEmitter creates a CLI progress emitter for terminal output
func NewCLIEmitter(verbosity int) *CLIEmitter {
	return &CLIEmitter{verbosity: verbosity}
}

// EmitStage prints a stage announcement to terminal
func (e *CLIEmitter) EmitStage(stage string, message string) {
	if logger.ShouldOutput(e.verbosity, logger.OutputProgress) {
		pterm.Printf("🔄 %s: %s\n", pterm.LightCyan(stage), message)
	}
}

// EmitRow prints one persisted row
func (e *CLIEmitter) EmitRow(index int, rec storage.Record) {
	if logger.ShouldOutput(e.verbosity, logger.OutputRows) {
		pterm.Printf("✅ #%d %s %s/%d  %s J\n",
			index, pterm.Green(rec.AlgorithmName), rec.AlgorithmType, rec.DataSize,
			pterm.LightYellow(fmt.Sprintf("%.6f", rec.EnergyJoules)))
	}
}

// EmitComplete prints the outcome
func (e *CLIEmitter) EmitComplete(res Result) {
	if res.Success {
		pterm.Success.Println(res.Message())
	} else {
		pterm.Warning.Printf("Import stopped: %d of %d records inserted\n", res.Stats.Written, res.Stats.Entries)
	}
	if logger.ShouldOutput(e.verbosity, logger.OutputTiming) {
		pterm.Printf("  batch: %s\n", res.BatchID)
		pterm.Printf("  duration: %dms\n", res.Stats.DurationMs)
	}
}

// EmitError prints an error
func (e *CLIEmitter) EmitError(stage string, err error) {
	pterm.Error.Printf("Error in %s: %v\n", stage, err)
}

// EmitInfo prints informational message
func (e *CLIEmitter) EmitInfo(message string) {
	if logger.ShouldOutput(e.verbosity, logger.OutputProgress) {
		pterm.Info.Println(message)
	}
}

// JSONEmitter writes one JSON event per line
type JSONEmitter struct {
	mu      sync.Mutex
	encoder *json.Encoder
}

// NewJSONEmitter creates a JSON progress emitter writing to w (stdout when nil)
func NewJSONEmitter(w io.Writer) *JSONEmitter {
	if w == nil {
		w = os.Stdout
	}
	return &JSONEmitter{
		encoder: json.NewEncoder(w),
	}
}

func (e *JSONEmitter) emit(eventType string, data map[string]interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.encoder.Encode(ProgressEvent{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	})
}

// EmitStage emits a stage event as JSON
func (e *JSONEmitter) EmitStage(stage string, message string) {
	e.emit("stage", map[string]interface{}{
		"stage":   stage,
		"message": message,
	})
}

// EmitRow emits a row event as JSON
func (e *JSONEmitter) EmitRow(index int, rec storage.Record) {
	e.emit("row", map[string]interface{}{
		"index":     index,
		"id":        rec.ID,
		"algorithm": rec.AlgorithmName,
		"type":      rec.AlgorithmType,
		"data_size": rec.DataSize,
	})
}

// EmitComplete emits a completion event carrying the whole result
func (e *JSONEmitter) EmitComplete(res Result) {
	e.emit("complete", map[string]interface{}{
		"result": res,
	})
}

// EmitError emits an error event as JSON
func (e *JSONEmitter) EmitError(stage string, err error) {
	e.emit("error", map[string]interface{}{
		"stage": stage,
		"error": err.Error(),
	})
}

// EmitInfo emits an info event as JSON
func (e *JSONEmitter) EmitInfo(message string) {
	e.emit("info", map[string]interface{}{
		"message": message,
	})
}

// NopEmitter discards all progress
type NopEmitter struct{}

func (NopEmitter) EmitStage(string, string) {}
func (NopEmitter) EmitRow(int, storage.Record) {}
func (NopEmitter) EmitComplete(Result) {}
func (NopEmitter) EmitError(string, error) {}
func (NopEmitter) EmitInfo(string) {}

var (
	_ ProgressEmitter = (*CLIEmitter)(nil)
	_ ProgressEmitter = (*JSONEmitter)(nil)
	_ ProgressEmitter = NopEmitter{}
)
