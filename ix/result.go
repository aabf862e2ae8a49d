package ix

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/teranos/joulebench/errors"
)

const (
	// ResultVersion is the version of the Result JSON shape
	ResultVersion = "v1"

	// OpImport names the import operation in results
	OpImport = "import"
)

// Import stages, reported in issues and progress events
const (
	StageRead     = "read"
	StageSchema   = "schema"
	StageValidate = "validate"
	StagePersist  = "persist"
	StageComplete = "complete"
)

// Result is the explicit outcome of one import.
// Written counts the rows that are durable when the import returns, also on failure.
type Result struct {
	Op          string  `json:"op"`
	BatchID     string  `json:"batch_id"`
	Source      string  `json:"source,omitempty"`
	Success     bool    `json:"success"`
	Atomic      bool    `json:"atomic"`
	Stats       Stats   `json:"stats"`
	FailedIndex int     `json:"failed_index"`
	Warnings    []Issue `json:"warnings,omitempty"`
	Errors      []Issue `json:"errors,omitempty"`
	Version     string  `json:"version"`

	err error
}

// Stats captures summary counts for an import
type Stats struct {
	Entries    int   `json:"entries"`
	Written    int   `json:"written"`
	DurationMs int64 `json:"duration_ms"`
}

// Issue captures warnings and errors with optional hints
type Issue struct {
	Stage   string   `json:"stage"`
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Index   int      `json:"index"`
	Hints   []string `json:"hints,omitempty"`
}

// NewResult creates a Result initialized for the provided operation
func NewResult(op string) Result {
	return Result{
		Op:          op,
		FailedIndex: -1,
		Warnings:    []Issue{},
		Errors:      []Issue{},
		Version:     ResultVersion,
	}
}

// FailedResult is the result of an import that failed before any entry was
// processed, e.g. because the file could not be read.
func FailedResult(stage string, err error) Result {
	res := NewResult(OpImport)
	res.BatchID = uuid.NewString()
	res.fail(stage, -1, err)
	return res
}

// AddWarning adds a warning issue to the result
func (r *Result) AddWarning(stage, code, message string, hints ...string) {
	issue := Issue{Stage: stage, Code: code, Message: message, Index: -1}
	if len(hints) > 0 {
		issue.Hints = append([]string{}, hints...)
	}
	r.Warnings = append(r.Warnings, issue)
}

// AddError adds an error issue to the result
func (r *Result) AddError(stage, code, message string, index int, hints ...string) {
	issue := Issue{Stage: stage, Code: code, Message: message, Index: index}
	if len(hints) > 0 {
		issue.Hints = append([]string{}, hints...)
	}
	r.Errors = append(r.Errors, issue)
}

// fail records err as the import's cause. Only the first failure is kept as Err.
func (r *Result) fail(stage string, index int, err error) {
	r.Success = false
	if r.err == nil {
		r.err = err
		r.FailedIndex = index
	}
	r.AddError(stage, errors.KindOf(err), err.Error(), index, errors.GetAllHints(err)...)
}

// Err returns the failure cause, nil on success
func (r *Result) Err() error {
	return r.err
}

// Kind returns the error kind code of the failure, "" on success
func (r *Result) Kind() string {
	return errors.KindOf(r.err)
}

// Message renders a one-line outcome
func (r *Result) Message() string {
	if r.Success {
		return fmt.Sprintf("%d records inserted", r.Stats.Written)
	}
	if r.err == nil {
		return "import failed"
	}
	if r.FailedIndex >= 0 {
		return fmt.Sprintf("entry %d: %v (%d records inserted)", r.FailedIndex, r.err, r.Stats.Written)
	}
	return r.err.Error()
}
