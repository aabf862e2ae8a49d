// Package errors provides error handling for joulebench.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Hints and details for user-facing diagnostics
//
// On top of that it defines the error kinds every public operation reports:
// NotFound, Parse, Schema, StorageUnavailable, Storage and InvalidRequest.
// Kinds are attached with Mark so the underlying diagnostic (a JSON decoder
// message, a driver error) survives in the error text.
//
// Usage:
//
//	if err := json.Unmarshal(data, &doc); err != nil {
//	    return errors.Mark(errors.Wrapf(err, "decode %s", name), errors.ErrParse)
//	}
//
//	if errors.Is(err, errors.ErrSchema) {
//	    // well-formed input, missing required fields
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// GetStack is an alias for GetReportableStackTrace for convenience.
var GetStack = crdb.GetReportableStackTrace

// Error kinds. Use these with errors.Is(); attach them with Mark or Wrap.
var (
	// ErrNotFound indicates a result file or the results directory does not exist
	ErrNotFound = New("not found")

	// ErrParse indicates the input is not well-formed JSON
	ErrParse = New("parse error")

	// ErrSchema indicates well-formed input missing required fields (e.g. averages)
	ErrSchema = New("schema error")

	// ErrStorageUnavailable indicates there is no active storage connection
	ErrStorageUnavailable = New("storage unavailable")

	// ErrStorage indicates a write or query failed against the backing store
	ErrStorage = New("storage error")

	// ErrInvalidRequest indicates the caller passed unusable arguments
	ErrInvalidRequest = New("invalid request")
)

// Kind codes reported in results and envelopes.
const (
	KindNotFound           = "not_found"
	KindParse              = "parse_error"
	KindSchema             = "schema_error"
	KindStorageUnavailable = "storage_unavailable"
	KindStorage            = "storage_error"
	KindInvalidRequest     = "invalid_request"
	KindInternal           = "internal"
)

// KindOf maps an error to its kind code. Nil maps to "".
// StorageUnavailable is checked before Storage since an unavailable store is
// usually also wrapped as a failed storage call.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case Is(err, ErrNotFound):
		return KindNotFound
	case Is(err, ErrParse):
		return KindParse
	case Is(err, ErrSchema):
		return KindSchema
	case Is(err, ErrStorageUnavailable):
		return KindStorageUnavailable
	case Is(err, ErrStorage):
		return KindStorage
	case Is(err, ErrInvalidRequest):
		return KindInvalidRequest
	default:
		return KindInternal
	}
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrNotFound)
}

// NewInvalidRequestError creates an invalid-request error with a formatted message
func NewInvalidRequestError(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrInvalidRequest)
}

// NewSchemaError creates a schema error with a formatted message
func NewSchemaError(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrSchema)
}

// WrapParse marks a decoder error as a parse error, keeping its diagnostic.
func WrapParse(err error, context string) error {
	if err == nil {
		return nil
	}
	return Mark(Wrap(err, context), ErrParse)
}

// WrapStorage marks a driver error as a storage error, keeping its diagnostic.
func WrapStorage(err error, context string) error {
	if err == nil {
		return nil
	}
	return Mark(Wrap(err, context), ErrStorage)
}
