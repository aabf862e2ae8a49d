// Package actions exposes the operations of joulebench behind one
// success/failure envelope: import a result file, summarize, compare,
// list files, and fetch an algorithm's history. Dispatch maps the
// ?action= protocol onto them. No operation returns a bare error or panics.
package actions

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/joulebench/ax"
	"github.com/teranos/joulebench/errors"
	"github.com/teranos/joulebench/internal/metrics"
	"github.com/teranos/joulebench/ix"
	"github.com/teranos/joulebench/logger"
	"github.com/teranos/joulebench/results"
	"github.com/teranos/joulebench/storage"
)

// Action names accepted by Dispatch
const (
	ActionImport    = "import"
	ActionSummary   = "summary"
	ActionCompare   = "compare"
	ActionList      = "list"
	ActionAlgorithm = "algorithm"
)

// ImportData is the payload of an import envelope
type ImportData struct {
	File     string    `json:"file"`
	Inserted int       `json:"inserted"`
	Result   ix.Result `json:"result"`
}

// CompareData is the payload of a compare envelope
type CompareData struct {
	Size int         `json:"size"`
	Rows []ax.Ranked `json:"rows"`
}

// AlgorithmData is the payload of an algorithm envelope
type AlgorithmData struct {
	Name string           `json:"name"`
	Size *int             `json:"size,omitempty"`
	Rows []storage.Record `json:"rows"`
}

// FilesData is the payload of a list envelope
type FilesData struct {
	Files   []string              `json:"files"`
	Details []results.FileSummary `json:"details,omitempty"`
}

// Service wires the reader, importer and aggregator behind the exposed operations
type Service struct {
	reader     *results.Reader
	importer   *ix.Importer
	aggregator *ax.Aggregator
	metrics    *metrics.Metrics
	logger     *zap.SugaredLogger
}

// Deps are the collaborators of a Service. Metrics and Logger are optional.
type Deps struct {
	Reader     *results.Reader
	Importer   *ix.Importer
	Aggregator *ax.Aggregator
	Metrics    *metrics.Metrics
	Logger     *zap.SugaredLogger
}

// NewService creates a Service. A nil Reader falls back to the default results directory.
func NewService(deps Deps) *Service {
	s := &Service{
		reader:     deps.Reader,
		importer:   deps.Importer,
		aggregator: deps.Aggregator,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
	if s.reader == nil {
		s.reader = results.NewReader("", "")
	}
	if s.logger == nil {
		s.logger = logger.ComponentLogger("actions")
	}
	return s
}

// Reader returns the result file reader
func (s *Service) Reader() *results.Reader {
	return s.reader
}

// ImportFile reads and imports filename, or the latest result file when
// filename is empty. Read failures come back as a failed Result.
func (s *Service) ImportFile(ctx context.Context, filename string) ix.Result {
	res := s.importFile(ctx, filename)
	s.metrics.ObserveImport(res.Success, res.Stats.Written, res.Kind())
	return res
}

func (s *Service) importFile(ctx context.Context, filename string) ix.Result {
	if filename == "" {
		latest, err := s.reader.ResolveLatest()
		if err != nil {
			return ix.FailedResult(ix.StageRead, err)
		}
		filename = latest
	}

	doc, err := s.reader.Read(filename)
	if err != nil {
		res := ix.FailedResult(ix.StageRead, err)
		res.Source = filename
		return res
	}

	res := s.importDocument(ctx, doc)
	res.Source = filename
	return res
}

func (s *Service) importDocument(ctx context.Context, doc *results.Document) ix.Result {
	if s.importer == nil {
		return ix.FailedResult(ix.StageSchema,
			errors.Mark(errors.New("no importer configured"), errors.ErrStorageUnavailable))
	}
	return s.importer.Import(ctx, doc)
}

// Import imports filename (empty: the latest result file)
func (s *Service) Import(ctx context.Context, filename string) Envelope {
	return s.importEnvelope(s.ImportFile(ctx, filename))
}

// ImportDocument imports a document that did not come from the results
// directory, e.g. an upload. source labels it in the result.
func (s *Service) ImportDocument(ctx context.Context, source string, doc *results.Document) Envelope {
	res := s.importDocument(ctx, doc)
	res.Source = source
	s.metrics.ObserveImport(res.Success, res.Stats.Written, res.Kind())
	return s.importEnvelope(res)
}

func (s *Service) importEnvelope(res ix.Result) Envelope {
	data := ImportData{File: res.Source, Inserted: res.Stats.Written, Result: res}
	if res.Success {
		env := ok(data)
		env.Message = res.Message()
		return env
	}

	env := failure(res.Err())
	env.Message = res.Message()
	env.Data = data
	return env
}

// Summary returns the grouped summary of every stored row
func (s *Service) Summary(ctx context.Context) Envelope {
	if s.aggregator == nil {
		return failure(errUnavailable())
	}
	defer s.metrics.ObserveQuery(ActionSummary, time.Now())

	rows, err := s.aggregator.Summary(ctx)
	if err != nil {
		return s.failed(ctx, ActionSummary, err)
	}
	return ok(rows)
}

// Compare ranks algorithms measured at size by mean energy
func (s *Service) Compare(ctx context.Context, size int) Envelope {
	if s.aggregator == nil {
		return failure(errUnavailable())
	}
	defer s.metrics.ObserveQuery(ActionCompare, time.Now())

	rows, err := s.aggregator.Compare(ctx, size)
	if err != nil {
		return s.failed(ctx, ActionCompare, err)
	}
	return ok(CompareData{Size: size, Rows: rows})
}

// Algorithm returns the recent rows of one algorithm; size may be nil
func (s *Service) Algorithm(ctx context.Context, name string, size *int) Envelope {
	if s.aggregator == nil {
		return failure(errUnavailable())
	}
	defer s.metrics.ObserveQuery(ActionAlgorithm, time.Now())

	rows, err := s.aggregator.AlgorithmResults(ctx, name, size)
	if err != nil {
		return s.failed(ctx, ActionAlgorithm, err)
	}
	return ok(AlgorithmData{Name: strings.TrimSpace(name), Size: size, Rows: rows})
}

// ListFiles returns the result file names, newest first
func (s *Service) ListFiles() Envelope {
	files, err := s.reader.List()
	if err != nil {
		return failure(err)
	}
	return ok(FilesData{Files: files})
}

// ListDetails returns the result files with a summary of each. Files that
// cannot be parsed are listed by name only.
func (s *Service) ListDetails() Envelope {
	files, err := s.reader.List()
	if err != nil {
		return failure(err)
	}

	details := make([]results.FileSummary, 0, len(files))
	for _, name := range files {
		fs, err := s.reader.Describe(name)
		if err != nil {
			s.logger.Debugw("Skipping unreadable result file",
				logger.FieldFile, name,
				logger.FieldError, err)
			fs = results.FileSummary{Name: name, Algorithms: []string{}, Sizes: []int{}}
		}
		details = append(details, fs)
	}
	return ok(FilesData{Files: files, Details: details})
}

// Dispatch runs the named action with string parameters, as sent on the
// ?action= query protocol. An empty action is import.
func (s *Service) Dispatch(ctx context.Context, action string, params map[string]string) (env Envelope) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorw("Action panicked",
				logger.FieldAction, action,
				"panic", r)
			env = Envelope{Success: false, Error: fmt.Sprintf("internal error: %v", r), Kind: errors.KindInternal}
		}
	}()

	switch strings.ToLower(strings.TrimSpace(action)) {
	case "", ActionImport:
		return s.Import(ctx, params["file"])

	case ActionSummary:
		return s.Summary(ctx)

	case ActionCompare:
		size, err := ParseSize(params["size"], ax.DefaultCompareSize)
		if err != nil {
			return failure(err)
		}
		return s.Compare(ctx, size)

	case ActionList:
		if details, _ := strconv.ParseBool(params["details"]); details {
			return s.ListDetails()
		}
		return s.ListFiles()

	case ActionAlgorithm:
		size, err := ParseOptionalSize(params["size"])
		if err != nil {
			return failure(err)
		}
		return s.Algorithm(ctx, params["name"], size)

	default:
		return failure(errors.WithHintf(
			errors.NewInvalidRequestError("unknown action %q", action),
			"valid actions: %s, %s, %s, %s, %s",
			ActionImport, ActionSummary, ActionCompare, ActionList, ActionAlgorithm))
	}
}

func (s *Service) failed(ctx context.Context, action string, err error) Envelope {
	logger.FromContext(ctx, s.logger).Warnw("Action failed",
		logger.FieldAction, action,
		logger.FieldErrorKind, errors.KindOf(err),
		logger.FieldError, err)
	return failure(err)
}

func errUnavailable() error {
	return errors.Mark(errors.New("no storage configured"), errors.ErrStorageUnavailable)
}
