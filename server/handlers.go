package server

// HTTP handlers, one per operation:
// - Legacy dispatcher (HandleAction, /api?action=)
// - Imports (HandleImport, HandleUpload)
// - Aggregates (HandleSummary, HandleCompare, HandleAlgorithm)
// - Result files (HandleFiles)
// - Health (HandleHealth)

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/teranos/joulebench/actions"
	"github.com/teranos/joulebench/ax"
	"github.com/teranos/joulebench/errors"
	"github.com/teranos/joulebench/logger"
	"github.com/teranos/joulebench/results"
	"github.com/teranos/joulebench/version"
)

// HandleAction serves the ?action= protocol. Imports are throttled like /api/import.
func (s *Server) HandleAction(w http.ResponseWriter, r *http.Request) {
	if !requireMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}

	params := queryParams(r)
	action := strings.ToLower(strings.TrimSpace(params["action"]))
	if (action == "" || action == actions.ActionImport) && !s.allowImport() {
		s.rateLimited(w)
		return
	}

	writeEnvelope(w, s.service.Dispatch(r.Context(), action, params))
}

// HandleImport imports ?file= from the results directory, or the latest file
func (s *Server) HandleImport(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if !s.allowImport() {
		s.rateLimited(w)
		return
	}

	writeEnvelope(w, s.service.Import(r.Context(), r.URL.Query().Get("file")))
}

// HandleUpload imports a result document sent as the request body.
// ?name= labels the source in the result.
func (s *Server) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if !s.allowImport() {
		s.rateLimited(w)
		return
	}

	doc, err := results.Decode(http.MaxBytesReader(w, r.Body, s.maxUploadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, errors.KindInvalidRequest,
				"upload exceeds "+strconv.FormatInt(tooLarge.Limit, 10)+" bytes")
			return
		}
		logger.FromContext(r.Context(), s.logger).Infow("Rejected upload",
			logger.FieldErrorKind, errors.KindOf(err),
			logger.FieldError, err)
		writeEnvelope(w, actions.Fail(err))
		return
	}

	source := r.URL.Query().Get("name")
	if source == "" {
		source = "upload"
	}
	writeEnvelope(w, s.service.ImportDocument(r.Context(), source, doc))
}

// HandleSummary serves the grouped summary of every stored row
func (s *Server) HandleSummary(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeEnvelope(w, s.service.Summary(r.Context()))
}

// HandleCompare ranks algorithms at ?size= (default 1000) by mean energy
func (s *Server) HandleCompare(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	size, err := actions.ParseSize(r.URL.Query().Get("size"), ax.DefaultCompareSize)
	if err != nil {
		writeEnvelope(w, actions.Fail(err))
		return
	}
	writeEnvelope(w, s.service.Compare(r.Context(), size))
}

// HandleFiles lists result files; ?details=true adds a summary per file
func (s *Server) HandleFiles(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	if details, _ := strconv.ParseBool(r.URL.Query().Get("details")); details {
		writeEnvelope(w, s.service.ListDetails())
		return
	}
	writeEnvelope(w, s.service.ListFiles())
}

// HandleAlgorithm serves the recent rows of one algorithm, optionally at ?size=
func (s *Server) HandleAlgorithm(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	size, err := actions.ParseOptionalSize(r.URL.Query().Get("size"))
	if err != nil {
		writeEnvelope(w, actions.Fail(err))
		return
	}
	writeEnvelope(w, s.service.Algorithm(r.Context(), r.PathValue("name"), size))
}

// HandleHealth serves health check endpoint with version info
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	versionInfo := version.Get()

	status := http.StatusOK
	storageStatus := "ok"
	if s.ping == nil {
		storageStatus = "unconfigured"
	} else if err := s.ping(r.Context()); err != nil {
		status = http.StatusServiceUnavailable
		storageStatus = err.Error()
	}

	state := s.getState()
	if state != ServerStateRunning {
		status = http.StatusServiceUnavailable
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}

	health := map[string]interface{}{
		"status":     overall,
		"state":      stateString(state),
		"storage":    storageStatus,
		"version":    versionInfo.Version,
		"commit":     versionInfo.CommitHash,
		"build_time": versionInfo.BuildTime,
	}
	_ = writeJSON(w, status, health)
}

func (s *Server) rateLimited(w http.ResponseWriter) {
	s.logger.Infow("Import throttled")
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, kindRateLimited, "import rate limit exceeded")
}
