package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/teranos/joulebench/actions"
	"github.com/teranos/joulebench/errors"
)

// kindRateLimited is reported when an import endpoint is throttled
const kindRateLimited = "rate_limited"

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeError writes a failure envelope with an explicit status
func writeError(w http.ResponseWriter, status int, kind, message string) {
	_ = writeJSON(w, status, actions.Envelope{Success: false, Error: message, Kind: kind})
}

// writeEnvelope writes env with the status its kind maps to
func writeEnvelope(w http.ResponseWriter, env actions.Envelope) {
	status := http.StatusOK
	if !env.Success {
		status = statusForKind(env.Kind)
	}
	_ = writeJSON(w, status, env)
}

// statusForKind maps error kind codes to HTTP status codes
func statusForKind(kind string) int {
	switch kind {
	case errors.KindNotFound:
		return http.StatusNotFound
	case errors.KindParse, errors.KindSchema, errors.KindInvalidRequest:
		return http.StatusBadRequest
	case errors.KindStorageUnavailable:
		return http.StatusServiceUnavailable
	case kindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// requireMethod checks if the request method matches the expected method
func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		writeError(w, http.StatusMethodNotAllowed, errors.KindInvalidRequest, "method not allowed")
		return false
	}
	return true
}

// requireMethods checks if the request method matches one of the expected methods
func requireMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, method := range methods {
		if r.Method == method {
			return true
		}
	}
	writeError(w, http.StatusMethodNotAllowed, errors.KindInvalidRequest, "method not allowed")
	return false
}

// queryParams flattens the query string to its first values, the shape Dispatch takes
func queryParams(r *http.Request) map[string]string {
	params := make(map[string]string)
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	return params
}
