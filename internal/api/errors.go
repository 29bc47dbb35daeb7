package api

import (
	"net/http"

	"github.com/goccy/go-json"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Message string              `json:"message"`
	Error   string              `json:"error,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// writeError writes a JSON error response with the given HTTP status code.
// detail is optional and carries the underlying error text.
func writeError(w http.ResponseWriter, status int, message, detail string) {
	writeJSON(w, status, ErrorResponse{Message: message, Error: detail})
}

// writeValidationError writes a 400 with per-field messages.
func writeValidationError(w http.ResponseWriter, fields map[string][]string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Message: "One or more validation errors occurred.",
		Errors:  fields,
	})
}

// writeJSON writes a JSON response with the given HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
