package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dirserve/dirserve"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errCode,
		Message: message,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError writes the appropriate error response based on error type
func HandleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dirserve.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "Not found")
	case errors.Is(err, dirserve.ErrPathTraversal):
		slog.Warn("rejected path traversal attempt", "err", err)
		WriteError(w, http.StatusBadRequest, "path_traversal", "Path escapes served root")
	case errors.Is(err, dirserve.ErrNotADirectory):
		WriteError(w, http.StatusBadRequest, "not_a_directory", "Not a directory")
	case errors.Is(err, dirserve.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, "invalid_input", "Invalid request")
	case errors.Is(err, dirserve.ErrExists):
		WriteError(w, http.StatusConflict, "already_exists", "File already exists and overwrite is disabled")
	default:
		slog.Error("request error", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
