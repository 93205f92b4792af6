// Package respond writes JSON responses and the standard error shape.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"dose-go/internal/dose"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes data as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Code:    statusCode,
		Message: message,
	})
}

func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message)
}

func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message)
}

func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message)
}

// WriteServiceError maps a service error to 400, 404 or 500. Only
// validation and not-found messages are passed through to the client.
func WriteServiceError(w http.ResponseWriter, err error, logger dose.Logger) {
	switch {
	case errors.Is(err, dose.ErrInvalidInput):
		WriteBadRequest(w, err.Error())
	case errors.Is(err, dose.ErrNotFound):
		WriteNotFound(w, err.Error())
	default:
		logger.Error("request failed", "error", err)
		WriteInternalError(w, "something went wrong, please try again")
	}
}
