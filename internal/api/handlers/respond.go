package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/taskhub-app/taskhub-be/internal/apperror"
)

// errorResponse is the JSON body for every failed request.
type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response body")
	}
}

// writeError translates a service error into an HTTP response. Unknown
// errors become an opaque 500 so internals never leak to the client.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		log.Error().Err(err).Msg("Unclassified error reached the handler layer")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(appErr, apperror.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(appErr, apperror.ErrDuplicateEmail):
		status = http.StatusConflict
	case errors.Is(appErr, apperror.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(appErr, apperror.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(appErr, apperror.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, errorResponse{Error: appErr.Message, Field: appErr.Field})
}
