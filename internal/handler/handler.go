package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"optikart/internal/model"

	"github.com/rs/zerolog"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	logger.Error().Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message})
}

// writeServiceError maps a service error onto the HTTP surface. Domain
// errors keep their code; anything else is an infrastructure fault and is
// reported as a retryable 503 without leaking detail.
func writeServiceError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var derr *model.DomainError
	if errors.As(err, &derr) {
		writeError(w, statusForCode(derr.Code), derr.Code, derr.Message, logger)
		return
	}

	if strings.Contains(err.Error(), "required") ||
		strings.Contains(err.Error(), "unknown product type") ||
		strings.Contains(err.Error(), "is nil") {
		writeError(w, http.StatusBadRequest, model.ErrCodeMissingField, err.Error(), logger)
		return
	}

	logger.Error().Err(err).Msg("service error")
	writeError(w, http.StatusServiceUnavailable, model.ErrCodeInternalError, "temporarily unable to process the request", logger)
}

// statusForCode maps domain error codes to HTTP status codes.
func statusForCode(code string) int {
	switch code {
	case model.ErrCodeProductNotFound, model.ErrCodeLineNotFound, model.ErrCodeProfileNotFound:
		return http.StatusNotFound
	case model.ErrCodeUnauthorised:
		return http.StatusForbidden
	case model.ErrCodeProductInactive, model.ErrCodeMalformedPrescription,
		model.ErrCodeNoInlinePrescription, model.ErrCodeInvalidQuantity:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
