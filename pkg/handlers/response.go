package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/skillvault-io/skillvault-registry/pkg/apperrors"
)

// ApiResponse wraps data in the format expected by API clients.
type ApiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// statusForError maps service sentinel errors to HTTP statuses and error
// codes. Anything unrecognized is a 500 under the given fallback code.
func statusForError(err error, fallbackCode string) (int, string) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperrors.ErrNotAuthorized):
		return http.StatusForbidden, "not_authorized"
	case errors.Is(err, apperrors.ErrDuplicateKey):
		return http.StatusConflict, "duplicate_key"
	case errors.Is(err, apperrors.ErrInvalidEndorsement):
		return http.StatusUnprocessableEntity, "invalid_endorsement"
	case errors.Is(err, apperrors.ErrBadgeNotEarned):
		return http.StatusUnprocessableEntity, "badge_not_earned"
	case errors.Is(err, apperrors.ErrChallengeNotActive):
		return http.StatusUnprocessableEntity, "challenge_not_active"
	case errors.Is(err, apperrors.ErrPrerequisitesNotMet):
		return http.StatusUnprocessableEntity, "prerequisites_not_met"
	default:
		return http.StatusInternalServerError, fallbackCode
	}
}

// writeServiceError maps a service error to its HTTP response.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error, fallbackCode string) {
	status, code := statusForError(err, fallbackCode)
	if writeErr := ErrorResponse(w, status, code, err.Error()); writeErr != nil {
		logger.Error("Failed to write error response", zap.Error(writeErr))
	}
}
