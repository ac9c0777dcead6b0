package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sheikh-saqib/personal-finance-ledger/internal/logging"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/models"
	"go.uber.org/zap"
)

type errorResponse struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrInvalidEntryKind):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrTransaction):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps domain errors onto status codes. Internal details of
// unexpected errors are logged, not returned.
func writeError(w http.ResponseWriter, logger *logging.Logger, err error) {
	status := statusOf(err)
	body := errorResponse{Message: err.Error()}

	var ve models.ValidationError
	if errors.As(err, &ve) {
		body = errorResponse{Message: ve.Message, Field: ve.Field}
	}

	switch status {
	case http.StatusInternalServerError:
		logger.Error("request failed", zap.Error(err))
		body = errorResponse{Message: "internal error"}
	case http.StatusServiceUnavailable:
		logger.Warn("transaction aborted", zap.Error(err))
		body = errorResponse{Message: "transaction aborted, retry later"}
	}
	writeJSON(w, status, body)
}
