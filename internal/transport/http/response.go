package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"article-batch-service/internal/batch"
)

type apiError struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, apiError{Message: msg})
}

// writeServiceErr maps orchestrator errors to status codes.
func writeServiceErr(w http.ResponseWriter, err error) {
	var vErr *batch.ValidationError
	var sErr *batch.StateError
	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusBadRequest, apiError{Message: err.Error(), Field: vErr.Field})
	case errors.As(err, &sErr):
		writeErr(w, http.StatusConflict, err.Error())
	default:
		zap.S().Named("http").Errorw("request failed", "error", err)
		writeErr(w, http.StatusInternalServerError, "internal error")
	}
}
