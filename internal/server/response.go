package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/fintrackhq/fintrack/internal/apperr"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// writeError maps the error taxonomy onto status codes. Untagged errors are
// logged and hidden behind a generic 500.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindInsufficientData:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case apperr.KindNotFound:
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case apperr.KindConflict:
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case apperr.KindAuth:
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	default:
		log.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
