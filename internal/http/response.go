package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"wallet/internal/core"
	"wallet/internal/log"
	"wallet/internal/metrics"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps ledger and request errors to HTTP status codes.
func statusFor(err error) (int, errorResponse) {
	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity, errorResponse{Error: ve.Error(), Field: ve.Field}
	case errors.Is(err, core.ErrInsufficientFunds):
		return http.StatusConflict, errorResponse{Error: err.Error()}
	case errors.Is(err, core.ErrTransactionNotFound):
		return http.StatusNotFound, errorResponse{Error: err.Error()}
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, errorResponse{Error: err.Error()}
	default:
		return http.StatusInternalServerError, errorResponse{Error: "internal error"}
	}
}

// writeLedgerError is the single place where failed operations become
// responses. Client errors log at warn, anything else at error.
func (s *Server) writeLedgerError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, body := statusFor(err)
	metrics.RecordOperation(op, err)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	log.FromContext(r.Context()).WithComponent(log.ComponentLedger).LogLevel(r.Context(), level, "Ledger operation rejected",
		log.NewFields().WithOperation(op).WithError(err).ToSlice()...)

	writeJSON(w, status, body)
}
