package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/colwise/colwise/internal/logging"
	"github.com/colwise/colwise/internal/session"
)

type errorBody struct {
	Error  string `json:"error"`
	Action string `json:"action,omitempty"`
	Code   string `json:"code,omitempty"`
}

// writeJSON encodes v and writes it with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already sent; nothing left but to log.
		slog.Error("json encode failed", "error", err)
	}
}

// writeError maps an error to a user-facing message and a status code.
// The technical error is logged; the client sees the mapped message
// with its support code.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	logging.FromContext(r.Context()).Warn("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err)

	msg := session.MapError(err)
	writeJSON(w, statusFor(err, msg.Code), errorBody{
		Error:  msg.Message,
		Action: msg.Action,
		Code:   msg.Code,
	})
}

func statusFor(err error, code string) int {
	var ve *session.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrNotReady):
		return http.StatusConflict
	case errors.Is(err, session.ErrTooManySessions):
		return http.StatusTooManyRequests
	}
	// Bad client input recognized by the message mapping.
	switch code {
	case "CONV002", "CONV003", "FILE002":
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
