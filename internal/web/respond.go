package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"knotes/internal/notes"
)

// response is the wire envelope for every endpoint: code mirrors the HTTP
// status so clients reading only the body stay consistent.
type response struct {
	Code int    `json:"code"`
	Data any    `json:"data,omitempty"`
	Msg  string `json:"msg,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, resp response) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Warn("write response", "err", err)
	}
}

func respondData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, response{Code: http.StatusOK, Data: data})
}

func respondMsg(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, response{Code: http.StatusOK, Msg: msg})
}

func respondDataMsg(w http.ResponseWriter, data any, msg string) {
	writeJSON(w, http.StatusOK, response{Code: http.StatusOK, Data: data, Msg: msg})
}

// respondErr is the single place where error kinds become status codes.
// Unexpected errors get an opaque id: the id is logged next to the cause and
// returned to the client, which keeps internals out of responses while
// leaving a handle for correlating reports with logs.
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var ve *notes.ValidationError
	var mbe *http.MaxBytesError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, response{Code: http.StatusBadRequest, Msg: ve.Msg})
	case errors.Is(err, notes.ErrNotFound):
		writeJSON(w, http.StatusNotFound, response{Code: http.StatusNotFound, Msg: err.Error()})
	case errors.As(err, &mbe):
		writeJSON(w, http.StatusRequestEntityTooLarge, response{Code: http.StatusRequestEntityTooLarge, Msg: "request body too large"})
	case errors.Is(err, notes.ErrCorruptHistory):
		errID := shortErrID()
		slog.Error("corrupt history", "path", r.URL.Path, "error_id", errID, "err", err)
		writeJSON(w, http.StatusInternalServerError, response{Code: http.StatusInternalServerError, Msg: "history content corrupt (id " + errID + ")"})
	default:
		errID := shortErrID()
		slog.Error("internal error", "path", r.URL.Path, "error_id", errID, "err", err)
		writeJSON(w, http.StatusInternalServerError, response{Code: http.StatusInternalServerError, Msg: "internal server error (id " + errID + ")"})
	}
}

func shortErrID() string {
	return uuid.NewString()[:8]
}
