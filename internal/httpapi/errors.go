package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"leadcrm-engine/internal/domain"
	"leadcrm-engine/internal/store"
)

type APIError struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	var e APIError
	e.Error.Code = code
	e.Error.Message = message
	e.Error.RequestID = RequestIDFrom(r.Context())
	WriteJSON(w, status, e)
}

// writeStoreError maps store and field errors onto the error envelope. A
// failed persist is always surfaced: the change is live in memory but not
// yet on disk.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	var pe *store.PersistError
	switch {
	case errors.As(err, &pe):
		log.Printf("level=error msg=\"persist failed\" request_id=%s err=%v", RequestIDFrom(r.Context()), err)
		WriteError(w, r, http.StatusInternalServerError, "persist_failed", err.Error())
	case errors.Is(err, store.ErrNotFound):
		WriteError(w, r, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrReadOnly):
		WriteError(w, r, http.StatusBadRequest, "read_only", err.Error())
	case errors.Is(err, domain.ErrUnknownField):
		WriteError(w, r, http.StatusBadRequest, "unknown_field", err.Error())
	case errors.Is(err, domain.ErrInvalidValue):
		WriteError(w, r, http.StatusBadRequest, "invalid_value", err.Error())
	default:
		log.Printf("level=error msg=\"store\" request_id=%s err=%v", RequestIDFrom(r.Context()), err)
		WriteError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
