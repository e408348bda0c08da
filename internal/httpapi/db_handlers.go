package httpapi

import (
	"net/http"

	"leadcrm-engine/internal/store"
)

type PersistHandler struct {
	Store *store.Store
}

// Flush retries the roster write after a failed persist. Local callers only.
func (h PersistHandler) Flush(w http.ResponseWriter, r *http.Request) {
	if !isLoopback(r) {
		WriteError(w, r, http.StatusForbidden, "forbidden", "forbidden")
		return
	}

	if err := h.Store.Persist(r.Context()); err != nil {
		writeStoreError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
