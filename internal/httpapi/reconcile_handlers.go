package httpapi

import (
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"leadcrm-engine/internal/events"
	"leadcrm-engine/internal/rawsource"
	"leadcrm-engine/internal/store"
)

type ReconcileHandler struct {
	Store           *store.Store
	ReconcileStatus *atomic.Value // httpapi.ReconcileStatus
	Hub             *events.Hub
}

func (h ReconcileHandler) Status(w http.ResponseWriter, r *http.Request) {
	st := h.ReconcileStatus.Load().(ReconcileStatus)
	writeJSON(w, st)
}

// Run merges the configured raw export into the roster. An unreadable
// export is not a failure of the request: the roster is left alone and the
// reason is reported.
func (h ReconcileHandler) Run(w http.ResponseWriter, r *http.Request) {
	now := time.Now().Format(time.RFC3339)
	next := h.ReconcileStatus.Load().(ReconcileStatus)
	next.LastRunAt = now

	rep, err := h.Store.ReconcileFromSource(r.Context())
	var pe *rawsource.ParseError
	switch {
	case errors.As(err, &pe):
		next.LastError = err.Error()
		h.ReconcileStatus.Store(next)
		writeJSON(w, map[string]any{"ok": false, "skipped": true, "reason": err.Error()})
		return
	case err != nil:
		next.LastError = err.Error()
		h.ReconcileStatus.Store(next)
		writeStoreError(w, r, err)
		return
	}

	next.LastError = ""
	next.LastOkAt = now
	next.LastReport = &rep
	h.ReconcileStatus.Store(next)

	if rep.Changed() {
		h.Hub.Publish(events.MakeEvent(RequestIDFrom(r.Context()), events.TypeReconciled, 1, rep))
	}
	writeJSON(w, map[string]any{"ok": true, "report": rep})
}
