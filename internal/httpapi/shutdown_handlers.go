package httpapi

import (
	"crypto/subtle"
	"log"
	"net/http"

	"leadcrm-engine/internal/store"
)

// ShutdownHeader carries the token printed at startup.
const ShutdownHeader = "X-Shutdown-Token"

// ShutdownHandler stops the engine for the desktop shell. A dirty roster is
// written first; if that fails the engine keeps running unless ?force=1.
type ShutdownHandler struct {
	Store *store.Store
	Token string
	// Stop is run in its own goroutine after the response is written.
	Stop func()
}

type shutdownResp struct {
	OK      bool   `json:"ok"`
	Flushed bool   `json:"flushed"`
	Unsaved bool   `json:"unsaved"`
	Error   string `json:"error,omitempty"`
}

func (h ShutdownHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	if !isLoopback(r) {
		WriteError(w, r, http.StatusForbidden, "forbidden", "forbidden")
		return
	}
	got := r.Header.Get(ShutdownHeader)
	if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.Token)) != 1 {
		WriteError(w, r, http.StatusUnauthorized, "unauthorized", "bad shutdown token")
		return
	}

	var resp shutdownResp
	if h.Store.Dirty() {
		err := h.Store.Persist(r.Context())
		if err != nil && r.URL.Query().Get("force") != "1" {
			writeStoreError(w, r, err)
			return
		}
		resp.Flushed = err == nil
		if err != nil {
			resp.Error = err.Error()
		}
	}
	resp.Unsaved = h.Store.Dirty()
	resp.OK = true

	log.Printf("level=info msg=\"shutdown requested\" request_id=%s flushed=%t unsaved=%t",
		RequestIDFrom(r.Context()), resp.Flushed, resp.Unsaved)
	writeJSON(w, resp)

	if h.Stop != nil {
		go h.Stop()
	}
}
