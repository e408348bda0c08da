package httpapi

import (
	"net/http"

	"leadcrm-engine/internal/store"
)

type HealthHandler struct {
	Store *store.Store
}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"ok":     true,
		"leads":  h.Store.Len(),
		"dirty":  h.Store.Dirty(),
		"loaded": h.Store.Report(),
	})
}
