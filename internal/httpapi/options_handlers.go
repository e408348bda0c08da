package httpapi

import (
	"net/http"

	"leadcrm-engine/internal/domain"
	"leadcrm-engine/internal/session"
)

// Options lists the choices the detail panel offers for its select boxes.
func Options(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string][]string{
		"statuses":  domain.StatusLabels(),
		"systems":   domain.SystemLabels(),
		"vendors":   domain.VendorLabels(),
		"checklist": append([]string(nil), domain.ChecklistItems...),
	})
}

type SessionsHandler struct {
	Sessions *session.Registry
}

// Create opens a new viewer session. Clients send the returned id back in
// X-Session-ID; requests without one share the default session.
func (h SessionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	id := session.NewID()
	h.Sessions.Get(id)
	w.Header().Set(SessionHeader, id)
	WriteJSON(w, http.StatusCreated, map[string]string{"id": id})
}
