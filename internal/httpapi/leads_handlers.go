package httpapi

import (
	"net/http"
	"strings"
	"sync/atomic"

	"leadcrm-engine/internal/config"
	"leadcrm-engine/internal/domain"
	"leadcrm-engine/internal/events"
	"leadcrm-engine/internal/filter"
	"leadcrm-engine/internal/geo"
	"leadcrm-engine/internal/session"
	"leadcrm-engine/internal/store"
	"leadcrm-engine/internal/view"
)

type LeadsHandler struct {
	Store    *store.Store
	Sessions *session.Registry
	Geocoder filter.Geocoder
	Hub      *events.Hub
	CfgVal   *atomic.Value // stores config.Config
}

// List is the working set: ?q= searches a place (radius) or text,
// ?status= (repeatable or comma separated) and ?online=true|false narrow it.
// The result becomes the session's working set for list picks and the map.
func (h LeadsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cfg := h.CfgVal.Load().(config.Config)

	req := filter.Request{Query: q.Get("q")}
	for _, raw := range q["status"] {
		for _, label := range strings.Split(raw, ",") {
			if strings.TrimSpace(label) == "" {
				continue
			}
			st, ok := domain.ParseStatus(label)
			if !ok {
				WriteError(w, r, http.StatusBadRequest, "invalid_value", "unknown status "+label)
				return
			}
			req.Statuses = append(req.Statuses, st)
		}
	}
	switch strings.ToLower(strings.TrimSpace(q.Get("online"))) {
	case "":
	case "true", "1", "yes":
		v := true
		req.OnlineOrdering = &v
	case "false", "0", "no":
		v := false
		req.OnlineOrdering = &v
	default:
		WriteError(w, r, http.StatusBadRequest, "invalid_value", "online must be true or false")
		return
	}

	var g filter.Geocoder
	if cfg.Geocode.Enabled {
		g = h.Geocoder
	}
	crit, place := filter.Resolve(r.Context(), g, req, filter.Options{
		RadiusKm: cfg.Filter.RadiusKm,
		Marker:   cfg.Filter.OnlineMarker,
		Suffix:   cfg.Geocode.QuerySuffix,
	})
	working := filter.Apply(h.Store.All(), crit)

	sess := h.Sessions.Get(sessionIDFrom(r))
	sess.SetWorkingSet(working, place)

	resp := workingSetResp{
		Mode:    string(crit.Mode()),
		Query:   crit.Query,
		Center:  place,
		Leads:   working,
		Metrics: view.Count(working),
	}
	if crit.Mode() == filter.ModeRadius {
		resp.RadiusKm = crit.RadiusKm
	}
	if id, ok := sess.Current(); ok {
		resp.SelectedID = &id
	}
	writeJSON(w, resp)
}

// Create adds a lead by hand. Coordinates of 0 mean "none"; a map link
// with an embedded pin takes precedence over them.
func (h LeadsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createLeadReq
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	l := domain.Lead{
		Name:     strings.TrimSpace(req.Name),
		Category: strings.TrimSpace(req.Category),
		Address:  strings.TrimSpace(req.Address),
		Hours:    strings.TrimSpace(req.Hours),
		Website:  strings.TrimSpace(req.Website),
		Status:   domain.StatusToContact,
	}
	if l.Category == "" {
		l.Category = domain.DefaultCategory
	}
	l.SetMapsURL(strings.TrimSpace(req.MapsURL))
	if l.Coord == nil && req.Lat != 0 && req.Lon != 0 {
		c := geo.Coord{Lat: req.Lat, Lon: req.Lon}
		if !c.Valid() {
			WriteError(w, r, http.StatusBadRequest, "invalid_value", "lat/lon out of range")
			return
		}
		l.Coord = &c
	}

	created, err := h.Store.Append(r.Context(), l)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	h.Hub.Publish(events.MakeEvent(RequestIDFrom(r.Context()), events.TypeLeadCreated, 1, map[string]any{"id": created.ID}))
	WriteJSON(w, http.StatusCreated, created)
}

// ReplaceAll is the bulk table edit: the body is the whole roster.
func (h LeadsHandler) ReplaceAll(w http.ResponseWriter, r *http.Request) {
	var leads []domain.Lead
	if err := decodeJSON(w, r, &leads); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	out, err := h.Store.ReplaceAll(r.Context(), leads)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	h.Hub.Publish(events.MakeEvent(RequestIDFrom(r.Context()), events.TypeRosterReplaced, 1, map[string]any{"count": len(out)}))
	writeJSON(w, out)
}

// ByPath serves /leads/{id} and /leads/{id}/notes.
func (h LeadsHandler) ByPath(w http.ResponseWriter, r *http.Request) {
	id, sub, ok := leadPath(r.URL.Path)
	if !ok {
		WriteError(w, r, http.StatusBadRequest, "invalid_id", "invalid id")
		return
	}

	switch {
	case sub == "" && r.Method == http.MethodGet:
		h.get(w, r, id)
	case sub == "" && r.Method == http.MethodPatch:
		h.patch(w, r, id)
	case sub == "" && r.Method == http.MethodPut:
		h.put(w, r, id)
	case sub == "" && r.Method == http.MethodDelete:
		h.delete(w, r, id)
	case sub == "notes" && r.Method == http.MethodPost:
		h.addNote(w, r, id)
	case sub == "" || sub == "notes":
		WriteError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	default:
		WriteError(w, r, http.StatusNotFound, "not_found", "no such resource")
	}
}

func (h LeadsHandler) get(w http.ResponseWriter, r *http.Request, id int64) {
	l, ok := h.Store.Get(id)
	if !ok {
		WriteError(w, r, http.StatusNotFound, "not_found", "lead not found")
		return
	}
	writeJSON(w, view.DetailOf(l))
}

func (h LeadsHandler) patch(w http.ResponseWriter, r *http.Request, id int64) {
	var req editFieldReq
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	l, err := h.Store.ApplyEdit(r.Context(), id, req.Field, req.Value)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	h.updated(r, l, req.Field)
	writeJSON(w, view.DetailOf(l))
}

func (h LeadsHandler) put(w http.ResponseWriter, r *http.Request, id int64) {
	var values map[string]string
	if err := decodeJSON(w, r, &values); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	l, err := h.Store.EditRow(r.Context(), id, values)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	h.updated(r, l, "")
	writeJSON(w, view.DetailOf(l))
}

func (h LeadsHandler) addNote(w http.ResponseWriter, r *http.Request, id int64) {
	var req noteReq
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	l, err := h.Store.AppendNote(r.Context(), id, req.User, req.Note)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	h.updated(r, l, "Interaction_Log")
	WriteJSON(w, http.StatusCreated, view.DetailOf(l))
}

func (h LeadsHandler) delete(w http.ResponseWriter, r *http.Request, id int64) {
	if err := h.Store.Delete(r.Context(), id); err != nil {
		writeStoreError(w, r, err)
		return
	}
	reqID := RequestIDFrom(r.Context())
	h.Hub.Publish(events.MakeEvent(reqID, events.TypeLeadDeleted, 1, map[string]any{"id": id}))
	for _, sid := range h.Sessions.Forget(id) {
		h.Hub.Publish(events.MakeSessionEvent(reqID, sid, events.TypeSelectionChanged, 1, map[string]any{"id": nil}))
	}
	writeJSON(w, map[string]any{"ok": true, "id": id})
}

func (h LeadsHandler) updated(r *http.Request, l domain.Lead, field string) {
	data := map[string]any{"id": l.ID}
	if field != "" {
		data["field"] = field
	}
	h.Hub.Publish(events.MakeEvent(RequestIDFrom(r.Context()), events.TypeLeadUpdated, 1, data))
}
