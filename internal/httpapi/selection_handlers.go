package httpapi

import (
	"errors"
	"net/http"

	"leadcrm-engine/internal/events"
	"leadcrm-engine/internal/session"
	"leadcrm-engine/internal/store"
	"leadcrm-engine/internal/view"
)

type SelectionHandler struct {
	Store    *store.Store
	Sessions *session.Registry
	Hub      *events.Hub
}

// Get returns the selected lead. A selection whose lead was deleted is
// cleared here and reported as empty.
func (h SelectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess := h.Sessions.Get(sessionIDFrom(r))
	writeJSON(w, h.resolve(r, sess, false))
}

func (h SelectionHandler) PickMap(w http.ResponseWriter, r *http.Request) {
	var pick session.MapPick
	if err := decodeJSON(w, r, &pick); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	sess := h.Sessions.Get(sessionIDFrom(r))
	if pick.ID != nil {
		if _, ok := h.Store.Get(*pick.ID); !ok {
			WriteError(w, r, http.StatusNotFound, "not_found", "lead not found")
			return
		}
	}
	changed, err := sess.PickMapPoint(pick)
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, "no_identity", err.Error())
		return
	}
	writeJSON(w, h.resolve(r, sess, changed))
}

// PickList selects by position in the session's last working set.
func (h SelectionHandler) PickList(w http.ResponseWriter, r *http.Request) {
	var req listPickReq
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.Row == nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_value", "row is required")
		return
	}
	sess := h.Sessions.Get(sessionIDFrom(r))
	if sess.WorkingSet() == nil {
		sess.SetWorkingSet(h.Store.All(), nil)
	}
	changed, err := sess.PickListRow(*req.Row)
	if errors.Is(err, session.ErrRowOutOfRange) {
		WriteError(w, r, http.StatusBadRequest, "row_out_of_range", err.Error())
		return
	}
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_value", err.Error())
		return
	}
	writeJSON(w, h.resolve(r, sess, changed))
}

func (h SelectionHandler) Clear(w http.ResponseWriter, r *http.Request) {
	sess := h.Sessions.Get(sessionIDFrom(r))
	changed := sess.Clear()
	writeJSON(w, h.resolve(r, sess, changed))
}

func (h SelectionHandler) resolve(r *http.Request, sess *session.Session, changed bool) selectionResp {
	resp := selectionResp{Change: changed}
	if l, ok := sess.Selected(h.Store); ok {
		d := view.DetailOf(l)
		resp.ID = &l.ID
		resp.Lead = &d
	} else if _, stale := sess.Current(); stale {
		changed = sess.Clear() || changed
		resp.Change = changed
	}
	if changed {
		h.Hub.Publish(events.MakeSessionEvent(RequestIDFrom(r.Context()), sess.ID, events.TypeSelectionChanged, 1, map[string]any{"id": resp.ID}))
	}
	return resp
}
