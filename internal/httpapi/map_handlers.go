package httpapi

import (
	"net/http"

	"leadcrm-engine/internal/domain"
	"leadcrm-engine/internal/geo"
	"leadcrm-engine/internal/session"
	"leadcrm-engine/internal/store"
	"leadcrm-engine/internal/view"
)

type MapHandler struct {
	Store    *store.Store
	Sessions *session.Registry
}

// workingSet returns the session's working set with every lead re-read from
// the store, so edits made since the last search show up. Deleted leads are
// dropped. Before any search the whole roster is the working set.
func workingSet(st *store.Store, sess *session.Session) []domain.Lead {
	ws := sess.WorkingSet()
	if ws == nil {
		return st.All()
	}
	out := make([]domain.Lead, 0, len(ws))
	for _, l := range ws {
		if cur, ok := st.Get(l.ID); ok {
			out = append(out, cur)
		}
	}
	return out
}

func (h MapHandler) Map(w http.ResponseWriter, r *http.Request) {
	sess := h.Sessions.Get(sessionIDFrom(r))
	pts := view.Points(workingSet(h.Store, sess))

	var sel *int64
	if id, ok := sess.Current(); ok {
		sel = &id
	}
	var center *geo.Coord
	if p := sess.Center(); p != nil {
		c := p.Coord
		center = &c
	}
	writeJSON(w, mapResp{Points: pts, View: view.Frame(pts, sel, center)})
}

func (h MapHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	sess := h.Sessions.Get(sessionIDFrom(r))
	writeJSON(w, view.Count(workingSet(h.Store, sess)))
}
