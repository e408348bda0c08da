package httpapi

import "net/http"

// NewMux returns the raw mux so main() can still attach /shutdown (needs srv+token).
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	// Leads
	lh := LeadsHandler{Store: d.Store, Sessions: d.Sessions, Geocoder: d.Geocoder, Hub: d.Hub, CfgVal: d.CfgVal}
	mux.HandleFunc("/leads", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:  lh.List,
		http.MethodPost: lh.Create,
		http.MethodPut:  lh.ReplaceAll,
	}))
	mux.HandleFunc("/leads/", lh.ByPath) // /leads/{id}, /leads/{id}/notes

	// Map & zone counters
	mh := MapHandler{Store: d.Store, Sessions: d.Sessions}
	mux.HandleFunc("/map", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: mh.Map,
	}))
	mux.HandleFunc("/metrics", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: mh.Metrics,
	}))

	// Selection
	sel := SelectionHandler{Store: d.Store, Sessions: d.Sessions, Hub: d.Hub}
	mux.HandleFunc("/selection", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:    sel.Get,
		http.MethodDelete: sel.Clear,
	}))
	mux.HandleFunc("/selection/map", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sel.PickMap,
	}))
	mux.HandleFunc("/selection/list", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sel.PickList,
	}))

	// Viewers and select box choices
	seh := SessionsHandler{Sessions: d.Sessions}
	mux.HandleFunc("/sessions", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: seh.Create,
	}))
	mux.HandleFunc("/options", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: Options,
	}))

	// Reconcile
	rh := ReconcileHandler{Store: d.Store, ReconcileStatus: d.ReconcileStatus, Hub: d.Hub}
	mux.HandleFunc("/reconcile", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: rh.Run,
	}))
	mux.HandleFunc("/reconcile/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: rh.Status,
	}))

	// Roster file
	ph := PersistHandler{Store: d.Store}
	mux.HandleFunc("/roster/flush", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ph.Flush,
	}))

	// Config
	ch := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
		Hub:         d.Hub,
	}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))
	mux.HandleFunc("/config/validate", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Validate,
	}))

	// Secrets (use cfgVal, NOT a snapshot cfg)
	sh := SecretsHandler{CfgVal: d.CfgVal, OnGeocoderKey: d.OnGeocoderKey}
	mux.HandleFunc("/api/secrets/geocoder", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.SetGeocoderKey,
	}))

	// SSE events
	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	hh := HealthHandler{Store: d.Store}
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Health,
	}))

	return mux
}
