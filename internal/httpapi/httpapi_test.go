package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadcrm-engine/internal/config"
	"leadcrm-engine/internal/domain"
	"leadcrm-engine/internal/events"
	"leadcrm-engine/internal/geo"
	"leadcrm-engine/internal/session"
	"leadcrm-engine/internal/store"
	"leadcrm-engine/internal/table"
	"leadcrm-engine/internal/view"
)

// memBackend keeps the roster in memory and can be told to fail writes.
type memBackend struct {
	t      table.Table
	writes int
	fail   bool
}

func (m *memBackend) Name() string { return "mem" }
func (m *memBackend) Exists(context.Context) (bool, error) { return len(m.t.Columns) > 0, nil }
func (m *memBackend) Read(context.Context) (table.Table, error) { return m.t, nil }
func (m *memBackend) Close() error { return nil }

func (m *memBackend) Write(_ context.Context, t table.Table) error {
	if m.fail {
		return errors.New("disk full")
	}
	m.writes++
	m.t = t
	return nil
}

type stubGeocoder map[string]geo.Place

func (s stubGeocoder) Geocode(_ context.Context, q string) (geo.Place, bool, error) {
	p, ok := s[q]
	return p, ok, nil
}

type testEnv struct {
	h       http.Handler
	mux     *http.ServeMux
	st      *store.Store
	be      *memBackend
	hub     *events.Hub
	rawPath string
}

func roster() table.Table {
	return table.Table{
		Columns: []string{domain.ColID, domain.ColName, domain.ColAddress, domain.ColURL, domain.ColStatus, domain.ColOrdering},
		Rows: [][]string{
			{"1", "Bar Palermo", "Calle 1", "https://maps/place/a!3d-34.5880!4d-58.4300", "Por Contactar", "Pedido online"},
			{"2", "Cafe Centro", "Av. Corrientes 1000", "https://maps/place/b!3d-34.6037!4d-58.3816", "Cliente", ""},
			{"3", "Pizzeria Lejos", "", "https://maps/place/c!3d-34.9!4d-58.0", "Por Contactar", ""},
		},
	}
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	be := &memBackend{t: roster()}
	rawPath := filepath.Join(t.TempDir(), "google.csv")

	st, err := store.Open(context.Background(), store.Options{
		Backend: be,
		RawPath: rawPath,
		Now:     func() time.Time { return time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	var cfg config.Config
	cfg.Geocode.Enabled = true
	cfg.Filter.RadiusKm = 2
	cfg.Filter.OnlineMarker = "Pedido"
	var cfgVal atomic.Value
	cfgVal.Store(cfg)

	var status atomic.Value
	status.Store(ReconcileStatus{})

	hub := events.NewHub()
	mux := NewMux(Deps{
		Store:    st,
		Sessions: session.NewRegistry(),
		Geocoder: stubGeocoder{
			"Palermo": {Coord: geo.Coord{Lat: -34.5885, Lon: -58.4305}, DisplayName: "Palermo, Buenos Aires"},
		},
		Hub:             hub,
		CfgVal:          &cfgVal,
		ReconcileStatus: &status,
	})
	return &testEnv{
		h:       Chain(mux, RequestID, Recover),
		mux:     mux,
		st:      st,
		be:      be,
		hub:     hub,
		rawPath: rawPath,
	}
}

func (e *testEnv) do(t *testing.T, method, path, sess string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	if sess != "" {
		req.Header.Set(SessionHeader, sess)
	}
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func ids(leads []domain.Lead) []int64 {
	out := make([]int64, len(leads))
	for i, l := range leads {
		out[i] = l.ID
	}
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	e := decode[APIError](t, rec)
	assert.NotEmpty(t, e.Error.RequestID)
	return e.Error.Code
}

func TestListWithoutQueryReturnsEverything(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/leads", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[workingSetResp](t, rec)
	assert.Equal(t, "none", got.Mode)
	assert.Equal(t, []int64{1, 2, 3}, ids(got.Leads))
	assert.Equal(t, view.Metrics{Total: 3, Clients: 1, Pending: 2}, got.Metrics)
}

func TestListRadiusSearch(t *testing.T) {
	e := newEnv(t)

	got := decode[workingSetResp](t, e.do(t, http.MethodGet, "/leads?q=Palermo", "", nil))
	assert.Equal(t, "radius", got.Mode)
	assert.Equal(t, 2.0, got.RadiusKm)
	require.NotNil(t, got.Center)
	assert.Equal(t, "Palermo, Buenos Aires", got.Center.DisplayName)
	assert.Equal(t, []int64{1}, ids(got.Leads))
}

func TestListFallsBackToTextWhenPlaceUnknown(t *testing.T) {
	e := newEnv(t)

	got := decode[workingSetResp](t, e.do(t, http.MethodGet, "/leads?q=corrientes", "", nil))
	assert.Equal(t, "text", got.Mode)
	assert.Nil(t, got.Center)
	assert.Equal(t, []int64{2}, ids(got.Leads))
}

func TestListStatusAndOnlineFilters(t *testing.T) {
	e := newEnv(t)

	got := decode[workingSetResp](t, e.do(t, http.MethodGet, "/leads?status=Cliente", "", nil))
	assert.Equal(t, []int64{2}, ids(got.Leads))

	got = decode[workingSetResp](t, e.do(t, http.MethodGet, "/leads?status=Cliente,Por%20Contactar&online=true", "", nil))
	assert.Equal(t, []int64{1}, ids(got.Leads))

	got = decode[workingSetResp](t, e.do(t, http.MethodGet, "/leads?online=false", "", nil))
	assert.Equal(t, []int64{2, 3}, ids(got.Leads))

	rec := e.do(t, http.MethodGet, "/leads?status=Perdido", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_value", errorCode(t, rec))
}

func TestCreateLead(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/leads", "", map[string]any{"name": " Nuevo ", "lat": -34.6, "lon": -58.4})
	require.Equal(t, http.StatusCreated, rec.Code)

	created := decode[domain.Lead](t, rec)
	assert.Equal(t, int64(4), created.ID)
	assert.Equal(t, "Nuevo", created.Name)
	assert.Equal(t, domain.DefaultCategory, created.Category)
	assert.Equal(t, domain.StatusToContact, created.Status)
	require.NotNil(t, created.Coord)
	assert.Equal(t, -34.6, created.Coord.Lat)

	detail := decode[view.Detail](t, e.do(t, http.MethodGet, "/leads/4", "", nil))
	assert.Equal(t, domain.MissingAddress, detail.AddressText)
	assert.Equal(t, domain.MissingHours, detail.HoursText)
	assert.Empty(t, detail.Recent)

	rec = e.do(t, http.MethodPost, "/leads", "", map[string]any{"name": "Fuera", "lat": 123.0, "lon": 1.0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPatchLead(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPatch, "/leads/1", "", editFieldReq{Field: domain.ColStatus, Value: "Contactado"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.StatusContacted, decode[view.Detail](t, rec).Status)

	l, ok := e.st.Get(1)
	require.True(t, ok)
	assert.Equal(t, domain.StatusContacted, l.Status)

	rec = e.do(t, http.MethodPatch, "/leads/1", "", editFieldReq{Field: domain.ColID, Value: "9"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "read_only", errorCode(t, rec))

	rec = e.do(t, http.MethodPatch, "/leads/1", "", editFieldReq{Field: "Color", Value: "x"})
	assert.Equal(t, "unknown_field", errorCode(t, rec))

	rec = e.do(t, http.MethodPatch, "/leads/99", "", editFieldReq{Field: domain.ColStatus, Value: "Cliente"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorCode(t, rec))
}

func TestAddNote(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/leads/2/notes", "", noteReq{User: "Ana", Note: "Llamar el lunes"})
	require.Equal(t, http.StatusCreated, rec.Code)

	d := decode[view.Detail](t, rec)
	require.Len(t, d.Recent, 1)
	assert.Equal(t, domain.Interaction{User: "Ana", Date: "2025-03-01 10:30", Note: "Llamar el lunes"}, d.Recent[0])
	assert.Contains(t, e.be.t.Cell(1, domain.ColLog), "Llamar el lunes")
}

func TestPersistFailureIsReportedAndKeptInMemory(t *testing.T) {
	e := newEnv(t)
	e.be.fail = true

	rec := e.do(t, http.MethodPatch, "/leads/3", "", editFieldReq{Field: domain.ColNotes, Value: "cerrado"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "persist_failed", errorCode(t, rec))

	d := decode[view.Detail](t, e.do(t, http.MethodGet, "/leads/3", "", nil))
	assert.Equal(t, "cerrado", d.Notes)

	health := decode[map[string]any](t, e.do(t, http.MethodGet, "/health", "", nil))
	assert.Equal(t, true, health["dirty"])

	e.be.fail = false
	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodPost, "/roster/flush", "", nil).Code)

	req := httptest.NewRequest(http.MethodPost, "/roster/flush", nil)
	req.RemoteAddr = "127.0.0.1:50000"
	rr := httptest.NewRecorder()
	e.h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.False(t, e.st.Dirty())
	assert.Equal(t, "cerrado", e.be.t.Cell(2, domain.ColNotes))
}

func TestDeleteClearsSelection(t *testing.T) {
	e := newEnv(t)
	ch := e.hub.Subscribe()
	defer e.hub.Unsubscribe(ch)

	rec := e.do(t, http.MethodPost, "/selection/map", "a", map[string]any{"id": 2})
	require.Equal(t, http.StatusOK, rec.Code)
	sel := decode[selectionResp](t, rec)
	require.NotNil(t, sel.ID)
	assert.Equal(t, int64(2), *sel.ID)
	assert.True(t, sel.Change)

	require.Equal(t, http.StatusOK, e.do(t, http.MethodDelete, "/leads/2", "", nil).Code)

	sel = decode[selectionResp](t, e.do(t, http.MethodGet, "/selection", "a", nil))
	assert.Nil(t, sel.ID)
	assert.Nil(t, sel.Lead)

	var types []string
	for len(ch) > 0 {
		var ev events.Event
		require.NoError(t, json.Unmarshal([]byte(<-ch), &ev))
		types = append(types, ev.Type)
	}
	assert.Contains(t, types, events.TypeLeadDeleted)
	assert.Contains(t, types, events.TypeSelectionChanged)

	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/leads/2", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodPost, "/selection/map", "a", map[string]any{"id": 2}).Code)
}

func TestMapPickWithoutIdentity(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/selection/map", "", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "no_identity", errorCode(t, rec))
}

func TestListPickUsesWorkingSet(t *testing.T) {
	e := newEnv(t)

	e.do(t, http.MethodGet, "/leads?status=Cliente", "a", nil)

	sel := decode[selectionResp](t, e.do(t, http.MethodPost, "/selection/list", "a", map[string]any{"row": 0}))
	require.NotNil(t, sel.ID)
	assert.Equal(t, int64(2), *sel.ID)
	require.NotNil(t, sel.Lead)
	assert.Equal(t, "Cafe Centro", sel.Lead.Name)

	rec := e.do(t, http.MethodPost, "/selection/list", "a", map[string]any{"row": 5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "row_out_of_range", errorCode(t, rec))

	rec = e.do(t, http.MethodPost, "/selection/list", "a", map[string]any{})
	assert.Equal(t, "invalid_value", errorCode(t, rec))

	// no search yet: the whole roster is the working set
	sel = decode[selectionResp](t, e.do(t, http.MethodPost, "/selection/list", "b", map[string]any{"row": 2}))
	require.NotNil(t, sel.ID)
	assert.Equal(t, int64(3), *sel.ID)
}

func TestSessionsAreIsolated(t *testing.T) {
	e := newEnv(t)

	e.do(t, http.MethodPost, "/selection/map", "a", map[string]any{"id": 1})

	sel := decode[selectionResp](t, e.do(t, http.MethodGet, "/selection", "b", nil))
	assert.Nil(t, sel.ID)
	sel = decode[selectionResp](t, e.do(t, http.MethodGet, "/selection", "", nil))
	assert.Nil(t, sel.ID)

	sel = decode[selectionResp](t, e.do(t, http.MethodGet, "/selection", "a", nil))
	require.NotNil(t, sel.ID)
	assert.Equal(t, int64(1), *sel.ID)
	assert.False(t, sel.Change)

	sel = decode[selectionResp](t, e.do(t, http.MethodDelete, "/selection", "a", nil))
	assert.True(t, sel.Change)
	assert.Nil(t, sel.ID)
}

func TestMapFramesSearchCenterAndSelection(t *testing.T) {
	e := newEnv(t)

	e.do(t, http.MethodGet, "/leads?q=Palermo", "a", nil)

	m := decode[mapResp](t, e.do(t, http.MethodGet, "/map", "a", nil))
	require.Len(t, m.Points, 1)
	assert.Equal(t, int64(1), m.Points[0].ID)
	assert.Equal(t, view.ZoomCenter, m.View.Zoom)
	require.NotNil(t, m.View.Center)
	assert.Equal(t, -34.5885, m.View.Center.Lat)

	e.do(t, http.MethodPost, "/selection/map", "a", map[string]any{"id": 1})
	m = decode[mapResp](t, e.do(t, http.MethodGet, "/map", "a", nil))
	assert.Equal(t, view.ZoomSelected, m.View.Zoom)
	assert.Equal(t, -34.588, m.View.Center.Lat)

	// the other viewer still sees the whole roster
	m = decode[mapResp](t, e.do(t, http.MethodGet, "/map", "b", nil))
	assert.Len(t, m.Points, 3)
	assert.Equal(t, view.ZoomOverview, m.View.Zoom)
}

func TestMetricsFollowEdits(t *testing.T) {
	e := newEnv(t)

	e.do(t, http.MethodGet, "/leads?q=Palermo", "a", nil)
	assert.Equal(t, view.Metrics{Total: 1, Clients: 0, Pending: 1}, decode[view.Metrics](t, e.do(t, http.MethodGet, "/metrics", "a", nil)))

	e.do(t, http.MethodPatch, "/leads/1", "", editFieldReq{Field: domain.ColStatus, Value: "Cliente"})
	assert.Equal(t, view.Metrics{Total: 1, Clients: 1, Pending: 0}, decode[view.Metrics](t, e.do(t, http.MethodGet, "/metrics", "a", nil)))
}

func TestReconcileSkippedWhenSourceMissing(t *testing.T) {
	e := newEnv(t)
	writes := e.be.writes

	rec := e.do(t, http.MethodPost, "/reconcile", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, true, body["skipped"])
	assert.Equal(t, writes, e.be.writes)

	st := decode[ReconcileStatus](t, e.do(t, http.MethodGet, "/reconcile/status", "", nil))
	assert.NotEmpty(t, st.LastRunAt)
	assert.Empty(t, st.LastOkAt)
	assert.NotEmpty(t, st.LastError)
}

func TestReconcileFillsBlanks(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, os.WriteFile(e.rawPath, []byte("qBF1Pd,W4Efsd 4\nPizzeria Lejos,Ruta 2 km 40\nOtro,Calle 9\n"), 0o644))

	rec := e.do(t, http.MethodPost, "/reconcile", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	d := decode[view.Detail](t, e.do(t, http.MethodGet, "/leads/3", "", nil))
	assert.Equal(t, "Ruta 2 km 40", d.Address)

	// existing values are never overwritten
	d = decode[view.Detail](t, e.do(t, http.MethodGet, "/leads/1", "", nil))
	assert.Equal(t, "Calle 1", d.Address)

	st := decode[ReconcileStatus](t, e.do(t, http.MethodGet, "/reconcile/status", "", nil))
	require.NotNil(t, st.LastReport)
	assert.Equal(t, 1, st.LastReport.Matched)
	assert.Equal(t, 1, st.LastReport.Unmatched)
	assert.Empty(t, st.LastError)
}

func TestRoutingErrors(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodDelete, "/map", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "method_not_allowed", errorCode(t, rec))

	rec = e.do(t, http.MethodGet, "/leads/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_id", errorCode(t, rec))

	rec = e.do(t, http.MethodGet, "/leads/1/photos", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/leads", strings.NewReader("{nope"))
	rr := httptest.NewRecorder()
	e.h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid_json", errorCode(t, rr))
}

func localRequest(method, target, token string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.RemoteAddr = "127.0.0.1:50000"
	if token != "" {
		req.Header.Set(ShutdownHeader, token)
	}
	return req
}

func TestEventsStreamThroughFullMiddlewareChain(t *testing.T) {
	e := newEnv(t)
	srv := httptest.NewServer(Chain(e.mux, RequestID, Recover, AccessLog, Cors))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	req.Header.Set(SessionHeader, "a")

	client := srv.Client()
	client.Timeout = 5 * time.Second
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	rd := bufio.NewReader(resp.Body)
	next := func() events.Event {
		t.Helper()
		for {
			line, err := rd.ReadString('\n')
			require.NoError(t, err)
			if data, ok := strings.CutPrefix(line, "data: "); ok {
				var ev events.Event
				require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(data)), &ev))
				return ev
			}
		}
	}

	ping := next()
	assert.Equal(t, events.TypePing, ping.Type)
	assert.Equal(t, "a", ping.Session)

	e.hub.Publish(events.MakeSessionEvent("", "b", events.TypeSelectionChanged, 1, nil))
	e.hub.Publish(events.MakeEvent("", events.TypeLeadUpdated, 1, map[string]any{"id": 1}))
	e.hub.Publish(events.MakeSessionEvent("", "a", events.TypeSelectionChanged, 1, nil))

	assert.Equal(t, events.TypeLeadUpdated, next().Type, "other viewers' selection is not streamed")
	own := next()
	assert.Equal(t, events.TypeSelectionChanged, own.Type)
	assert.Equal(t, "a", own.Session)
}

func TestShutdownFlushesRosterFirst(t *testing.T) {
	e := newEnv(t)
	var stops atomic.Int32
	h := Chain(ShutdownHandler{Store: e.st, Token: "tok", Stop: func() { stops.Add(1) }}, RequestID)

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	remote := httptest.NewRequest(http.MethodPost, "/shutdown", nil)
	remote.Header.Set(ShutdownHeader, "tok")
	assert.Equal(t, http.StatusForbidden, serve(remote).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(localRequest(http.MethodPost, "/shutdown", "nope")).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(localRequest(http.MethodGet, "/shutdown", "tok")).Code)

	e.be.fail = true
	e.do(t, http.MethodPatch, "/leads/1", "", editFieldReq{Field: domain.ColNotes, Value: "sin guardar"})
	require.True(t, e.st.Dirty())

	rec := serve(localRequest(http.MethodPost, "/shutdown", "tok"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "persist_failed", errorCode(t, rec))
	assert.Equal(t, int32(0), stops.Load(), "a failed flush keeps the engine up")

	rec = serve(localRequest(http.MethodPost, "/shutdown?force=1", "tok"))
	require.Equal(t, http.StatusOK, rec.Code)
	forced := decode[shutdownResp](t, rec)
	assert.True(t, forced.Unsaved)
	assert.False(t, forced.Flushed)
	assert.Eventually(t, func() bool { return stops.Load() == 1 }, time.Second, 10*time.Millisecond)

	e.be.fail = false
	rec = serve(localRequest(http.MethodPost, "/shutdown", "tok"))
	require.Equal(t, http.StatusOK, rec.Code)
	clean := decode[shutdownResp](t, rec)
	assert.True(t, clean.Flushed)
	assert.False(t, clean.Unsaved)
	assert.Equal(t, "sin guardar", e.be.t.Cell(0, domain.ColNotes))
	assert.Eventually(t, func() bool { return stops.Load() == 2 }, time.Second, 10*time.Millisecond)
}

func TestIsLoopback(t *testing.T) {
	for addr, want := range map[string]bool{
		"127.0.0.1:5000": true,
		"[::1]:5000":     true,
		"localhost":      true,
		"192.0.2.1:5000": false,
		"10.0.0.7":       false,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		assert.Equal(t, want, isLoopback(req), addr)
	}
}

func TestCreateSessionIsUsableForSelection(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/sessions", "", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[map[string]string](t, rec)["id"]
	require.NotEmpty(t, id)
	assert.Equal(t, id, rec.Header().Get(SessionHeader))

	e.do(t, http.MethodPost, "/selection/map", id, map[string]any{"id": 3})
	sel := decode[selectionResp](t, e.do(t, http.MethodGet, "/selection", id, nil))
	require.NotNil(t, sel.ID)
	assert.Equal(t, int64(3), *sel.ID)

	other := decode[map[string]string](t, e.do(t, http.MethodPost, "/sessions", "", nil))["id"]
	assert.NotEqual(t, id, other)
}

func TestOptionsListsSelectChoices(t *testing.T) {
	e := newEnv(t)

	got := decode[map[string][]string](t, e.do(t, http.MethodGet, "/options", "", nil))
	assert.Equal(t, domain.StatusLabels(), got["statuses"])
	assert.Equal(t, domain.SystemLabels(), got["systems"])
	assert.Equal(t, domain.VendorLabels(), got["vendors"])
	assert.Equal(t, domain.ChecklistItems, got["checklist"])
	assert.Contains(t, got["statuses"], "Cliente")
}
