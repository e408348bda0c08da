package httpapi

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"leadcrm-engine/internal/events"
)

// keepAlive is how often an idle stream gets a ping.
const keepAlive = 25 * time.Second

type EventsHandler struct {
	Hub *events.Hub
}

// ServeSSE streams roster events plus the selection events of the caller's
// own session. Selection changes of other viewers are not sent.
func (h EventsHandler) ServeSSE(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	sid := sessionIDFrom(r)
	reqID := RequestIDFrom(r.Context())

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := h.Hub.Subscribe()
	defer h.Hub.Unsubscribe(ch)

	send := func(msg string) bool {
		if _, err := fmt.Fprintf(w, "event: message\ndata: %s\n\n", msg); err != nil {
			return false
		}
		return rc.Flush() == nil
	}

	if !send(events.MakeSessionEvent(reqID, sid, events.TypePing, 1, nil)) {
		log.Printf("level=warn msg=\"sse not flushable\" request_id=%s", reqID)
		return
	}

	tick := time.NewTicker(keepAlive)
	defer tick.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-tick.C:
			if !send(events.MakeSessionEvent(reqID, sid, events.TypePing, 1, nil)) {
				return
			}
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if !forSession(msg, sid) {
				continue
			}
			if !send(msg) {
				return
			}
		}
	}
}

// forSession reports whether an event belongs on sid's stream: events
// without a session go to everyone.
func forSession(msg, sid string) bool {
	var env struct {
		Session string `json:"session"`
	}
	if err := json.Unmarshal([]byte(msg), &env); err != nil {
		return true
	}
	return env.Session == "" || env.Session == sid
}
