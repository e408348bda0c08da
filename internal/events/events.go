package events

import (
	"encoding/json"
	"time"
)

// Event types pushed to the UI.
const (
	TypePing             = "ping"
	TypeLeadCreated      = "lead_created"
	TypeLeadUpdated      = "lead_updated"
	TypeLeadDeleted      = "lead_deleted"
	TypeRosterReplaced   = "roster_replaced"
	TypeReconciled       = "reconciled"
	TypeSelectionChanged = "selection_changed"
	TypeConfigChanged    = "config_changed"
)

type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Session   string          `json:"session,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

func MakeEvent(reqID, typ string, v int, data any) string {
	return MakeSessionEvent(reqID, "", typ, v, data)
}

// MakeSessionEvent tags the event with the session it concerns, so other
// viewers can ignore selection changes that are not theirs.
func MakeSessionEvent(reqID, session, typ string, v int, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	e := Event{
		Type:      typ,
		Version:   v,
		At:        time.Now().UTC(),
		RequestID: reqID,
		Session:   session,
		Data:      raw,
	}
	b, _ := json.Marshal(e)
	return string(b)
}
