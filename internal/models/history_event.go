package models

// HistoryEvent is one append-only row in the event store.
type HistoryEvent struct {
	ID       int64  `json:"id,omitempty"`
	DeviceID string `json:"deviceId"`
	TS       int64  `json:"ts"` // epoch milliseconds
	State    string `json:"state"` // ON | OFF
	ValveID  int    `json:"valveId"`
}

// HistoryItem is the query-endpoint projection of a row. valve_id keeps its
// column name for compatibility with the original dashboard chart code.
type HistoryItem struct {
	TS      int64  `json:"ts"`
	State   string `json:"state"`
	ValveID int    `json:"valve_id"`
}
