package models

import "time"

// Feed lifecycle event types.
const (
	EventConnected      = "CONNECTED"
	EventDisconnected   = "DISCONNECTED"
	EventReconnecting   = "RECONNECTING"
	EventConnectFailed  = "CONNECT_FAILED"
	EventSessionRenewed = "SESSION_RENEWED"
)

// FeedEvent is a single lifecycle log entry.
type FeedEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Feed        string    `json:"feed"`        // heartrate | glucose
	Type        string    `json:"type"`        // CONNECTED | DISCONNECTED | RECONNECTING | CONNECT_FAILED | SESSION_RENEWED
	Description string    `json:"description"` // human-readable
}
