package models

// ConnectionState is the lifecycle state of a live feed.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateReconnecting ConnectionState = "reconnecting"
)

// FeedSnapshot is a point-in-time copy of a feed's state handed to viewers.
// Current is nil when the feed has not produced a reading yet.
type FeedSnapshot[T any] struct {
	State       ConnectionState `json:"state"`
	IsConnected bool            `json:"is_connected"`
	Current     *T              `json:"current"`
	History     []T             `json:"history"`
	Subscribers int             `json:"subscribers"`
}

// Feed names used in logs, metrics and the event log.
const (
	FeedHeartRate = "heartrate"
	FeedGlucose   = "glucose"
)
