package service

import "time"

// LogFilter supports event history filtering by time range, feed and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Feed string    // "", "heartrate", "glucose"
	Type string    // "", "CONNECTED", "DISCONNECTED", "RECONNECTING", "CONNECT_FAILED", "SESSION_RENEWED"
}
