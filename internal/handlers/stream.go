package handlers

import (
	"errors"

	"vitals_overlay/internal/feed"
	"vitals_overlay/internal/models"

	"github.com/google/uuid"
)

// Stream event types.
const (
	eventInit   = "init"
	eventStatus = "status"
)

var errViewerBehind = errors.New("viewer buffer full")

// envelope is the message shape shared by SSE and WebSocket streams.
type envelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

type initPayload[T any] struct {
	IsConnected bool                   `json:"is_connected"`
	State       models.ConnectionState `json:"state"`
	Current     *T                     `json:"current"`
	History     []T                    `json:"history"`
}

type statusPayload[T any] struct {
	IsConnected bool                   `json:"is_connected"`
	State       models.ConnectionState `json:"state"`
	Current     *T                     `json:"current"`
}

// source is what a stream needs from a feed.
type source[T any] interface {
	Snapshot() models.FeedSnapshot[T]
	Subscribe(id string, fn feed.Deliver[T]) (unsubscribe func())
}

// viewer is one attached stream client.
type viewer[T feed.Stamped] struct {
	id       string
	readings chan T
	init     initPayload[T]
	detach   func()
}

// attach snapshots src and subscribes a new viewer with a bounded queue.
// The snapshot is taken first so no reading is lost in between; the one
// reading that may be replayed by Subscribe is dropped when it matches the
// snapshot's current value.
func attach[T feed.Stamped](src source[T], buffer int) *viewer[T] {
	snap := src.Snapshot()
	v := &viewer[T]{
		id:       uuid.NewString(),
		readings: make(chan T, buffer),
		init: initPayload[T]{
			IsConnected: snap.IsConnected,
			State:       snap.State,
			Current:     snap.Current,
			History:     snap.History,
		},
	}

	first := true
	v.detach = src.Subscribe(v.id, func(r T) error {
		replay := first && snap.Current != nil && r.At().Equal((*snap.Current).At())
		first = false
		if replay {
			return nil
		}
		select {
		case v.readings <- r:
			return nil
		default:
			return errViewerBehind
		}
	})
	return v
}

func statusOfSource[T any](src source[T]) statusPayload[T] {
	snap := src.Snapshot()
	return statusPayload[T]{
		IsConnected: snap.IsConnected,
		State:       snap.State,
		Current:     snap.Current,
	}
}
