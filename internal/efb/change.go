package efb

import (
	"time"

	"github.com/zulandar/flightbag/internal/flight"
)

// ChangeKind names what changed.
type ChangeKind string

const (
	ChangeEvent       ChangeKind = "event"
	ChangeSimStarted  ChangeKind = "sim_started"
	ChangeSimStopped  ChangeKind = "sim_stopped"
	ChangeSimFinished ChangeKind = "sim_finished"
	ChangeRoster      ChangeKind = "roster"
	ChangeSelection   ChangeKind = "selection"
	ChangeReset       ChangeKind = "reset"
)

// Change tells a view that state it renders may be stale. Event is set for
// ChangeEvent only.
type Change struct {
	Kind     ChangeKind    `json:"kind"`
	FlightID string        `json:"flightId,omitempty"`
	Event    *flight.Event `json:"event,omitempty"`
	At       time.Time     `json:"at"`
}

// Listener is notified after every state change. Refresh is called on the
// goroutine that made the change and must not block.
type Listener interface {
	Refresh(Change)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Change)

func (f ListenerFunc) Refresh(c Change) { f(c) }
