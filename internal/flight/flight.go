// Package flight defines the roster and phase-event types shared across the
// flight bag, and derives a flight's lifecycle phase from its event log.
package flight

import (
	"strings"
	"time"
)

// Flight is a scheduled operation between two stations, as delivered by the
// dispatch proxy. Flights are read-only once fetched.
type Flight struct {
	ID           string    `json:"id"`
	Callsign     string    `json:"callsign"`
	FlightNumber string    `json:"flightNumber"`
	Aircraft     Aircraft  `json:"aircraft"`
	Dep          Station   `json:"dep"`
	Arr          Station   `json:"arr"`
	ETD          time.Time `json:"etd"`
	ETA          time.Time `json:"eta"`
	Route        string    `json:"route"`
	Status       string    `json:"status"`
}

// Aircraft identifies the airframe assigned to a flight.
type Aircraft struct {
	ICAO string `json:"icao"`
	Reg  string `json:"reg"`
}

// Station is a departure or arrival airport.
type Station struct {
	ICAO string `json:"icao"`
	Name string `json:"name"`
}

// EventType is a phase marker. Any string is accepted and stored; only the
// canonical constants below affect the derived phase.
type EventType string

const (
	EventStart    EventType = "START"
	EventOffblock EventType = "OFFBLOCK"
	EventTakeoff  EventType = "TAKEOFF"
	EventLanding  EventType = "LANDING"
	EventComplete EventType = "COMPLETE"
)

// CanonicalEvents lists the phase markers in flight order.
var CanonicalEvents = []EventType{EventStart, EventOffblock, EventTakeoff, EventLanding, EventComplete}

// IsCanonical reports whether t is one of the five phase markers.
func (t EventType) IsCanonical() bool {
	for _, c := range CanonicalEvents {
		if t == c {
			return true
		}
	}
	return false
}

// NormalizeEventType trims and upper-cases user input.
func NormalizeEventType(s string) EventType {
	return EventType(strings.ToUpper(strings.TrimSpace(s)))
}

// Event is a timestamped phase marker with an optional note.
type Event struct {
	Type EventType `json:"type"`
	Time time.Time `json:"time"`
	Note string    `json:"note"`
}

// NewEvent stamps an event with the given time in UTC.
func NewEvent(t EventType, note string, at time.Time) Event {
	return Event{Type: t, Time: at.UTC(), Note: note}
}
