package telegraph

import (
	"fmt"
	"strings"
	"time"

	"github.com/zulandar/flightbag/internal/flight"
)

// Sidebar colors per phase.
const (
	ColorScheduled = "#9e9e9e"
	ColorGround    = "#2196f3"
	ColorAirborne  = "#ff9800"
	ColorLanded    = "#7e57c2"
	ColorComplete  = "#36a64f"
)

// phaseColor maps an event type to a sidebar color.
func phaseColor(t flight.EventType) string {
	switch t {
	case flight.EventStart, flight.EventOffblock:
		return ColorGround
	case flight.EventTakeoff:
		return ColorAirborne
	case flight.EventLanding:
		return ColorLanded
	case flight.EventComplete:
		return ColorComplete
	default:
		return ColorScheduled
	}
}

// flightTitle is the callsign, falling back to the flight id.
func flightTitle(f flight.Flight) string {
	if f.Callsign != "" {
		return f.Callsign
	}
	return f.ID
}

// flightFooter identifies the flight as "id · callsign".
func flightFooter(f flight.Flight) string {
	if f.Callsign == "" || f.Callsign == f.ID {
		return f.ID
	}
	return f.ID + " · " + f.Callsign
}

func routeLine(f flight.Flight) string {
	if f.Dep.ICAO == "" && f.Arr.ICAO == "" {
		return ""
	}
	return fmt.Sprintf("%s → %s", f.Dep.ICAO, f.Arr.ICAO)
}

// FormatPhaseEvent formats one recorded event with the flight's phase after
// it.
func FormatPhaseEvent(f flight.Flight, ev flight.Event, phase flight.Phase) FormattedEvent {
	var bodyParts []string
	if f.Aircraft.ICAO != "" {
		aircraft := f.Aircraft.ICAO
		if f.Aircraft.Reg != "" {
			aircraft += " " + f.Aircraft.Reg
		}
		bodyParts = append(bodyParts, aircraft)
	}
	bodyParts = append(bodyParts, ev.Time.UTC().Format("15:04:05Z"))

	var fields []Field
	if r := routeLine(f); r != "" {
		fields = append(fields, Field{Name: "Route", Value: r, Short: true})
	}
	fields = append(fields, Field{
		Name:  "Phase",
		Value: fmt.Sprintf("%s (%d%%)", phase.Label, phase.Percent()),
		Short: true,
	})
	if ev.Note != "" {
		fields = append(fields, Field{Name: "Note", Value: ev.Note})
	}

	return FormattedEvent{
		Title:  fmt.Sprintf("%s · %s", flightTitle(f), ev.Type),
		Body:   strings.Join(bodyParts, "\n"),
		Color:  phaseColor(ev.Type),
		Footer: flightFooter(f),
		At:     ev.Time,
		Fields: fields,
	}
}

// FormatFeedNotice formats an ACARS feed start or stop at the given time.
func FormatFeedNotice(f flight.Flight, verb string, at time.Time) FormattedEvent {
	var fields []Field
	if r := routeLine(f); r != "" {
		fields = append(fields, Field{Name: "Route", Value: r, Short: true})
	}
	return FormattedEvent{
		Title:  fmt.Sprintf("%s · ACARS feed %s", flightTitle(f), verb),
		Color:  ColorScheduled,
		Footer: flightFooter(f),
		At:     at,
		Fields: fields,
	}
}
