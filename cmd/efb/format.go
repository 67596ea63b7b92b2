package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/zulandar/flightbag/internal/flight"
)

var (
	badgeScheduled = color.New(color.FgWhite, color.Faint)
	badgeGround    = color.New(color.FgCyan, color.Bold)
	badgeAirborne  = color.New(color.FgYellow, color.Bold)
	badgeLanded    = color.New(color.FgMagenta, color.Bold)
	badgeComplete  = color.New(color.FgGreen, color.Bold)
	doneStep       = color.New(color.FgGreen)
	dim            = color.New(color.Faint)
)

// phaseBadge renders a phase label coloured by how far the flight got.
func phaseBadge(p flight.Phase) string {
	c := badgeScheduled
	switch {
	case p.Step >= flight.MaxStep:
		c = badgeComplete
	case p.Step == 4:
		c = badgeLanded
	case p.Step == 3:
		c = badgeAirborne
	case p.Step > 0:
		c = badgeGround
	}
	return c.Sprintf("[%s]", p.Label)
}

// progressBar renders the step labels with the reached ones highlighted,
// e.g. "Sched > Start > Off > Air > Ldg > Done".
func progressBar(p flight.Phase) string {
	parts := make([]string, len(flight.ProgressLabels))
	for i, label := range flight.ProgressLabels {
		if i <= p.Step {
			parts[i] = doneStep.Sprint(label)
		} else {
			parts[i] = dim.Sprint(label)
		}
	}
	return strings.Join(parts, " > ") + fmt.Sprintf("  %d%%", p.Percent())
}

// flightLine is a one-line roster entry.
func flightLine(f flight.Flight) string {
	callsign := f.Callsign
	if callsign == "" {
		callsign = f.ID
	}
	line := fmt.Sprintf("%-6s %-8s %s → %s", f.ID, callsign, orDash(f.Dep.ICAO), orDash(f.Arr.ICAO))
	if f.Aircraft.ICAO != "" {
		line += "  " + f.Aircraft.ICAO
	}
	if !f.ETD.IsZero() {
		line += "  ETD " + f.ETD.UTC().Format("2006-01-02 15:04Z")
	}
	return line
}

// eventLine renders one log entry.
func eventLine(ev flight.Event) string {
	line := fmt.Sprintf("%s  %-9s", ev.Time.UTC().Format("2006-01-02 15:04:05Z"), ev.Type)
	if ev.Note != "" {
		line += "  " + ev.Note
	}
	return line
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
