package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/zulandar/flightbag/internal/efb"
	"github.com/zulandar/flightbag/internal/flight"
)

func TestPhaseBadge(t *testing.T) {
	tests := []struct {
		phase flight.Phase
		want  string
	}{
		{flight.PhaseScheduled, "[Scheduled]"},
		{flight.DerivePhase([]flight.Event{{Type: flight.EventTakeoff}}), "[Airborne]"},
		{flight.DerivePhase([]flight.Event{{Type: flight.EventComplete}}), "[Completed]"},
	}
	for _, tt := range tests {
		if got := phaseBadge(tt.phase); got != tt.want {
			t.Errorf("phaseBadge(%s) = %q, want %q", tt.phase.Key, got, tt.want)
		}
	}
}

func TestProgressBar(t *testing.T) {
	got := progressBar(flight.DerivePhase([]flight.Event{{Type: flight.EventTakeoff}}))
	want := "Sched > Start > Off > Air > Ldg > Done  60%"
	if got != want {
		t.Errorf("progressBar = %q, want %q", got, want)
	}
}

func TestFlightLine(t *testing.T) {
	f := flight.SampleRoster()[0]
	got := flightLine(f)
	for _, want := range []string{"f001", "VAM123", "LEVC → LEMD", "A320", "ETD 2026-01-17 20:30Z"} {
		if !strings.Contains(got, want) {
			t.Errorf("flightLine missing %q: %q", want, got)
		}
	}

	bare := flightLine(flight.Flight{ID: "x1"})
	if !strings.Contains(bare, "x1     x1") || !strings.Contains(bare, "— → —") {
		t.Errorf("bare flightLine = %q", bare)
	}
}

func TestEventLine(t *testing.T) {
	ev := flight.Event{Type: flight.EventLanding, Time: time.Date(2026, 1, 17, 21, 20, 5, 0, time.UTC), Note: "smooth"}
	got := eventLine(ev)
	if !strings.HasPrefix(got, "2026-01-17 21:20:05Z  LANDING") || !strings.HasSuffix(got, "smooth") {
		t.Errorf("eventLine = %q", got)
	}
}

func TestFeedPrinter_FiltersByFlight(t *testing.T) {
	buf := new(bytes.Buffer)
	p := &feedPrinter{out: buf, flightID: "f001", done: make(chan efb.ChangeKind, 1)}

	ev := flight.Event{Type: flight.EventStart, Time: time.Date(2026, 1, 17, 20, 0, 0, 0, time.UTC)}
	p.Refresh(efb.Change{Kind: efb.ChangeEvent, FlightID: "f002", Event: &ev})
	p.Refresh(efb.Change{Kind: efb.ChangeSimFinished, FlightID: "f002"})
	if buf.Len() != 0 || len(p.done) != 0 {
		t.Fatal("changes for another flight should be ignored")
	}

	p.Refresh(efb.Change{Kind: efb.ChangeEvent, FlightID: "f001", Event: &ev})
	if !strings.Contains(buf.String(), "START") {
		t.Errorf("output = %q", buf.String())
	}

	p.Refresh(efb.Change{Kind: efb.ChangeSimStopped, FlightID: "f001"})
	p.Refresh(efb.Change{Kind: efb.ChangeSimFinished, FlightID: "f001"})
	if kind := <-p.done; kind != efb.ChangeSimStopped {
		t.Errorf("done = %s, want sim_stopped", kind)
	}
}
