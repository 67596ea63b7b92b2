package flight

import (
	"testing"
	"time"
)

func eventsOf(types ...EventType) []Event {
	base := time.Date(2026, 1, 17, 20, 0, 0, 0, time.UTC)
	out := make([]Event, len(types))
	for i, t := range types {
		out[i] = Event{Type: t, Time: base.Add(time.Duration(i) * time.Minute)}
	}
	return out
}

// expectedStep mirrors the priority table independently of DerivePhase.
func expectedStep(present map[EventType]bool) int {
	switch {
	case present[EventComplete]:
		return 5
	case present[EventLanding]:
		return 4
	case present[EventTakeoff]:
		return 3
	case present[EventOffblock]:
		return 2
	case present[EventStart]:
		return 1
	}
	return 0
}

func TestDerivePhase_AllSubsets(t *testing.T) {
	n := len(CanonicalEvents)
	for mask := 0; mask < 1<<n; mask++ {
		present := map[EventType]bool{}
		var types []EventType
		for i, c := range CanonicalEvents {
			if mask&(1<<i) != 0 {
				present[c] = true
				types = append(types, c)
			}
		}
		want := expectedStep(present)

		forward := DerivePhase(eventsOf(types...))
		if forward.Step != want {
			t.Errorf("mask %05b: Step = %d, want %d", mask, forward.Step, want)
		}

		// Reverse order plus duplicates and noise must not change the result.
		var shuffled []EventType
		for i := len(types) - 1; i >= 0; i-- {
			shuffled = append(shuffled, types[i], "GATE_CHANGE", types[i])
		}
		if got := DerivePhase(eventsOf(shuffled...)); got != forward {
			t.Errorf("mask %05b: shuffled phase = %+v, want %+v", mask, got, forward)
		}
	}
}

func TestDerivePhase_Labels(t *testing.T) {
	tests := []struct {
		name  string
		types []EventType
		key   string
		label string
		step  int
	}{
		{"empty", nil, "SCHEDULED", "Scheduled", 0},
		{"start", []EventType{EventStart}, "START", "Started", 1},
		{"offblock", []EventType{EventStart, EventOffblock}, "OFFBLOCK", "Offblock", 2},
		{"takeoff", []EventType{EventTakeoff}, "TAKEOFF", "Airborne", 3},
		{"landing", []EventType{EventLanding, EventStart}, "LANDING", "Landed", 4},
		{"complete", []EventType{EventComplete}, "COMPLETE", "Completed", 5},
		{"unknown only", []EventType{"DIVERT", "start"}, "SCHEDULED", "Scheduled", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DerivePhase(eventsOf(tt.types...))
			if p.Key != tt.key || p.Label != tt.label || p.Step != tt.step {
				t.Errorf("DerivePhase() = %+v, want {%s %s %d}", p, tt.key, tt.label, tt.step)
			}
		})
	}
}

func TestDerivePhase_DoesNotMutate(t *testing.T) {
	log := eventsOf(EventLanding, EventStart, "NOISE")
	before := append([]Event(nil), log...)
	DerivePhase(log)
	for i := range log {
		if log[i] != before[i] {
			t.Fatalf("log[%d] changed: %+v -> %+v", i, before[i], log[i])
		}
	}
}

func TestPhase_Percent(t *testing.T) {
	want := []int{0, 20, 40, 60, 80, 100}
	for step, pct := range want {
		p := Phase{Step: step}
		if got := p.Percent(); got != pct {
			t.Errorf("Percent(step %d) = %d, want %d", step, got, pct)
		}
	}
	if len(ProgressLabels) != MaxStep+1 {
		t.Errorf("len(ProgressLabels) = %d, want %d", len(ProgressLabels), MaxStep+1)
	}
}

func TestPhase_Done(t *testing.T) {
	if PhaseScheduled.Done() {
		t.Error("scheduled phase should not be done")
	}
	if !DerivePhase(eventsOf(EventComplete)).Done() {
		t.Error("completed phase should be done")
	}
}
