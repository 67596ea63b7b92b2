package flight

import "math"

// MaxStep is the step of a completed flight.
const MaxStep = 5

// Phase is the lifecycle stage derived from a flight's event log.
type Phase struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Step  int    `json:"step"`
}

// PhaseScheduled is the phase of a flight with no canonical events.
var PhaseScheduled = Phase{Key: "SCHEDULED", Label: "Scheduled", Step: 0}

// phaseTable is tested top to bottom; the first event type present wins.
var phaseTable = []struct {
	event EventType
	phase Phase
}{
	{EventComplete, Phase{Key: string(EventComplete), Label: "Completed", Step: 5}},
	{EventLanding, Phase{Key: string(EventLanding), Label: "Landed", Step: 4}},
	{EventTakeoff, Phase{Key: string(EventTakeoff), Label: "Airborne", Step: 3}},
	{EventOffblock, Phase{Key: string(EventOffblock), Label: "Offblock", Step: 2}},
	{EventStart, Phase{Key: string(EventStart), Label: "Started", Step: 1}},
}

// ProgressLabels are the short labels for steps 0 through MaxStep.
var ProgressLabels = []string{"Sched", "Start", "Off", "Air", "Ldg", "Done"}

// DerivePhase returns the phase for an event log. Only the presence of each
// canonical type matters: order, duplicates and unknown types do not.
func DerivePhase(events []Event) Phase {
	present := make(map[EventType]bool, len(events))
	for _, e := range events {
		present[e.Type] = true
	}
	for _, row := range phaseTable {
		if present[row.event] {
			return row.phase
		}
	}
	return PhaseScheduled
}

// Percent is the progress-bar fill for the phase, 0 to 100.
func (p Phase) Percent() int {
	return int(math.Round(float64(p.Step) / MaxStep * 100))
}

// Done reports whether the flight has completed.
func (p Phase) Done() bool {
	return p.Step == MaxStep
}
