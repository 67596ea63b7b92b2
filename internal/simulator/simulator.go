// Package simulator replays a scripted ACARS feed for one flight at a time,
// recording each phase event locally and mirroring it to the proxy.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/zulandar/flightbag/internal/clock"
	"github.com/zulandar/flightbag/internal/flight"
	"github.com/zulandar/flightbag/internal/gateway"
)

// DefaultNote is attached to every simulated event.
const DefaultNote = "SIM ACARS"

// ErrNoFlight is returned when Start is called without a flight id.
var ErrNoFlight = errors.New("simulator: flight id is required")

// Step is one scripted event, At being the offset from the start of the run.
type Step struct {
	Type flight.EventType
	At   time.Duration
}

// DefaultPlan is the canonical feed: every phase in order over 65 seconds.
var DefaultPlan = []Step{
	{Type: flight.EventStart, At: 0},
	{Type: flight.EventOffblock, At: 8 * time.Second},
	{Type: flight.EventTakeoff, At: 25 * time.Second},
	{Type: flight.EventLanding, At: 55 * time.Second},
	{Type: flight.EventComplete, At: 65 * time.Second},
}

// Recorder persists an event locally.
type Recorder interface {
	Append(flightID string, ev flight.Event) error
}

// Mirror forwards an event to the proxy. Failures are the mirror's concern.
type Mirror interface {
	MirrorEvent(ctx context.Context, flightID string, ev flight.Event) gateway.Result
}

// NoticeKind says what happened to the simulator.
type NoticeKind string

const (
	NoticeStarted  NoticeKind = "started"
	NoticeStep     NoticeKind = "step"
	NoticeFinished NoticeKind = "finished"
	NoticeStopped  NoticeKind = "stopped"
)

// Notice is delivered to the Notify callback, always outside the
// simulator's lock.
type Notice struct {
	Kind     NoticeKind
	FlightID string
	Event    *flight.Event
}

// Status describes the current run.
type Status struct {
	Running  bool             `json:"running"`
	FlightID string           `json:"flightId,omitempty"`
	Next     int              `json:"next"`
	NextType flight.EventType `json:"nextType,omitempty"`
}

// Opts holds parameters for creating a Simulator.
type Opts struct {
	Recorder Recorder
	Mirror   Mirror      // optional
	Clock    clock.Clock // defaults to clock.Real
	Plan     []Step      // defaults to DefaultPlan
	Note     string      // defaults to DefaultNote
	// TimeScale multiplies every delay. Zero or negative means 1.
	TimeScale float64
	Notify    func(Notice)
}

// Simulator owns at most one run. Starting a run cancels the previous one.
type Simulator struct {
	recorder  Recorder
	mirror    Mirror
	clock     clock.Clock
	plan      []Step
	note      string
	timeScale float64
	notify    func(Notice)

	mu      sync.Mutex
	current *run
}

// run is the identity of one Start call. Timers compare against it, so a
// timer belonging to a cancelled run never acts even if the same flight
// was restarted.
type run struct {
	flightID string
	next     int
	timer    clock.Timer
	ctx      context.Context
	cancel   context.CancelFunc
}

// New creates a Simulator.
func New(opts Opts) (*Simulator, error) {
	if opts.Recorder == nil {
		return nil, fmt.Errorf("simulator: recorder is required")
	}
	s := &Simulator{
		recorder:  opts.Recorder,
		mirror:    opts.Mirror,
		clock:     opts.Clock,
		plan:      opts.Plan,
		note:      opts.Note,
		timeScale: opts.TimeScale,
		notify:    opts.Notify,
	}
	if s.clock == nil {
		s.clock = clock.Real{}
	}
	if len(s.plan) == 0 {
		s.plan = DefaultPlan
	}
	for i := 1; i < len(s.plan); i++ {
		if s.plan[i].At < s.plan[i-1].At {
			return nil, fmt.Errorf("simulator: plan step %d (%s) is earlier than step %d", i, s.plan[i].Type, i-1)
		}
	}
	if s.note == "" {
		s.note = DefaultNote
	}
	if s.timeScale <= 0 {
		s.timeScale = 1
	}
	return s, nil
}

// Start begins a feed for flightID, cancelling any run already in progress.
// A replaced run is reported as stopped before the new run starts.
func (s *Simulator) Start(flightID string) error {
	if flightID == "" {
		return ErrNoFlight
	}

	s.mu.Lock()
	prev := s.current
	s.cancelLocked()
	ctx, cancel := context.WithCancel(context.Background())
	r := &run{flightID: flightID, ctx: ctx, cancel: cancel}
	s.current = r
	s.scheduleLocked(r, s.plan[0].At)
	s.mu.Unlock()

	if prev != nil {
		log.Printf("simulator: replaced feed for %s at step %d", prev.flightID, prev.next)
		s.emit(Notice{Kind: NoticeStopped, FlightID: prev.flightID})
	}
	log.Printf("simulator: started feed for %s", flightID)
	s.emit(Notice{Kind: NoticeStarted, FlightID: flightID})
	return nil
}

// Stop cancels the current run. It reports whether a run was stopped.
func (s *Simulator) Stop() bool {
	s.mu.Lock()
	r := s.current
	s.cancelLocked()
	s.mu.Unlock()

	if r == nil {
		return false
	}
	log.Printf("simulator: stopped feed for %s at step %d", r.flightID, r.next)
	s.emit(Notice{Kind: NoticeStopped, FlightID: r.flightID})
	return true
}

// Status reports the current run.
func (s *Simulator) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Status{}
	}
	return Status{
		Running:  true,
		FlightID: s.current.flightID,
		Next:     s.current.next,
		NextType: s.plan[s.current.next].Type,
	}
}

// Plan returns a copy of the scripted steps.
func (s *Simulator) Plan() []Step {
	return append([]Step(nil), s.plan...)
}

// Delay returns the scaled duration of d.
func (s *Simulator) Delay(d time.Duration) time.Duration {
	return time.Duration(float64(d) * s.timeScale)
}

func (s *Simulator) cancelLocked() {
	if s.current == nil {
		return
	}
	if s.current.timer != nil {
		s.current.timer.Stop()
	}
	s.current.cancel()
	s.current = nil
}

func (s *Simulator) scheduleLocked(r *run, d time.Duration) {
	r.timer = s.clock.AfterFunc(s.Delay(d), func() { s.fire(r) })
}

// fire emits the run's next step.
func (s *Simulator) fire(r *run) {
	s.mu.Lock()
	if s.current != r {
		s.mu.Unlock()
		return
	}
	step := s.plan[r.next]
	s.mu.Unlock()

	ev := flight.NewEvent(step.Type, s.note, s.clock.Now())
	if s.mirror != nil {
		s.mirror.MirrorEvent(r.ctx, r.flightID, ev)
	}

	s.mu.Lock()
	if s.current != r {
		// Stopped or restarted while mirroring: drop the step.
		s.mu.Unlock()
		return
	}
	if err := s.recorder.Append(r.flightID, ev); err != nil {
		log.Printf("simulator: record %s for %s: %v", ev.Type, r.flightID, err)
	}
	r.next++
	finished := r.next >= len(s.plan)
	if finished {
		r.cancel()
		s.current = nil
	} else {
		s.scheduleLocked(r, s.plan[r.next].At-step.At)
	}
	s.mu.Unlock()

	s.emit(Notice{Kind: NoticeStep, FlightID: r.flightID, Event: &ev})
	if finished {
		log.Printf("simulator: feed for %s complete", r.flightID)
		s.emit(Notice{Kind: NoticeFinished, FlightID: r.flightID})
	}
}

func (s *Simulator) emit(n Notice) {
	if s.notify != nil {
		s.notify(n)
	}
}
