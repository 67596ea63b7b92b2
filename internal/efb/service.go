// Package efb is the flight bag core: it ties the event log, roster, session
// and feed simulator together behind the operations the CLI and dashboard
// use.
package efb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/zulandar/flightbag/internal/clock"
	"github.com/zulandar/flightbag/internal/eventlog"
	"github.com/zulandar/flightbag/internal/flight"
	"github.com/zulandar/flightbag/internal/gateway"
	"github.com/zulandar/flightbag/internal/kv"
	"github.com/zulandar/flightbag/internal/roster"
	"github.com/zulandar/flightbag/internal/session"
	"github.com/zulandar/flightbag/internal/simulator"
)

var (
	// ErrNoFlightSelected is returned when an operation needs a flight and
	// none was given or selected.
	ErrNoFlightSelected = errors.New("no flight selected")
	// ErrUnknownFlight is returned for a flight id that is not in the roster.
	ErrUnknownFlight = errors.New("flight is not in the roster")
	// ErrNoEventType is returned when recording an event with a blank type.
	ErrNoEventType = errors.New("event type is required")
)

// Syncer is the remote side. gateway.Gateway satisfies it.
type Syncer interface {
	MirrorEvent(ctx context.Context, flightID string, ev flight.Event) gateway.Result
	FetchRoster(ctx context.Context) ([]flight.Flight, gateway.Result)
}

// Opts holds parameters for creating a Service.
type Opts struct {
	KV     kv.Store
	Syncer Syncer
	// Session defaults to one over KV.
	Session *session.Session
	Clock   clock.Clock

	// MirrorTimeout bounds each background mirror of a manual event.
	// Defaults to gateway.DefaultTimeout.
	MirrorTimeout time.Duration

	SimNote      string
	SimTimeScale float64
	SimPlan      []simulator.Step
}

// Service is the flight bag core.
type Service struct {
	syncer  Syncer
	clock   clock.Clock
	events  *eventlog.Store
	session *session.Session
	roster  *roster.Cache
	sim     *simulator.Simulator

	mirrorTimeout time.Duration
	mirrors       sync.WaitGroup

	mu        sync.Mutex
	nextID    int
	listeners map[int]Listener
}

// FlightView is a flight with its derived state.
type FlightView struct {
	Flight flight.Flight  `json:"flight"`
	Phase  flight.Phase   `json:"phase"`
	Events []flight.Event `json:"events"`
	Note   string         `json:"note"`
}

// New creates a Service.
func New(opts Opts) (*Service, error) {
	if opts.KV == nil {
		return nil, fmt.Errorf("efb: kv store is required")
	}
	if opts.Syncer == nil {
		return nil, fmt.Errorf("efb: syncer is required")
	}
	s := &Service{
		syncer:        opts.Syncer,
		clock:         opts.Clock,
		session:       opts.Session,
		mirrorTimeout: opts.MirrorTimeout,
		listeners:     make(map[int]Listener),
	}
	if s.clock == nil {
		s.clock = clock.Real{}
	}
	if s.mirrorTimeout <= 0 {
		s.mirrorTimeout = gateway.DefaultTimeout
	}

	var err error
	if s.session == nil {
		if s.session, err = session.New(opts.KV); err != nil {
			return nil, err
		}
	}
	if s.events, err = eventlog.New(opts.KV); err != nil {
		return nil, err
	}
	s.roster, err = roster.New(roster.Opts{
		Fetcher: opts.Syncer,
		OnRefresh: func([]flight.Flight, gateway.Result) {
			s.notify(Change{Kind: ChangeRoster})
		},
	})
	if err != nil {
		return nil, err
	}
	s.sim, err = simulator.New(simulator.Opts{
		Recorder:  s.events,
		Mirror:    opts.Syncer,
		Clock:     s.clock,
		Plan:      opts.SimPlan,
		Note:      opts.SimNote,
		TimeScale: opts.SimTimeScale,
		Notify:    s.onSimulator,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Session exposes the pilot state.
func (s *Service) Session() *session.Session { return s.session }

// Roster exposes the roster cache, for scheduling refreshes.
func (s *Service) Roster() *roster.Cache { return s.roster }

// RecordEvent stores a manually reported event for a flight in the roster
// and mirrors it to the proxy in the background. The local append happens
// first; a mirror failure never undoes it. The mirror keeps ctx's values but
// not its cancellation, so it outlives the caller's request.
func (s *Service) RecordEvent(ctx context.Context, flightID, eventType, note string) (flight.Event, error) {
	id, err := s.rosterFlight(flightID)
	if err != nil {
		return flight.Event{}, err
	}
	t := flight.NormalizeEventType(eventType)
	if t == "" {
		return flight.Event{}, ErrNoEventType
	}

	ev := flight.NewEvent(t, strings.TrimSpace(note), s.clock.Now())
	if err := s.events.Append(id, ev); err != nil {
		return flight.Event{}, fmt.Errorf("efb: record event: %w", err)
	}
	s.notify(Change{Kind: ChangeEvent, FlightID: id, Event: &ev})

	s.mirrors.Add(1)
	go func() {
		defer s.mirrors.Done()
		mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.mirrorTimeout)
		defer cancel()
		s.syncer.MirrorEvent(mctx, id, ev)
	}()
	return ev, nil
}

// WaitMirrors blocks until every background mirror started by RecordEvent
// has finished.
func (s *Service) WaitMirrors() {
	s.mirrors.Wait()
}

// StartSimulation starts the ACARS feed for a flight in the roster,
// replacing any feed already running.
func (s *Service) StartSimulation(flightID string) error {
	id, err := s.rosterFlight(flightID)
	if err != nil {
		return err
	}
	return s.sim.Start(id)
}

// StopSimulation stops the feed. It reports whether one was running.
func (s *Service) StopSimulation() bool {
	return s.sim.Stop()
}

// SimulationStatus reports the feed state.
func (s *Service) SimulationStatus() simulator.Status {
	return s.sim.Status()
}

// SimulationPlan returns the feed's scripted steps with their scaled
// offsets.
func (s *Service) SimulationPlan() []simulator.Step {
	plan := s.sim.Plan()
	for i := range plan {
		plan[i].At = s.sim.Delay(plan[i].At)
	}
	return plan
}

// GetEventLog returns a flight's events, newest first.
func (s *Service) GetEventLog(flightID string) ([]flight.Event, error) {
	id := strings.TrimSpace(flightID)
	if id == "" {
		return nil, ErrNoFlightSelected
	}
	events, err := s.events.Read(id)
	if err != nil {
		return nil, fmt.Errorf("efb: read events for %s: %w", id, err)
	}
	return events, nil
}

// GetPhase derives a flight's phase from its log.
func (s *Service) GetPhase(flightID string) (flight.Phase, error) {
	events, err := s.GetEventLog(flightID)
	if err != nil {
		return flight.Phase{}, err
	}
	return flight.DerivePhase(events), nil
}

// Flight returns a roster flight with its phase, log and note.
func (s *Service) Flight(flightID string) (FlightView, error) {
	id, err := s.rosterFlight(flightID)
	if err != nil {
		return FlightView{}, err
	}
	f, _ := s.roster.Find(id)
	events, err := s.GetEventLog(id)
	if err != nil {
		return FlightView{}, err
	}
	return FlightView{
		Flight: f,
		Phase:  flight.DerivePhase(events),
		Events: events,
		Note:   s.session.Note(id),
	}, nil
}

// RefreshRoster reloads the roster from the proxy, falling back to the
// sample roster.
func (s *Service) RefreshRoster(ctx context.Context) ([]flight.Flight, gateway.Result) {
	return s.roster.Refresh(ctx)
}

// GetRoster returns the cached roster.
func (s *Service) GetRoster() []flight.Flight {
	return s.roster.Current()
}

// SelectFlight makes a roster flight the current one.
func (s *Service) SelectFlight(flightID string) (flight.Flight, error) {
	id, err := s.rosterFlight(flightID)
	if err != nil {
		return flight.Flight{}, err
	}
	if err := s.session.SetSelectedFlight(id); err != nil {
		return flight.Flight{}, fmt.Errorf("efb: select flight: %w", err)
	}
	f, _ := s.roster.Find(id)
	s.notify(Change{Kind: ChangeSelection, FlightID: id})
	return f, nil
}

// SelectedFlight returns the current flight. With no selection the first
// roster flight is selected and remembered.
func (s *Service) SelectedFlight() (flight.Flight, error) {
	flights := s.roster.Current()
	id := s.session.SelectedFlight()
	if id == "" {
		if len(flights) == 0 {
			return flight.Flight{}, ErrNoFlightSelected
		}
		id = flights[0].ID
		if err := s.session.SetSelectedFlight(id); err != nil {
			return flight.Flight{}, fmt.Errorf("efb: select flight: %w", err)
		}
	}
	f, ok := flight.Find(flights, id)
	if !ok {
		return flight.Flight{}, fmt.Errorf("%w: %s", ErrUnknownFlight, id)
	}
	return f, nil
}

// SaveNote stores the pilot's briefing note for a flight.
func (s *Service) SaveNote(flightID, note string) error {
	id := strings.TrimSpace(flightID)
	if id == "" {
		return ErrNoFlightSelected
	}
	if err := s.session.SaveNote(id, note); err != nil {
		return fmt.Errorf("efb: save note: %w", err)
	}
	return nil
}

// Note returns the briefing note for a flight.
func (s *Service) Note(flightID string) string {
	return s.session.Note(strings.TrimSpace(flightID))
}

// Reset signs out, forgets the selection and API override and stops the
// feed. Event logs and notes survive.
func (s *Service) Reset() error {
	s.sim.Stop()
	if err := s.session.Reset(); err != nil {
		return fmt.Errorf("efb: reset: %w", err)
	}
	s.notify(Change{Kind: ChangeReset})
	return nil
}

// Subscribe registers a listener. The returned func removes it.
func (s *Service) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// rosterFlight validates that flightID names a roster flight.
func (s *Service) rosterFlight(flightID string) (string, error) {
	id := strings.TrimSpace(flightID)
	if id == "" {
		return "", ErrNoFlightSelected
	}
	if _, ok := s.roster.Find(id); !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownFlight, id)
	}
	return id, nil
}

func (s *Service) onSimulator(n simulator.Notice) {
	c := Change{FlightID: n.FlightID, Event: n.Event}
	switch n.Kind {
	case simulator.NoticeStarted:
		c.Kind = ChangeSimStarted
	case simulator.NoticeStep:
		c.Kind = ChangeEvent
	case simulator.NoticeFinished:
		c.Kind = ChangeSimFinished
	case simulator.NoticeStopped:
		c.Kind = ChangeSimStopped
	default:
		return
	}
	s.notify(c)
}

func (s *Service) notify(c Change) {
	if c.At.IsZero() {
		c.At = s.clock.Now()
	}
	s.mu.Lock()
	ls := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		ls = append(ls, l)
	}
	s.mu.Unlock()

	for _, l := range ls {
		l.Refresh(c)
	}
}
