// Package eventlog is the append-only, per-flight store of phase events. It
// is the source of truth for a flight's phase whether or not the dispatch
// proxy is reachable.
package eventlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/zulandar/flightbag/internal/flight"
	"github.com/zulandar/flightbag/internal/kv"
)

// KeyPrefix prefixes the flight id in the persistence key of each log.
const KeyPrefix = "events_"

var (
	// ErrNoFlight is returned for an empty flight id.
	ErrNoFlight = errors.New("eventlog: flight id is required")
	// ErrCorruptLog is returned when a stored log cannot be decoded. The
	// stored value is left untouched.
	ErrCorruptLog = errors.New("eventlog: stored log is corrupt")
)

// Key returns the persistence key for a flight's log.
func Key(flightID string) string {
	return KeyPrefix + flightID
}

// Store appends and reads event logs. Logs are newest-first. Appends are
// serialized, so concurrent appends to the same flight never lose entries.
type Store struct {
	kv kv.Store
	mu sync.Mutex
}

// New creates a Store over the given persistence.
func New(store kv.Store) (*Store, error) {
	if store == nil {
		return nil, fmt.Errorf("eventlog: kv store is required")
	}
	return &Store{kv: store}, nil
}

// Append inserts ev at the head of the flight's log and persists the whole
// log in one write before returning.
func (s *Store) Append(flightID string, ev flight.Event) error {
	if flightID == "" {
		return ErrNoFlight
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.read(flightID)
	if err != nil {
		return err
	}
	log := make([]flight.Event, 0, len(existing)+1)
	log = append(log, ev)
	log = append(log, existing...)

	data, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("eventlog: encode %s: %w", flightID, err)
	}
	if err := s.kv.Set(Key(flightID), string(data)); err != nil {
		return fmt.Errorf("eventlog: persist %s: %w", flightID, err)
	}
	return nil
}

// Read returns the flight's log newest-first, or an empty log if none
// exists.
func (s *Store) Read(flightID string) ([]flight.Event, error) {
	if flightID == "" {
		return nil, ErrNoFlight
	}
	return s.read(flightID)
}

func (s *Store) read(flightID string) ([]flight.Event, error) {
	raw, ok, err := s.kv.Get(Key(flightID))
	if err != nil {
		return nil, fmt.Errorf("eventlog: load %s: %w", flightID, err)
	}
	if !ok || raw == "" {
		return []flight.Event{}, nil
	}
	var log []flight.Event
	if err := json.Unmarshal([]byte(raw), &log); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptLog, flightID, err)
	}
	if log == nil {
		log = []flight.Event{}
	}
	return log, nil
}
