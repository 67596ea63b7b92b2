// Package session keeps the pilot's scalar state in the key-value store:
// identity, session token, selected flight, API base override, the pending
// PKCE verifier and per-flight briefing notes.
package session

import (
	"fmt"
	"strings"

	"github.com/zulandar/flightbag/internal/kv"
)

// Persistence keys.
const (
	KeyToken          = "va_token"
	KeyUser           = "va_user"
	KeySelectedFlight = "sel_flight"
	KeyAPIBase        = "api_base"
	KeyPKCEVerifier   = "pkce_verifier"
	notePrefix        = "note_"
)

// Session reads and writes pilot state.
type Session struct {
	kv kv.Store
}

// New wraps a key-value store.
func New(store kv.Store) (*Session, error) {
	if store == nil {
		return nil, fmt.Errorf("session: kv store is required")
	}
	return &Session{kv: store}, nil
}

func (s *Session) User() string  { return kv.GetString(s.kv, KeyUser) }
func (s *Session) Token() string { return kv.GetString(s.kv, KeyToken) }

// SelectedFlight returns the persisted selection, "" when none.
func (s *Session) SelectedFlight() string { return kv.GetString(s.kv, KeySelectedFlight) }

// APIBaseOverride returns the pilot's proxy override, "" when unset.
func (s *Session) APIBaseOverride() string { return kv.GetString(s.kv, KeyAPIBase) }

// PKCEVerifier returns the verifier of a login in progress.
func (s *Session) PKCEVerifier() string { return kv.GetString(s.kv, KeyPKCEVerifier) }

func (s *Session) SetUser(user string) error   { return s.set(KeyUser, user) }
func (s *Session) SetToken(token string) error { return s.set(KeyToken, token) }

func (s *Session) SetSelectedFlight(id string) error { return s.set(KeySelectedFlight, id) }

func (s *Session) SetPKCEVerifier(v string) error { return s.set(KeyPKCEVerifier, v) }

// SetAPIBaseOverride stores a proxy URL override; an empty value clears it.
func (s *Session) SetAPIBaseOverride(base string) error {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return s.remove(KeyAPIBase)
	}
	return s.set(KeyAPIBase, base)
}

// ClearPKCEVerifier forgets the verifier once a login completes.
func (s *Session) ClearPKCEVerifier() error { return s.remove(KeyPKCEVerifier) }

// ClearToken signs the pilot out while keeping their identity.
func (s *Session) ClearToken() error { return s.remove(KeyToken) }

// Note returns the pilot's briefing note for a flight.
func (s *Session) Note(flightID string) string {
	return kv.GetString(s.kv, notePrefix+flightID)
}

// SaveNote stores the pilot's briefing note for a flight.
func (s *Session) SaveNote(flightID, note string) error {
	if flightID == "" {
		return fmt.Errorf("session: flight id is required")
	}
	return s.set(notePrefix+flightID, note)
}

// Reset removes identity, token, selection, API override and any pending
// verifier. Event logs and notes are kept.
func (s *Session) Reset() error {
	for _, key := range []string{KeyToken, KeyUser, KeySelectedFlight, KeyAPIBase, KeyPKCEVerifier} {
		if err := s.remove(key); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) set(key, value string) error {
	if err := s.kv.Set(key, value); err != nil {
		return fmt.Errorf("session: set %s: %w", key, err)
	}
	return nil
}

func (s *Session) remove(key string) error {
	if err := s.kv.Remove(key); err != nil {
		return fmt.Errorf("session: remove %s: %w", key, err)
	}
	return nil
}
