// Package kv is the flight bag's string-keyed persistence collaborator. Event
// logs and session scalars are stored through it; the in-memory store backs
// tests and the GORM store backs the CLI and dashboard.
package kv

import (
	"errors"
	"sync"
)

// ErrEmptyKey is returned when a caller passes an empty key.
var ErrEmptyKey = errors.New("kv: key is required")

// Store is a durable string-to-string map. Set replaces the whole value in a
// single write, so readers never observe a partially written value.
type Store interface {
	// Get returns the value and whether the key exists.
	Get(key string) (string, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error
}

// GetString returns the stored value or "" when the key is absent or the
// store fails. Intended for display-only scalars.
func GetString(s Store, key string) string {
	v, ok, err := s.Get(key)
	if err != nil || !ok {
		return ""
	}
	return v
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]string{}}
}

func (m *MemoryStore) Get(key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryStore) Remove(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Len returns the number of stored keys.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
