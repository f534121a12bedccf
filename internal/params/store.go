// Package params keeps the respondent's selected options as key-value pairs
// (record number -> option index) with a pluggable persistence hook.
package params

import (
	"maps"
	"net/url"
	"sync"
)

// Persister is notified after every change with a snapshot of the store
type Persister interface {
	Persist(values map[string]string) error
}

// PersisterFunc adapts a function to Persister
type PersisterFunc func(values map[string]string) error

// Persist calls f
func (f PersisterFunc) Persist(values map[string]string) error {
	return f(values)
}

// Store is a key-value store of selections
type Store struct {
	mu        sync.RWMutex
	values    map[string]string
	persister Persister
}

// NewStore creates a store seeded with initial values. persister may be nil.
func NewStore(initial map[string]string, persister Persister) *Store {
	values := make(map[string]string, len(initial))
	maps.Copy(values, initial)
	return &Store{values: values, persister: persister}
}

// FromQuery seeds a store from a URL query string such as "12=0&15=2"
func FromQuery(rawQuery string, persister Persister) (*Store, error) {
	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, err
	}
	initial := make(map[string]string, len(q))
	for key, vals := range q {
		if len(vals) > 0 {
			initial[key] = vals[len(vals)-1]
		}
	}
	return NewStore(initial, persister), nil
}

// Set updates a key and runs the persistence hook
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	s.values[key] = value
	snapshot := maps.Clone(s.values)
	s.mu.Unlock()

	if s.persister == nil {
		return nil
	}
	return s.persister.Persist(snapshot)
}

// Get returns a key's value
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// IsSelected reports whether key currently holds value
func (s *Store) IsSelected(key, value string) bool {
	v, ok := s.Get(key)
	return ok && v == value
}

// All returns a copy of every pair
func (s *Store) All() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.values)
}

// Encode renders the store as a sorted query string
func (s *Store) Encode() string {
	q := url.Values{}
	for k, v := range s.All() {
		q.Set(k, v)
	}
	return q.Encode()
}
