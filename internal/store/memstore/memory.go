// Package memstore keeps collection payloads in process memory.
package memstore

import (
	"context"
	"slices"
	"sync"

	"github.com/mentordesk/mentordesk/internal/collection"
)

// Store is an in-memory collection.Repository guarded by an RWMutex.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New constructs an empty Store.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Load returns the payload under key.
func (s *Store) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payload, ok := s.data[key]
	if !ok {
		return nil, collection.ErrNotFound
	}
	return slices.Clone(payload), nil
}

// Save replaces the payload under key.
func (s *Store) Save(_ context.Context, key string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = slices.Clone(payload)
	return nil
}

// Keys lists stored keys in lexical order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
