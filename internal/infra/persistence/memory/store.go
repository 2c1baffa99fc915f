// Package memory provides an in-process snapshot store used for tests and
// ephemeral environments.
package memory

import (
	"context"
	"fmt"
	"sync"

	"bloodbank/pkg/domain"
)

var _ domain.SnapshotStore = (*Store)(nil)

// Store keeps one payload per bucket. Payloads are copied on the way in and
// out so callers never share backing arrays with the store.
type Store struct {
	mu       sync.RWMutex
	buckets  map[domain.EntityType][]byte
	failSave error
	failLoad error
	saves    int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{buckets: make(map[domain.EntityType][]byte)}
}

// Load returns the stored payload for kind or domain.ErrNoSnapshot.
func (s *Store) Load(_ context.Context, kind domain.EntityType) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failLoad != nil {
		return nil, s.failLoad
	}
	payload, ok := s.buckets[kind]
	if !ok {
		return nil, domain.ErrNoSnapshot
	}
	return append([]byte(nil), payload...), nil
}

// Save replaces the given buckets in order.
func (s *Store) Save(_ context.Context, buckets ...domain.Bucket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave != nil {
		return s.failSave
	}
	for _, b := range buckets {
		if b.Kind == "" {
			return fmt.Errorf("save: empty bucket kind")
		}
		s.buckets[b.Kind] = append([]byte(nil), b.Payload...)
	}
	s.saves++
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// FailSaves makes every subsequent Save return err. Pass nil to recover.
func (s *Store) FailSaves(err error) {
	s.mu.Lock()
	s.failSave = err
	s.mu.Unlock()
}

// FailLoads makes every subsequent Load return err. Pass nil to recover.
func (s *Store) FailLoads(err error) {
	s.mu.Lock()
	s.failLoad = err
	s.mu.Unlock()
}

// Put seeds a raw payload, bypassing Save.
func (s *Store) Put(kind domain.EntityType, payload []byte) {
	s.mu.Lock()
	s.buckets[kind] = append([]byte(nil), payload...)
	s.mu.Unlock()
}

// Saves reports how many Save calls succeeded.
func (s *Store) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
