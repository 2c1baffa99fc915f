// Package blobstate persists entity snapshots as one JSON object per bucket
// on any blob driver.
//
// Buckets are written one after another. A crash between two writes of the
// same Save leaves the earlier bucket new and the later one old, e.g. a unit
// stored as ISSUED while its recipient is still pending. Callers needing the
// pair to land together should use the sqlite, postgres, or redis stores.
package blobstate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"bloodbank/internal/blob"
	"bloodbank/pkg/domain"
)

var _ domain.SnapshotStore = (*Store)(nil)

const defaultPrefix = "state/"

// Store maps bucket kinds to <prefix><kind>.json.
type Store struct {
	blobs  blob.Store
	prefix string
}

// New wraps blobs; an empty prefix defaults to "state/".
func New(blobs blob.Store, prefix string) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{blobs: blobs, prefix: prefix}
}

// Key returns the object key for kind.
func (s *Store) Key(kind domain.EntityType) string {
	return s.prefix + string(kind) + ".json"
}

// Load reads the object for kind.
func (s *Store) Load(ctx context.Context, kind domain.EntityType) ([]byte, error) {
	_, rc, err := s.blobs.Get(ctx, s.Key(kind))
	if errors.Is(err, blob.ErrNotFound) {
		return nil, domain.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", kind, err)
	}
	defer func() { _ = rc.Close() }()
	payload, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", kind, err)
	}
	return payload, nil
}

// Save overwrites each bucket in the order given and stops at the first
// failure.
func (s *Store) Save(ctx context.Context, buckets ...domain.Bucket) error {
	for _, b := range buckets {
		_, err := s.blobs.Put(ctx, s.Key(b.Kind), bytes.NewReader(b.Payload), blob.PutOptions{
			ContentType: "application/json",
			Metadata:    map[string]string{"kind": string(b.Kind)},
			Overwrite:   true,
		})
		if err != nil {
			return fmt.Errorf("put %s: %w", b.Kind, err)
		}
	}
	return nil
}

// Close is a no-op; blob drivers hold no connections.
func (s *Store) Close() error { return nil }
