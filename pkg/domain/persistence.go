package domain

import (
	"context"
	"errors"
)

var (
	// ErrNoSnapshot is returned by SnapshotStore.Load when a bucket was never saved.
	ErrNoSnapshot = errors.New("snapshot not found")
	// ErrPersist wraps every failure to durably save state after a mutation.
	ErrPersist = errors.New("persist snapshot")
	// ErrUnitNotInStock is returned when a unit transition requires IN_STOCK.
	ErrUnitNotInStock = errors.New("unit not in stock")
	// ErrUnknownEntity is returned for an unsupported EntityType.
	ErrUnknownEntity = errors.New("unknown entity type")
)

// Bucket is one whole-collection snapshot, JSON encoded.
type Bucket struct {
	Kind    EntityType
	Payload []byte
}

// SnapshotStore is a minimal abstraction over durable backends. Each entity
// kind is stored as a single bucket that is rewritten on every mutation.
type SnapshotStore interface {
	// Load returns the last saved payload for kind or ErrNoSnapshot.
	Load(ctx context.Context, kind EntityType) ([]byte, error)
	// Save writes the buckets in the order given. Backends with transactions
	// commit them together; the others write one at a time.
	Save(ctx context.Context, buckets ...Bucket) error
	// Close releases backend resources.
	Close() error
}
