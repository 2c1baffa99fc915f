// Package redis persists entity snapshots as one Redis string per bucket.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"bloodbank/pkg/domain"
)

var _ domain.SnapshotStore = (*Store)(nil)

const defaultPrefix = "bloodbank:"

// Config selects the Redis server and key namespace.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Store writes buckets under <prefix>state:<bucket>. Save wraps all buckets
// in MULTI/EXEC so a mutation's collections land together.
type Store struct {
	client *redis.Client
	prefix string
	owned  bool
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	s := NewWithClient(client, cfg.Prefix)
	s.owned = true
	return s, nil
}

// NewWithClient wraps an existing client. Close leaves the client open.
func NewWithClient(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

// Key returns the Redis key holding kind.
func (s *Store) Key(kind domain.EntityType) string {
	return s.prefix + "state:" + string(kind)
}

// Load returns the payload stored for kind.
func (s *Store) Load(ctx context.Context, kind domain.EntityType) ([]byte, error) {
	payload, err := s.client.Get(ctx, s.Key(kind)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", kind, err)
	}
	return payload, nil
}

// Save writes every bucket in one transaction.
func (s *Store) Save(ctx context.Context, buckets ...domain.Bucket) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, b := range buckets {
			pipe.Set(ctx, s.Key(b.Kind), b.Payload, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save: %w", err)
	}
	return nil
}

// Health checks if the Redis connection is healthy.
func (s *Store) Health(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client when the store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}
