package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"bloodbank/pkg/domain"
)

// Collection is one whole entity collection as loaded or saved by the
// gateway. Only the slice matching Kind is meaningful.
type Collection struct {
	Kind       EntityType
	Donors     []Donor
	Recipients []Recipient
	Units      []BloodUnit
}

// DonorCollection wraps donors for SaveAll.
func DonorCollection(donors []Donor) Collection {
	return Collection{Kind: EntityDonor, Donors: donors}
}

// RecipientCollection wraps recipients for SaveAll.
func RecipientCollection(recipients []Recipient) Collection {
	return Collection{Kind: EntityRecipient, Recipients: recipients}
}

// UnitCollection wraps units for SaveAll.
func UnitCollection(units []BloodUnit) Collection {
	return Collection{Kind: EntityUnit, Units: units}
}

// Len returns the number of records in the collection.
func (c Collection) Len() int {
	switch c.Kind {
	case EntityDonor:
		return len(c.Donors)
	case EntityRecipient:
		return len(c.Recipients)
	case EntityUnit:
		return len(c.Units)
	}
	return 0
}

func (c Collection) encode() (Bucket, error) {
	var (
		payload []byte
		err     error
	)
	switch c.Kind {
	case EntityDonor:
		payload, err = json.Marshal(nonNil(c.Donors))
	case EntityRecipient:
		payload, err = json.Marshal(nonNil(c.Recipients))
	case EntityUnit:
		payload, err = json.Marshal(nonNil(c.Units))
	default:
		return Bucket{}, fmt.Errorf("%w: %q", domain.ErrUnknownEntity, c.Kind)
	}
	if err != nil {
		return Bucket{}, fmt.Errorf("encode %s: %w", c.Kind, err)
	}
	return Bucket{Kind: c.Kind, Payload: payload}, nil
}

func decodeCollection(kind EntityType, payload []byte) (Collection, error) {
	c := Collection{Kind: kind}
	var err error
	switch kind {
	case EntityDonor:
		err = json.Unmarshal(payload, &c.Donors)
		c.Donors = nonNil(c.Donors)
	case EntityRecipient:
		err = json.Unmarshal(payload, &c.Recipients)
		c.Recipients = nonNil(c.Recipients)
	case EntityUnit:
		err = json.Unmarshal(payload, &c.Units)
		c.Units = nonNil(c.Units)
	default:
		return Collection{}, fmt.Errorf("%w: %q", domain.ErrUnknownEntity, kind)
	}
	if err != nil {
		return Collection{}, fmt.Errorf("decode %s: %w", kind, err)
	}
	return c, nil
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

// Gateway converts entity collections to and from snapshot buckets.
type Gateway struct {
	store SnapshotStore
}

// NewGateway wraps a snapshot store.
func NewGateway(store SnapshotStore) *Gateway {
	return &Gateway{store: store}
}

// LoadAll reads the whole collection of kind. A missing snapshot yields an
// empty collection and no error.
func (g *Gateway) LoadAll(ctx context.Context, kind EntityType) (Collection, error) {
	payload, err := g.store.Load(ctx, kind)
	if errors.Is(err, domain.ErrNoSnapshot) {
		return decodeCollection(kind, []byte("[]"))
	}
	if err != nil {
		return Collection{Kind: kind}, fmt.Errorf("load %s: %w", kind, err)
	}
	if len(payload) == 0 {
		return decodeCollection(kind, []byte("[]"))
	}
	return decodeCollection(kind, payload)
}

// SaveAll rewrites the given collections in order.
func (g *Gateway) SaveAll(ctx context.Context, collections ...Collection) error {
	buckets := make([]Bucket, 0, len(collections))
	for _, c := range collections {
		b, err := c.encode()
		if err != nil {
			return err
		}
		buckets = append(buckets, b)
	}
	if err := g.store.Save(ctx, buckets...); err != nil {
		return fmt.Errorf("save %s: %w", kindsOf(collections), err)
	}
	return nil
}

// Close releases the underlying store.
func (g *Gateway) Close() error {
	return g.store.Close()
}

func kindsOf(collections []Collection) string {
	out := ""
	for i, c := range collections {
		if i > 0 {
			out += ","
		}
		out += string(c.Kind)
	}
	return out
}

// Snapshot is a point-in-time copy of every collection.
type Snapshot struct {
	Donors     []Donor     `json:"donors"`
	Recipients []Recipient `json:"recipients"`
	Units      []BloodUnit `json:"units"`
}
