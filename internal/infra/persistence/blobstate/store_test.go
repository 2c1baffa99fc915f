package blobstate

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"bloodbank/internal/blob"
	"bloodbank/pkg/domain"
)

func stores(t *testing.T) map[string]blob.Store {
	t.Helper()
	fsStore, err := blob.NewFilesystem(filepath.Join(t.TempDir(), "blobs"))
	if err != nil {
		t.Fatalf("fs store: %v", err)
	}
	return map[string]blob.Store{
		"memory": blob.NewMemory(),
		"fs":     fsStore,
		"s3":     blob.NewMockS3ForTests(),
	}
}

func TestBlobStateRoundTrip(t *testing.T) {
	for name, blobs := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := New(blobs, "")
			if _, err := s.Load(ctx, domain.EntityUnit); !errors.Is(err, domain.ErrNoSnapshot) {
				t.Fatalf("expected ErrNoSnapshot, got %v", err)
			}
			if err := s.Save(ctx,
				domain.Bucket{Kind: domain.EntityUnit, Payload: []byte(`[{"id":1}]`)},
				domain.Bucket{Kind: domain.EntityRecipient, Payload: []byte(`[]`)},
			); err != nil {
				t.Fatalf("save: %v", err)
			}
			if err := s.Save(ctx, domain.Bucket{Kind: domain.EntityUnit, Payload: []byte(`[{"id":1},{"id":2}]`)}); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			got, err := s.Load(ctx, domain.EntityUnit)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if string(got) != `[{"id":1},{"id":2}]` {
				t.Fatalf("unexpected payload %s", got)
			}
			if err := s.Close(); err != nil {
				t.Fatalf("close: %v", err)
			}
		})
	}
}

func TestBlobStateKeys(t *testing.T) {
	ctx := context.Background()
	blobs := blob.NewMemory()
	s := New(blobs, "bank/")
	if s.Key(domain.EntityDonor) != "bank/donor.json" {
		t.Fatalf("unexpected key %s", s.Key(domain.EntityDonor))
	}
	if err := s.Save(ctx, domain.Bucket{Kind: domain.EntityDonor, Payload: []byte(`[]`)}); err != nil {
		t.Fatalf("save: %v", err)
	}
	list, err := blobs.List(ctx, "bank/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ContentType != "application/json" || list[0].Metadata["kind"] != "donor" {
		t.Fatalf("unexpected objects %+v", list)
	}
}
