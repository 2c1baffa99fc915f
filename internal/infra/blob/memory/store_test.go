package memory

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"bloodbank/internal/blob/core"
)

func TestMemoryStorePutCreateOnly(t *testing.T) {
	ctx := context.Background()
	s := New()
	if _, err := s.Put(ctx, "a.json", strings.NewReader("1"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := s.Put(ctx, "a.json", strings.NewReader("2"), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	info, err := s.Put(ctx, "a.json", strings.NewReader("22"), core.PutOptions{Overwrite: true, ContentType: "application/json"})
	if err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if info.Size != 2 || info.ContentType != "application/json" {
		t.Fatalf("unexpected info %+v", info)
	}
	_, rc, err := s.Get(ctx, "a.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = rc.Close() }()
	body, _ := io.ReadAll(rc)
	if string(body) != "22" {
		t.Fatalf("expected overwritten body, got %q", body)
	}
}

func TestMemoryStoreGetMissing(t *testing.T) {
	if _, _, err := New().Get(context.Background(), "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreListAndDelete(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, k := range []string{"archives/b", "archives/a", "state/unit.json"} {
		if _, err := s.Put(ctx, k, strings.NewReader(k), core.PutOptions{Metadata: map[string]string{"k": k}}); err != nil {
			t.Fatalf("put %s: %v", k, err)
		}
	}
	list, err := s.List(ctx, "archives/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Key != "archives/a" || list[1].Key != "archives/b" {
		t.Fatalf("unexpected list %+v", list)
	}
	list[0].Metadata["k"] = "mutated"
	again, _ := s.List(ctx, "archives/a")
	if again[0].Metadata["k"] != "archives/a" {
		t.Fatalf("metadata aliased")
	}
	if ok, _ := s.Delete(ctx, "archives/a"); !ok {
		t.Fatalf("expected delete to report existing")
	}
	if ok, _ := s.Delete(ctx, "archives/a"); ok {
		t.Fatalf("expected second delete to report missing")
	}
	if s.Driver() != core.DriverMemory {
		t.Fatalf("unexpected driver %s", s.Driver())
	}
}
