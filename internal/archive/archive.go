// Package archive keeps point-in-time copies of the three collections and
// spreadsheet inventory reports on blob storage.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"bloodbank/internal/blob"
	"bloodbank/internal/core"
)

const (
	snapshotDir = "snapshots/"
	reportDir   = "reports/"
	keyTime     = "20060102T150405Z"
)

// ErrNotFound reports an unknown archive key.
var ErrNotFound = errors.New("archive: not found")

// Archive is one stored snapshot.
type Archive struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	core.Snapshot
}

// Archiver writes archives and reports under a key prefix.
type Archiver struct {
	blobs  blob.Store
	prefix string
	clock  core.Clock
}

// New returns an Archiver over blobs. An empty prefix defaults to
// "archives/"; a nil clock uses UTC wall time.
func New(blobs blob.Store, prefix string, clock core.Clock) *Archiver {
	if prefix == "" {
		prefix = "archives/"
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	if clock == nil {
		clock = core.ClockFunc(nil)
	}
	return &Archiver{blobs: blobs, prefix: prefix, clock: clock}
}

// Prefix returns the key prefix all objects are written under.
func (a *Archiver) Prefix() string { return a.prefix }

// Archive stores snap as JSON under a fresh key.
func (a *Archiver) Archive(ctx context.Context, snap core.Snapshot) (blob.Info, error) {
	now := a.clock.Now().UTC()
	id := uuid.NewString()
	payload, err := json.Marshal(Archive{ID: id, CreatedAt: now, Snapshot: snap})
	if err != nil {
		return blob.Info{}, fmt.Errorf("encode archive: %w", err)
	}
	key := fmt.Sprintf("%s%s%s-%s.json", a.prefix, snapshotDir, now.Format(keyTime), id)
	info, err := a.blobs.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{
		ContentType: "application/json",
		Metadata: map[string]string{
			"archive-id": id,
			"donors":     fmt.Sprint(len(snap.Donors)),
			"recipients": fmt.Sprint(len(snap.Recipients)),
			"units":      fmt.Sprint(len(snap.Units)),
		},
	})
	if err != nil {
		return blob.Info{}, fmt.Errorf("store archive: %w", err)
	}
	return info, nil
}

// List returns stored snapshot archives ordered by key, oldest first.
func (a *Archiver) List(ctx context.Context) ([]blob.Info, error) {
	return a.blobs.List(ctx, a.prefix+snapshotDir)
}

// ListReports returns stored inventory reports ordered by key.
func (a *Archiver) ListReports(ctx context.Context) ([]blob.Info, error) {
	return a.blobs.List(ctx, a.prefix+reportDir)
}

// Fetch reads the archive stored at key.
func (a *Archiver) Fetch(ctx context.Context, key string) (Archive, error) {
	if !strings.HasPrefix(key, a.prefix+snapshotDir) {
		return Archive{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	_, rc, err := a.blobs.Get(ctx, key)
	if errors.Is(err, blob.ErrNotFound) {
		return Archive{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return Archive{}, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return Archive{}, fmt.Errorf("read archive: %w", err)
	}
	var out Archive
	if err := json.Unmarshal(data, &out); err != nil {
		return Archive{}, fmt.Errorf("decode archive %s: %w", key, err)
	}
	return out, nil
}

// ArchiveReport renders an inventory report and stores it.
func (a *Archiver) ArchiveReport(ctx context.Context, inv Inventory) (blob.Info, error) {
	if inv.GeneratedAt.IsZero() {
		inv.GeneratedAt = a.clock.Now().UTC()
	}
	data, err := RenderInventoryReport(inv)
	if err != nil {
		return blob.Info{}, err
	}
	key := fmt.Sprintf("%s%sinventory-%s-%s.xlsx", a.prefix, reportDir, inv.GeneratedAt.UTC().Format(keyTime), uuid.NewString())
	info, err := a.blobs.Put(ctx, key, bytes.NewReader(data), blob.PutOptions{ContentType: XLSXContentType})
	if err != nil {
		return blob.Info{}, fmt.Errorf("store report: %w", err)
	}
	return info, nil
}
