package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"bloodbank/internal/infra/persistence/memory"
)

var baseDay = time.Date(2024, time.March, 1, 9, 30, 0, 0, time.UTC)

// fakeClock is a settable clock for tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) advanceDays(days int) {
	c.mu.Lock()
	c.now = c.now.AddDate(0, 0, days)
	c.mu.Unlock()
}

// recordingStore wraps the memory store and records the kinds of each Save.
type recordingStore struct {
	*memory.Store
	mu    sync.Mutex
	saves [][]EntityType
}

func newRecordingStore() *recordingStore {
	return &recordingStore{Store: memory.NewStore()}
}

func (r *recordingStore) Save(ctx context.Context, buckets ...Bucket) error {
	if err := r.Store.Save(ctx, buckets...); err != nil {
		return err
	}
	kinds := make([]EntityType, 0, len(buckets))
	for _, b := range buckets {
		kinds = append(kinds, b.Kind)
	}
	r.mu.Lock()
	r.saves = append(r.saves, kinds)
	r.mu.Unlock()
	return nil
}

func (r *recordingStore) lastSave() []EntityType {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.saves) == 0 {
		return nil
	}
	return r.saves[len(r.saves)-1]
}

type logEntry struct {
	level string
	msg   string
	args  []any
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) add(level, msg string, args []any) {
	l.mu.Lock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, args: args})
	l.mu.Unlock()
}

func (l *recordingLogger) Debug(msg string, args ...any) { l.add("debug", msg, args) }
func (l *recordingLogger) Info(msg string, args ...any)  { l.add("info", msg, args) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.add("warn", msg, args) }
func (l *recordingLogger) Error(msg string, args ...any) { l.add("error", msg, args) }

func (l *recordingLogger) has(level, msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.level == level && e.msg == msg {
			return true
		}
	}
	return false
}

func person(first, group string) PersonInfo {
	return PersonInfo{
		FirstName:   first,
		LastName:    "Test",
		DateOfBirth: time.Date(1990, time.January, 2, 0, 0, 0, 0, time.UTC),
		MobileNo:    "0300000000",
		BloodGroup:  group,
	}
}

func newTestService(t *testing.T, opts ...Option) (*Service, *recordingStore, *fakeClock) {
	t.Helper()
	store := newRecordingStore()
	clock := newFakeClock(baseDay)
	svc := NewService(store, append([]Option{WithClock(clock)}, opts...)...)
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return svc, store, clock
}

func mustDonate(t *testing.T, svc *Service, first, group string) DonationResult {
	t.Helper()
	res, err := svc.AddDonor(context.Background(), person(first, group))
	if err != nil {
		t.Fatalf("add donor %s: %v", first, err)
	}
	return res
}

func mustRequest(t *testing.T, svc *Service, first, group string) RequestResult {
	t.Helper()
	res, err := svc.RequestUnit(context.Background(), person(first, group), "surgery")
	if err != nil {
		t.Fatalf("request %s: %v", first, err)
	}
	return res
}

func sameKinds(got []EntityType, want ...EntityType) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
