package core

import (
	"errors"
	"testing"

	"bloodbank/pkg/domain"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to UnitStatus
		ok       bool
	}{
		{StatusInStock, StatusIssued, true},
		{StatusInStock, StatusExpired, true},
		{StatusIssued, StatusInStock, false},
		{StatusIssued, StatusExpired, false},
		{StatusExpired, StatusInStock, false},
		{StatusExpired, StatusIssued, false},
		{StatusInStock, StatusInStock, false},
		{"QUARANTINED", StatusIssued, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.ok {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}

func TestTransitionBlocksIllegalMove(t *testing.T) {
	m := NewUnitLifecycleManager(0)
	unit := domain.NewBloodUnit(1, 1, "A+", baseDay)
	unit.Status = StatusExpired
	res := m.Transition(&unit, StatusIssued)
	if !res.HasBlocking() || res.Violations[0].Rule != lifecycleRuleName || res.Violations[0].EntityID != 1 {
		t.Fatalf("expected blocking lifecycle violation, got %+v", res)
	}
	if unit.Status != StatusExpired {
		t.Fatalf("illegal transition must not change status")
	}
	if m.WarningDays() != domain.DefaultExpiryWarningDays {
		t.Fatalf("non-positive window must fall back to default, got %d", m.WarningDays())
	}
}

func TestSweepExpired(t *testing.T) {
	m := NewUnitLifecycleManager(7)
	old := domain.NewBloodUnit(1, 1, "A+", baseDay.AddDate(0, 0, -43))
	today := domain.NewBloodUnit(2, 1, "A+", baseDay.AddDate(0, 0, -42))
	fresh := domain.NewBloodUnit(3, 1, "A+", baseDay)
	issued := domain.NewBloodUnit(4, 1, "A+", baseDay.AddDate(0, 0, -60))
	issued.IssueTo(1)
	units := []BloodUnit{old, today, fresh, issued}

	swept := m.SweepExpired(units, baseDay)
	if len(swept) != 1 || swept[0] != 1 {
		t.Fatalf("expected only unit 1 swept, got %v", swept)
	}
	if units[0].Status != StatusExpired {
		t.Fatalf("unit past expiry must be EXPIRED")
	}
	if units[1].Status != StatusInStock {
		t.Fatalf("unit expiring today must stay IN_STOCK")
	}
	if units[3].Status != StatusIssued {
		t.Fatalf("issued unit must not be swept")
	}
	if again := m.SweepExpired(units, baseDay); len(again) != 0 {
		t.Fatalf("second sweep must report no change, got %v", again)
	}
}

func TestExpiringSoonBoundaries(t *testing.T) {
	m := NewUnitLifecycleManager(7)
	atEdge := domain.NewBloodUnit(1, 1, "A+", baseDay.AddDate(0, 0, 7-domain.ShelfLifeDays))
	beyond := domain.NewBloodUnit(2, 1, "A+", baseDay.AddDate(0, 0, 8-domain.ShelfLifeDays))
	today := domain.NewBloodUnit(3, 1, "A+", baseDay.AddDate(0, 0, -domain.ShelfLifeDays))

	if !atEdge.ExpiryDate.Equal(domain.CivilDate(baseDay).AddDate(0, 0, 7)) {
		t.Fatalf("fixture expiry = %v", atEdge.ExpiryDate)
	}
	if !m.IsExpiringSoon(atEdge, baseDay) {
		t.Fatalf("unit expiring today+7 must be expiring soon")
	}
	if m.IsExpiringSoon(beyond, baseDay) {
		t.Fatalf("unit expiring today+8 must not be expiring soon")
	}
	if m.IsExpired(today, baseDay) || !m.IsExpiringSoon(today, baseDay) {
		t.Fatalf("unit expiring today must be unexpired and expiring soon")
	}
	got := m.ExpiringSoon([]BloodUnit{atEdge, beyond, today}, baseDay)
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
		t.Fatalf("unexpected expiring list %+v", got)
	}
}

func TestMarkUsed(t *testing.T) {
	m := NewUnitLifecycleManager(7)
	unit := domain.NewBloodUnit(1, 1, "A+", baseDay)
	res, err := m.MarkUsed(&unit)
	if err != nil || res.HasBlocking() {
		t.Fatalf("mark used: %v %+v", err, res)
	}
	if unit.Status != StatusIssued || unit.RecipientID != nil {
		t.Fatalf("legacy path must issue without recipient: %+v", unit)
	}
	res, err = m.MarkUsed(&unit)
	if !errors.Is(err, domain.ErrUnitNotInStock) || !res.HasBlocking() {
		t.Fatalf("expected ErrUnitNotInStock with violation, got %v %+v", err, res)
	}
}
