package core

import (
	"fmt"
	"time"

	"bloodbank/pkg/domain"
)

const lifecycleRuleName = "unit_lifecycle_transition"

var unitTransitions = map[UnitStatus]map[UnitStatus]struct{}{
	StatusInStock: toSet(StatusIssued, StatusExpired),
	StatusIssued:  {},
	StatusExpired: {},
}

func toSet(values ...UnitStatus) map[UnitStatus]struct{} {
	set := make(map[UnitStatus]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// UnitLifecycleManager owns the unit state machine: IN_STOCK may move to
// ISSUED or EXPIRED, both of which are terminal.
type UnitLifecycleManager struct {
	warningDays int
}

// NewUnitLifecycleManager builds a manager reporting units expiring within
// warningDays. Non-positive values fall back to the default window.
func NewUnitLifecycleManager(warningDays int) *UnitLifecycleManager {
	if warningDays <= 0 {
		warningDays = domain.DefaultExpiryWarningDays
	}
	return &UnitLifecycleManager{warningDays: warningDays}
}

// WarningDays returns the expiring-soon look-ahead.
func (m *UnitLifecycleManager) WarningDays() int { return m.warningDays }

// CanTransition reports whether from -> to is a legal unit transition.
func CanTransition(from, to UnitStatus) bool {
	allowed, ok := unitTransitions[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}

// Transition applies a status change, returning a blocking violation when
// the move is illegal.
func (m *UnitLifecycleManager) Transition(unit *BloodUnit, to UnitStatus) Result {
	if CanTransition(unit.Status, to) {
		unit.Status = to
		return Result{}
	}
	return Result{Violations: []Violation{{
		Rule:     lifecycleRuleName,
		Severity: domain.SeverityBlock,
		Message:  fmt.Sprintf("unit %d cannot move from %s to %s", unit.ID, unit.Status, to),
		Entity:   EntityUnit,
		EntityID: unit.ID,
	}}}
}

// SweepExpired marks every in-stock unit whose expiry has passed as EXPIRED
// and returns the ids it changed. An empty result means nothing changed.
func (m *UnitLifecycleManager) SweepExpired(units []BloodUnit, now time.Time) []int {
	var swept []int
	for i := range units {
		if units[i].Status != StatusInStock || !units[i].IsExpired(now) {
			continue
		}
		if res := m.Transition(&units[i], StatusExpired); !res.HasBlocking() {
			swept = append(swept, units[i].ID)
		}
	}
	return swept
}

// IsExpired reports whether now is strictly after the unit's expiry date.
func (m *UnitLifecycleManager) IsExpired(unit BloodUnit, now time.Time) bool {
	return unit.IsExpired(now)
}

// IsExpiringSoon reports whether an in-stock unit expires inside the window.
func (m *UnitLifecycleManager) IsExpiringSoon(unit BloodUnit, now time.Time) bool {
	return unit.IsExpiringSoon(now, m.warningDays)
}

// ExpiringSoon filters units down to those inside the warning window.
func (m *UnitLifecycleManager) ExpiringSoon(units []BloodUnit, now time.Time) []BloodUnit {
	out := make([]BloodUnit, 0)
	for _, u := range units {
		if m.IsExpiringSoon(u, now) {
			out = append(out, u.Clone())
		}
	}
	return out
}

// MarkUsed issues a unit without linking a recipient. This is the legacy
// manual path; allocation goes through AllocationEngine.
func (m *UnitLifecycleManager) MarkUsed(unit *BloodUnit) (Result, error) {
	if unit.Status != StatusInStock {
		res := m.Transition(unit, StatusIssued)
		return res, fmt.Errorf("unit %d is %s: %w", unit.ID, unit.Status, domain.ErrUnitNotInStock)
	}
	return m.Transition(unit, StatusIssued), nil
}
