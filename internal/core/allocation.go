package core

import (
	"time"

	"bloodbank/pkg/domain"
)

// AllocationEngine matches requests to inventory: first-come first-served,
// exact blood group match, one unit per request, no partial allocation.
//
// Matching compares the raw group strings while the stock and shortage
// aggregates normalise them (upper case, trimmed). A unit recorded as "a+"
// therefore counts as A+ stock but is never handed to an "A+" request.
type AllocationEngine struct{}

// RequestUnit serves a new recipient from stock or leaves it on the waiting
// list. The recipient is appended to the store in both cases.
func (AllocationEngine) RequestUnit(store *EntityStore, recipient Recipient, now time.Time) RequestResult {
	for i := range store.units {
		u := &store.units[i]
		if u.Status != StatusInStock || u.BloodGroup != recipient.BloodGroup {
			continue
		}
		u.IssueTo(recipient.ID)
		recipient.MarkReceived(now)
		store.AppendRecipient(recipient)
		issued := u.Clone()
		return RequestResult{Outcome: OutcomeIssued, Recipient: recipient.Clone(), Unit: &issued}
	}
	store.AppendRecipient(recipient)
	return RequestResult{Outcome: OutcomeQueued, Recipient: recipient.Clone()}
}

// OnDonation hands a freshly created unit, not yet appended or persisted, to
// the oldest pending recipient of the same group. It returns that recipient
// or nil when the unit stays in stock.
func (AllocationEngine) OnDonation(store *EntityStore, unit *BloodUnit, now time.Time) *Recipient {
	for i := range store.recipients {
		r := &store.recipients[i]
		if !r.Pending() || r.BloodGroup != unit.BloodGroup {
			continue
		}
		unit.IssueTo(r.ID)
		r.MarkReceived(now)
		served := r.Clone()
		return &served
	}
	return nil
}

// WaitingList returns pending recipients oldest first.
func (AllocationEngine) WaitingList(recipients []Recipient) []Recipient {
	out := make([]Recipient, 0)
	for _, r := range recipients {
		if r.Pending() {
			out = append(out, r.Clone())
		}
	}
	return out
}

// StockByGroup counts in-stock units per normalised group. All canonical
// groups are present, at zero when empty.
func (AllocationEngine) StockByGroup(units []BloodUnit) map[string]int {
	stock := emptyGroupCounts()
	for _, u := range units {
		if u.Status == StatusInStock {
			stock[domain.NormalizeGroup(u.BloodGroup)]++
		}
	}
	return stock
}

// ShortageByGroup counts pending recipients per normalised group. All
// canonical groups are present, at zero when empty.
func (AllocationEngine) ShortageByGroup(recipients []Recipient) map[string]int {
	shortage := emptyGroupCounts()
	for _, r := range recipients {
		if r.Pending() {
			shortage[domain.NormalizeGroup(r.BloodGroup)]++
		}
	}
	return shortage
}

func emptyGroupCounts() map[string]int {
	counts := make(map[string]int, len(domain.BloodGroups))
	for _, g := range domain.BloodGroups {
		counts[g] = 0
	}
	return counts
}
