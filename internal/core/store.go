package core

import (
	"time"

	"bloodbank/pkg/domain"
)

// CascadePolicy decides which units disappear with their donor.
type CascadePolicy string

const (
	// CascadeAll removes every unit of the donor, including issued ones.
	CascadeAll CascadePolicy = "all"
	// CascadeInStockOnly keeps issued and expired units as provenance records.
	CascadeInStockOnly CascadePolicy = "in_stock"
)

// EntityStore holds the donor, recipient, and unit collections in insertion
// order and issues identifiers per entity kind. It is not safe for
// concurrent use; Service serialises access.
type EntityStore struct {
	donors     []Donor
	recipients []Recipient
	units      []BloodUnit
	nextID     map[EntityType]int
}

// NewEntityStore returns an empty store whose counters start at 1.
func NewEntityStore() *EntityStore {
	return &EntityStore{
		nextID: map[EntityType]int{
			EntityDonor:     1,
			EntityRecipient: 1,
			EntityUnit:      1,
		},
	}
}

func (s *EntityStore) issueID(kind EntityType) int {
	id := s.nextID[kind]
	if id < 1 {
		id = 1
	}
	s.nextID[kind] = id + 1
	return id
}

// NextID returns the identifier the next record of kind will receive.
func (s *EntityStore) NextID(kind EntityType) int {
	if id := s.nextID[kind]; id > 0 {
		return id
	}
	return 1
}

// SeedNextID sets the next identifier for kind. Called after loading a
// snapshot so restored ids are never reissued.
func (s *EntityStore) SeedNextID(kind EntityType, value int) {
	if value < 1 {
		value = 1
	}
	s.nextID[kind] = value
}

// AddDonor assigns the next donor id and appends the record.
func (s *EntityStore) AddDonor(info PersonInfo) Donor {
	donor := Donor{ID: s.issueID(EntityDonor), PersonInfo: info}
	s.donors = append(s.donors, donor)
	return donor
}

// NewRecipient assigns the next recipient id without appending it, so the
// allocation engine can decide the recipient's state first.
func (s *EntityStore) NewRecipient(info PersonInfo, reason string) Recipient {
	return Recipient{ID: s.issueID(EntityRecipient), PersonInfo: info, Reason: reason}
}

// AppendRecipient adds an already identified recipient to the collection.
func (s *EntityStore) AppendRecipient(r Recipient) {
	s.recipients = append(s.recipients, r)
}

// AddRecipient assigns the next recipient id and appends a pending record.
func (s *EntityStore) AddRecipient(info PersonInfo, reason string) Recipient {
	r := s.NewRecipient(info, reason)
	s.AppendRecipient(r)
	return r
}

// NewUnit assigns the next unit id to a fresh in-stock unit without
// appending it.
func (s *EntityStore) NewUnit(donorID int, group string, now time.Time) BloodUnit {
	return domain.NewBloodUnit(s.issueID(EntityUnit), donorID, group, now)
}

// AppendUnit adds an already identified unit to the collection.
func (s *EntityStore) AppendUnit(u BloodUnit) {
	s.units = append(s.units, u)
}

// AddUnit creates and appends an in-stock unit donated now.
func (s *EntityStore) AddUnit(donorID int, group string, now time.Time) BloodUnit {
	u := s.NewUnit(donorID, group, now)
	s.AppendUnit(u)
	return u
}

// RemoveByID removes the first record of kind with the given id.
func (s *EntityStore) RemoveByID(kind EntityType, id int) bool {
	switch kind {
	case EntityDonor:
		for i := range s.donors {
			if s.donors[i].ID == id {
				s.donors = append(s.donors[:i], s.donors[i+1:]...)
				return true
			}
		}
	case EntityRecipient:
		for i := range s.recipients {
			if s.recipients[i].ID == id {
				s.recipients = append(s.recipients[:i], s.recipients[i+1:]...)
				return true
			}
		}
	case EntityUnit:
		for i := range s.units {
			if s.units[i].ID == id {
				s.units = append(s.units[:i], s.units[i+1:]...)
				return true
			}
		}
	}
	return false
}

// RemoveUnitsByDonor drops the donor's units according to policy and
// returns how many were removed.
func (s *EntityStore) RemoveUnitsByDonor(donorID int, policy CascadePolicy) int {
	kept := s.units[:0]
	removed := 0
	for _, u := range s.units {
		drop := u.DonorID == donorID
		if drop && policy == CascadeInStockOnly && u.Status != StatusInStock {
			drop = false
		}
		if drop {
			removed++
			continue
		}
		kept = append(kept, u)
	}
	s.units = kept
	return removed
}

// FindDonor returns a donor by id.
func (s *EntityStore) FindDonor(id int) (Donor, bool) {
	for _, d := range s.donors {
		if d.ID == id {
			return d, true
		}
	}
	return Donor{}, false
}

// FindRecipient returns a copy of the recipient with id.
func (s *EntityStore) FindRecipient(id int) (Recipient, bool) {
	if r := s.recipient(id); r != nil {
		return r.Clone(), true
	}
	return Recipient{}, false
}

// FindUnit returns a copy of the unit with id.
func (s *EntityStore) FindUnit(id int) (BloodUnit, bool) {
	if u := s.unit(id); u != nil {
		return u.Clone(), true
	}
	return BloodUnit{}, false
}

func (s *EntityStore) recipient(id int) *Recipient {
	for i := range s.recipients {
		if s.recipients[i].ID == id {
			return &s.recipients[i]
		}
	}
	return nil
}

func (s *EntityStore) unit(id int) *BloodUnit {
	for i := range s.units {
		if s.units[i].ID == id {
			return &s.units[i]
		}
	}
	return nil
}

// Donors returns the donors in insertion order.
func (s *EntityStore) Donors() []Donor {
	return append([]Donor(nil), s.donors...)
}

// Recipients returns copies of the recipients in insertion order.
func (s *EntityStore) Recipients() []Recipient {
	out := make([]Recipient, 0, len(s.recipients))
	for _, r := range s.recipients {
		out = append(out, r.Clone())
	}
	return out
}

// Units returns copies of the units in insertion order.
func (s *EntityStore) Units() []BloodUnit {
	out := make([]BloodUnit, 0, len(s.units))
	for _, u := range s.units {
		out = append(out, u.Clone())
	}
	return out
}

// Replace swaps in loaded collections and re-seeds every counter to the
// maximum restored id plus one.
func (s *EntityStore) Replace(donors []Donor, recipients []Recipient, units []BloodUnit) {
	s.donors = append([]Donor(nil), donors...)
	s.recipients = make([]Recipient, 0, len(recipients))
	for _, r := range recipients {
		s.recipients = append(s.recipients, r.Clone())
	}
	s.units = make([]BloodUnit, 0, len(units))
	for _, u := range units {
		s.units = append(s.units, u.Clone())
	}

	maxDonor, maxRecipient, maxUnit := 0, 0, 0
	for _, d := range s.donors {
		maxDonor = max(maxDonor, d.ID)
	}
	for _, r := range s.recipients {
		maxRecipient = max(maxRecipient, r.ID)
	}
	for _, u := range s.units {
		maxUnit = max(maxUnit, u.ID)
	}
	s.SeedNextID(EntityDonor, maxDonor+1)
	s.SeedNextID(EntityRecipient, maxRecipient+1)
	s.SeedNextID(EntityUnit, maxUnit+1)
}
