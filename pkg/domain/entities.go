// Package domain defines the persistent blood bank records, value types, and
// outcome primitives shared by the engine and its storage backends.
package domain

import (
	"strings"
	"time"
)

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used as persistence buckets.
const (
	// EntityDonor identifies a donor record.
	EntityDonor EntityType = "donor"
	// EntityRecipient identifies a recipient (transfusion request) record.
	EntityRecipient EntityType = "recipient"
	// EntityUnit identifies a blood unit inventory record.
	EntityUnit EntityType = "unit"
)

// EntityTypes returns every persisted entity kind in load order.
func EntityTypes() []EntityType {
	return []EntityType{EntityDonor, EntityRecipient, EntityUnit}
}

// UnitStatus represents the inventory state of a blood unit.
type UnitStatus string

// Unit statuses. ISSUED and EXPIRED are terminal.
const (
	StatusInStock UnitStatus = "IN_STOCK"
	StatusIssued  UnitStatus = "ISSUED"
	StatusExpired UnitStatus = "EXPIRED"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s UnitStatus) IsTerminal() bool {
	return s == StatusIssued || s == StatusExpired
}

// Canonical ABO/Rh groups in display order.
var BloodGroups = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

// NormalizeGroup upper-cases and trims a free-form blood group string.
func NormalizeGroup(group string) string {
	return strings.ToUpper(strings.TrimSpace(group))
}

// IsCanonicalGroup reports whether group, once normalized, is one of BloodGroups.
func IsCanonicalGroup(group string) bool {
	n := NormalizeGroup(group)
	for _, g := range BloodGroups {
		if g == n {
			return true
		}
	}
	return false
}

const (
	// ShelfLifeDays is the number of days a donated unit stays usable.
	ShelfLifeDays = 42
	// DefaultExpiryWarningDays is the look-ahead used for expiring-soon reports.
	DefaultExpiryWarningDays = 7
)

// CivilDate truncates t to midnight UTC of its calendar day. Unit dates are
// tracked with day granularity.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// PersonInfo is the attribute bundle shared by donors and recipients.
type PersonInfo struct {
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	FatherName  string    `json:"father_name,omitempty"`
	MotherName  string    `json:"mother_name,omitempty"`
	DateOfBirth time.Time `json:"date_of_birth"`
	MobileNo    string    `json:"mobile_no"`
	Gender      string    `json:"gender,omitempty"`
	Email       string    `json:"email,omitempty"`
	City        string    `json:"city,omitempty"`
	Address     string    `json:"address,omitempty"`
	BloodGroup  string    `json:"blood_group"`
}

// FullName joins first and last name.
func (p PersonInfo) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Donor is a person who gave one unit of blood.
type Donor struct {
	ID int `json:"id"`
	PersonInfo
}

// Recipient is a transfusion request. A recipient without DateReceived is on
// the waiting list.
type Recipient struct {
	ID int `json:"id"`
	PersonInfo
	Reason       string     `json:"reason,omitempty"`
	DateReceived *time.Time `json:"date_received,omitempty"`
}

// Pending reports whether the recipient is still waiting for a unit.
func (r Recipient) Pending() bool { return r.DateReceived == nil }

// MarkReceived stamps the recipient as served. It only takes effect once.
func (r *Recipient) MarkReceived(now time.Time) bool {
	if r.DateReceived != nil {
		return false
	}
	d := CivilDate(now)
	r.DateReceived = &d
	return true
}

// BloodUnit is one donation tracked as a perishable inventory item.
type BloodUnit struct {
	ID           int        `json:"id"`
	DonorID      int        `json:"donor_id"`
	BloodGroup   string     `json:"blood_group"`
	DonationDate time.Time  `json:"donation_date"`
	ExpiryDate   time.Time  `json:"expiry_date"`
	Status       UnitStatus `json:"status"`
	RecipientID  *int       `json:"recipient_id,omitempty"`
}

// NewBloodUnit builds an in-stock unit donated on now.
func NewBloodUnit(id, donorID int, group string, now time.Time) BloodUnit {
	donated := CivilDate(now)
	return BloodUnit{
		ID:           id,
		DonorID:      donorID,
		BloodGroup:   group,
		DonationDate: donated,
		ExpiryDate:   donated.AddDate(0, 0, ShelfLifeDays),
		Status:       StatusInStock,
	}
}

// IssueTo marks the unit as issued to the given recipient.
func (u *BloodUnit) IssueTo(recipientID int) {
	id := recipientID
	u.Status = StatusIssued
	u.RecipientID = &id
}

// IsExpired reports whether now falls strictly after the expiry date.
// A unit expiring today is still usable today.
func (u BloodUnit) IsExpired(now time.Time) bool {
	return CivilDate(now).After(CivilDate(u.ExpiryDate))
}

// IsExpiringSoon reports whether an in-stock, unexpired unit expires within
// windowDays of now (inclusive).
func (u BloodUnit) IsExpiringSoon(now time.Time, windowDays int) bool {
	if u.Status != StatusInStock || u.IsExpired(now) {
		return false
	}
	warning := CivilDate(now).AddDate(0, 0, windowDays)
	return !CivilDate(u.ExpiryDate).After(warning)
}

// Clone returns a deep copy of the unit.
func (u BloodUnit) Clone() BloodUnit {
	cp := u
	if u.RecipientID != nil {
		id := *u.RecipientID
		cp.RecipientID = &id
	}
	return cp
}

// Clone returns a deep copy of the recipient.
func (r Recipient) Clone() Recipient {
	cp := r
	if r.DateReceived != nil {
		d := *r.DateReceived
		cp.DateReceived = &d
	}
	return cp
}
