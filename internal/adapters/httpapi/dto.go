package httpapi

import (
	"fmt"
	"strings"
	"time"

	"bloodbank/internal/blob"
	"bloodbank/internal/core"
	"bloodbank/pkg/domain"
)

// PersonRequest is the body of POST /donors and POST /recipients. Dates are
// YYYY-MM-DD.
type PersonRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	FatherName  string `json:"father_name,omitempty"`
	MotherName  string `json:"mother_name,omitempty"`
	DateOfBirth string `json:"date_of_birth"`
	MobileNo    string `json:"mobile_no"`
	Gender      string `json:"gender,omitempty"`
	Email       string `json:"email,omitempty"`
	City        string `json:"city,omitempty"`
	Address     string `json:"address,omitempty"`
	BloodGroup  string `json:"blood_group"`
	Reason      string `json:"reason,omitempty"`
}

// Validate checks required fields and converts the request to PersonInfo.
// The blood group is normalized so it matches stock recorded through the API.
func (p PersonRequest) Validate() (core.PersonInfo, error) {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"first_name", p.FirstName},
		{"last_name", p.LastName},
		{"mobile_no", p.MobileNo},
		{"blood_group", p.BloodGroup},
		{"date_of_birth", p.DateOfBirth},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return core.PersonInfo{}, fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	if !domain.IsCanonicalGroup(p.BloodGroup) {
		return core.PersonInfo{}, fmt.Errorf("blood_group %q is not one of %s", p.BloodGroup, strings.Join(domain.BloodGroups, ", "))
	}
	dob, err := time.Parse(time.DateOnly, strings.TrimSpace(p.DateOfBirth))
	if err != nil {
		return core.PersonInfo{}, fmt.Errorf("date_of_birth must be YYYY-MM-DD")
	}
	return core.PersonInfo{
		FirstName:   strings.TrimSpace(p.FirstName),
		LastName:    strings.TrimSpace(p.LastName),
		FatherName:  p.FatherName,
		MotherName:  p.MotherName,
		DateOfBirth: dob,
		MobileNo:    strings.TrimSpace(p.MobileNo),
		Gender:      p.Gender,
		Email:       p.Email,
		City:        p.City,
		Address:     p.Address,
		BloodGroup:  domain.NormalizeGroup(p.BloodGroup),
	}, nil
}

// DonationResponse is returned by POST /donors.
type DonationResponse struct {
	Donor        core.Donor      `json:"donor"`
	Unit         core.BloodUnit  `json:"unit"`
	AutoIssuedTo *core.Recipient `json:"auto_issued_to,omitempty"`
	Persisted    bool            `json:"persisted"`
}

// RequestResponse is returned by POST /recipients.
type RequestResponse struct {
	Outcome   core.AllocationOutcome `json:"outcome"`
	Recipient core.Recipient         `json:"recipient"`
	Unit      *core.BloodUnit        `json:"unit,omitempty"`
	Persisted bool                   `json:"persisted"`
}

// DeleteResponse is returned by the DELETE endpoints.
type DeleteResponse struct {
	RemovedUnits int  `json:"removed_units"`
	Persisted    bool `json:"persisted"`
}

// UnitResponse is returned by POST /units/{id}/use.
type UnitResponse struct {
	Unit      core.BloodUnit `json:"unit"`
	Persisted bool           `json:"persisted"`
}

// SweepResponse is returned by POST /admin/sweep.
type SweepResponse struct {
	Swept     []int `json:"swept"`
	Persisted bool  `json:"persisted"`
}

// ArchiveList is returned by GET /admin/archives.
type ArchiveList struct {
	Archives []blob.Info `json:"archives"`
	Reports  []blob.Info `json:"reports"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}
