package domain

// AllocationOutcome names how a transfusion request was handled.
type AllocationOutcome string

// Request outcomes.
const (
	OutcomeIssued AllocationOutcome = "issued"
	OutcomeQueued AllocationOutcome = "queued"
)

// RequestResult is returned for every transfusion request.
type RequestResult struct {
	Outcome   AllocationOutcome `json:"outcome"`
	Recipient Recipient         `json:"recipient"`
	Unit      *BloodUnit        `json:"unit,omitempty"`
}

// Issued reports whether a unit was handed out immediately.
func (r RequestResult) Issued() bool { return r.Outcome == OutcomeIssued }

// DonationResult is returned for every donation intake.
type DonationResult struct {
	Donor        Donor      `json:"donor"`
	Unit         BloodUnit  `json:"unit"`
	AutoIssuedTo *Recipient `json:"auto_issued_to,omitempty"`
}

// DeleteResult reports a delete-by-id outcome.
type DeleteResult struct {
	Found        bool `json:"found"`
	RemovedUnits int  `json:"removed_units,omitempty"`
}

// Severity captures violation outcomes.
type Severity string

// Violation severities.
const (
	SeverityBlock Severity = "block"
	SeverityWarn  Severity = "warn"
)

// Violation describes why a state change was refused or flagged.
type Violation struct {
	Rule     string     `json:"rule"`
	Severity Severity   `json:"severity"`
	Message  string     `json:"message"`
	Entity   EntityType `json:"entity"`
	EntityID int        `json:"entity_id"`
}

// Result aggregates violations produced by lifecycle checks.
type Result struct {
	Violations []Violation `json:"violations,omitempty"`
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}
