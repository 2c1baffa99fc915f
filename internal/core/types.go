package core

import "bloodbank/pkg/domain"

type (
	EntityType        = domain.EntityType
	UnitStatus        = domain.UnitStatus
	PersonInfo        = domain.PersonInfo
	Donor             = domain.Donor
	Recipient         = domain.Recipient
	BloodUnit         = domain.BloodUnit
	Result            = domain.Result
	Violation         = domain.Violation
	RequestResult     = domain.RequestResult
	DonationResult    = domain.DonationResult
	DeleteResult      = domain.DeleteResult
	AllocationOutcome = domain.AllocationOutcome
	SnapshotStore     = domain.SnapshotStore
	Bucket            = domain.Bucket
)

const (
	EntityDonor     = domain.EntityDonor
	EntityRecipient = domain.EntityRecipient
	EntityUnit      = domain.EntityUnit
)

const (
	StatusInStock = domain.StatusInStock
	StatusIssued  = domain.StatusIssued
	StatusExpired = domain.StatusExpired
)

const (
	OutcomeIssued = domain.OutcomeIssued
	OutcomeQueued = domain.OutcomeQueued
)
