package models

import (
	"math"
	"time"
)

type ExpiryStatus string

const (
	StatusValid   ExpiryStatus = "VALID"
	StatusWarning ExpiryStatus = "WARNING"
	StatusExpired ExpiryStatus = "EXPIRED"
)

// WarningWindowDays is inclusive: a contract ending in exactly this many days
// is still WARNING.
const WarningWindowDays = 30

type ContractView string

const (
	ViewActive   ContractView = "active"
	ViewEnded    ContractView = "ended"
	ViewArchived ContractView = "archived"
)

func ParseContractView(s string) (ContractView, bool) {
	switch ContractView(s) {
	case ViewActive, ViewEnded, ViewArchived:
		return ContractView(s), true
	case "":
		return ViewActive, true
	default:
		return "", false
	}
}

// DateOnly keeps the calendar date of t and drops the time of day, in UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ClassifyStatus(validUntil, today time.Time) ExpiryStatus {
	diff := DateOnly(validUntil).Sub(DateOnly(today))
	diffDays := int(math.Ceil(diff.Hours() / 24))

	switch {
	case diffDays < 0:
		return StatusExpired
	case diffDays <= WarningWindowDays:
		return StatusWarning
	default:
		return StatusValid
	}
}

// ViewOf places a contract in exactly one of the three list views. The archived
// flag wins over the date-derived status.
func ViewOf(contract Contract, today time.Time) ContractView {
	if contract.IsArchived {
		return ViewArchived
	}
	if ClassifyStatus(contract.ValidUntil, today) == StatusExpired {
		return ViewEnded
	}
	return ViewActive
}

func WithStatus(contract Contract, today time.Time) ContractWithStatus {
	return ContractWithStatus{
		Contract: contract,
		Status:   ClassifyStatus(contract.ValidUntil, today),
		View:     ViewOf(contract, today),
	}
}
