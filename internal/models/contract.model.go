package models

import (
	"time"

	"gorm.io/datatypes"
)

type Note struct {
	Text      string    `json:"text"`
	Author    string    `json:"author,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Contract is one client's insurance policy. LastUpdated is maintained by the
// caller rather than by GORM so imports can carry the spreadsheet's value.
type Contract struct {
	ID             int                       `gorm:"type:integer;primaryKey;autoIncrement" json:"id"`
	ClientName     string                    `gorm:"type:text;not null"                    json:"klientas"`
	Salesperson    string                    `gorm:"type:text;not null;default:''"         json:"pardavejas"`
	InsuranceType  string                    `gorm:"type:text;not null;default:''"         json:"draudimoRusis"`
	PolicyNo       string                    `gorm:"type:text;not null"                    json:"policyNo"`
	ValidFrom      time.Time                 `gorm:"type:datetime;not null"                json:"galiojaNuo"`
	ValidUntil     time.Time                 `gorm:"type:datetime;not null;index"          json:"galiojaIki"`
	RegistrationNr string                    `gorm:"type:text;not null;default:''"         json:"valstybinisNr"`
	YearlyPremium  float64                   `gorm:"type:real;not null;default:0"          json:"metineIsmoka"`
	PayoutValue    float64                   `gorm:"type:real;not null;default:0"          json:"ismoka"`
	Notes          datatypes.JSONSlice[Note] `gorm:"type:text;not null"                    json:"notes"`
	LastUpdated    time.Time                 `gorm:"type:datetime;not null"                json:"lastUpdated"`
	IsArchived     bool                      `gorm:"not null;default:false"                json:"isArchived"`
	CreatedAt      time.Time                 `gorm:"autoCreateTime"                        json:"createdAt"`
}

func (Contract) TableName() string { return "contracts" }

// ContractInput is the loosely-typed create/replace payload. Dates are strings
// so any format the date validator understands is accepted.
type ContractInput struct {
	ClientName     string  `json:"klientas"`
	Salesperson    string  `json:"pardavejas"`
	InsuranceType  string  `json:"draudimoRusis"`
	PolicyNo       string  `json:"policyNo"`
	ValidFrom      string  `json:"galiojaNuo"`
	ValidUntil     string  `json:"galiojaIki"`
	RegistrationNr string  `json:"valstybinisNr"`
	YearlyPremium  float64 `json:"metineIsmoka"`
	PayoutValue    float64 `json:"ismoka"`
	Notes          []Note  `json:"notes"`
}

// ContractPatch carries a partial update; nil fields keep their current value.
type ContractPatch struct {
	ClientName     *string  `json:"klientas"`
	Salesperson    *string  `json:"pardavejas"`
	InsuranceType  *string  `json:"draudimoRusis"`
	PolicyNo       *string  `json:"policyNo"`
	ValidFrom      *string  `json:"galiojaNuo"`
	ValidUntil     *string  `json:"galiojaIki"`
	RegistrationNr *string  `json:"valstybinisNr"`
	YearlyPremium  *float64 `json:"metineIsmoka"`
	PayoutValue    *float64 `json:"ismoka"`
	Notes          *[]Note  `json:"notes"`
}

type ContractSort string

const (
	SortValidUntilAsc   ContractSort = "valid_until_asc"
	SortLastUpdatedDesc ContractSort = "last_updated_desc"
)

type ContractFilter struct {
	Archived bool
	Sort     ContractSort
	Search   string
}

type ContractWithStatus struct {
	Contract
	Status ExpiryStatus `json:"status"`
	View   ContractView `json:"view"`
}

type ContractSummary struct {
	Active   int                  `json:"active"`
	Ended    int                  `json:"ended"`
	Archived int                  `json:"archived"`
	ByStatus map[ExpiryStatus]int `json:"byStatus"`
}

type NoteRequest struct {
	Text string `json:"text"`
}
