package models

import "time"

type HistoryAction string

const (
	ActionCreated  HistoryAction = "CREATED"
	ActionUpdated  HistoryAction = "UPDATED"
	ActionArchived HistoryAction = "ARCHIVED"
	ActionRestored HistoryAction = "RESTORED"
	ActionDeleted  HistoryAction = "DELETED"
)

// HistoryEntry is insert-only. ContractID has no foreign key; entries
// outlive the contract they describe.
type HistoryEntry struct {
	ID         int           `gorm:"type:integer;primaryKey;autoIncrement" json:"id"`
	ContractID int           `gorm:"not null;index"                        json:"contractId"`
	UserID     *int          `gorm:"type:integer"                          json:"userId"`
	Username   string        `gorm:"type:text;not null;default:''"         json:"username"`
	Action     HistoryAction `gorm:"type:text;not null"                    json:"action"`
	Details    string        `gorm:"type:text;not null;default:''"         json:"details"`
	CreatedAt  time.Time     `gorm:"autoCreateTime"                        json:"timestamp"`
}

func (HistoryEntry) TableName() string { return "contract_history" }
