package models

import (
	"time"
)

// BaseModel rows are hard-deleted; nothing in this schema is soft-deleted.
type BaseModel struct {
	ID        int       `gorm:"type:integer;primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime"                        json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"                        json:"updatedAt"`
}
