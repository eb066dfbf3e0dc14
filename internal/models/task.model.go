package models

import (
	"time"

	"gorm.io/datatypes"
)

type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
)

type TaskComment struct {
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type Task struct {
	BaseModel
	Title       string                           `gorm:"type:text;not null"                   json:"title"`
	Description string                           `gorm:"type:text;not null;default:''"        json:"description"`
	Assignee    string                           `gorm:"type:text;not null;index"             json:"assignee"`
	Creator     string                           `gorm:"type:text;not null"                   json:"creator"`
	Status      TaskStatus                       `gorm:"type:text;not null;default:'pending'" json:"status"`
	DueDate     *time.Time                       `gorm:"type:datetime"                        json:"dueDate,omitempty"`
	Comments    datatypes.JSONSlice[TaskComment] `gorm:"type:text;not null"                   json:"comments"`
	CompletedAt *time.Time                       `gorm:"type:datetime"                        json:"completedAt,omitempty"`
}

func (Task) TableName() string { return "tasks" }

type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Assignee    string `json:"assignee"`
	DueDate     string `json:"dueDate"`
}

type TaskCommentRequest struct {
	Text string `json:"text"`
}
