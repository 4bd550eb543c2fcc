package model

import (
	"time"

	"gorm.io/datatypes"
)

// History actions.
const (
	ActionCreated   = "created"
	ActionUpdated   = "updated"
	ActionCompleted = "completed"
	ActionRolled    = "rolled"
	ActionReopened  = "reopened"
)

// TaskHistory is an append-only log entry for a task.
type TaskHistory struct {
	ID        uint   `gorm:"primaryKey"`
	TaskID    uint   `gorm:"index"`
	Action    string `gorm:"size:32"`
	Details   datatypes.JSON
	CreatedAt time.Time
}
