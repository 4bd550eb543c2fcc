package model

import (
	"strings"
	"time"

	"task-planner/internal/recurrence"
)

// Priority levels, lowest first.
const (
	PriorityNone = iota
	PriorityLow
	PriorityMedium
	PriorityHigh
)

// Task represents a single item in the planner. Date is the anchor used for
// recurrence; RecurringPattern holds the pattern as JSON or, for old rows,
// a bare type keyword.
type Task struct {
	ID               uint  `gorm:"primaryKey"`
	UserID           uint  `gorm:"index"`
	ListID           *uint `gorm:"index"`
	Title            string
	Notes            string
	Priority         int `gorm:"default:0"`
	Date             *time.Time
	IsCompleted      bool `gorm:"default:false"`
	CompletedAt      *time.Time
	IsRecurring      bool `gorm:"default:false"`
	RecurringPattern string
	CreatedAt        time.Time
	UpdatedAt        time.Time

	List        *List        `gorm:"foreignKey:ListID"`
	Labels      []Label      `gorm:"many2many:task_labels;"`
	Subtasks    []Subtask    `gorm:"foreignKey:TaskID"`
	Reminders   []Reminder   `gorm:"foreignKey:TaskID"`
	Attachments []Attachment `gorm:"foreignKey:TaskID"`
}

// Series exposes the task to the recurrence calculator.
func (t Task) Series() recurrence.Series {
	s := recurrence.Series{Recurring: t.IsRecurring, Date: t.Date}
	if raw := strings.TrimSpace(t.RecurringPattern); raw != "" {
		s.Pattern = recurrence.Resolve(raw)
	}
	return s
}

// Pattern returns the parsed recurrence pattern of a recurring task.
func (t Task) Pattern() (recurrence.Pattern, bool) {
	if !t.IsRecurring {
		return recurrence.Pattern{}, false
	}
	return recurrence.Parse(t.Series().Pattern), true
}

// LabelNames lists label names in stored order.
func (t Task) LabelNames() []string {
	names := make([]string, 0, len(t.Labels))
	for _, l := range t.Labels {
		names = append(names, l.Name)
	}
	return names
}

// Subtask is a checklist item inside a task.
type Subtask struct {
	ID        uint `gorm:"primaryKey"`
	TaskID    uint `gorm:"index"`
	Title     string
	Done      bool `gorm:"default:false"`
	Position  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Reminder fires a notification for a task at RemindAt.
type Reminder struct {
	ID        uint      `gorm:"primaryKey"`
	TaskID    uint      `gorm:"index"`
	RemindAt  time.Time `gorm:"index"`
	SentAt    *time.Time
	CreatedAt time.Time
	Task      *Task `gorm:"foreignKey:TaskID"`
}

// Attachment describes a file stored outside the database under StorageKey.
type Attachment struct {
	ID          uint   `gorm:"primaryKey"`
	TaskID      uint   `gorm:"index"`
	FileName    string
	StorageKey  string `gorm:"uniqueIndex"`
	ContentType string
	Size        int64
	CreatedAt   time.Time
}
