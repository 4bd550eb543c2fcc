package service

import (
	"time"

	"task-planner/internal/model"
	"task-planner/internal/recurrence"
)

// RecurrenceView is what the UI shows about a recurring task.
type RecurrenceView struct {
	Pattern recurrence.Pattern `json:"pattern"`
	Summary string             `json:"summary"`
	Next    *time.Time         `json:"next,omitempty"`
	Active  bool               `json:"active"`
}

// DescribeRecurrence evaluates a task's pattern in loc. Non-recurring tasks
// report ok=false.
func DescribeRecurrence(task model.Task, loc *time.Location, now time.Time) (RecurrenceView, bool) {
	pattern, ok := task.Pattern()
	if !ok {
		return RecurrenceView{}, false
	}
	s := seriesIn(task, loc)
	view := RecurrenceView{
		Pattern: pattern,
		Summary: recurrence.Summarize(pattern),
		Active:  recurrence.Active(s, now.In(loc)),
	}
	if next, ok := recurrence.Next(s); ok {
		view.Next = &next
	}
	return view, true
}

// seriesIn moves the stored anchor into loc so that calendar arithmetic
// follows the user's wall clock.
func seriesIn(task model.Task, loc *time.Location) recurrence.Series {
	s := task.Series()
	if s.Date != nil && loc != nil {
		local := s.Date.In(loc)
		s.Date = &local
	}
	return s
}
