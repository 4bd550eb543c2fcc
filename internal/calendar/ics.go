package calendar

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"task-planner/internal/model"
	"task-planner/internal/recurrence"
)

const productID = "-//task-planner//tasks//EN"

// BuildICS renders dated tasks as all-day events. Recurring tasks carry
// their rule; undated tasks are skipped.
func BuildICS(tasks []model.Task, now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)

	for _, task := range tasks {
		if task.Date == nil {
			continue
		}
		start := task.Date.In(loc)
		event := cal.AddEvent(EventUID(task))
		event.SetDtStampTime(now.UTC())
		event.SetSummary(strings.TrimSpace(task.Title))
		if notes := strings.TrimSpace(task.Notes); notes != "" {
			event.SetDescription(notes)
		}
		event.SetAllDayStartAt(start)
		event.SetAllDayEndAt(start.AddDate(0, 0, 1))

		var categories []string
		if task.List != nil && task.List.Name != "" {
			categories = append(categories, task.List.Name)
		}
		categories = append(categories, task.LabelNames()...)
		if len(categories) > 0 {
			event.AddProperty(ics.ComponentPropertyCategories, strings.Join(categories, ","))
		}

		if pattern, ok := task.Pattern(); ok {
			if rule, ok := ToRRule(pattern, loc); ok {
				event.AddProperty(ics.ComponentPropertyRrule, rule)
			} else {
				logWarn("task %d: pattern %q has no RRULE form", task.ID, recurrence.Encode(pattern))
			}
		}
	}
	return cal.Serialize()
}

// EventUID derives a stable UID from the task id so that re-exports update
// the same calendar entries.
func EventUID(task model.Task) string {
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("task-planner:task:%d", task.ID)))
	return id.String() + "@task-planner"
}
