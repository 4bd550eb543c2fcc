package calendar

import (
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-planner/internal/model"
)

func TestBuildICS(t *testing.T) {
	anchor := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	tasks := []model.Task{
		{ID: 1, Title: "Standup", Date: &anchor, IsRecurring: true, RecurringPattern: "weekday"},
		{ID: 2, Title: "Someday"},
		{ID: 3, Title: "Dentist", Notes: "bring card", Date: &anchor, List: &model.List{Name: "Health"}, Labels: []model.Label{{Name: "care"}}},
	}

	out := BuildICS(tasks, anchor, time.UTC)
	assert.Contains(t, out, "RRULE:FREQ=DAILY")

	cal, err := ics.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 2)

	assert.Equal(t, EventUID(tasks[0]), events[0].Id())
	assert.Equal(t, "Standup", events[0].GetProperty(ics.ComponentPropertySummary).Value)
	assert.Equal(t, "20240115", events[0].GetProperty(ics.ComponentPropertyDtStart).Value)
	assert.Equal(t, "20240116", events[0].GetProperty(ics.ComponentPropertyDtEnd).Value)
	rule := events[0].GetProperty(ics.ComponentPropertyRrule)
	require.NotNil(t, rule)
	assert.Contains(t, rule.Value, "BYDAY=MO")

	assert.Equal(t, "Dentist", events[1].GetProperty(ics.ComponentPropertySummary).Value)
	assert.Equal(t, "bring card", events[1].GetProperty(ics.ComponentPropertyDescription).Value)
	assert.Nil(t, events[1].GetProperty(ics.ComponentPropertyRrule))
}

func TestEventUIDIsStable(t *testing.T) {
	a := EventUID(model.Task{ID: 7})
	assert.Equal(t, a, EventUID(model.Task{ID: 7, Title: "renamed"}))
	assert.NotEqual(t, a, EventUID(model.Task{ID: 8}))
	assert.True(t, strings.HasSuffix(a, "@task-planner"))
}
