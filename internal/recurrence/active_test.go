package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestActive(t *testing.T) {
	today := time.Date(2024, time.June, 10, 15, 45, 0, 0, time.UTC)
	tomorrow := today.AddDate(0, 0, 1).Format(time.DateOnly)
	yesterday := today.AddDate(0, 0, -1).Format(time.DateOnly)

	tests := []struct {
		name   string
		series Series
		want   bool
	}{
		{name: "not recurring", series: Series{Recurring: false, Pattern: Encoded(`{"type":"daily","endDate":"` + yesterday + `"}`)}, want: true},
		{name: "no pattern", series: Series{Recurring: true}, want: true},
		{name: "no end date", series: Series{Recurring: true, Pattern: Legacy("weekly")}, want: true},
		{name: "ends tomorrow", series: Series{Recurring: true, Pattern: Encoded(`{"type":"daily","endDate":"` + tomorrow + `"}`)}, want: true},
		{name: "ends today", series: Series{Recurring: true, Pattern: Encoded(`{"type":"daily","endDate":"2024-06-10"}`)}, want: true},
		{name: "ended yesterday", series: Series{Recurring: true, Pattern: Encoded(`{"type":"daily","endDate":"` + yesterday + `"}`)}, want: false},
		{name: "timestamp end date", series: Series{Recurring: true, Pattern: Encoded(`{"type":"daily","endDate":"2024-06-10T00:00:00Z"}`)}, want: true},
		{name: "unreadable end date", series: Series{Recurring: true, Pattern: Encoded(`{"type":"daily","endDate":"soon"}`)}, want: true},
		{name: "garbage pattern", series: Series{Recurring: true, Pattern: Resolve("{{{")}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Active(tt.series, today))
		})
	}
}

func TestActiveRelativeToNow(t *testing.T) {
	now := time.Now()
	tomorrow := Encoded(`{"type":"daily","endDate":"` + now.AddDate(0, 0, 1).Format(time.DateOnly) + `"}`)
	yesterday := Encoded(`{"type":"daily","endDate":"` + now.AddDate(0, 0, -1).Format(time.DateOnly) + `"}`)

	assert.True(t, Active(Series{Recurring: true, Pattern: tomorrow}, now))
	assert.False(t, Active(Series{Recurring: true, Pattern: yesterday}, now))
}
