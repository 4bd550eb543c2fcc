package timeparse

import (
	"fmt"
	"strings"
	"time"

	"github.com/tj/go-naturaldate"
)

var dateTimeLayouts = []string{"2006-01-02 15:04", "2006-01-02T15:04", "02.01.2006 15:04"}

var dateLayouts = []string{time.DateOnly, "02.01.2006"}

func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

// ParseDate reads a calendar day such as "2024-03-01", "tomorrow" or
// "next friday" and returns its midnight in loc. Empty input yields the
// zero time.
func ParseDate(text string, now time.Time, loc *time.Location) (time.Time, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, nil
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, text, loc); err == nil {
			return t, nil
		}
	}
	parsed, err := naturaldate.Parse(text, now.In(loc), naturaldate.WithDirection(naturaldate.Future))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", text, err)
	}
	parsed = parsed.In(loc)
	return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, loc), nil
}

// ParseDateTime is like ParseDate but keeps the clock, for reminders
// such as "2024-03-01 18:30" or "tomorrow at 9am".
func ParseDateTime(text string, now time.Time, loc *time.Location) (time.Time, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, fmt.Errorf("date and time are required")
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, text, loc); err == nil {
			return t, nil
		}
	}
	parsed, err := naturaldate.Parse(text, now.In(loc), naturaldate.WithDirection(naturaldate.Future))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date and time %q: %w", text, err)
	}
	return parsed.In(loc), nil
}

// ParseClock parses HH:MM.
func ParseClock(clock string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(clock))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid clock %q, expected HH:MM", clock)
	}
	return t.Hour(), t.Minute(), nil
}
