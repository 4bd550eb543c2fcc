package recurrence

import (
	"sort"
	"strings"
	"time"
)

// Type names the way a series repeats.
type Type string

const (
	Daily   Type = "daily"
	Weekly  Type = "weekly"
	Weekday Type = "weekday"
	Monthly Type = "monthly"
	Yearly  Type = "yearly"
	Custom  Type = "custom"
)

// DefaultType is used whenever the stored type is missing or unknown.
const DefaultType = Daily

// Types lists every supported type in display order.
var Types = []Type{Daily, Weekly, Weekday, Monthly, Yearly, Custom}

// ParseType reports whether s is one of the supported type keywords.
func ParseType(s string) (Type, bool) {
	for _, t := range Types {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Pattern is a validated recurrence rule. Build it with Validate or Parse.
type Pattern struct {
	Type       Type   `json:"type"`
	Interval   int    `json:"interval"`
	DaysOfWeek []int  `json:"daysOfWeek,omitempty"`
	DayOfMonth *int   `json:"dayOfMonth,omitempty"`
	Month      *int   `json:"month,omitempty"`
	EndDate    string `json:"endDate,omitempty"`
}

// Fields holds candidate values before validation. Nil pointers mean the
// field was absent.
type Fields struct {
	Type       string
	Interval   *int
	DaysOfWeek []int
	DayOfMonth *int
	Month      *int
	EndDate    string
}

// Validate normalizes every field on its own and never fails.
func Validate(f Fields) Pattern {
	return Pattern{
		Type:       normalizeType(f.Type),
		Interval:   normalizeInterval(f.Interval),
		DaysOfWeek: normalizeDaysOfWeek(f.DaysOfWeek),
		DayOfMonth: clampPtr(f.DayOfMonth, 1, 31),
		Month:      clampPtr(f.Month, 1, 12),
		EndDate:    normalizeEndDate(f.EndDate),
	}
}

// Fields returns the pattern as candidate fields, so that
// Validate(p.Fields()) == p for any validated p.
func (p Pattern) Fields() Fields {
	f := Fields{
		Type:       string(p.Type),
		Interval:   intPtr(p.Interval),
		DaysOfWeek: append([]int(nil), p.DaysOfWeek...),
		EndDate:    p.EndDate,
	}
	if p.DayOfMonth != nil {
		f.DayOfMonth = intPtr(*p.DayOfMonth)
	}
	if p.Month != nil {
		f.Month = intPtr(*p.Month)
	}
	return f
}

// HasDay reports whether weekday d is part of DaysOfWeek.
func (p Pattern) HasDay(d time.Weekday) bool {
	for _, v := range p.DaysOfWeek {
		if v == int(d) {
			return true
		}
	}
	return false
}

// End returns EndDate as a calendar date at midnight in loc.
func (p Pattern) End(loc *time.Location) (time.Time, bool) {
	if p.EndDate == "" {
		return time.Time{}, false
	}
	return parseDate(p.EndDate, loc)
}

func normalizeType(raw string) Type {
	if t, ok := ParseType(raw); ok {
		return t
	}
	return DefaultType
}

func normalizeInterval(v *int) int {
	if v == nil || *v < 1 {
		return 1
	}
	return *v
}

func normalizeDaysOfWeek(days []int) []int {
	if len(days) == 0 {
		return nil
	}
	out := make([]int, 0, len(days))
	for _, d := range days {
		if d >= 0 && d <= 6 {
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		return nil
	}
	sort.Ints(out)
	uniq := out[:1]
	for _, d := range out[1:] {
		if d != uniq[len(uniq)-1] {
			uniq = append(uniq, d)
		}
	}
	return uniq
}

func clampPtr(v *int, lo, hi int) *int {
	if v == nil {
		return nil
	}
	n := *v
	if n < lo {
		n = lo
	}
	if n > hi {
		n = hi
	}
	return &n
}

func normalizeEndDate(raw string) string {
	clean := strings.TrimSpace(raw)
	if clean == "" {
		return ""
	}
	if _, ok := parseDate(clean, time.UTC); !ok {
		return ""
	}
	return clean
}

var dateLayouts = []string{time.DateOnly, time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04"}

// parseDate reads an ISO date or timestamp and returns its calendar date at
// midnight in loc. Timestamps keep their own calendar date.
func parseDate(raw string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, raw, loc)
		if err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, loc), true
		}
	}
	return time.Time{}, false
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func intPtr(v int) *int {
	return &v
}
