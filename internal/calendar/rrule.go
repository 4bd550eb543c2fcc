package calendar

import (
	"time"

	rrule "github.com/teambition/rrule-go"

	"task-planner/internal/recurrence"
)

var weekdays = [7]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

var workweek = []rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR}

// ToRRule renders p as an RFC 5545 RRULE value (without the "RRULE:"
// prefix). The end date becomes an UNTIL at the last second of that day in
// loc. It reports false for patterns a calendar client cannot represent.
//
// Calendar clients skip months that lack the requested day, whereas the
// planner rolls over into the next month, so exported dates can differ
// around month ends.
func ToRRule(p recurrence.Pattern, loc *time.Location) (string, bool) {
	if loc == nil {
		loc = time.Local
	}
	opt := rrule.ROption{Interval: p.Interval}

	switch p.Type {
	case recurrence.Daily:
		opt.Freq = rrule.DAILY
	case recurrence.Weekly:
		opt.Freq = rrule.WEEKLY
		opt.Byweekday = toWeekdays(p.DaysOfWeek)
	case recurrence.Weekday:
		if p.Interval > 1 {
			return "", false
		}
		opt.Freq = rrule.DAILY
		opt.Byweekday = workweek
	case recurrence.Monthly:
		opt.Freq = rrule.MONTHLY
		if p.DayOfMonth != nil {
			opt.Bymonthday = []int{*p.DayOfMonth}
		}
	case recurrence.Yearly:
		opt.Freq = rrule.YEARLY
		if p.Month != nil {
			opt.Bymonth = []int{*p.Month}
		}
		if p.DayOfMonth != nil {
			opt.Bymonthday = []int{*p.DayOfMonth}
		}
	case recurrence.Custom:
		opt.Interval = 1
		switch {
		case len(p.DaysOfWeek) > 0:
			opt.Freq = rrule.WEEKLY
			opt.Byweekday = toWeekdays(p.DaysOfWeek)
		case p.DayOfMonth != nil:
			opt.Freq = rrule.MONTHLY
			opt.Bymonthday = []int{*p.DayOfMonth}
		default:
			opt.Freq = rrule.DAILY
		}
	default:
		return "", false
	}

	if end, ok := p.End(loc); ok {
		opt.Until = end.AddDate(0, 0, 1).Add(-time.Second)
	}
	return opt.RRuleString(), true
}

func toWeekdays(days []int) []rrule.Weekday {
	if len(days) == 0 {
		return nil
	}
	out := make([]rrule.Weekday, 0, len(days))
	for _, d := range days {
		if d >= 0 && d < len(weekdays) {
			out = append(out, weekdays[d])
		}
	}
	return out
}
