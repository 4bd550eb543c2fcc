package recurrence

import "time"

// Series is the part of a task the calculator needs: the recurring flag,
// the anchor date and the stored pattern.
type Series struct {
	Recurring bool
	Date      *time.Time
	Pattern   Raw
}

// Next returns the occurrence following the series anchor date. It reports
// false when the series is not recurring, has no anchor, or has ended.
func Next(s Series) (next time.Time, ok bool) {
	if !s.Recurring || s.Date == nil || s.Date.IsZero() {
		return time.Time{}, false
	}
	defer func() {
		if r := recover(); r != nil {
			next, ok = time.Time{}, false
		}
	}()
	return NextAfter(Parse(s.Pattern), *s.Date)
}

// NextAfter computes the occurrence after last for a validated pattern.
// Only the date part moves; the clock and location of last are kept.
//
// Forcing a day of month that the target month does not have rolls over
// into the following month (day 31 in April lands on May 1), the same way
// time.Date normalizes out of range values.
func NextAfter(p Pattern, last time.Time) (time.Time, bool) {
	interval := p.Interval
	if interval < 1 {
		interval = 1
	}

	var next time.Time
	switch p.Type {
	case Daily:
		next = last.AddDate(0, 0, interval)
	case Weekly:
		next = last.AddDate(0, 0, 7*interval)
		if len(p.DaysOfWeek) > 0 {
			found, ok := searchWeekday(next, p.DaysOfWeek)
			if !ok {
				return time.Time{}, false
			}
			next = found
		}
	case Weekday:
		next = last.AddDate(0, 0, interval)
		for isWeekend(next.Weekday()) {
			next = next.AddDate(0, 0, 1)
		}
	case Monthly:
		next = last.AddDate(0, interval, 0)
		if p.DayOfMonth != nil {
			next = withDay(next, *p.DayOfMonth)
		}
	case Yearly:
		next = last.AddDate(interval, 0, 0)
		if p.Month != nil {
			next = withMonth(next, time.Month(*p.Month))
		}
		if p.DayOfMonth != nil {
			next = withDay(next, *p.DayOfMonth)
		}
	case Custom:
		found, ok := nextCustom(p, last)
		if !ok {
			return time.Time{}, false
		}
		next = found
	default:
		return time.Time{}, false
	}

	if end, ok := p.End(next.Location()); ok && truncateDay(next).After(end) {
		return time.Time{}, false
	}
	return next, true
}

func nextCustom(p Pattern, last time.Time) (time.Time, bool) {
	switch {
	case len(p.DaysOfWeek) > 0:
		return searchWeekday(last.AddDate(0, 0, 1), p.DaysOfWeek)
	case p.DayOfMonth != nil:
		return withDay(last.AddDate(0, 1, 0), *p.DayOfMonth), true
	default:
		return last.AddDate(0, 0, 1), true
	}
}

// searchWeekday scans at most a week forward from base, base included,
// for the first date whose weekday is in days.
func searchWeekday(base time.Time, days []int) (time.Time, bool) {
	for i := 0; i < 7; i++ {
		candidate := base.AddDate(0, 0, i)
		for _, d := range days {
			if int(candidate.Weekday()) == d {
				return candidate, true
			}
		}
	}
	return time.Time{}, false
}

func isWeekend(d time.Weekday) bool {
	return d == time.Saturday || d == time.Sunday
}

func withDay(t time.Time, day int) time.Time {
	return time.Date(t.Year(), t.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func withMonth(t time.Time, month time.Month) time.Time {
	return time.Date(t.Year(), month, t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// Occurrences lists up to n occurrences after from, stopping early when the
// series ends.
func Occurrences(p Pattern, from time.Time, n int) []time.Time {
	out := make([]time.Time, 0, max(n, 0))
	cur := from
	for len(out) < n {
		next, ok := NextAfter(p, cur)
		if !ok || !next.After(cur) {
			break
		}
		out = append(out, next)
		cur = next
	}
	return out
}
