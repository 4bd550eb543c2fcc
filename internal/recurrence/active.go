package recurrence

import "time"

// Active reports whether the series still runs on today. Non-recurring
// series, series without a pattern and patterns without an end date are
// always active. Dates are compared without their time of day.
func Active(s Series, today time.Time) (active bool) {
	if !s.Recurring || s.Pattern == nil {
		return true
	}
	defer func() {
		if r := recover(); r != nil {
			active = true
		}
	}()
	end, ok := Parse(s.Pattern).End(today.Location())
	if !ok {
		return true
	}
	return !truncateDay(today).After(end)
}
