package recurrence

import (
	"fmt"
	"strings"
)

var dayNames = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

var monthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// Summarize renders a validated pattern as a short phrase for display.
func Summarize(p Pattern) string {
	n := p.Interval
	switch p.Type {
	case Daily:
		if n == 1 {
			return "Daily"
		}
		return fmt.Sprintf("Every %d days", n)
	case Weekly:
		if n == 1 && len(p.DaysOfWeek) > 0 {
			if len(p.DaysOfWeek) == 7 {
				return "Daily"
			}
			return "Every week on " + joinDays(p.DaysOfWeek)
		}
		return fmt.Sprintf("Every %d weeks", n)
	case Weekday:
		if n == 1 {
			return "Every weekday"
		}
		return fmt.Sprintf("Every %d weekdays", n)
	case Monthly:
		if n == 1 && p.DayOfMonth != nil {
			return fmt.Sprintf("Every month on day %d", *p.DayOfMonth)
		}
		return fmt.Sprintf("Every %d months", n)
	case Yearly:
		if n == 1 && p.Month != nil && p.DayOfMonth != nil {
			return fmt.Sprintf("Every year on %s %d", MonthName(*p.Month), *p.DayOfMonth)
		}
		return fmt.Sprintf("Every %d years", n)
	case Custom:
		return summarizeCustom(p)
	default:
		return "Recurring"
	}
}

func summarizeCustom(p Pattern) string {
	var parts []string
	if len(p.DaysOfWeek) > 0 {
		parts = append(parts, "on "+joinDays(p.DaysOfWeek))
	}
	if p.DayOfMonth != nil {
		parts = append(parts, fmt.Sprintf("on day %d", *p.DayOfMonth))
	}
	if p.Month != nil {
		parts = append(parts, "in "+MonthName(*p.Month))
	}
	prefix := "Custom "
	if p.Interval > 1 {
		prefix += fmt.Sprintf("every %d ", p.Interval)
	}
	return strings.TrimSpace(prefix + strings.Join(parts, " "))
}

// DayName returns the three letter name of weekday d (0 = Sunday).
func DayName(d int) string {
	if d < 0 || d > 6 {
		return ""
	}
	return dayNames[d]
}

// MonthName returns the three letter name of month m (1 = January).
func MonthName(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return monthNames[m-1]
}

func joinDays(days []int) string {
	names := make([]string, 0, len(days))
	for _, d := range days {
		names = append(names, DayName(d))
	}
	return strings.Join(names, ", ")
}
