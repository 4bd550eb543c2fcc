package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"task-planner/internal/recurrence"
)

// ErrInvalidPattern is returned when user supplied recurrence input is
// rejected. Stored patterns are never rejected; they go through the lenient
// recurrence.Parse instead.
var ErrInvalidPattern = errors.New("invalid recurrence pattern")

type patternInput struct {
	Type       *string `json:"type"`
	Interval   *int    `json:"interval"`
	DaysOfWeek []int   `json:"daysOfWeek"`
	DayOfMonth *int    `json:"dayOfMonth"`
	Month      *int    `json:"month"`
	EndDate    *string `json:"endDate"`
}

// ValidatePatternInput checks a pattern typed by a user, either a bare type
// keyword or a JSON object, and returns it normalized.
func ValidatePatternInput(raw string) (recurrence.Pattern, error) {
	clean := strings.TrimSpace(raw)
	if clean == "" {
		return recurrence.Pattern{}, fmt.Errorf("%w: pattern is empty", ErrInvalidPattern)
	}

	if !strings.HasPrefix(clean, "{") {
		typ, ok := recurrence.ParseType(strings.ToLower(clean))
		if !ok {
			return recurrence.Pattern{}, fmt.Errorf("%w: unknown type %q", ErrInvalidPattern, clean)
		}
		return recurrence.Parse(recurrence.Legacy(typ)), nil
	}

	var in patternInput
	dec := json.NewDecoder(bytes.NewReader([]byte(clean)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return recurrence.Pattern{}, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}

	var problems []string
	fields := recurrence.Fields{
		Interval:   in.Interval,
		DaysOfWeek: in.DaysOfWeek,
		DayOfMonth: in.DayOfMonth,
		Month:      in.Month,
	}
	if in.Type == nil {
		problems = append(problems, "type is required")
	} else if _, ok := recurrence.ParseType(*in.Type); !ok {
		problems = append(problems, fmt.Sprintf("unknown type %q", *in.Type))
	} else {
		fields.Type = *in.Type
	}
	if in.Interval != nil && *in.Interval < 1 {
		problems = append(problems, "interval must be at least 1")
	}
	for _, d := range in.DaysOfWeek {
		if d < 0 || d > 6 {
			problems = append(problems, fmt.Sprintf("day of week %d out of range 0-6", d))
		}
	}
	if in.DayOfMonth != nil && (*in.DayOfMonth < 1 || *in.DayOfMonth > 31) {
		problems = append(problems, "dayOfMonth must be between 1 and 31")
	}
	if in.Month != nil && (*in.Month < 1 || *in.Month > 12) {
		problems = append(problems, "month must be between 1 and 12")
	}
	if in.EndDate != nil {
		if _, err := time.Parse(time.DateOnly, *in.EndDate); err != nil {
			problems = append(problems, "endDate must be YYYY-MM-DD")
		}
		fields.EndDate = *in.EndDate
	}
	if len(problems) > 0 {
		return recurrence.Pattern{}, fmt.Errorf("%w: %s", ErrInvalidPattern, strings.Join(problems, "; "))
	}
	return recurrence.Validate(fields), nil
}
