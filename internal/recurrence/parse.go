package recurrence

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Raw is a recurrence pattern as it arrives from storage or a form. It is
// one of Structured, Encoded or Legacy.
type Raw interface {
	fields() Fields
}

// Structured is an already decoded candidate object.
type Structured Fields

// Encoded is a JSON document describing the pattern.
type Encoded string

// Legacy is a bare type keyword stored before patterns were JSON encoded.
type Legacy string

func (s Structured) fields() Fields { return Fields(s) }

func (e Encoded) fields() Fields {
	f, ok := decodeFields([]byte(e))
	if !ok {
		return Legacy(e).fields()
	}
	return f
}

func (l Legacy) fields() Fields {
	return Fields{Type: string(l), Interval: intPtr(1)}
}

// Resolve picks the variant for a stored string: valid JSON is Encoded,
// anything else is a Legacy keyword.
func Resolve(s string) Raw {
	if json.Valid([]byte(s)) {
		return Encoded(s)
	}
	return Legacy(s)
}

// Parse validates a raw pattern. It never fails; malformed input degrades
// to DefaultType with interval 1.
func Parse(raw Raw) Pattern {
	if raw == nil {
		return Validate(Fields{})
	}
	return Validate(raw.fields())
}

// ParseString is Parse(Resolve(s)).
func ParseString(s string) Pattern {
	return Parse(Resolve(s))
}

// Encode serializes a pattern into its stored JSON form.
func Encode(p Pattern) string {
	b, err := json.Marshal(p)
	if err != nil {
		return string(p.Type)
	}
	return string(b)
}

// decodeFields reads each field independently so one bad value does not
// discard the rest. Valid JSON that is not an object yields empty fields.
func decodeFields(data []byte) (Fields, bool) {
	var probe any
	if err := json.Unmarshal(data, &probe); err != nil {
		return Fields{}, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		return Fields{}, true
	}
	var f Fields
	if v, ok := obj["type"]; ok {
		_ = json.Unmarshal(v, &f.Type)
	}
	f.Interval = decodeInt(obj["interval"])
	f.DaysOfWeek = decodeDays(obj["daysOfWeek"])
	f.DayOfMonth = decodeInt(obj["dayOfMonth"])
	f.Month = decodeInt(obj["month"])
	if v, ok := obj["endDate"]; ok {
		_ = json.Unmarshal(v, &f.EndDate)
	}
	return f, true
}

func decodeInt(raw json.RawMessage) *int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil
		}
		n = parsed
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return nil
	}
	n = math.Trunc(n)
	if n > math.MaxInt32 {
		n = math.MaxInt32
	}
	if n < math.MinInt32 {
		n = math.MinInt32
	}
	return intPtr(int(n))
}

func decodeDays(raw json.RawMessage) []int {
	if len(raw) == 0 {
		return nil
	}
	var values []json.RawMessage
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil
	}
	days := make([]int, 0, len(values))
	for _, v := range values {
		var n float64
		if err := json.Unmarshal(v, &n); err != nil || n != math.Trunc(n) {
			continue
		}
		if n < 0 || n > 6 {
			continue
		}
		days = append(days, int(n))
	}
	return days
}
