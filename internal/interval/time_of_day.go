package interval

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// MinutesPerDay bounds every TimeOfDay value.
const MinutesPerDay = 24 * 60

// EndOfDay is midnight at the close of the day, written "24:00". It is only
// valid as the end of a range.
const EndOfDay = TimeOfDay(MinutesPerDay)

// TimeOfDay is a wall-clock time with minute precision, stored as minutes
// since midnight.
type TimeOfDay int

// ParseTimeOfDay parses a strict "HH:mm" value. "24:00" parses to EndOfDay;
// callers decide whether it is acceptable in their position.
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	if len(raw) != 5 || raw[2] != ':' {
		return 0, fmt.Errorf("invalid time %q: expected HH:mm", raw)
	}
	hours, okH := twoDigits(raw[0], raw[1])
	minutes, okM := twoDigits(raw[3], raw[4])
	if !okH || !okM || minutes > 59 {
		return 0, fmt.Errorf("invalid time %q: expected HH:mm", raw)
	}
	value := TimeOfDay(hours*60 + minutes)
	if value > EndOfDay {
		return 0, fmt.Errorf("invalid time %q: expected HH:mm", raw)
	}
	return value, nil
}

// MustParseTimeOfDay panics on malformed input. Intended for fixtures.
func MustParseTimeOfDay(raw string) TimeOfDay {
	t, err := ParseTimeOfDay(raw)
	if err != nil {
		panic(err)
	}
	return t
}

func twoDigits(a, b byte) (int, bool) {
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return 0, false
	}
	return int(a-'0')*10 + int(b-'0'), true
}

// Valid reports whether t falls inside a single day.
func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < MinutesPerDay
}

// ValidEnd reports whether t can close a range, which admits EndOfDay.
func (t TimeOfDay) ValidEnd() bool {
	return t > 0 && t <= EndOfDay
}

// String renders t as HH:mm.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// MarshalJSON encodes t as an "HH:mm" string.
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes an "HH:mm" string.
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("time must be a string: %w", err)
	}
	parsed, err := ParseTimeOfDay(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value stores t as an integer minute count.
func (t TimeOfDay) Value() (driver.Value, error) {
	return int64(t), nil
}

// Scan reads an integer minute count.
func (t *TimeOfDay) Scan(src interface{}) error {
	switch v := src.(type) {
	case int64:
		*t = TimeOfDay(v)
	case int32:
		*t = TimeOfDay(v)
	case int:
		*t = TimeOfDay(v)
	case []byte:
		var n int
		if _, err := fmt.Sscan(string(v), &n); err != nil {
			return fmt.Errorf("scan time of day: %w", err)
		}
		*t = TimeOfDay(n)
	default:
		return fmt.Errorf("scan time of day: unsupported type %T", src)
	}
	return nil
}
