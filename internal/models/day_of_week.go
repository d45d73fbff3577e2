package models

import (
	"fmt"
	"strings"
)

// DayOfWeek is a teaching day. Weekends are not schedulable.
type DayOfWeek string

const (
	Monday    DayOfWeek = "MONDAY"
	Tuesday   DayOfWeek = "TUESDAY"
	Wednesday DayOfWeek = "WEDNESDAY"
	Thursday  DayOfWeek = "THURSDAY"
	Friday    DayOfWeek = "FRIDAY"
)

// TeachingDays lists schedulable days in week order.
var TeachingDays = []DayOfWeek{Monday, Tuesday, Wednesday, Thursday, Friday}

// ParseDayOfWeek accepts full names or three-letter abbreviations in any case.
func ParseDayOfWeek(raw string) (DayOfWeek, error) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	for _, day := range TeachingDays {
		if value == string(day) || (len(value) == 3 && strings.HasPrefix(string(day), value)) {
			return day, nil
		}
	}
	return "", fmt.Errorf("invalid day of week %q: expected MONDAY..FRIDAY", raw)
}

// Valid reports whether d is a teaching day.
func (d DayOfWeek) Valid() bool {
	for _, day := range TeachingDays {
		if d == day {
			return true
		}
	}
	return false
}

// Index returns 1 for Monday through 5 for Friday, 0 otherwise.
func (d DayOfWeek) Index() int {
	for i, day := range TeachingDays {
		if d == day {
			return i + 1
		}
	}
	return 0
}
