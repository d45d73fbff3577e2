package models

import (
	"time"

	"github.com/noah-isme/sma-scheduling-core/internal/interval"
)

// Slot duration bounds in minutes.
const (
	SlotMinMinutes = 30
	SlotMaxMinutes = 240
)

// ScheduleSlot books a room for a class section on a weekday.
type ScheduleSlot struct {
	ID          int64              `db:"id" json:"id"`
	ClassID     int64              `db:"class_id" json:"class_id"`
	RoomID      int64              `db:"room_id" json:"room_id"`
	DayOfWeek   DayOfWeek          `db:"day_of_week" json:"day_of_week"`
	StartTime   interval.TimeOfDay `db:"start_minute" json:"start_time"`
	EndTime     interval.TimeOfDay `db:"end_minute" json:"end_time"`
	IsRecurring bool               `db:"is_recurring" json:"is_recurring"`
	Active      bool               `db:"active" json:"active"`
	CreatedAt   time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `db:"updated_at" json:"updated_at"`
}

// TimeRange returns the half-open range booked by the slot.
func (s ScheduleSlot) TimeRange() interval.TimeRange {
	return interval.TimeRange{Start: s.StartTime, End: s.EndTime}
}

// ScheduleSlotPatch carries the fields of a partial slot update. Nil means
// "keep the stored value".
type ScheduleSlotPatch struct {
	ClassID     *int64
	RoomID      *int64
	DayOfWeek   *DayOfWeek
	StartTime   *interval.TimeOfDay
	EndTime     *interval.TimeOfDay
	IsRecurring *bool
	Active      *bool
}
