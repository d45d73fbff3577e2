package models

// Conflict dimensions.
const (
	ConflictDimensionRoom     = "ROOM"
	ConflictDimensionClass    = "CLASS"
	ConflictDimensionProgram  = "PROGRAM"
	ConflictDimensionIdentity = "IDENTIFIER"
)

// ScheduleConflict describes an existing slot that blocks a booking.
type ScheduleConflict struct {
	SlotID    int64     `json:"slot_id"`
	ClassID   int64     `json:"class_id"`
	RoomID    int64     `json:"room_id"`
	DayOfWeek DayOfWeek `json:"day_of_week"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Dimension string    `json:"dimension"`
}

// ScheduleConflictError is returned when a slot collides with an existing one.
type ScheduleConflictError struct {
	Type     string           `json:"type"`
	Message  string           `json:"message"`
	Conflict ScheduleConflict `json:"conflict"`
}

// Error implements the error interface for conflict errors.
func (e *ScheduleConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

// SemesterConflict describes an existing semester whose dates collide.
type SemesterConflict struct {
	SemesterID  int64  `json:"semester_id"`
	ProgramID   int64  `json:"program_id"`
	ProgramCode string `json:"program_code"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

// SemesterConflictError is returned when semester dates overlap within a program.
type SemesterConflictError struct {
	Message  string           `json:"message"`
	Conflict SemesterConflict `json:"conflict"`
}

// Error implements the error interface.
func (e *SemesterConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

// InvariantViolation names a pair of active rows that break an overlap rule.
type InvariantViolation struct {
	Dimension string `json:"dimension"`
	Key       string `json:"key"`
	FirstID   int64  `json:"first_id"`
	SecondID  int64  `json:"second_id"`
}

// InvariantReport summarises a global overlap audit.
type InvariantReport struct {
	SlotsChecked     int                  `json:"slots_checked"`
	SemestersChecked int                  `json:"semesters_checked"`
	Violations       []InvariantViolation `json:"violations"`
}
