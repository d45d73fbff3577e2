package models

import (
	"time"

	"github.com/noah-isme/sma-scheduling-core/internal/interval"
)

// Semester numbering bounds.
const (
	SemesterNumberMin = 1
	SemesterNumberMax = 3
)

// Semester is a dated teaching period of a program.
type Semester struct {
	ID             int64         `db:"id" json:"id"`
	ProgramID      int64         `db:"program_id" json:"program_id"`
	AcademicYearID int64         `db:"academic_year_id" json:"academic_year_id"`
	SemesterNumber int           `db:"semester_number" json:"semester_number"`
	YearNumber     int           `db:"year_number" json:"year_number"`
	StartDate      interval.Date `db:"start_date" json:"start_date"`
	EndDate        interval.Date `db:"end_date" json:"end_date"`
	Active         bool          `db:"active" json:"active"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// DateRange returns the closed range covered by the semester.
func (s Semester) DateRange() interval.DateRange {
	return interval.DateRange{Start: s.StartDate, End: s.EndDate}
}

// SemesterPatch carries the fields of a partial semester update.
type SemesterPatch struct {
	ProgramID      *int64
	AcademicYearID *int64
	SemesterNumber *int
	YearNumber     *int
	StartDate      *interval.Date
	EndDate        *interval.Date
	Active         *bool
}

// Program groups semesters; overlap rules apply per program.
type Program struct {
	ID        int64     `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AcademicYear is the institutional year a semester belongs to.
type AcademicYear struct {
	ID        int64         `db:"id" json:"id"`
	Label     string        `db:"label" json:"label"`
	StartDate interval.Date `db:"start_date" json:"start_date"`
	EndDate   interval.Date `db:"end_date" json:"end_date"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
}
