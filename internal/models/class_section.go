package models

import "time"

// ClassSection is a taught group of students for one subject in one semester.
type ClassSection struct {
	ID          int64     `db:"id" json:"id"`
	SectionName string    `db:"section_name" json:"section_name"`
	SubjectID   int64     `db:"subject_id" json:"subject_id"`
	SemesterID  int64     `db:"semester_id" json:"semester_id"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
