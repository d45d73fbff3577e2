package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-scheduling-core/internal/models"
)

const semesterColumns = "id, program_id, academic_year_id, semester_number, year_number, start_date, end_date, active, created_at, updated_at"

// SemesterRepository provides persistence for semesters.
type SemesterRepository struct {
	db sqlx.ExtContext
}

// NewSemesterRepository creates a semester repository.
func NewSemesterRepository(db sqlx.ExtContext) *SemesterRepository {
	return &SemesterRepository{db: db}
}

// FindByID loads a semester by id.
func (r *SemesterRepository) FindByID(ctx context.Context, id int64) (*models.Semester, error) {
	query := "SELECT " + semesterColumns + " FROM semesters WHERE id = $1"
	var semester models.Semester
	if err := sqlx.GetContext(ctx, r.db, &semester, query, id); err != nil {
		return nil, translate(err)
	}
	return &semester, nil
}

// FindActiveByProgram returns the active semesters of a program ordered by start date.
func (r *SemesterRepository) FindActiveByProgram(ctx context.Context, programID, excludeID int64) ([]models.Semester, error) {
	query := "SELECT " + semesterColumns + " FROM semesters WHERE program_id = $1 AND active = TRUE AND id <> $2 ORDER BY start_date ASC"
	var semesters []models.Semester
	if err := sqlx.SelectContext(ctx, r.db, &semesters, query, programID, excludeID); err != nil {
		return nil, fmt.Errorf("find active semesters by program: %w", err)
	}
	return semesters, nil
}

// ListActive returns every active semester.
func (r *SemesterRepository) ListActive(ctx context.Context) ([]models.Semester, error) {
	query := "SELECT " + semesterColumns + " FROM semesters WHERE active = TRUE ORDER BY program_id ASC, start_date ASC"
	var semesters []models.Semester
	if err := sqlx.SelectContext(ctx, r.db, &semesters, query); err != nil {
		return nil, fmt.Errorf("list active semesters: %w", err)
	}
	return semesters, nil
}

// Create stores a semester.
func (r *SemesterRepository) Create(ctx context.Context, semester *models.Semester) error {
	now := time.Now().UTC()
	semester.CreatedAt = now
	semester.UpdatedAt = now

	const query = `INSERT INTO semesters (program_id, academic_year_id, semester_number, year_number, start_date, end_date, active, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	err := r.db.QueryRowxContext(ctx, query,
		semester.ProgramID, semester.AcademicYearID, semester.SemesterNumber, semester.YearNumber,
		semester.StartDate, semester.EndDate, semester.Active, semester.CreatedAt, semester.UpdatedAt,
	).Scan(&semester.ID)
	if err != nil {
		return fmt.Errorf("create semester: %w", translate(err))
	}
	return nil
}

// Update overwrites the mutable fields of a semester.
func (r *SemesterRepository) Update(ctx context.Context, semester *models.Semester) error {
	semester.UpdatedAt = time.Now().UTC()
	const query = `UPDATE semesters SET program_id = $2, academic_year_id = $3, semester_number = $4, year_number = $5, start_date = $6, end_date = $7, active = $8, updated_at = $9 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query,
		semester.ID, semester.ProgramID, semester.AcademicYearID, semester.SemesterNumber, semester.YearNumber,
		semester.StartDate, semester.EndDate, semester.Active, semester.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update semester: %w", translate(err))
	}
	return requireAffected(result, "update semester")
}

// Deactivate soft-deletes a semester.
func (r *SemesterRepository) Deactivate(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `UPDATE semesters SET active = FALSE, updated_at = $2 WHERE id = $1`, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate semester: %w", err)
	}
	return requireAffected(result, "deactivate semester")
}

// CountClassSections counts sections that reference the semester.
func (r *SemesterRepository) CountClassSections(ctx context.Context, id int64) (int, error) {
	var count int
	if err := sqlx.GetContext(ctx, r.db, &count, `SELECT COUNT(*) FROM class_sections WHERE semester_id = $1`, id); err != nil {
		return 0, fmt.Errorf("count semester class sections: %w", err)
	}
	return count, nil
}

// Delete physically removes a semester.
func (r *SemesterRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM semesters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete semester: %w", translate(err))
	}
	return requireAffected(result, "delete semester")
}
