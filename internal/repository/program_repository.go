package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-scheduling-core/internal/models"
)

// ProgramRepository persists programs and academic years.
type ProgramRepository struct {
	db sqlx.ExtContext
}

// NewProgramRepository creates a program repository.
func NewProgramRepository(db sqlx.ExtContext) *ProgramRepository {
	return &ProgramRepository{db: db}
}

// FindProgram loads a program by id.
func (r *ProgramRepository) FindProgram(ctx context.Context, id int64) (*models.Program, error) {
	const query = `SELECT id, code, name, active, created_at FROM programs WHERE id = $1`
	var program models.Program
	if err := sqlx.GetContext(ctx, r.db, &program, query, id); err != nil {
		return nil, translate(err)
	}
	return &program, nil
}

// CreateProgram stores a program.
func (r *ProgramRepository) CreateProgram(ctx context.Context, program *models.Program) error {
	program.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO programs (code, name, active, created_at) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, program.Code, program.Name, program.Active, program.CreatedAt).Scan(&program.ID); err != nil {
		return fmt.Errorf("create program: %w", translate(err))
	}
	return nil
}

// FindAcademicYear loads an academic year by id.
func (r *ProgramRepository) FindAcademicYear(ctx context.Context, id int64) (*models.AcademicYear, error) {
	const query = `SELECT id, label, start_date, end_date, created_at FROM academic_years WHERE id = $1`
	var year models.AcademicYear
	if err := sqlx.GetContext(ctx, r.db, &year, query, id); err != nil {
		return nil, translate(err)
	}
	return &year, nil
}

// CreateAcademicYear stores an academic year.
func (r *ProgramRepository) CreateAcademicYear(ctx context.Context, year *models.AcademicYear) error {
	year.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO academic_years (label, start_date, end_date, created_at) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, year.Label, year.StartDate, year.EndDate, year.CreatedAt).Scan(&year.ID); err != nil {
		return fmt.Errorf("create academic year: %w", translate(err))
	}
	return nil
}
