package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-scheduling-core/internal/models"
)

// ClassSectionRepository provides persistence for class sections.
type ClassSectionRepository struct {
	db sqlx.ExtContext
}

// NewClassSectionRepository creates a class section repository.
func NewClassSectionRepository(db sqlx.ExtContext) *ClassSectionRepository {
	return &ClassSectionRepository{db: db}
}

// FindByID loads a class section by id.
func (r *ClassSectionRepository) FindByID(ctx context.Context, id int64) (*models.ClassSection, error) {
	const query = `SELECT id, section_name, subject_id, semester_id, active, created_at, updated_at FROM class_sections WHERE id = $1`
	var section models.ClassSection
	if err := sqlx.GetContext(ctx, r.db, &section, query, id); err != nil {
		return nil, translate(err)
	}
	return &section, nil
}

// Create stores a class section.
func (r *ClassSectionRepository) Create(ctx context.Context, section *models.ClassSection) error {
	now := time.Now().UTC()
	section.CreatedAt = now
	section.UpdatedAt = now

	const query = `INSERT INTO class_sections (section_name, subject_id, semester_id, active, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, section.SectionName, section.SubjectID, section.SemesterID, section.Active, section.CreatedAt, section.UpdatedAt).Scan(&section.ID); err != nil {
		return fmt.Errorf("create class section: %w", translate(err))
	}
	return nil
}
