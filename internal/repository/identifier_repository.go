package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-scheduling-core/internal/models"
)

// IdentifierRepository persists the issued identifier ledger and the staff
// records that consume its values.
type IdentifierRepository struct {
	db sqlx.ExtContext
}

// NewIdentifierRepository creates an identifier repository.
func NewIdentifierRepository(db sqlx.ExtContext) *IdentifierRepository {
	return &IdentifierRepository{db: db}
}

// FindByPrefix returns all values issued under prefix+year.
func (r *IdentifierRepository) FindByPrefix(ctx context.Context, prefix string, year int) ([]string, error) {
	pattern := fmt.Sprintf("%s%04d%%", prefix, year)
	var values []string
	if err := sqlx.SelectContext(ctx, r.db, &values, `SELECT value FROM issued_identifiers WHERE value LIKE $1 ORDER BY value ASC`, pattern); err != nil {
		return nil, fmt.Errorf("find identifiers by prefix: %w", err)
	}
	return values, nil
}

// Exists reports whether value was already issued.
func (r *IdentifierRepository) Exists(ctx context.Context, value string) (bool, error) {
	var exists bool
	if err := sqlx.GetContext(ctx, r.db, &exists, `SELECT EXISTS (SELECT 1 FROM issued_identifiers WHERE value = $1)`, value); err != nil {
		return false, fmt.Errorf("check identifier exists: %w", err)
	}
	return exists, nil
}

// Insert records an issued identifier. The primary key on value rejects duplicates.
func (r *IdentifierRepository) Insert(ctx context.Context, identifier *models.IssuedIdentifier) error {
	if identifier.IssuedAt.IsZero() {
		identifier.IssuedAt = time.Now().UTC()
	}
	const query = `INSERT INTO issued_identifiers (value, prefix, year, seq, issued_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(ctx, query, identifier.Value, identifier.Prefix, identifier.Year, identifier.Seq, identifier.IssuedAt); err != nil {
		return fmt.Errorf("insert identifier: %w", translate(err))
	}
	return nil
}

// CreateStaff stores a staff member whose code was issued in the same transaction.
func (r *IdentifierRepository) CreateStaff(ctx context.Context, staff *models.StaffMember) error {
	now := time.Now().UTC()
	staff.CreatedAt = now
	staff.UpdatedAt = now
	const query = `INSERT INTO staff_members (code, full_name, role, active, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, staff.Code, staff.FullName, staff.Role, staff.Active, staff.CreatedAt, staff.UpdatedAt).Scan(&staff.ID); err != nil {
		return fmt.Errorf("create staff member: %w", translate(err))
	}
	return nil
}
