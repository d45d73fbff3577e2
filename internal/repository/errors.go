package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/noah-isme/sma-scheduling-core/internal/storage"
)

// Postgres SQLSTATE codes the core reacts to.
const (
	pqUniqueViolation     = "23505"
	pqExclusionViolation  = "23P01"
	pqForeignKeyViolation = "23503"
)

// translate maps driver errors onto storage sentinels while keeping the
// original error in the chain.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", storage.ErrNotFound, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqUniqueViolation:
			return fmt.Errorf("%w (%s): %w", storage.ErrUniqueViolation, pqErr.Constraint, err)
		case pqExclusionViolation:
			return fmt.Errorf("%w (%s): %w", storage.ErrExclusionViolation, pqErr.Constraint, err)
		case pqForeignKeyViolation:
			return fmt.Errorf("%w (%s): %w", storage.ErrForeignKeyViolation, pqErr.Constraint, err)
		}
	}
	return err
}

func requireAffected(result sql.Result, what string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", what, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", what, storage.ErrNotFound)
	}
	return nil
}
