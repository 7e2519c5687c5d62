package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clinicrecords/api/internal/platform/apperr"
)

// PostgreSQL SQLSTATE codes the repositories care about.
const (
	sqlStateUniqueViolation     = "23505"
	sqlStateForeignKeyViolation = "23503"
)

// MapError converts pgx errors into apperr sentinels while keeping the
// original error in the chain.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %w", apperr.ErrNotFound, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlStateUniqueViolation:
			return fmt.Errorf("%w (%s): %w", apperr.ErrDuplicate, pgErr.ConstraintName, err)
		case sqlStateForeignKeyViolation:
			return fmt.Errorf("%w (%s): %w", apperr.ErrInvalidReference, pgErr.ConstraintName, err)
		}
	}
	return err
}

// ConstraintName returns the violated constraint, or "" when err is not a
// PostgreSQL constraint error.
func ConstraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}
