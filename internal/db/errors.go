package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a query matched no row.
	ErrNotFound = errors.New("record not found")

	// ErrCheckViolation is returned when a CHECK constraint rejects a row,
	// e.g. a run status outside trend_runs_status_check.
	ErrCheckViolation = errors.New("check constraint violation")

	// ErrNotNullViolation is returned when a required column was left NULL.
	ErrNotNullViolation = errors.New("not null violation")
)

// constraintErrors maps the SQLSTATE codes the run store can raise to
// sentinels callers branch on.
var constraintErrors = map[string]error{
	pgerrcode.CheckViolation:   ErrCheckViolation,
	pgerrcode.NotNullViolation: ErrNotNullViolation,
}

// WrapError prefixes err with the repository operation and translates
// pgx/Postgres failures into the sentinels above.
func WrapError(err error, operation string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", operation, ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return fmt.Errorf("%s: %w", operation, err)
	}

	if sentinel, ok := constraintErrors[pgErr.Code]; ok {
		return fmt.Errorf("%s: %w (constraint: %s)", operation, sentinel, pgErr.ConstraintName)
	}
	return fmt.Errorf("%s: database error [%s]: %w", operation, pgErr.Code, err)
}

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConstraintViolation reports whether a write was rejected by a table
// constraint rather than by the connection or the server.
func IsConstraintViolation(err error) bool {
	return errors.Is(err, ErrCheckViolation) || errors.Is(err, ErrNotNullViolation)
}
