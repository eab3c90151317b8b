package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound reports a record that does not exist within the active
	// tenant scope. A record owned by another tenant produces the same
	// error as a genuinely absent record.
	ErrNotFound = errors.New("record not found")

	// ErrMissingTenant reports a tenant-scoped create attempted with no
	// active account in context.
	ErrMissingTenant = errors.New("no active account for tenant-scoped create")

	// ErrConflict reports an optimistic-concurrency conflict; the caller
	// may re-read and retry.
	ErrConflict = errors.New("record was modified concurrently")

	// ErrUniqueViolation reports a uniqueness constraint violation
	// (slug collision, duplicate membership).
	ErrUniqueViolation = errors.New("unique constraint violation")
)

// normalizeErr maps driver-specific failures onto the package sentinels.
func normalizeErr(err error) error {
	if err == nil {
		return nil
	}

	if IsUniqueViolation(err) {
		return fmt.Errorf("%w: %v", ErrUniqueViolation, err)
	}

	return err
}

// IsNotFound checks if the error is a not-found outcome.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if the error is an optimistic-concurrency conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsUniqueViolation normalizes driver-specific unique violation errors.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrUniqueViolation) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}

	// modernc sqlite reports constraint violations by message; the driver
	// error type is internal to the module.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
