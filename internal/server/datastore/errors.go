package datastore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/omniguard/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const pgUniqueViolation = "23505"

// StorageError reports a failed statement. It matches common.ErrStorage and
// the driver error with errors.Is/As, and common.ErrAlreadyExists when the
// statement broke a unique constraint.
type StorageError struct {
	Op    string
	Table Table
	Err   error

	conflict bool
}

func newStorageError(op string, t Table, err error) *StorageError {
	return &StorageError{Op: op, Table: t, Err: err, conflict: isUniqueViolation(err)}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
}

// Unwrap exposes common.ErrStorage, the driver error and, for conflicts,
// common.ErrAlreadyExists.
func (e *StorageError) Unwrap() []error {
	errs := []error{common.ErrStorage, e.Err}
	if e.conflict {
		errs = append(errs, common.ErrAlreadyExists)
	}
	return errs
}

// Conflict reports whether the failure was a unique constraint violation.
func (e *StorageError) Conflict() bool {
	return e.conflict
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		switch {
		case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE, code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case code&0xff == sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(liteErr.Error(), "UNIQUE constraint failed")
		}
	}
	return false
}
