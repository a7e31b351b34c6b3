package db

import (
	"database/sql"
	"errors"
	"fmt"

	// Packages
	sqlite3 "modernc.org/sqlite"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Err is a sentinel error that can be wrapped with additional context
// while remaining comparable with errors.Is.
type Err struct {
	err error
	msg string
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

var (
	ErrNotFound       = Err{err: errors.New("not found")}
	ErrDuplicateEntry = Err{err: errors.New("duplicate entry")}
	ErrBadParameter   = Err{err: errors.New("bad parameter")}
	ErrInternalError  = Err{err: errors.New("internal error")}
	ErrNotImplemented = Err{err: errors.New("not implemented")}
	ErrNotAvailable   = Err{err: errors.New("not available")}
)

// SQLite extended result codes we branch on. The base SQLITE_CONSTRAINT
// code (19) occupies the low byte of every constraint-violation extended
// code; the high byte distinguishes which constraint fired.
const (
	sqliteConstraintBase       = 19
	sqliteConstraintUnique     = 2067 // SQLITE_CONSTRAINT_UNIQUE
	sqliteConstraintForeignKey = 787  // SQLITE_CONSTRAINT_FOREIGNKEY
)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// With returns a copy of the error with a fixed message appended.
func (e Err) With(v ...any) Err {
	return Err{err: e.err, msg: fmt.Sprint(v...)}
}

// Withf returns a copy of the error with a formatted message appended.
func (e Err) Withf(format string, v ...any) Err {
	return Err{err: e.err, msg: fmt.Sprintf(format, v...)}
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (e Err) Error() string {
	if e.msg == "" {
		return e.err.Error()
	}
	return e.err.Error() + ": " + e.msg
}

////////////////////////////////////////////////////////////////////////////////
// COMPARISON

func (e Err) Unwrap() error {
	return e.err
}

func (e Err) Is(target error) bool {
	if other, ok := target.(Err); ok {
		return e.err == other.err
	}
	return false
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// dberror maps driver-level errors (missing rows, constraint violations) to
// the package's own error vocabulary so callers never need to know sqlite
// is underneath.
func dberror(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var sqliteErr *sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqliteConstraintUnique:
			return ErrDuplicateEntry.With(sqliteErr.Error())
		case sqliteConstraintForeignKey:
			return ErrBadParameter.With(sqliteErr.Error())
		default:
			if sqliteErr.Code()&0xff == sqliteConstraintBase {
				return ErrBadParameter.With(sqliteErr.Error())
			}
		}
	}

	return err
}
