// Package types provides small helpers shared by the query-binding layer:
// identifier validation, quoting, pointer conversions for optional scalar
// columns, and the textual timestamp format the storage engine persists.
package types

import (
	"regexp"
	"strings"
	"time"
)

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

var (
	reIdentifier = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
	reNumeric    = regexp.MustCompile(`^[0-9]+$`)
)

// TimeLayout is the textual timestamp representation persisted to every
// delayed/expires/created/started/retried/finished/notified column: UTC,
// millisecond precision, and lexicographically sortable so the store can
// compare and range-scan timestamps without understanding a native
// temporal type.
const TimeLayout = "2006-01-02 15:04:05.000"

////////////////////////////////////////////////////////////////////////////////
// IDENTIFIERS

// IsIdentifier returns true if the given string is a valid lower-case SQL
// identifier: starts with a letter, followed by letters, digits or
// underscores.
func IsIdentifier(v string) bool {
	return reIdentifier.MatchString(v)
}

// IsNumeric returns true if the string consists only of digits.
func IsNumeric(v string) bool {
	return v != "" && reNumeric.MatchString(v)
}

// IsSingleQuoted returns true if the string is wrapped in single quotes,
// e.g. `'name'`.
func IsSingleQuoted(v string) bool {
	return len(v) >= 2 && strings.HasPrefix(v, "'") && strings.HasSuffix(v, "'")
}

// Quote wraps a value in single quotes, escaping any embedded quote.
func Quote(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

// IsDoubleQuoted returns true if the string is wrapped in double quotes,
// e.g. `"name"`.
func IsDoubleQuoted(v string) bool {
	return len(v) >= 2 && strings.HasPrefix(v, `"`) && strings.HasSuffix(v, `"`)
}

// DoubleQuote wraps a value in double quotes, escaping any embedded quote.
// Used to quote SQL identifiers rather than literals.
func DoubleQuote(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

////////////////////////////////////////////////////////////////////////////////
// POINTERS

// PtrUint64 dereferences a *uint64, returning zero for nil.
func PtrUint64(v *uint64) uint64 {
	if v == nil {
		return 0
	}
	return *v
}

// PtrDuration dereferences a *time.Duration, returning zero for nil.
func PtrDuration(v *time.Duration) time.Duration {
	if v == nil {
		return 0
	}
	return *v
}

// PtrTime dereferences a *time.Time, returning the zero time for nil.
func PtrTime(v *time.Time) time.Time {
	if v == nil {
		return time.Time{}
	}
	return *v
}

// Uint64Ptr returns a pointer to v, or nil if v is zero.
func Uint64Ptr(v uint64) *uint64 {
	if v == 0 {
		return nil
	}
	return &v
}

// JoinPath joins URL path segments with exactly one slash between them.
func JoinPath(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "/") {
			b.WriteByte('/')
		}
		b.WriteString(strings.TrimPrefix(p, "/"))
	}
	return b.String()
}

////////////////////////////////////////////////////////////////////////////////
// TIMESTAMPS

// FormatTime renders t in the canonical textual form persisted to the
// database. Every write that sets a timestamp column computes the value in
// Go and binds the formatted string, rather than asking the store to do
// temporal arithmetic.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses a column value in the canonical textual form. An empty
// string parses to the zero time rather than erroring, so callers can scan
// nullable timestamp columns through a plain string intermediary.
func ParseTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(TimeLayout, v, time.UTC)
}
