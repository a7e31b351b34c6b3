package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"strings"
	"sync"

	// Packages
	types "github.com/Grinnz/minion-pg/pkg/db/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Bind carries the named parameters for a query, both the values bound as
// query arguments and the template variables substituted into the SQL text
// itself before it is sent to the driver.
type Bind struct {
	sync.RWMutex
	vars map[string]any
}

// OffsetLimit binds a page of a listing: an offset and a limit, substituted
// into the query via the "offsetlimit" template variable.
type OffsetLimit struct {
	Offset uint64
	Limit  uint64
}

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewBind creates a new Bind from alternating key, value pairs. Returns nil
// if the pairs are malformed (odd count, or a non-string / empty key).
func NewBind(pairs ...any) *Bind {
	if len(pairs)%2 != 0 {
		return nil
	}

	vars := make(map[string]any, len(pairs)>>1)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok || key == "" {
			return nil
		}
		vars[key] = pairs[i+1]
	}

	return &Bind{vars: vars}
}

// Copy returns a new Bind with the same variables plus the given additional
// pairs merged in. The receiver is left unmodified.
func (bind *Bind) Copy(pairs ...any) *Bind {
	if len(pairs)%2 != 0 {
		return nil
	}

	varsCopy := func() map[string]any {
		bind.RLock()
		defer bind.RUnlock()
		c := make(map[string]any, len(bind.vars)+(len(pairs)>>1))
		maps.Copy(c, bind.vars)
		return c
	}()

	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok || key == "" {
			return nil
		}
		varsCopy[key] = pairs[i+1]
	}

	return &Bind{vars: varsCopy}
}

func (bind *Bind) withQueries(queries ...*Queries) *Bind {
	if len(queries) == 0 {
		return bind
	}

	varsCopy := make(map[string]any, len(bind.vars))
	maps.Copy(varsCopy, bind.vars)

	for _, q := range queries {
		for _, key := range q.Keys() {
			varsCopy[key] = q.Get(key)
		}
	}

	return &Bind{vars: varsCopy}
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (bind *Bind) MarshalJSON() ([]byte, error) {
	return json.Marshal(bind.vars)
}

func (bind *Bind) String() string {
	data, err := json.MarshalIndent(bind.vars, "", "  ")
	if err != nil {
		return err.Error()
	}
	return string(data)
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Set sets a bind variable and returns its parameter placeholder ("@key").
func (bind *Bind) Set(key string, value any) string {
	bind.Lock()
	defer bind.Unlock()

	if key == "" {
		return ""
	}
	bind.vars[key] = value
	return "@" + key
}

// Get returns a bind variable by key, or nil if unset.
func (bind *Bind) Get(key string) any {
	bind.RLock()
	defer bind.RUnlock()
	return bind.vars[key]
}

// Has returns true if a bind variable with the given key exists.
func (bind *Bind) Has(key string) bool {
	bind.RLock()
	defer bind.RUnlock()
	_, ok := bind.vars[key]
	return ok
}

// Del removes a bind variable.
func (bind *Bind) Del(key string) {
	bind.Lock()
	defer bind.Unlock()
	delete(bind.vars, key)
}

// Join renders a []any bind variable as a delimited string, or the plain
// value as a string if it isn't a list. Returns "" if the key is unset.
func (bind *Bind) Join(key, sep string) string {
	bind.RLock()
	defer bind.RUnlock()

	value, ok := bind.vars[key]
	if !ok {
		return ""
	}
	if v, ok := value.([]any); ok {
		str := make([]string, len(v))
		for i, value := range v {
			str[i] = fmt.Sprint(value)
		}
		return strings.Join(str, sep)
	}
	return fmt.Sprint(value)
}

// Append appends to a []any list bind variable, creating it if absent.
// Returns false if the existing value is bound but is not a list.
func (bind *Bind) Append(key string, value any) bool {
	bind.Lock()
	defer bind.Unlock()

	if _, ok := bind.vars[key]; !ok {
		bind.vars[key] = make([]any, 0, 5)
	}
	if _, ok := bind.vars[key].([]any); !ok {
		return false
	}
	bind.vars[key] = append(bind.vars[key].([]any), value)
	return true
}

// Bind merges an offset/limit page into bind, under the "offsetlimit"
// template variable, defaulting the limit to defaultLimit when unset.
func (p OffsetLimit) Bind(bind *Bind, defaultLimit uint64) {
	limit := p.Limit
	if limit == 0 {
		limit = defaultLimit
	}
	bind.Set("offsetlimit", fmt.Sprintf("OFFSET %d LIMIT %d", p.Offset, limit))
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS - QUERY

// QueryRow queries a single row and returns the result.
func (bind *Bind) QueryRow(ctx context.Context, exec executor, query string) Row {
	bind.RLock()
	defer bind.RUnlock()
	return exec.QueryRowContext(ctx, bind.Replace(query), bind.args()...)
}

// Query queries a set of rows and returns the result.
func (bind *Bind) Query(ctx context.Context, exec executor, query string) (*sql.Rows, error) {
	bind.RLock()
	defer bind.RUnlock()
	return exec.QueryContext(ctx, bind.Replace(query), bind.args()...)
}

// Exec executes a statement that returns no rows.
func (bind *Bind) Exec(ctx context.Context, exec executor, query string) error {
	bind.RLock()
	defer bind.RUnlock()
	_, err := exec.ExecContext(ctx, bind.Replace(query), bind.args()...)
	return err
}

// args renders the bound variables as named driver arguments. The SQLite
// driver matches each by its "@name" form in the statement text, the same
// placeholder syntax Replace leaves untouched in the query.
func (bind *Bind) args() []any {
	args := make([]any, 0, len(bind.vars))
	for key, value := range bind.vars {
		args = append(args, sql.Named(key, value))
	}
	return args
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// Replace substitutes ${...} placeholders in query:
//
//	${key}    => value
//	${'key'}  => 'value' (quoted; []string binds as a comma-joined IN list)
//	${"key"}  => "value" (double-quoted identifier)
//	$$        => $$
//
// Plain "@key" placeholders are left untouched for the driver to bind by
// name.
func (bind *Bind) Replace(query string) string {
	return replace(query, bind.vars)
}

func replace(query string, vars map[string]any) string {
	fetch := func(key string) string {
		return fmt.Sprint(vars[key])
	}
	return os.Expand(query, func(key string) string {
		if key == "$" {
			return "$$"
		}
		if types.IsSingleQuoted(key) {
			key := strings.Trim(key, "'")
			value := vars[key]
			if v, ok := value.([]string); ok {
				result := make([]string, len(v))
				for i, s := range v {
					result[i] = types.Quote(s)
				}
				return strings.Join(result, ",")
			}
			return types.Quote(fetch(key))
		}
		if types.IsDoubleQuoted(key) {
			return types.DoubleQuote(fetch(strings.Trim(key, `"`)))
		}
		return fetch(key)
	})
}
