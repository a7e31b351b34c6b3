package db

import (
	"bufio"
	"io"
	"regexp"
	"strings"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Queries is a collection of named SQL statements parsed out of a single
// .sql file, each statement preceded by a "-- name" comment line.
type Queries struct {
	keys    []string
	queries map[string]string
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

var reQuerySeparator = regexp.MustCompile(`^--\s*([a-zA-Z0-9_.-]+)\s*$`)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewQueries parses statements separated by "-- <name>" comment lines, e.g.
//
//	-- job.insert
//	INSERT INTO jobs (...) VALUES (...);
//
//	-- job.select
//	SELECT * FROM jobs WHERE id = @id;
//
// and errors on a duplicate name.
func NewQueries(r io.Reader) (*Queries, error) {
	var key string
	var sql strings.Builder

	q := &Queries{queries: make(map[string]string)}
	scanner := bufio.NewScanner(r)

	flush := func() {
		if key != "" {
			q.queries[key] = strings.TrimSpace(sql.String())
			q.keys = append(q.keys, key)
		}
	}

	for scanner.Scan() {
		line := scanner.Text()

		if matches := reQuerySeparator.FindStringSubmatch(line); matches != nil {
			flush()
			key = matches[1]
			if _, exists := q.queries[key]; exists {
				return nil, ErrBadParameter.Withf("duplicate SQL statement key: %q", key)
			}
			sql.Reset()
			continue
		}

		sql.WriteString(line)
		sql.WriteString("\n")
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return q, nil
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Keys returns the statement names in the order they were parsed.
func (q *Queries) Keys() []string {
	return q.keys
}

// Get returns the statement for name, or "" if unknown.
func (q *Queries) Get(name string) string {
	return q.queries[name]
}
