package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Conn is a database connection or transaction capable of running the
// five canonical data operations plus ad-hoc SQL and nested transactions.
type Conn interface {
	// Return a new connection with additional bound parameters
	With(...any) Conn

	// Return a new connection with named queries merged in
	WithQueries(...*Queries) Conn

	// Run fn inside a transaction, committing on success and rolling back
	// on error. Called from within an already-open transaction, it opens a
	// SAVEPOINT instead, since a SQLite connection cannot nest BEGIN.
	Tx(context.Context, func(Conn) error) error

	// Execute a statement that returns no rows
	Exec(context.Context, string) error

	// Insert a row, binding parameters from the writer and scanning the
	// returned row into the reader
	Insert(context.Context, Reader, Writer) error

	// Update a row selected by sel, binding parameters from the writer and
	// scanning the returned row into the reader
	Update(context.Context, Reader, Selector, Writer) error

	// Delete a row selected by sel, scanning the deleted row into the reader
	Delete(context.Context, Reader, Selector) error

	// Fetch a single row selected by sel
	Get(context.Context, Reader, Selector) error

	// Fetch zero or more rows selected by sel. If the reader also
	// implements ListReader, the total matching count is populated too.
	List(context.Context, Reader, Selector) error
}

// Op identifies which of the canonical operations a Selector is being
// asked to render SQL for.
type Op uint

// Row is anything a Reader can Scan from — satisfied by *sql.Row and *sql.Rows.
type Row interface {
	Scan(dest ...any) error
}

// Reader scans one result row into a Go value.
type Reader interface {
	Scan(Row) error
}

// ListReader additionally knows how to scan the count produced by a
// wrapped "SELECT COUNT(*)" subquery, for paginated listings.
type ListReader interface {
	Reader
	ScanCount(Row) error
}

// Writer renders the SQL and binds the parameters for Insert and Update.
type Writer interface {
	Insert(*Bind) (string, error)
	Update(*Bind) error
}

// Selector renders the SQL and binds the parameters for Get, Update,
// Delete, and List, given which operation is being performed.
type Selector interface {
	Select(*Bind, Op) (string, error)
}

// executor is the subset of *sql.DB and *sql.Tx that conn needs. Unlike
// pgx, where a pool and a transaction are distinct types requiring a pool
// wrapper faked up to satisfy pgx.Tx, database/sql gives *sql.DB and
// *sql.Tx the same method surface, so one conn type serves both.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type conn struct {
	db     *sql.DB // underlying handle, used to open the outermost transaction
	exec   executor
	tx     *sql.Tx // non-nil once inside a transaction, for savepoint nesting
	depth  int
	bind   *Bind
	tracer *tracer
}

var _ Conn = (*conn)(nil)

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	None Op = iota
	Get
	Insert
	Update
	Delete
	List
)

func (o Op) String() string {
	switch o {
	case Get:
		return "GET"
	case Insert:
		return "INSERT"
	case Update:
		return "UPDATE"
	case Delete:
		return "DELETE"
	case List:
		return "LIST"
	default:
		return "NONE"
	}
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (c *conn) With(params ...any) Conn {
	return &conn{c.db, c.exec, c.tx, c.depth, c.bind.Copy(params...), c.tracer}
}

func (c *conn) WithQueries(queries ...*Queries) Conn {
	return &conn{c.db, c.exec, c.tx, c.depth, c.bind.withQueries(queries...), c.tracer}
}

func (c *conn) Tx(ctx context.Context, fn func(Conn) error) error {
	return runTx(ctx, c, fn)
}

func (c *conn) Exec(ctx context.Context, query string) error {
	err := c.bind.Exec(ctx, c.exec, query)
	c.tracer.trace(ctx, c.bind.Replace(query), err)
	return dberror(err)
}

func (c *conn) Insert(ctx context.Context, reader Reader, writer Writer) error {
	query, err := writer.Insert(c.bind)
	if err != nil {
		return err
	}
	return execOne(ctx, c, query, reader)
}

func (c *conn) Update(ctx context.Context, reader Reader, sel Selector, writer Writer) error {
	query, err := sel.Select(c.bind, Update)
	if err != nil {
		return err
	}
	if writer != nil {
		if err := writer.Update(c.bind); err != nil {
			return err
		}
	}
	return execOne(ctx, c, query, reader)
}

func (c *conn) Delete(ctx context.Context, reader Reader, sel Selector) error {
	query, err := sel.Select(c.bind, Delete)
	if err != nil {
		return err
	}
	return execOne(ctx, c, query, reader)
}

func (c *conn) Get(ctx context.Context, reader Reader, sel Selector) error {
	query, err := sel.Select(c.bind, Get)
	if err != nil {
		return err
	}
	return execOne(ctx, c, query, reader)
}

func (c *conn) List(ctx context.Context, reader Reader, sel Selector) error {
	c.bind.Set("offsetlimit", "")
	query, err := sel.Select(c.bind, List)
	if err != nil {
		return dberror(err)
	}

	if counter, ok := reader.(ListReader); ok {
		if err := scanCount(ctx, c, query, counter); err != nil {
			return dberror(err)
		}
	}

	if err := execMany(ctx, c, query+` ${offsetlimit}`, reader); errors.Is(err, ErrNotFound) {
		return nil
	} else {
		return dberror(err)
	}
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// runTx opens a real transaction at the top level, or a SAVEPOINT when
// already inside one, the same trick pgx itself uses internally to
// support nested Begin calls.
func runTx(ctx context.Context, parent *conn, fn func(Conn) error) error {
	if parent.tx == nil {
		tx, err := parent.db.BeginTx(ctx, nil)
		if err != nil {
			return dberror(err)
		}
		child := &conn{parent.db, tx, tx, 1, parent.bind.Copy(), parent.tracer}
		if err := fn(child); err != nil {
			return errors.Join(dberror(err), tx.Rollback())
		}
		return dberror(tx.Commit())
	}

	sp := fmt.Sprintf("sp_%d", parent.depth+1)
	if _, err := parent.tx.ExecContext(ctx, "SAVEPOINT "+sp); err != nil {
		return dberror(err)
	}

	child := &conn{parent.db, parent.tx, parent.tx, parent.depth + 1, parent.bind.Copy(), parent.tracer}
	if err := fn(child); err != nil {
		_, _ = parent.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+sp)
		_, rerr := parent.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+sp)
		return errors.Join(dberror(err), dberror(rerr))
	}
	_, err := parent.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+sp)
	return dberror(err)
}

func execOne(ctx context.Context, c *conn, query string, reader Reader) error {
	if reader == nil {
		err := c.bind.Exec(ctx, c.exec, query)
		c.tracer.trace(ctx, c.bind.Replace(query), err)
		return dberror(err)
	}
	row := c.bind.QueryRow(ctx, c.exec, query)
	c.tracer.trace(ctx, c.bind.Replace(query), nil)
	return dberror(reader.Scan(row))
}

func execMany(ctx context.Context, c *conn, query string, reader Reader) error {
	rows, err := c.bind.Query(ctx, c.exec, query)
	c.tracer.trace(ctx, c.bind.Replace(query), err)
	if err != nil {
		return dberror(err)
	}
	defer rows.Close()

	var scanned bool
	for rows.Next() {
		if err := reader.Scan(rows); err != nil {
			return dberror(err)
		}
		scanned = true
	}
	if err := rows.Err(); err != nil {
		return dberror(err)
	}
	if !scanned {
		return dberror(sql.ErrNoRows)
	}
	return nil
}

func scanCount(ctx context.Context, c *conn, query string, reader ListReader) error {
	row := c.bind.Copy().QueryRow(ctx, c.exec, `WITH sq AS (`+query+`) SELECT COUNT(*) AS "count" FROM sq`)
	return reader.ScanCount(row)
}
