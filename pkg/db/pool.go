package db

import (
	"context"
	"database/sql"
	"errors"

	// Packages
	_ "modernc.org/sqlite"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// PoolConn is a Conn drawn from a single-file database, with lifecycle
// management layered on top.
//
// The underlying engine serializes all writes to one file, so unlike a
// pgxpool.Pool there is no benefit to holding more than one open
// connection: NewPool caps the pool at a single *sql.DB connection, and
// there is no idle-connection reset or LISTEN/NOTIFY subscriber to expose.
type PoolConn interface {
	Conn

	// Ping verifies the connection is still usable
	Ping(context.Context) error

	// Close releases the underlying file handle
	Close() error
}

var _ PoolConn = (*conn)(nil)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewPool opens the single-file database at the configured path, applying
// the pragmas needed for safe concurrent access from multiple goroutines
// sharing one connection.
func NewPool(ctx context.Context, opts ...Opt) (PoolConn, error) {
	o, err := apply(opts...)
	if err != nil {
		return nil, err
	}

	handle, err := sql.Open("sqlite", o.path)
	if err != nil {
		return nil, err
	}

	// The file handle must not be shared across a fork, and SQLite itself
	// only allows one writer at a time: rather than pool connections and
	// contend on the file lock, keep exactly one and let callers serialize
	// through it.
	handle.SetMaxOpenConns(1)

	for _, pragma := range []string{
		`PRAGMA journal_mode=WAL`,
		`PRAGMA synchronous=FULL`,
		`PRAGMA busy_timeout=5000`,
		`PRAGMA foreign_keys=ON`,
	} {
		if _, err := handle.ExecContext(ctx, pragma); err != nil {
			_ = handle.Close()
			return nil, err
		}
	}

	if o.tracer != nil && o.tracer.fn != nil {
		o.tracer.fn(ctx, "CONNECT "+o.path, nil)
	}

	return &conn{db: handle, exec: handle, bind: o.bind, tracer: o.tracer}, nil
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (c *conn) Ping(ctx context.Context) error {
	if c.db == nil {
		return errors.New("cannot ping a transaction")
	}
	return c.db.PingContext(ctx)
}

func (c *conn) Close() error {
	if c.db == nil {
		return errors.New("cannot close a transaction")
	}
	return c.db.Close()
}
