// Package minion implements a SQLite-backed job queue: workers dequeue
// tasks from a single-file database shared by all of them, jobs may depend
// on other jobs finishing first, and a periodic repair sweep reclaims
// workers, retries, and storage.
package minion

import (
	"context"
	"strings"
	"time"

	// Packages
	db "github.com/Grinnz/minion-pg/pkg/db"
	migrate "github.com/Grinnz/minion-pg/pkg/minion/migrate"
	minionsql "github.com/Grinnz/minion-pg/pkg/minion/sql"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Manager owns a namespaced view of the minion tables and the tunables
// governing dispatch, backoff, and repair.
type Manager struct {
	ns      string
	conn    db.PoolConn
	started time.Time
	opts
}

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New applies the minion schema migrations (if not already applied) and
// returns a Manager bound to conn, scoped to namespace.
func New(ctx context.Context, conn db.PoolConn, opt ...Opt) (*Manager, error) {
	if conn == nil {
		return nil, db.ErrBadParameter.With("connection is nil")
	}

	o, err := applyOpts(opt)
	if err != nil {
		return nil, err
	}

	queries, err := db.NewQueries(strings.NewReader(minionsql.Queries))
	if err != nil {
		return nil, err
	}

	if err := migrate.Up(ctx, conn, o.namespace); err != nil {
		return nil, err
	}

	self := &Manager{
		ns:      o.namespace,
		conn:    conn.WithQueries(queries).With("ns", o.namespace).(db.PoolConn),
		started: time.Now(),
		opts:    o,
	}
	return self, nil
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Namespace returns the table-name prefix this manager operates within.
func (manager *Manager) Namespace() string {
	return manager.ns
}

// Conn returns the underlying bound connection, for callers that need to
// compose additional statements alongside manager operations in a Tx.
func (manager *Manager) Conn() db.PoolConn {
	return manager.conn
}

// Backoff returns the retry delay for a job that has failed retries times.
func (manager *Manager) Backoff(retries uint64) time.Duration {
	return manager.opts.backoff(retries)
}
