package test

import (
	"context"
	"os"

	// Packages
	db "github.com/Grinnz/minion-pg/pkg/db"
)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewSQLiteFile creates a temp-file database and returns a connection pool
// bound to it, along with the path so the caller can remove it once done.
func NewSQLiteFile(ctx context.Context, tracer db.TraceFn) (string, db.PoolConn, error) {
	f, err := os.CreateTemp("", "minion-test-*.db")
	if err != nil {
		return "", nil, err
	}
	path := f.Name()
	f.Close()

	pool, err := db.NewPool(ctx, db.WithPath(path), db.WithTrace(tracer))
	if err != nil {
		os.Remove(path)
		return "", nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		os.Remove(path)
		return "", nil, err
	}

	return path, pool, nil
}
