// Package test provides a disposable single-file database for integration
// tests.
package test

import (
	"context"
	"fmt"
	"os"
	"testing"

	// Packages
	db "github.com/Grinnz/minion-pg/pkg/db"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Conn is a connection pool shared across a test binary's TestMain and handed
// out to individual tests through Begin.
type Conn struct {
	db.PoolConn
}

// testConn wraps the shared pool for a single test. Its Close is a no-op so
// that one test cannot tear down the pool out from under the rest of the
// binary; tests isolate themselves by namespace rather than by connection.
type testConn struct {
	db.PoolConn
}

func (testConn) Close() error { return nil }

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// Main opens a temp-file database for the lifetime of the test binary,
// assigns the resulting pool to conn, runs m, and removes the file
// afterwards.
func Main(m *testing.M, conn *Conn) {
	ctx := context.Background()

	path, pool, err := NewSQLiteFile(ctx, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "test: failed to open sqlite database:", err)
		os.Exit(1)
	}
	conn.PoolConn = pool

	code := m.Run()

	pool.Close()
	os.Remove(path)

	os.Exit(code)
}

// Begin returns a connection for use by a single test. The underlying pool is
// shared for the whole test binary, so tests must use distinct namespaces
// (see UniqueNamespace) to avoid interfering with each other.
func (c Conn) Begin(t *testing.T) db.PoolConn {
	t.Helper()
	if c.PoolConn == nil {
		t.Fatal("test: Conn.Begin called before TestMain started the pool")
	}
	return testConn{c.PoolConn}
}

// UniqueNamespace derives a namespace for t that will not collide with any
// other test in the binary. The table-name prefix is spliced unquoted into
// SQL text, so it is capped and sanitized to a safe SQL identifier; long
// subtest names are truncated from the front, keeping the most specific
// (rightmost) part of the name.
func UniqueNamespace(t *testing.T) string {
	const maxLen = 48
	ns := sanitize(t.Name())
	if len(ns) > maxLen {
		ns = ns[len(ns)-maxLen:]
	}
	return "t_" + ns
}

func sanitize(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			out = append(out, c)
		case c >= 'A' && c <= 'Z':
			out = append(out, c-'A'+'a')
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
