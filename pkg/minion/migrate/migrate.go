// Package migrate applies the forward-only, numbered SQL migrations that
// create and evolve the minion tables, tracking which have already run in
// a minion_schema_migrations table.
package migrate

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"time"

	// Packages
	db "github.com/Grinnz/minion-pg/pkg/db"
	types "github.com/Grinnz/minion-pg/pkg/db/types"
)

//go:embed sql/*.sql
var migrations embed.FS

////////////////////////////////////////////////////////////////////////////////
// TYPES

type migration struct {
	version int
	name    string
	up      string
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Up applies every migration not yet recorded in minion_schema_migrations,
// in version order, each inside its own transaction.
func Up(ctx context.Context, conn db.PoolConn, namespace string) error {
	all, err := load()
	if err != nil {
		return err
	}

	c := conn.With("ns", namespace)
	if err := c.Exec(ctx, trackingTableDDL); err != nil {
		return err
	}

	applied, err := appliedVersions(ctx, c)
	if err != nil {
		return err
	}

	for _, m := range all {
		if applied[m.version] {
			continue
		}
		if err := c.Tx(ctx, func(tx db.Conn) error {
			if err := tx.Exec(ctx, m.up); err != nil {
				return fmt.Errorf("migration %04d_%s: %w", m.version, m.name, err)
			}
			return tx.With("version", m.version, "name", m.name, "applied", types.FormatTime(time.Now())).
				Exec(ctx, `INSERT INTO ${ns}_minion_schema_migrations (version, name, applied) VALUES (@version, @name, @applied)`)
		}); err != nil {
			return err
		}
	}

	return nil
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

const trackingTableDDL = `
CREATE TABLE IF NOT EXISTS ${ns}_minion_schema_migrations (
  version  INTEGER PRIMARY KEY,
  name     TEXT NOT NULL,
  applied  TEXT NOT NULL
)`

func appliedVersions(ctx context.Context, conn db.Conn) (map[int]bool, error) {
	var versions versionList
	if err := conn.List(ctx, &versions, versionSelector{}); err != nil {
		return nil, err
	}
	out := make(map[int]bool, len(versions.ids))
	for _, v := range versions.ids {
		out[v] = true
	}
	return out, nil
}

type versionSelector struct{}

func (versionSelector) Select(bind *db.Bind, op db.Op) (string, error) {
	bind.Set("offsetlimit", "")
	switch op {
	case db.List:
		return bind.Replace(`SELECT version FROM ${ns}_minion_schema_migrations ORDER BY version`), nil
	default:
		return "", db.ErrNotImplemented
	}
}

type versionList struct {
	ids []int
}

func (v *versionList) Scan(row db.Row) error {
	var n int
	if err := row.Scan(&n); err != nil {
		return err
	}
	v.ids = append(v.ids, n)
	return nil
}

////////////////////////////////////////////////////////////////////////////////
// LOAD

func load() ([]migration, error) {
	entries, err := fs.Glob(migrations, "sql/*.up.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(entries)

	out := make([]migration, 0, len(entries))
	for _, path := range entries {
		base := strings.TrimSuffix(strings.TrimPrefix(path, "sql/"), ".up.sql")
		parts := strings.SplitN(base, "_", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed migration filename %q", path)
		}
		version, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("malformed migration version in %q: %w", path, err)
		}
		data, err := migrations.ReadFile(path)
		if err != nil {
			return nil, err
		}
		out = append(out, migration{version: version, name: parts[1], up: string(data)})
	}

	return out, nil
}
