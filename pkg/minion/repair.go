package minion

import (
	"context"
	"encoding/json"
	"time"

	// Packages
	db "github.com/Grinnz/minion-pg/pkg/db"
	types "github.com/Grinnz/minion-pg/pkg/db/types"
	schema "github.com/Grinnz/minion-pg/pkg/minion/schema"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type orphanRow struct {
	Id       uint64
	Retries  uint64
	Attempts uint64
}

func (r *orphanRow) Scan(row db.Row) error {
	return row.Scan(&r.Id, &r.Retries, &r.Attempts)
}

type orphanList struct {
	Rows []orphanRow
}

func (l *orphanList) Scan(row db.Row) error {
	var r orphanRow
	if err := r.Scan(row); err != nil {
		return err
	}
	l.Rows = append(l.Rows, r)
	return nil
}

// repairSelector renders one of the named maintenance statements (the
// repair_* statements and lock_cleanup), optionally binding extra
// parameters first.
type repairSelector struct {
	name string
	bind func(*db.Bind)
}

func (s repairSelector) Select(bind *db.Bind, op db.Op) (string, error) {
	if s.bind != nil {
		s.bind(bind)
	}
	return bind.Replace("${minion." + s.name + "}"), nil
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS - REPAIR

var orphanedResult = mustJSON(map[string]any{"error": "worker went away while job was active"})
var stuckResult = mustJSON(map[string]any{"error": "job never became eligible before its stuck deadline"})

// Repair runs one pass of the periodic maintenance sweep: expiring workers
// that have stopped sending heartbeats, force-failing jobs orphaned by a
// dead worker (retrying them if attempts remain), force-failing jobs stuck
// past their delayed time, and garbage collecting finished jobs and expired
// inactive jobs that no longer block a dependent.
func (manager *Manager) Repair(ctx context.Context) (err error) {
	ctx, endspan := manager.startSpan(ctx, "repair")
	defer func() { endspan(err) }()

	if err = manager.expireWorkers(ctx); err != nil {
		return err
	}
	if err = manager.repairOrphanedJobs(ctx); err != nil {
		return err
	}
	if err = manager.repairStuckJobs(ctx); err != nil {
		return err
	}
	if err = manager.removeFinishedJobs(ctx); err != nil {
		return err
	}
	if err = manager.removeExpiredInactiveJobs(ctx); err != nil {
		return err
	}
	return nil
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// expireWorkers deletes workers that have not sent a heartbeat within
// missingAfter. Their active jobs are picked up by repairOrphanedJobs on
// the next pass since the worker row is now gone.
func (manager *Manager) expireWorkers(ctx context.Context) error {
	sel := repairSelector{name: "repair_expire_workers", bind: func(b *db.Bind) {
		b.Set("cutoff", types.FormatTime(time.Now().Add(-manager.missingAfter)))
	}}
	return manager.conn.Delete(ctx, nil, sel)
}

// repairOrphanedJobs force-fails active jobs whose worker no longer exists,
// then retries each with backoff if it still has attempts left, mirroring
// the automatic retry a normal failure gets.
func (manager *Manager) repairOrphanedJobs(ctx context.Context) error {
	sel := repairSelector{name: "repair_orphan_active", bind: func(b *db.Bind) {
		b.Set("now", types.FormatTime(time.Now()))
		b.Set("result", orphanedResult)
		b.Set("foreground_queue", manager.foregroundQueue)
	}}
	var orphans orphanList
	if err := manager.conn.List(ctx, &orphans, sel); err != nil {
		return err
	}
	for _, o := range orphans.Rows {
		if o.Attempts != 0 && o.Retries+1 >= o.Attempts {
			continue
		}
		if err := manager.retry(ctx, schema.JobRetry{Id: o.Id, Retries: o.Retries, Delay: manager.Backoff(o.Retries)}); err != nil {
			return err
		}
	}
	return nil
}

// repairStuckJobs force-fails inactive jobs that have sat past their
// delayed time for longer than stuckAfter, without retrying them.
func (manager *Manager) repairStuckJobs(ctx context.Context) error {
	sel := repairSelector{name: "repair_stuck", bind: func(b *db.Bind) {
		b.Set("now", types.FormatTime(time.Now()))
		b.Set("result", stuckResult)
		b.Set("cutoff", types.FormatTime(time.Now().Add(-manager.stuckAfter)))
	}}
	return manager.conn.Update(ctx, nil, sel, nil)
}

// removeFinishedJobs deletes finished jobs older than removeAfter that no
// non-finished job still lists as a parent.
func (manager *Manager) removeFinishedJobs(ctx context.Context) error {
	sel := repairSelector{name: "repair_remove_finished", bind: func(b *db.Bind) {
		b.Set("cutoff", types.FormatTime(time.Now().Add(-manager.removeAfter)))
	}}
	return manager.conn.Delete(ctx, nil, sel)
}

// removeExpiredInactiveJobs deletes inactive jobs whose expiry deadline has
// passed without ever being dispatched.
func (manager *Manager) removeExpiredInactiveJobs(ctx context.Context) error {
	sel := repairSelector{name: "repair_remove_expired_inactive", bind: func(b *db.Bind) {
		b.Set("now", types.FormatTime(time.Now()))
	}}
	return manager.conn.Delete(ctx, nil, sel)
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}
