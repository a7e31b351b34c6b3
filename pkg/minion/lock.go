package minion

import (
	"context"
	"errors"
	"time"

	// Packages
	db "github.com/Grinnz/minion-pg/pkg/db"
	types "github.com/Grinnz/minion-pg/pkg/db/types"
	schema "github.com/Grinnz/minion-pg/pkg/minion/schema"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS - LOCKS

// Lock attempts to take one of at most limit concurrent leases named name
// for duration, returning whether the lease was granted. limit defaults to
// 1 when unset. duration <= 0 only checks feasibility without taking a
// lease.
func (manager *Manager) Lock(ctx context.Context, name string, duration time.Duration, limit uint64) (bool, error) {
	if limit == 0 {
		limit = 1
	}

	var ok bool
	if err := manager.conn.Tx(ctx, func(conn db.Conn) error {
		cleanup := repairSelector{name: "lock_cleanup", bind: func(b *db.Bind) {
			b.Set("now", types.FormatTime(time.Now()))
		}}
		if err := conn.Delete(ctx, nil, cleanup); err != nil {
			return err
		}
		var count schema.LockCount
		if err := conn.Get(ctx, &count, schema.LockAcquire{Name: name}); err != nil {
			return err
		}
		if count.Count >= limit {
			return nil
		}
		if duration <= 0 {
			ok = true
			return nil
		}
		var id schema.LockIdResult
		if err := conn.Insert(ctx, &id, schema.LockAcquire{Name: name, Duration: duration}); err != nil {
			return err
		}
		ok = id.Id != 0
		return nil
	}); err != nil {
		return false, err
	}
	return ok, nil
}

// Unlock releases one non-expired lease named name, the earliest-expiring
// one first. Returns false if there was no lease to release.
func (manager *Manager) Unlock(ctx context.Context, name string) (bool, error) {
	var id schema.LockIdResult
	if err := manager.conn.Delete(ctx, &id, schema.LockRelease{Name: name}); errors.Is(err, db.ErrNotFound) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return id.Id != 0, nil
}

// ListLocks returns locks matching req, along with the total matching count.
func (manager *Manager) ListLocks(ctx context.Context, req schema.LockListRequest) (*schema.LockList, error) {
	var list schema.LockList
	if err := manager.conn.List(ctx, &list, req); err != nil {
		return nil, err
	}
	return &list, nil
}

// WithLock runs fn only if the named lease can be acquired for duration,
// releasing it once fn returns. It reports whether fn was run.
func (manager *Manager) WithLock(ctx context.Context, name string, duration time.Duration, limit uint64, fn func(context.Context) error) (bool, error) {
	ok, err := manager.Lock(ctx, name, duration, limit)
	if err != nil || !ok {
		return false, err
	}
	defer manager.Unlock(ctx, name)
	return true, fn(ctx)
}
