package schema

import (
	"strings"
	"time"

	// Packages
	db "github.com/Grinnz/minion-pg/pkg/db"
	types "github.com/Grinnz/minion-pg/pkg/db/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// LockAcquire renders the steps of taking a lease named Name: Select counts
// the current leases for Name, Insert takes one for Duration. Limit is not
// read here; Manager.Lock compares the count against its own limit and
// skips the insert when its duration is <= 0.
type LockAcquire struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
	Limit    uint64        `json:"limit,omitempty"`
}

// LockRelease releases one non-expired lease named Name, the
// earliest-expiring one first.
type LockRelease struct {
	Name string `json:"name"`
}

type Lock struct {
	Id      uint64    `json:"id"`
	Name    string    `json:"name"`
	Expires time.Time `json:"expires"`
}

type LockListRequest struct {
	db.OffsetLimit
	Names []string `json:"names,omitempty"`
}

type LockList struct {
	LockListRequest
	Count uint64 `json:"count"`
	Body  []Lock `json:"body,omitempty"`
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (l Lock) String() string     { return stringify(l) }
func (l LockList) String() string { return stringify(l) }

////////////////////////////////////////////////////////////////////////////////
// READER

func (l *Lock) Scan(row db.Row) error {
	var expires string
	if err := row.Scan(&l.Id, &l.Name, &expires); err != nil {
		return err
	}
	var err error
	l.Expires, err = types.ParseTime(expires)
	return err
}

func (l *LockList) Scan(row db.Row) error {
	var lock Lock
	if err := lock.Scan(row); err != nil {
		return err
	}
	l.Body = append(l.Body, lock)
	return nil
}

func (l *LockList) ScanCount(row db.Row) error {
	return row.Scan(&l.Count)
}

// LockCount scans the count(*) of current holders for a name.
type LockCount struct {
	Count uint64
}

func (c *LockCount) Scan(row db.Row) error {
	return row.Scan(&c.Count)
}

// LockIdResult scans an "id" column, zero meaning no row matched.
type LockIdResult struct {
	Id uint64
}

func (r *LockIdResult) Scan(row db.Row) error {
	var id *uint64
	if err := row.Scan(&id); err != nil {
		return err
	}
	r.Id = types.PtrUint64(id)
	return nil
}

////////////////////////////////////////////////////////////////////////////////
// WRITER

func (a LockAcquire) Insert(bind *db.Bind) (string, error) {
	if strings.TrimSpace(a.Name) == "" {
		return "", db.ErrBadParameter.With("missing lock name")
	}
	bind.Set("name", a.Name)
	bind.Set("expires", types.FormatTime(time.Now().Add(a.Duration)))
	return bind.Replace("${minion.lock_insert}"), nil
}

////////////////////////////////////////////////////////////////////////////////
// SELECTOR

// Select implements the feasibility-count step of lock acquisition.
func (a LockAcquire) Select(bind *db.Bind, op db.Op) (string, error) {
	bind.Set("name", a.Name)
	switch op {
	case db.Get:
		return bind.Replace("${minion.lock_count}"), nil
	default:
		return "", db.ErrInternalError.Withf("unsupported LockAcquire operation %q", op)
	}
}

func (r LockRelease) Select(bind *db.Bind, op db.Op) (string, error) {
	if strings.TrimSpace(r.Name) == "" {
		return "", db.ErrBadParameter.With("missing lock name")
	}
	bind.Set("name", r.Name)
	bind.Set("now", types.FormatTime(time.Now()))
	switch op {
	case db.Delete:
		return bind.Replace("${minion.lock_unlock}"), nil
	default:
		return "", db.ErrInternalError.Withf("unsupported LockRelease operation %q", op)
	}
}

func (l LockListRequest) Select(bind *db.Bind, op db.Op) (string, error) {
	var where []string
	if len(l.Names) > 0 {
		where = append(where, `name IN (`+quotedList(l.Names)+`)`)
	}
	if len(where) == 0 {
		bind.Set("where", "")
	} else {
		bind.Set("where", "WHERE "+strings.Join(where, " AND "))
	}
	l.OffsetLimit.Bind(bind, LockListLimit)

	switch op {
	case db.List:
		return bind.Replace("${minion.lock_list}"), nil
	default:
		return "", db.ErrInternalError.Withf("unsupported LockListRequest operation %q", op)
	}
}
