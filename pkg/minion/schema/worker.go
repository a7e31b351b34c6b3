package schema

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	// Packages
	db "github.com/Grinnz/minion-pg/pkg/db"
	types "github.com/Grinnz/minion-pg/pkg/db/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type WorkerId uint64

// WorkerRegister registers a new worker, or (when Id is set) updates an
// existing one's heartbeat and status.
type WorkerRegister struct {
	Id     uint64         `json:"id,omitempty"`
	Host   string         `json:"host,omitempty"`
	Pid    uint64         `json:"pid,omitempty"`
	Status map[string]any `json:"status,omitempty"`
}

type Worker struct {
	Id       uint64         `json:"id"`
	Host     string         `json:"host,omitempty"`
	Pid      uint64         `json:"pid,omitempty"`
	Started  time.Time      `json:"started"`
	Notified time.Time      `json:"notified"`
	Status   map[string]any `json:"status,omitempty"`
	Inbox    []any          `json:"inbox,omitempty"`
}

type WorkerUnregister struct {
	Id uint64 `json:"id"`
}

// WorkerBroadcast appends [command, args...] to the inbox of every worker
// in Ids, or every worker when Ids is empty.
type WorkerBroadcast struct {
	Command string   `json:"command"`
	Args    []any    `json:"args,omitempty"`
	Ids     []uint64 `json:"ids,omitempty"`
}

// WorkerReceive atomically reads and clears a worker's inbox.
type WorkerReceive struct {
	Id uint64 `json:"id"`
}

type WorkerListRequest struct {
	db.OffsetLimit
	Ids    []uint64   `json:"ids,omitempty"`
	Before *time.Time `json:"before,omitempty"`
}

type WorkerList struct {
	WorkerListRequest
	Count uint64   `json:"count"`
	Body  []Worker `json:"body,omitempty"`
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (w Worker) String() string     { return stringify(w) }
func (l WorkerList) String() string { return stringify(l) }

////////////////////////////////////////////////////////////////////////////////
// READER

func (w *Worker) Scan(row db.Row) error {
	var pid *uint64
	var status, inbox sql.NullString
	var started, notified string
	if err := row.Scan(&w.Id, &w.Host, &pid, &started, &notified, &status, &inbox); err != nil {
		return err
	}
	w.Pid = types.PtrUint64(pid)

	var err error
	if w.Started, err = types.ParseTime(started); err != nil {
		return err
	}
	if w.Notified, err = types.ParseTime(notified); err != nil {
		return err
	}

	if status.Valid && status.String != "" {
		if err := json.Unmarshal([]byte(status.String), &w.Status); err != nil {
			return err
		}
	}
	if inbox.Valid && inbox.String != "" {
		if err := json.Unmarshal([]byte(inbox.String), &w.Inbox); err != nil {
			return err
		}
	}
	return nil
}

func (l *WorkerList) Scan(row db.Row) error {
	var w Worker
	if err := w.Scan(row); err != nil {
		return err
	}
	l.Body = append(l.Body, w)
	return nil
}

func (l *WorkerList) ScanCount(row db.Row) error {
	return row.Scan(&l.Count)
}

// WorkerIdResult scans an "id" column, zero meaning no row matched.
type WorkerIdResult struct {
	Id uint64
}

func (r *WorkerIdResult) Scan(row db.Row) error {
	var id *uint64
	if err := row.Scan(&id); err != nil {
		return err
	}
	r.Id = types.PtrUint64(id)
	return nil
}

// WorkerInbox scans the inbox array returned by receive.
type WorkerInbox struct {
	Messages []any
}

func (r *WorkerInbox) Scan(row db.Row) error {
	var data sql.NullString
	if err := row.Scan(&data); err != nil {
		return err
	}
	if !data.Valid || data.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(data.String), &r.Messages)
}

////////////////////////////////////////////////////////////////////////////////
// WRITER

func (r WorkerRegister) Insert(bind *db.Bind) (string, error) {
	bind.Set("host", r.Host)
	bind.Set("pid", r.Pid)
	bind.Set("now", types.FormatTime(time.Now()))
	if data, err := json.Marshal(statusOrEmpty(r.Status)); err != nil {
		return "", err
	} else {
		bind.Set("status", string(data))
	}
	return bind.Replace("${minion.worker_insert}"), nil
}

func statusOrEmpty(s map[string]any) map[string]any {
	if s == nil {
		return map[string]any{}
	}
	return s
}

////////////////////////////////////////////////////////////////////////////////
// SELECTOR

func (w WorkerId) Select(bind *db.Bind, op db.Op) (string, error) {
	bind.Set("id", uint64(w))
	switch op {
	case db.Get:
		return bind.Replace("${minion.worker_get}"), nil
	default:
		return "", db.ErrInternalError.Withf("unsupported WorkerId operation %q", op)
	}
}

func (r WorkerRegister) Select(bind *db.Bind, op db.Op) (string, error) {
	if r.Id == 0 {
		return "", db.ErrBadParameter.With("missing worker id")
	}
	bind.Set("id", r.Id)
	bind.Set("now", types.FormatTime(time.Now()))
	if data, err := json.Marshal(statusOrEmpty(r.Status)); err != nil {
		return "", err
	} else {
		bind.Set("status", string(data))
	}

	switch op {
	case db.Update:
		return bind.Replace("${minion.worker_touch}"), nil
	default:
		return "", db.ErrInternalError.Withf("unsupported WorkerRegister operation %q", op)
	}
}

func (u WorkerUnregister) Select(bind *db.Bind, op db.Op) (string, error) {
	if u.Id == 0 {
		return "", db.ErrBadParameter.With("missing worker id")
	}
	bind.Set("id", u.Id)
	switch op {
	case db.Delete:
		return bind.Replace("${minion.worker_unregister}"), nil
	default:
		return "", db.ErrInternalError.Withf("unsupported WorkerUnregister operation %q", op)
	}
}

func (b WorkerBroadcast) Select(bind *db.Bind, op db.Op) (string, error) {
	if strings.TrimSpace(b.Command) == "" {
		return "", db.ErrBadParameter.With("missing command")
	}
	msg := append([]any{b.Command}, b.Args...)
	data, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}
	bind.Set("msg", string(data))

	if len(b.Ids) == 0 {
		bind.Set("where", "")
	} else {
		bind.Set("where", "WHERE id IN ("+numericList(b.Ids)+")")
	}

	switch op {
	case db.Update:
		return bind.Replace("${minion.worker_broadcast}"), nil
	default:
		return "", db.ErrInternalError.Withf("unsupported WorkerBroadcast operation %q", op)
	}
}

func (r WorkerReceive) Select(bind *db.Bind, op db.Op) (string, error) {
	if r.Id == 0 {
		return "", db.ErrBadParameter.With("missing worker id")
	}
	bind.Set("id", r.Id)
	switch op {
	case db.Get:
		return bind.Replace("${minion.worker_receive}"), nil
	default:
		return "", db.ErrInternalError.Withf("unsupported WorkerReceive operation %q", op)
	}
}

func (l WorkerListRequest) Select(bind *db.Bind, op db.Op) (string, error) {
	var where []string
	if l.Before != nil {
		where = append(where, `started < `+bind.Set("before", types.FormatTime(*l.Before)))
	}
	if len(l.Ids) > 0 {
		where = append(where, `id IN (`+numericList(l.Ids)+`)`)
	}
	if len(where) == 0 {
		bind.Set("where", "")
	} else {
		bind.Set("where", "WHERE "+strings.Join(where, " AND "))
	}
	l.OffsetLimit.Bind(bind, WorkerListLimit)

	switch op {
	case db.List:
		return bind.Replace("${minion.worker_list}"), nil
	default:
		return "", db.ErrInternalError.Withf("unsupported WorkerListRequest operation %q", op)
	}
}
