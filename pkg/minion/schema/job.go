package schema

import (
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	// Packages
	db "github.com/Grinnz/minion-pg/pkg/db"
	types "github.com/Grinnz/minion-pg/pkg/db/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type JobId uint64

// JobEnqueue is the writer for a new job row.
type JobEnqueue struct {
	Task     string         `json:"task"`
	Args     any            `json:"args,omitempty"`
	Queue    string         `json:"queue,omitempty"`
	Priority int            `json:"priority,omitempty"`
	Attempts uint64         `json:"attempts,omitempty"`
	Delay    time.Duration  `json:"delay,omitempty"`
	Expire   *time.Duration `json:"expire,omitempty"`
	Lax      bool           `json:"lax,omitempty"`
	Notes    map[string]any `json:"notes,omitempty"`
	Parents  []uint64       `json:"parents,omitempty"`
}

// Job is a full row of minion_jobs.
type Job struct {
	Id       uint64         `json:"id"`
	Task     string         `json:"task"`
	Args     any            `json:"args,omitempty"`
	Queue    string         `json:"queue"`
	Priority int            `json:"priority"`
	State    string         `json:"state"`
	Attempts uint64         `json:"attempts"`
	Retries  uint64         `json:"retries"`
	Lax      bool           `json:"lax"`
	Parents  []uint64       `json:"parents,omitempty"`
	Notes    map[string]any `json:"notes,omitempty"`
	Result   any            `json:"result,omitempty"`
	Worker   *uint64        `json:"worker,omitempty"`
	Delayed  time.Time      `json:"delayed"`
	Expires  *time.Time     `json:"expires,omitempty"`
	Created  time.Time      `json:"created"`
	Started  *time.Time     `json:"started,omitempty"`
	Retried  *time.Time     `json:"retried,omitempty"`
	Finished *time.Time     `json:"finished,omitempty"`
}

// JobTry selects and claims (in one statement) the next eligible job for
// worker across queues/tasks, optionally pinned to a single id.
type JobTry struct {
	Worker uint64   `json:"worker"`
	Queues []string `json:"queues,omitempty"`
	Tasks  []string `json:"tasks,omitempty"`
	Id     uint64   `json:"id,omitempty"`
}

// JobDequeued is the tuple returned by a successful dispatch.
type JobDequeued struct {
	Id      uint64 `json:"id"`
	Task    string `json:"task"`
	Args    any    `json:"args,omitempty"`
	Retries uint64 `json:"retries"`
}

// JobComplete is the conditional finish/fail writer keyed on (id, retries).
type JobComplete struct {
	Id      uint64 `json:"id"`
	Retries uint64 `json:"retries"`
	Fail    bool   `json:"fail,omitempty"`
	Result  any    `json:"result,omitempty"`
}

// JobRetry is the conditional retry writer keyed on (id, retries), with
// optional overrides; nil fields keep the existing value.
type JobRetry struct {
	Id       uint64         `json:"id"`
	Retries  uint64         `json:"retries"`
	Delay    time.Duration  `json:"delay,omitempty"`
	Attempts *uint64        `json:"attempts,omitempty"`
	Expire   *time.Duration `json:"expire,omitempty"`
	Lax      *bool          `json:"lax,omitempty"`
	Parents  []uint64       `json:"parents,omitempty"`
	Priority *int           `json:"priority,omitempty"`
	Queue    *string        `json:"queue,omitempty"`
}

// JobNote merges or removes keys from a job's notes map; a nil value
// removes the key.
type JobNote struct {
	Id    uint64         `json:"id"`
	Notes map[string]any `json:"notes"`
}

// JobRemove deletes a job, only from a terminal or not-yet-dispatched state.
type JobRemove struct {
	Id uint64 `json:"id"`
}

// JobForceFail transitions a job from state From to failed regardless of
// retries. The repair sweep does not use it; it fails stuck and orphaned
// jobs with its own repair_* statements.
type JobForceFail struct {
	Id     uint64 `json:"id"`
	From   string `json:"from"`
	Result string `json:"result"`
}

type JobListRequest struct {
	db.OffsetLimit
	Before *time.Time `json:"before,omitempty"`
	Ids    []uint64   `json:"ids,omitempty"`
	Queues []string   `json:"queues,omitempty"`
	States []string   `json:"states,omitempty"`
	Tasks  []string   `json:"tasks,omitempty"`
}

type JobList struct {
	JobListRequest
	Count uint64 `json:"count"`
	Body  []Job  `json:"body,omitempty"`
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (j Job) String() string     { return stringify(j) }
func (l JobList) String() string { return stringify(l) }

////////////////////////////////////////////////////////////////////////////////
// READER

func (j *Job) Scan(row db.Row) error {
	var args, notes, result, parents sql.NullString
	var delayed, created string
	var expires, started, retried, finished sql.NullString
	if err := row.Scan(
		&j.Id, &j.Task, &args, &j.Queue, &j.Priority, &j.State, &j.Attempts, &j.Retries,
		&j.Lax, &parents, &notes, &result, &j.Worker, &delayed, &expires,
		&created, &started, &retried, &finished,
	); err != nil {
		return err
	}

	var err error
	if j.Delayed, err = types.ParseTime(delayed); err != nil {
		return err
	}
	if j.Created, err = types.ParseTime(created); err != nil {
		return err
	}
	if j.Expires, err = scanOptionalTime(expires); err != nil {
		return err
	}
	if j.Started, err = scanOptionalTime(started); err != nil {
		return err
	}
	if j.Retried, err = scanOptionalTime(retried); err != nil {
		return err
	}
	if j.Finished, err = scanOptionalTime(finished); err != nil {
		return err
	}

	if parents.Valid && parents.String != "" {
		if err := json.Unmarshal([]byte(parents.String), &j.Parents); err != nil {
			return err
		}
	}
	if args.Valid && args.String != "" {
		if err := json.Unmarshal([]byte(args.String), &j.Args); err != nil {
			return err
		}
	}
	if notes.Valid && notes.String != "" {
		if err := json.Unmarshal([]byte(notes.String), &j.Notes); err != nil {
			return err
		}
	}
	if result.Valid && result.String != "" {
		if err := json.Unmarshal([]byte(result.String), &j.Result); err != nil {
			return err
		}
	}
	return nil
}

func scanOptionalTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := types.ParseTime(v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (l *JobList) Scan(row db.Row) error {
	var j Job
	if err := j.Scan(row); err != nil {
		return err
	}
	l.Body = append(l.Body, j)
	return nil
}

func (l *JobList) ScanCount(row db.Row) error {
	return row.Scan(&l.Count)
}

func (d *JobDequeued) Scan(row db.Row) error {
	var args sql.NullString
	if err := row.Scan(&d.Id, &d.Task, &args, &d.Retries); err != nil {
		return err
	}
	if args.Valid && args.String != "" {
		return json.Unmarshal([]byte(args.String), &d.Args)
	}
	return nil
}

// JobIdResult scans the single "id" column most write statements RETURN;
// zero means no row matched the WHERE clause.
type JobIdResult struct {
	Id uint64
}

func (r *JobIdResult) Scan(row db.Row) error {
	var id *uint64
	if err := row.Scan(&id); err != nil {
		return err
	}
	r.Id = types.PtrUint64(id)
	return nil
}

// JobCompleteResult scans the "id, attempts" columns returned by job_finish
// and job_fail; zero Id means no row matched the WHERE clause.
type JobCompleteResult struct {
	Id       uint64
	Attempts uint64
}

func (r *JobCompleteResult) Scan(row db.Row) error {
	var id *uint64
	if err := row.Scan(&id, &r.Attempts); err != nil {
		return err
	}
	r.Id = types.PtrUint64(id)
	return nil
}

////////////////////////////////////////////////////////////////////////////////
// WRITER

func (e JobEnqueue) Insert(bind *db.Bind) (string, error) {
	if strings.TrimSpace(e.Task) == "" {
		return "", db.ErrBadParameter.With("missing task")
	}
	bind.Set("task", e.Task)

	queue := e.Queue
	if queue == "" {
		queue = DefaultQueue
	}
	bind.Set("queue", queue)

	attempts := e.Attempts
	if attempts == 0 {
		attempts = 1
	}
	bind.Set("attempts", attempts)
	bind.Set("priority", e.Priority)
	bind.Set("lax", e.Lax)

	if e.Args == nil {
		bind.Set("args", nil)
	} else if data, err := json.Marshal(e.Args); err != nil {
		return "", err
	} else {
		bind.Set("args", string(data))
	}

	if e.Notes == nil {
		bind.Set("notes", "{}")
	} else if data, err := json.Marshal(e.Notes); err != nil {
		return "", err
	} else {
		bind.Set("notes", string(data))
	}

	parents := e.Parents
	if parents == nil {
		parents = []uint64{}
	}
	if data, err := json.Marshal(parents); err != nil {
		return "", err
	} else {
		bind.Set("parents", string(data))
	}

	now := time.Now()
	bind.Set("created", types.FormatTime(now))
	bind.Set("delayed", types.FormatTime(now.Add(e.Delay)))
	if e.Expire != nil {
		bind.Set("expires", types.FormatTime(now.Add(*e.Expire)))
	} else {
		bind.Set("expires", nil)
	}

	return bind.Replace("${minion.job_insert}"), nil
}

////////////////////////////////////////////////////////////////////////////////
// SELECTOR

func (j JobId) Select(bind *db.Bind, op db.Op) (string, error) {
	bind.Set("id", uint64(j))
	switch op {
	case db.Get:
		return bind.Replace("${minion.job_get}"), nil
	default:
		return "", db.ErrInternalError.Withf("unsupported JobId operation %q", op)
	}
}

func (t JobTry) Select(bind *db.Bind, op db.Op) (string, error) {
	queues := t.Queues
	if len(queues) == 0 {
		queues = []string{DefaultQueue}
	}
	bind.Set("queues", queues)
	bind.Set("now", types.FormatTime(time.Now()))
	bind.Set("worker", t.Worker)

	if len(t.Tasks) > 0 {
		bind.Set("taskfilter", "AND j.task IN ("+quotedList(t.Tasks)+")")
	} else {
		bind.Set("taskfilter", "")
	}
	if t.Id != 0 {
		bind.Set("idfilter", "AND j.id = "+strconv.FormatUint(t.Id, 10))
	} else {
		bind.Set("idfilter", "")
	}

	switch op {
	case db.Get:
		return bind.Replace("${minion.job_try}"), nil
	default:
		return "", db.ErrInternalError.Withf("unsupported JobTry operation %q", op)
	}
}

func (c JobComplete) Select(bind *db.Bind, op db.Op) (string, error) {
	if c.Id == 0 {
		return "", db.ErrBadParameter.With("missing job id")
	}
	bind.Set("id", c.Id)
	bind.Set("retries", c.Retries)
	bind.Set("now", types.FormatTime(time.Now()))

	data, err := json.Marshal(c.Result)
	if err != nil {
		return "", err
	}
	bind.Set("result", string(data))

	switch op {
	case db.Update:
		if c.Fail {
			return bind.Replace("${minion.job_fail}"), nil
		}
		return bind.Replace("${minion.job_finish}"), nil
	default:
		return "", db.ErrInternalError.Withf("unsupported JobComplete operation %q", op)
	}
}

func (r JobRetry) Select(bind *db.Bind, op db.Op) (string, error) {
	if r.Id == 0 {
		return "", db.ErrBadParameter.With("missing job id")
	}
	bind.Set("id", r.Id)
	bind.Set("retries", r.Retries)

	now := time.Now()
	bind.Set("now", types.FormatTime(now))
	bind.Set("delayed", types.FormatTime(now.Add(r.Delay)))

	if r.Attempts != nil {
		bind.Set("attempts", *r.Attempts)
	} else {
		bind.Set("attempts", nil)
	}
	if r.Expire != nil {
		bind.Set("hasexpire", true)
		bind.Set("expires", types.FormatTime(now.Add(*r.Expire)))
	} else {
		bind.Set("hasexpire", false)
		bind.Set("expires", nil)
	}
	if r.Lax != nil {
		bind.Set("lax", *r.Lax)
	} else {
		bind.Set("lax", nil)
	}
	if r.Parents != nil {
		data, err := json.Marshal(r.Parents)
		if err != nil {
			return "", err
		}
		bind.Set("parents", string(data))
	} else {
		bind.Set("parents", nil)
	}
	if r.Priority != nil {
		bind.Set("priority", *r.Priority)
	} else {
		bind.Set("priority", nil)
	}
	if r.Queue != nil {
		bind.Set("queue", *r.Queue)
	} else {
		bind.Set("queue", nil)
	}

	switch op {
	case db.Update:
		return bind.Replace("${minion.job_retry}"), nil
	default:
		return "", db.ErrInternalError.Withf("unsupported JobRetry operation %q", op)
	}
}

// Select renders the notes update as an RFC 7396 merge patch applied via
// SQLite's json_patch: a nil value in Notes marshals to JSON null, which
// json_patch treats as "remove this key", so no separate read-modify-write
// step is needed to support unsetting a note.
func (n JobNote) Select(bind *db.Bind, op db.Op) (string, error) {
	if n.Id == 0 {
		return "", db.ErrBadParameter.With("missing job id")
	}
	bind.Set("id", n.Id)

	patch := make(map[string]any, len(n.Notes))
	for k, v := range n.Notes {
		if strings.ContainsAny(k, ".[]") {
			return "", db.ErrBadParameter.Withf("invalid note key %q", k)
		}
		patch[k] = v
	}
	data, err := json.Marshal(patch)
	if err != nil {
		return "", err
	}
	bind.Set("patch", string(data))

	switch op {
	case db.Update:
		return bind.Replace("${minion.job_note}"), nil
	default:
		return "", db.ErrInternalError.Withf("unsupported JobNote operation %q", op)
	}
}

func (r JobRemove) Select(bind *db.Bind, op db.Op) (string, error) {
	if r.Id == 0 {
		return "", db.ErrBadParameter.With("missing job id")
	}
	bind.Set("id", r.Id)

	switch op {
	case db.Delete:
		return bind.Replace("${minion.job_remove}"), nil
	default:
		return "", db.ErrInternalError.Withf("unsupported JobRemove operation %q", op)
	}
}

func (f JobForceFail) Select(bind *db.Bind, op db.Op) (string, error) {
	if f.Id == 0 {
		return "", db.ErrBadParameter.With("missing job id")
	}
	bind.Set("id", f.Id)
	bind.Set("from", f.From)
	bind.Set("now", types.FormatTime(time.Now()))
	data, err := json.Marshal(f.Result)
	if err != nil {
		return "", err
	}
	bind.Set("result", string(data))

	switch op {
	case db.Update:
		return bind.Replace("${minion.job_force_fail}"), nil
	default:
		return "", db.ErrInternalError.Withf("unsupported JobForceFail operation %q", op)
	}
}

func (l JobListRequest) Select(bind *db.Bind, op db.Op) (string, error) {
	var where []string
	if l.Before != nil {
		where = append(where, `created < `+bind.Set("before", types.FormatTime(*l.Before)))
	}
	if len(l.Ids) > 0 {
		where = append(where, `id IN (`+numericList(l.Ids)+`)`)
	}
	if len(l.Queues) > 0 {
		where = append(where, `queue IN (`+quotedList(l.Queues)+`)`)
	}
	if len(l.States) > 0 {
		where = append(where, `state IN (`+quotedList(l.States)+`)`)
	}
	if len(l.Tasks) > 0 {
		where = append(where, `task IN (`+quotedList(l.Tasks)+`)`)
	}
	if len(where) == 0 {
		bind.Set("where", "")
	} else {
		bind.Set("where", "WHERE "+strings.Join(where, " AND "))
	}
	l.OffsetLimit.Bind(bind, JobListLimit)

	switch op {
	case db.List:
		return bind.Replace("${minion.job_list}"), nil
	default:
		return "", db.ErrInternalError.Withf("unsupported JobListRequest operation %q", op)
	}
}
