package schema

import (
	"time"

	// Packages
	db "github.com/Grinnz/minion-pg/pkg/db"
	types "github.com/Grinnz/minion-pg/pkg/db/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Stats is the aggregated counters returned by the reporter's stats() call.
type Stats struct {
	ActiveJobs      uint64 `json:"active_jobs"`
	InactiveJobs    uint64 `json:"inactive_jobs"`
	ActiveWorkers   uint64 `json:"active_workers"`
	InactiveWorkers uint64 `json:"inactive_workers"`
	FailedJobs      uint64 `json:"failed_jobs"`
	FinishedJobs    uint64 `json:"finished_jobs"`
	DelayedJobs     uint64 `json:"delayed_jobs"`
	ActiveLocks     uint64 `json:"active_locks"`
	EnqueuedJobs    uint64 `json:"enqueued_jobs"`
	UptimeSeconds   uint64 `json:"uptime"`
}

// HistoryBucket is one hour of the trailing-day history.
type HistoryBucket struct {
	Epoch        int64  `json:"epoch"`
	FinishedJobs uint64 `json:"finished_jobs"`
	FailedJobs   uint64 `json:"failed_jobs"`
}

// History is always exactly 24 buckets, one per trailing hour.
type History struct {
	Daily []HistoryBucket `json:"daily"`
}

// JobStatsRow scans the job-counter half of stats(); worker and lock
// counters are folded in separately by the reporter since they come from
// other tables.
type JobStatsRow struct {
	ActiveJobs   uint64
	InactiveJobs uint64
	FailedJobs   uint64
	FinishedJobs uint64
	DelayedJobs  uint64
	EnqueuedJobs uint64
}

type WorkerStatsRow struct {
	TotalWorkers  uint64
	ActiveWorkers uint64
}

type LockStatsRow struct {
	ActiveLocks uint64
}

// JobStatsSelector and WorkerStatsSelector/LockStatsSelector take no
// fields; the underlying queries have no filter beyond the current time.
type JobStatsSelector struct{}
type WorkerStatsSelector struct{}
type LockStatsSelector struct{}

// HistorySelector binds the 24-hour lookback window the history query
// groups by; the store only returns the hours that actually have rows,
// since an empty strftime-grouped hour produces no row to group.
type HistorySelector struct{}

// historyBucketRow is a raw bucket as SUM/strftime produced it, keyed by
// the "YYYY-MM-DD HH:00:00" text strftime emits, before Go zero-fills the
// 24 trailing hours that had no finished or failed jobs.
type historyBucketRow struct {
	bucket       string
	finishedJobs uint64
	failedJobs   uint64
}

// HistoryRows accumulates the raw, sparse buckets the history query
// returns; call Merge once all rows are scanned to zero-fill the 24
// trailing hours it didn't return a row for.
type HistoryRows struct {
	rows []historyBucketRow
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (s Stats) String() string   { return stringify(s) }
func (h History) String() string { return stringify(h) }

////////////////////////////////////////////////////////////////////////////////
// READER

func (s *JobStatsRow) Scan(row db.Row) error {
	return row.Scan(&s.ActiveJobs, &s.InactiveJobs, &s.FailedJobs, &s.FinishedJobs, &s.DelayedJobs, &s.EnqueuedJobs)
}

func (w *WorkerStatsRow) Scan(row db.Row) error {
	return row.Scan(&w.TotalWorkers, &w.ActiveWorkers)
}

func (l *LockStatsRow) Scan(row db.Row) error {
	return row.Scan(&l.ActiveLocks)
}

func (h *HistoryRows) Scan(row db.Row) error {
	var b historyBucketRow
	if err := row.Scan(&b.bucket, &b.finishedJobs, &b.failedJobs); err != nil {
		return err
	}
	h.rows = append(h.rows, b)
	return nil
}

// Merge builds the 24 trailing hourly buckets, zero-filling any hour the
// store returned no row for.
func (h *HistoryRows) Merge() History {
	byBucket := make(map[string]historyBucketRow, len(h.rows))
	for _, r := range h.rows {
		byBucket[r.bucket] = r
	}

	now := time.Now().UTC().Truncate(time.Hour)
	var out History
	for i := 23; i >= 0; i-- {
		hour := now.Add(-time.Duration(i) * time.Hour)
		key := hour.Format(historyBucketLayout)
		bucket := HistoryBucket{Epoch: hour.Unix()}
		if r, ok := byBucket[key]; ok {
			bucket.FinishedJobs = r.finishedJobs
			bucket.FailedJobs = r.failedJobs
		}
		out.Daily = append(out.Daily, bucket)
	}
	return out
}

const historyBucketLayout = "2006-01-02 15:04:05"

////////////////////////////////////////////////////////////////////////////////
// SELECTOR

func (JobStatsSelector) Select(bind *db.Bind, op db.Op) (string, error) {
	bind.Set("now", types.FormatTime(time.Now()))
	switch op {
	case db.Get:
		return bind.Replace("${minion.stats}"), nil
	default:
		return "", db.ErrInternalError
	}
}

func (WorkerStatsSelector) Select(bind *db.Bind, op db.Op) (string, error) {
	switch op {
	case db.Get:
		return bind.Replace("${minion.stats_workers}"), nil
	default:
		return "", db.ErrInternalError
	}
}

func (LockStatsSelector) Select(bind *db.Bind, op db.Op) (string, error) {
	bind.Set("now", types.FormatTime(time.Now()))
	switch op {
	case db.Get:
		return bind.Replace("${minion.stats_locks}"), nil
	default:
		return "", db.ErrInternalError
	}
}

func (HistorySelector) Select(bind *db.Bind, op db.Op) (string, error) {
	bind.Set("offsetlimit", "")
	bind.Set("since", types.FormatTime(time.Now().Add(-23*time.Hour).Truncate(time.Hour)))
	switch op {
	case db.List:
		return bind.Replace("${minion.history}"), nil
	default:
		return "", db.ErrInternalError
	}
}
