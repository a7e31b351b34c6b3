package minion

import (
	"context"
	"errors"
	"time"

	// Packages
	db "github.com/Grinnz/minion-pg/pkg/db"
	schema "github.com/Grinnz/minion-pg/pkg/minion/schema"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS - RETRY

// RetryOpt overrides a field of a manual retry; nil fields keep the job's
// existing value. Delay is counted from the time of the retry, so a zero
// Delay makes the job eligible immediately.
type RetryOpt struct {
	Delay    time.Duration
	Attempts *uint64
	Expire   *time.Duration
	Lax      *bool
	Parents  []uint64
	Priority *int
	Queue    *string
}

// RetryJob manually re-enqueues a job that is at retries, applying any
// overrides in opt. Returns false if the job was not at that retry count.
func (manager *Manager) RetryJob(ctx context.Context, id, retries uint64, opt RetryOpt) (bool, error) {
	req := schema.JobRetry{
		Id: id, Retries: retries, Delay: opt.Delay,
		Attempts: opt.Attempts, Expire: opt.Expire, Lax: opt.Lax,
		Parents: opt.Parents, Priority: opt.Priority, Queue: opt.Queue,
	}
	if err := manager.retry(ctx, req); errors.Is(err, db.ErrNotFound) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, nil
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (manager *Manager) retry(ctx context.Context, req schema.JobRetry) error {
	var result schema.JobIdResult
	if err := manager.conn.Update(ctx, &result, req, nil); err != nil {
		return err
	}
	if result.Id == 0 {
		return db.ErrNotFound.Withf("job %d at retries %d", req.Id, req.Retries)
	}
	return nil
}
