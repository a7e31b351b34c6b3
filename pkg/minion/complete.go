package minion

import (
	"context"
	"errors"

	// Packages
	db "github.com/Grinnz/minion-pg/pkg/db"
	schema "github.com/Grinnz/minion-pg/pkg/minion/schema"
	attribute "go.opentelemetry.io/otel/attribute"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS - COMPLETION

// FinishJob marks an active job finished, provided it is still at retries
// (no concurrent retry or force-fail has moved it on). Returns false if the
// job was no longer active at that retry count.
func (manager *Manager) FinishJob(ctx context.Context, id, retries uint64, result any) (bool, error) {
	ctx, endspan := manager.startSpan(ctx, "finish", attribute.Int64("id", int64(id)))
	var spanErr error
	defer func() { endspan(spanErr) }()

	ok, _, err := manager.complete(ctx, schema.JobComplete{Id: id, Retries: retries, Result: result})
	spanErr = err
	return ok, err
}

// FailJob marks an active job failed, provided it is still at retries, then
// automatically re-enqueues it with backoff if attempts remain. attempts is
// sourced from the backend rather than the caller. Returns false if the job
// was no longer active at that retry count.
func (manager *Manager) FailJob(ctx context.Context, id, retries uint64, result any) (bool, error) {
	ctx, endspan := manager.startSpan(ctx, "fail", attribute.Int64("id", int64(id)))
	var spanErr error
	defer func() { endspan(spanErr) }()

	ok, attempts, err := manager.complete(ctx, schema.JobComplete{Id: id, Retries: retries, Fail: true, Result: result})
	if err != nil || !ok {
		spanErr = err
		return ok, err
	}
	if attempts != 0 && retries+1 >= attempts {
		return true, nil
	}
	if err := manager.retry(ctx, schema.JobRetry{Id: id, Retries: retries, Delay: manager.Backoff(retries)}); err != nil {
		spanErr = err
		return true, err
	}
	return true, nil
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (manager *Manager) complete(ctx context.Context, req schema.JobComplete) (bool, uint64, error) {
	var result schema.JobCompleteResult
	if err := manager.conn.Update(ctx, &result, req, nil); errors.Is(err, db.ErrNotFound) {
		return false, 0, nil
	} else if err != nil {
		return false, 0, err
	}
	return result.Id != 0, result.Attempts, nil
}
