package minion

import (
	"context"
	"errors"
	"time"

	// Packages
	db "github.com/Grinnz/minion-pg/pkg/db"
	schema "github.com/Grinnz/minion-pg/pkg/minion/schema"
	attribute "go.opentelemetry.io/otel/attribute"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS - DISPATCH

// Dequeue retains and returns the highest priority eligible job for worker,
// restricted to queues (the default queue when none are given) and to tasks
// when given (no tasks means any task). It returns nil if there is no
// eligible job right now.
func (manager *Manager) Dequeue(ctx context.Context, worker uint64, queues, tasks []string) (*schema.JobDequeued, error) {
	ctx, endspan := manager.startSpan(ctx, "dispatch", attribute.Int64("worker", int64(worker)))
	var result error
	defer func() { endspan(result) }()

	var job schema.JobDequeued
	if err := manager.conn.Get(ctx, &job, schema.JobTry{Worker: worker, Queues: queues, Tasks: tasks}); errors.Is(err, db.ErrNotFound) {
		return nil, nil
	} else if err != nil {
		result = err
		return nil, err
	}
	return &job, nil
}

// DequeueWait retains and returns the highest priority eligible job for
// worker, polling every dequeue interval until one becomes available or
// wait elapses, whichever comes first. It always makes one final attempt
// once wait has elapsed before giving up, and returns nil if none was
// eligible by then.
func (manager *Manager) DequeueWait(ctx context.Context, worker uint64, wait time.Duration, queues, tasks []string) (*schema.JobDequeued, error) {
	ctx, endspan := manager.startSpan(ctx, "dispatch.wait", attribute.Int64("worker", int64(worker)))
	var result error
	defer func() { endspan(result) }()

	deadline := time.Now().Add(wait)
	for {
		job, err := manager.Dequeue(ctx, worker, queues, tasks)
		if err != nil {
			result = err
			return nil, err
		}
		if job != nil {
			return job, nil
		}
		if wait <= 0 {
			return nil, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, nil
		}

		interval := manager.dequeueInterval
		if interval <= 0 || interval > remaining {
			interval = remaining
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, nil
		case <-timer.C:
		}
	}
}

// RunDispatchLoop retains jobs for worker as they become eligible and sends
// them on ch, until ctx is cancelled or an error occurs. There is no
// notification channel to wake on: the store is a single file polled on an
// interval, so this is a plain poll loop at the manager's configured
// dequeue interval.
func (manager *Manager) RunDispatchLoop(ctx context.Context, worker uint64, ch chan<- *schema.JobDequeued, queues, tasks []string) error {
	if err := manager.pollForJobs(ctx, worker, queues, tasks, ch); err != nil {
		return err
	}

	timer := time.NewTimer(manager.dequeueInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			if err := manager.pollForJobs(ctx, worker, queues, tasks, ch); err != nil {
				return err
			}
			timer.Reset(manager.dequeueInterval)
		}
	}
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (manager *Manager) pollForJobs(ctx context.Context, worker uint64, queues, tasks []string, ch chan<- *schema.JobDequeued) error {
	for {
		job, err := manager.Dequeue(ctx, worker, queues, tasks)
		if err != nil {
			return err
		}
		if job == nil {
			return nil
		}
		ch <- job
	}
}
