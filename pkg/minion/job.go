package minion

import (
	"context"

	// Packages
	db "github.com/Grinnz/minion-pg/pkg/db"
	schema "github.com/Grinnz/minion-pg/pkg/minion/schema"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS - JOBS

// Enqueue inserts a new job and returns its id.
func (manager *Manager) Enqueue(ctx context.Context, job schema.JobEnqueue) (uint64, error) {
	var id schema.JobIdResult
	if err := manager.conn.Insert(ctx, &id, job); err != nil {
		return 0, err
	}
	return id.Id, nil
}

// GetJob returns a single job by id.
func (manager *Manager) GetJob(ctx context.Context, id uint64) (*schema.Job, error) {
	var job schema.Job
	if err := manager.conn.Get(ctx, &job, schema.JobId(id)); err != nil {
		return nil, err
	}
	return &job, nil
}

// ListJobs returns jobs matching req, along with the total matching count.
func (manager *Manager) ListJobs(ctx context.Context, req schema.JobListRequest) (*schema.JobList, error) {
	var list schema.JobList
	if err := manager.conn.List(ctx, &list, req); err != nil {
		return nil, err
	}
	return &list, nil
}

// RemoveJob deletes a job that is not currently active.
func (manager *Manager) RemoveJob(ctx context.Context, id uint64) error {
	var result schema.JobIdResult
	if err := manager.conn.Delete(ctx, &result, schema.JobRemove{Id: id}); err != nil {
		return err
	}
	if result.Id == 0 {
		return db.ErrNotFound.Withf("job %d is not removable", id)
	}
	return nil
}

// Note merges keys into a job's notes map, or removes a key when its value
// is nil.
func (manager *Manager) Note(ctx context.Context, id uint64, notes map[string]any) error {
	var result schema.JobIdResult
	if err := manager.conn.Update(ctx, &result, schema.JobNote{Id: id, Notes: notes}, nil); err != nil {
		return err
	}
	if result.Id == 0 {
		return db.ErrNotFound.Withf("job %d", id)
	}
	return nil
}
