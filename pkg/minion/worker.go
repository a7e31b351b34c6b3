package minion

import (
	"context"

	// Packages
	db "github.com/Grinnz/minion-pg/pkg/db"
	schema "github.com/Grinnz/minion-pg/pkg/minion/schema"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS - WORKERS

// RegisterWorker inserts a new worker row and returns its id.
func (manager *Manager) RegisterWorker(ctx context.Context, host string, pid uint64, status map[string]any) (uint64, error) {
	var id schema.WorkerIdResult
	if err := manager.conn.Insert(ctx, &id, schema.WorkerRegister{Host: host, Pid: pid, Status: status}); err != nil {
		return 0, err
	}
	return id.Id, nil
}

// TouchWorker refreshes an already-registered worker's heartbeat and status.
func (manager *Manager) TouchWorker(ctx context.Context, id uint64, status map[string]any) error {
	var result schema.WorkerIdResult
	if err := manager.conn.Update(ctx, &result, schema.WorkerRegister{Id: id, Status: status}, nil); err != nil {
		return err
	}
	if result.Id == 0 {
		return db.ErrNotFound.Withf("worker %d", id)
	}
	return nil
}

// UnregisterWorker removes a worker's row.
func (manager *Manager) UnregisterWorker(ctx context.Context, id uint64) error {
	var result schema.WorkerIdResult
	if err := manager.conn.Delete(ctx, &result, schema.WorkerUnregister{Id: id}); err != nil {
		return err
	}
	if result.Id == 0 {
		return db.ErrNotFound.Withf("worker %d", id)
	}
	return nil
}

// GetWorker returns a single worker by id.
func (manager *Manager) GetWorker(ctx context.Context, id uint64) (*schema.Worker, error) {
	var worker schema.Worker
	if err := manager.conn.Get(ctx, &worker, schema.WorkerId(id)); err != nil {
		return nil, err
	}
	return &worker, nil
}

// ListWorkers returns workers matching req, along with the total matching count.
func (manager *Manager) ListWorkers(ctx context.Context, req schema.WorkerListRequest) (*schema.WorkerList, error) {
	var list schema.WorkerList
	if err := manager.conn.List(ctx, &list, req); err != nil {
		return nil, err
	}
	return &list, nil
}

// Broadcast appends [command, args...] to the inbox of every worker in ids,
// or every worker when ids is empty.
func (manager *Manager) Broadcast(ctx context.Context, command string, args []any, ids []uint64) error {
	return manager.conn.Update(ctx, nil, schema.WorkerBroadcast{Command: command, Args: args, Ids: ids}, nil)
}

// Receive atomically reads and clears a worker's inbox.
func (manager *Manager) Receive(ctx context.Context, id uint64) ([]any, error) {
	var inbox schema.WorkerInbox
	if err := manager.conn.Get(ctx, &inbox, schema.WorkerReceive{Id: id}); err != nil {
		return nil, err
	}
	return inbox.Messages, nil
}
