package minion_test

import (
	"context"
	"testing"
	"time"

	// Packages
	minion "github.com/Grinnz/minion-pg/pkg/minion"
	db "github.com/Grinnz/minion-pg/pkg/db"
	schema "github.com/Grinnz/minion-pg/pkg/minion/schema"
	test "github.com/Grinnz/minion-pg/pkg/test"
	assert "github.com/stretchr/testify/assert"
)

func Test_Repair_ExpiresDeadWorkers(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()

	mgr, err := minion.New(ctx, conn, minion.WithNamespace(test.UniqueNamespace(t)),
		minion.WithMissingAfter(10*time.Millisecond))
	assert.NoError(err)

	id, err := mgr.RegisterWorker(ctx, "stale.local", 1, nil)
	assert.NoError(err)

	time.Sleep(50 * time.Millisecond)
	assert.NoError(mgr.Repair(ctx))

	_, err = mgr.GetWorker(ctx, id)
	assert.ErrorIs(err, db.ErrNotFound)
}

func Test_Repair_FailsStuckInactiveJobs(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()

	mgr, err := minion.New(ctx, conn, minion.WithNamespace(test.UniqueNamespace(t)),
		minion.WithStuckAfter(10*time.Millisecond))
	assert.NoError(err)

	id, err := mgr.Enqueue(ctx, schema.JobEnqueue{Task: "never_claimed"})
	assert.NoError(err)

	time.Sleep(50 * time.Millisecond)
	assert.NoError(mgr.Repair(ctx))

	job, err := mgr.GetJob(ctx, id)
	assert.NoError(err)
	assert.Equal("failed", job.State)
}

func Test_Repair_RemovesOldFinishedJobs(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()

	mgr, err := minion.New(ctx, conn, minion.WithNamespace(test.UniqueNamespace(t)),
		minion.WithRemoveAfter(10*time.Millisecond))
	assert.NoError(err)

	worker, err := mgr.RegisterWorker(ctx, "host", 1, nil)
	assert.NoError(err)

	id, err := mgr.Enqueue(ctx, schema.JobEnqueue{Task: "short_lived"})
	assert.NoError(err)

	job, err := mgr.Dequeue(ctx, worker, nil, nil)
	assert.NoError(err)
	assert.NotNil(job)

	ok, err := mgr.FinishJob(ctx, job.Id, job.Retries, nil)
	assert.NoError(err)
	assert.True(ok)

	time.Sleep(50 * time.Millisecond)
	assert.NoError(mgr.Repair(ctx))

	_, err = mgr.GetJob(ctx, id)
	assert.ErrorIs(err, db.ErrNotFound)
}

func Test_Repair_KeepsFinishedJobWithPendingDependent(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()

	mgr, err := minion.New(ctx, conn, minion.WithNamespace(test.UniqueNamespace(t)),
		minion.WithRemoveAfter(10*time.Millisecond))
	assert.NoError(err)

	worker, err := mgr.RegisterWorker(ctx, "host", 1, nil)
	assert.NoError(err)

	parent, err := mgr.Enqueue(ctx, schema.JobEnqueue{Task: "parent"})
	assert.NoError(err)

	_, err = mgr.Enqueue(ctx, schema.JobEnqueue{Task: "child", Parents: []uint64{parent}})
	assert.NoError(err)

	job, err := mgr.Dequeue(ctx, worker, nil, nil)
	assert.NoError(err)
	assert.NotNil(job)

	ok, err := mgr.FinishJob(ctx, job.Id, job.Retries, nil)
	assert.NoError(err)
	assert.True(ok)

	time.Sleep(50 * time.Millisecond)
	assert.NoError(mgr.Repair(ctx))

	// The child still needs it, so it must survive the sweep.
	_, err = mgr.GetJob(ctx, parent)
	assert.NoError(err)
}

func Test_Repair_ReclaimsOrphanedActiveJobs(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()

	mgr, err := minion.New(ctx, conn, minion.WithNamespace(test.UniqueNamespace(t)),
		minion.WithBackoff(func(uint64) time.Duration { return 0 }))
	assert.NoError(err)

	worker, err := mgr.RegisterWorker(ctx, "gone.local", 1, nil)
	assert.NoError(err)

	id, err := mgr.Enqueue(ctx, schema.JobEnqueue{Task: "orphanable", Attempts: 2})
	assert.NoError(err)

	job, err := mgr.Dequeue(ctx, worker, nil, nil)
	assert.NoError(err)
	assert.NotNil(job)

	// Worker vanishes without ever completing the job.
	assert.NoError(mgr.UnregisterWorker(ctx, worker))

	assert.NoError(mgr.Repair(ctx))

	got, err := mgr.GetJob(ctx, id)
	assert.NoError(err)
	assert.Equal("inactive", got.State)
	assert.EqualValues(1, got.Retries)

	t.Run("ExhaustedAttemptsStaysFailed", func(t *testing.T) {
		worker2, err := mgr.RegisterWorker(ctx, "gone2.local", 1, nil)
		assert.NoError(err)

		job2, err := mgr.Dequeue(ctx, worker2, nil, nil)
		assert.NoError(err)
		assert.NotNil(job2)
		assert.Equal(id, job2.Id)

		assert.NoError(mgr.UnregisterWorker(ctx, worker2))
		assert.NoError(mgr.Repair(ctx))

		got, err := mgr.GetJob(ctx, id)
		assert.NoError(err)
		assert.Equal("failed", got.State)
	})
}
