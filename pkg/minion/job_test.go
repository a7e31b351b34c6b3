package minion_test

import (
	"context"
	"testing"

	// Packages
	db "github.com/Grinnz/minion-pg/pkg/db"
	minion "github.com/Grinnz/minion-pg/pkg/minion"
	schema "github.com/Grinnz/minion-pg/pkg/minion/schema"
	test "github.com/Grinnz/minion-pg/pkg/test"
	assert "github.com/stretchr/testify/assert"
)

func Test_Job_Enqueue(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()

	mgr, err := minion.New(ctx, conn, minion.WithNamespace(test.UniqueNamespace(t)))
	assert.NoError(err)

	t.Run("Defaults", func(t *testing.T) {
		id, err := mgr.Enqueue(ctx, schema.JobEnqueue{Task: "add_numbers"})
		assert.NoError(err)
		assert.NotZero(id)

		job, err := mgr.GetJob(ctx, id)
		assert.NoError(err)
		assert.Equal("add_numbers", job.Task)
		assert.Equal(schema.DefaultQueue, job.Queue)
		assert.Equal("inactive", job.State)
		assert.Equal(uint64(1), job.Attempts)
	})

	t.Run("MissingTask", func(t *testing.T) {
		_, err := mgr.Enqueue(ctx, schema.JobEnqueue{})
		assert.Error(err)
		assert.ErrorIs(err, db.ErrBadParameter)
	})

	t.Run("WithArgsAndNotes", func(t *testing.T) {
		id, err := mgr.Enqueue(ctx, schema.JobEnqueue{
			Task:  "send_email",
			Args:  map[string]any{"to": "a@example.com"},
			Notes: map[string]any{"attempt_source": "api"},
		})
		assert.NoError(err)

		job, err := mgr.GetJob(ctx, id)
		assert.NoError(err)
		assert.Equal(map[string]any{"to": "a@example.com"}, job.Args)
		assert.Equal("api", job.Notes["attempt_source"])
	})

	t.Run("WithUnmetParentBlocksDispatch", func(t *testing.T) {
		parent, err := mgr.Enqueue(ctx, schema.JobEnqueue{Task: "parent_task"})
		assert.NoError(err)

		child, err := mgr.Enqueue(ctx, schema.JobEnqueue{Task: "child_task", Parents: []uint64{parent}})
		assert.NoError(err)

		worker, err := mgr.RegisterWorker(ctx, "host", 1, nil)
		assert.NoError(err)

		dequeued, err := mgr.Dequeue(ctx, worker, nil, []string{"child_task"})
		assert.NoError(err)
		assert.Nil(dequeued)

		parentJob, err := mgr.Dequeue(ctx, worker, nil, []string{"parent_task"})
		assert.NoError(err)
		if assert.NotNil(parentJob) {
			assert.Equal(parent, parentJob.Id)
		}

		ok, err := mgr.FinishJob(ctx, parentJob.Id, parentJob.Retries, nil)
		assert.NoError(err)
		assert.True(ok)

		dequeued, err = mgr.Dequeue(ctx, worker, nil, []string{"child_task"})
		assert.NoError(err)
		if assert.NotNil(dequeued) {
			assert.Equal(child, dequeued.Id)
		}
	})
}

func Test_Job_GetNotFound(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()

	mgr, err := minion.New(ctx, conn, minion.WithNamespace(test.UniqueNamespace(t)))
	assert.NoError(err)

	_, err = mgr.GetJob(ctx, 999999999)
	assert.Error(err)
	assert.ErrorIs(err, db.ErrNotFound)
}

func Test_Job_ListJobs(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()

	mgr, err := minion.New(ctx, conn, minion.WithNamespace(test.UniqueNamespace(t)))
	assert.NoError(err)

	for i := 0; i < 3; i++ {
		_, err := mgr.Enqueue(ctx, schema.JobEnqueue{Task: "list_me", Queue: "reports"})
		assert.NoError(err)
	}

	list, err := mgr.ListJobs(ctx, schema.JobListRequest{Queues: []string{"reports"}})
	assert.NoError(err)
	assert.EqualValues(3, list.Count)
	assert.Len(list.Body, 3)
}

func Test_Job_RemoveJob(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()

	mgr, err := minion.New(ctx, conn, minion.WithNamespace(test.UniqueNamespace(t)))
	assert.NoError(err)

	id, err := mgr.Enqueue(ctx, schema.JobEnqueue{Task: "removable"})
	assert.NoError(err)

	assert.NoError(mgr.RemoveJob(ctx, id))

	_, err = mgr.GetJob(ctx, id)
	assert.ErrorIs(err, db.ErrNotFound)

	err = mgr.RemoveJob(ctx, id)
	assert.Error(err)
	assert.ErrorIs(err, db.ErrNotFound)
}

func Test_Job_RemoveActiveJobFails(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()

	mgr, err := minion.New(ctx, conn, minion.WithNamespace(test.UniqueNamespace(t)))
	assert.NoError(err)

	id, err := mgr.Enqueue(ctx, schema.JobEnqueue{Task: "active_task"})
	assert.NoError(err)

	worker, err := mgr.RegisterWorker(ctx, "host", 1, nil)
	assert.NoError(err)

	dequeued, err := mgr.Dequeue(ctx, worker, nil, nil)
	assert.NoError(err)
	if assert.NotNil(dequeued) {
		assert.Equal(id, dequeued.Id)
	}

	err = mgr.RemoveJob(ctx, id)
	assert.Error(err)
	assert.ErrorIs(err, db.ErrNotFound)
}

func Test_Job_Note(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()

	mgr, err := minion.New(ctx, conn, minion.WithNamespace(test.UniqueNamespace(t)))
	assert.NoError(err)

	id, err := mgr.Enqueue(ctx, schema.JobEnqueue{Task: "annotated"})
	assert.NoError(err)

	assert.NoError(mgr.Note(ctx, id, map[string]any{"progress": float64(50)}))

	job, err := mgr.GetJob(ctx, id)
	assert.NoError(err)
	assert.Equal(float64(50), job.Notes["progress"])

	assert.NoError(mgr.Note(ctx, id, map[string]any{"progress": nil}))
	job, err = mgr.GetJob(ctx, id)
	assert.NoError(err)
	_, exists := job.Notes["progress"]
	assert.False(exists)
}
