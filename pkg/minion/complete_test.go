package minion_test

import (
	"context"
	"testing"
	"time"

	// Packages
	minion "github.com/Grinnz/minion-pg/pkg/minion"
	schema "github.com/Grinnz/minion-pg/pkg/minion/schema"
	test "github.com/Grinnz/minion-pg/pkg/test"
	assert "github.com/stretchr/testify/assert"
)

func Test_Complete_FinishJob(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()

	mgr, err := minion.New(ctx, conn, minion.WithNamespace(test.UniqueNamespace(t)))
	assert.NoError(err)

	worker, err := mgr.RegisterWorker(ctx, "host", 1, nil)
	assert.NoError(err)

	id, err := mgr.Enqueue(ctx, schema.JobEnqueue{Task: "sum"})
	assert.NoError(err)

	job, err := mgr.Dequeue(ctx, worker, nil, nil)
	assert.NoError(err)
	assert.NotNil(job)

	ok, err := mgr.FinishJob(ctx, job.Id, job.Retries, map[string]any{"sum": float64(4)})
	assert.NoError(err)
	assert.True(ok)

	got, err := mgr.GetJob(ctx, id)
	assert.NoError(err)
	assert.Equal("finished", got.State)
	assert.Equal(map[string]any{"sum": float64(4)}, got.Result)

	t.Run("StaleRetriesReturnsFalse", func(t *testing.T) {
		ok, err := mgr.FinishJob(ctx, job.Id, job.Retries, nil)
		assert.NoError(err)
		assert.False(ok)
	})
}

func Test_Complete_FailJobRetriesUntilExhausted(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()

	mgr, err := minion.New(ctx, conn, minion.WithNamespace(test.UniqueNamespace(t)),
		minion.WithBackoff(func(uint64) time.Duration { return 0 }))
	assert.NoError(err)

	worker, err := mgr.RegisterWorker(ctx, "host", 1, nil)
	assert.NoError(err)

	id, err := mgr.Enqueue(ctx, schema.JobEnqueue{Task: "flaky", Attempts: 3})
	assert.NoError(err)

	for attempt := uint64(0); attempt < 2; attempt++ {
		job, err := mgr.Dequeue(ctx, worker, nil, nil)
		assert.NoError(err)
		if !assert.NotNil(job) {
			t.FailNow()
		}
		assert.Equal(id, job.Id)
		assert.Equal(attempt, job.Retries)

		ok, err := mgr.FailJob(ctx, job.Id, job.Retries, map[string]any{"error": "boom"})
		assert.NoError(err)
		assert.True(ok)

		got, err := mgr.GetJob(ctx, id)
		assert.NoError(err)
		assert.Equal("inactive", got.State)
		assert.Equal(attempt+1, got.Retries)
	}

	// Third and final attempt exhausts retries and stays failed.
	job, err := mgr.Dequeue(ctx, worker, nil, nil)
	assert.NoError(err)
	assert.NotNil(job)

	ok, err := mgr.FailJob(ctx, job.Id, job.Retries, map[string]any{"error": "boom"})
	assert.NoError(err)
	assert.True(ok)

	got, err := mgr.GetJob(ctx, id)
	assert.NoError(err)
	assert.Equal("failed", got.State)
}

func Test_Retry_RetryJob(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()

	mgr, err := minion.New(ctx, conn, minion.WithNamespace(test.UniqueNamespace(t)))
	assert.NoError(err)

	worker, err := mgr.RegisterWorker(ctx, "host", 1, nil)
	assert.NoError(err)

	id, err := mgr.Enqueue(ctx, schema.JobEnqueue{Task: "manual_retry"})
	assert.NoError(err)

	job, err := mgr.Dequeue(ctx, worker, nil, nil)
	assert.NoError(err)
	assert.NotNil(job)

	ok, err := mgr.FinishJob(ctx, job.Id, job.Retries, nil)
	assert.NoError(err)
	assert.True(ok)

	priority := 9
	ok, err = mgr.RetryJob(ctx, id, job.Retries, minion.RetryOpt{Priority: &priority})
	assert.NoError(err)
	assert.True(ok)

	got, err := mgr.GetJob(ctx, id)
	assert.NoError(err)
	assert.Equal("inactive", got.State)
	assert.Equal(9, got.Priority)

	t.Run("StaleRetriesReturnsFalse", func(t *testing.T) {
		ok, err := mgr.RetryJob(ctx, id, 999, minion.RetryOpt{})
		assert.NoError(err)
		assert.False(ok)
	})
}
