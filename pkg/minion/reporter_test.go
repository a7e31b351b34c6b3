package minion_test

import (
	"context"
	"testing"

	// Packages
	minion "github.com/Grinnz/minion-pg/pkg/minion"
	schema "github.com/Grinnz/minion-pg/pkg/minion/schema"
	test "github.com/Grinnz/minion-pg/pkg/test"
	assert "github.com/stretchr/testify/assert"
	testutil "github.com/prometheus/client_golang/prometheus/testutil"
)

func Test_Reporter_Stats(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()

	mgr, err := minion.New(ctx, conn, minion.WithNamespace(test.UniqueNamespace(t)))
	assert.NoError(err)

	worker, err := mgr.RegisterWorker(ctx, "host", 1, nil)
	assert.NoError(err)

	_, err = mgr.Enqueue(ctx, schema.JobEnqueue{Task: "counted"})
	assert.NoError(err)

	job, err := mgr.Dequeue(ctx, worker, nil, nil)
	assert.NoError(err)
	assert.NotNil(job)

	stats, err := mgr.Stats(ctx)
	assert.NoError(err)
	assert.EqualValues(1, stats.ActiveJobs)
	assert.EqualValues(0, stats.InactiveJobs)
	assert.EqualValues(1, stats.ActiveWorkers)

	ok, err := mgr.FinishJob(ctx, job.Id, job.Retries, nil)
	assert.NoError(err)
	assert.True(ok)

	stats, err = mgr.Stats(ctx)
	assert.NoError(err)
	assert.EqualValues(0, stats.ActiveJobs)
	assert.EqualValues(1, stats.FinishedJobs)
}

func Test_Reporter_History(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()

	mgr, err := minion.New(ctx, conn, minion.WithNamespace(test.UniqueNamespace(t)))
	assert.NoError(err)

	history, err := mgr.History(ctx)
	assert.NoError(err)
	assert.Len(history.Daily, 24)
}

func Test_Reporter_Collector(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()

	mgr, err := minion.New(ctx, conn, minion.WithNamespace(test.UniqueNamespace(t)))
	assert.NoError(err)

	_, err = mgr.Enqueue(ctx, schema.JobEnqueue{Task: "metric_source"})
	assert.NoError(err)

	collector := mgr.Collector()

	// Five job-state gauges, two worker gauges, one lock gauge.
	assert.Equal(8, testutil.CollectAndCount(collector, "minion_jobs", "minion_workers", "minion_locks"))
}
