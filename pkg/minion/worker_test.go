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

func Test_Worker_RegisterAndTouch(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()

	mgr, err := minion.New(ctx, conn, minion.WithNamespace(test.UniqueNamespace(t)))
	assert.NoError(err)

	id, err := mgr.RegisterWorker(ctx, "worker1.local", 4242, map[string]any{"version": "1.0"})
	assert.NoError(err)
	assert.NotZero(id)

	worker, err := mgr.GetWorker(ctx, id)
	assert.NoError(err)
	assert.Equal("worker1.local", worker.Host)
	assert.EqualValues(4242, worker.Pid)
	assert.Equal("1.0", worker.Status["version"])

	assert.NoError(mgr.TouchWorker(ctx, id, map[string]any{"jobs": float64(3)}))

	worker, err = mgr.GetWorker(ctx, id)
	assert.NoError(err)
	assert.Equal(float64(3), worker.Status["jobs"])

	err = mgr.TouchWorker(ctx, 999999999, nil)
	assert.Error(err)
	assert.ErrorIs(err, db.ErrNotFound)
}

func Test_Worker_Unregister(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()

	mgr, err := minion.New(ctx, conn, minion.WithNamespace(test.UniqueNamespace(t)))
	assert.NoError(err)

	id, err := mgr.RegisterWorker(ctx, "worker2.local", 1, nil)
	assert.NoError(err)

	assert.NoError(mgr.UnregisterWorker(ctx, id))

	_, err = mgr.GetWorker(ctx, id)
	assert.ErrorIs(err, db.ErrNotFound)

	err = mgr.UnregisterWorker(ctx, id)
	assert.ErrorIs(err, db.ErrNotFound)
}

func Test_Worker_ListWorkers(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()

	mgr, err := minion.New(ctx, conn, minion.WithNamespace(test.UniqueNamespace(t)))
	assert.NoError(err)

	for i := 0; i < 2; i++ {
		_, err := mgr.RegisterWorker(ctx, "host", uint64(i+1), nil)
		assert.NoError(err)
	}

	list, err := mgr.ListWorkers(ctx, schema.WorkerListRequest{})
	assert.NoError(err)
	assert.EqualValues(2, list.Count)
	assert.Len(list.Body, 2)
}

func Test_Worker_BroadcastAndReceive(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()

	mgr, err := minion.New(ctx, conn, minion.WithNamespace(test.UniqueNamespace(t)))
	assert.NoError(err)

	id, err := mgr.RegisterWorker(ctx, "host", 1, nil)
	assert.NoError(err)

	other, err := mgr.RegisterWorker(ctx, "host2", 2, nil)
	assert.NoError(err)

	assert.NoError(mgr.Broadcast(ctx, "stop", nil, []uint64{id}))

	msgs, err := mgr.Receive(ctx, id)
	assert.NoError(err)
	assert.Equal([]any{[]any{"stop"}}, msgs)

	// Not targeted, so should still be empty.
	msgs, err = mgr.Receive(ctx, other)
	assert.NoError(err)
	assert.Empty(msgs)

	// Inbox is cleared after receipt.
	msgs, err = mgr.Receive(ctx, id)
	assert.NoError(err)
	assert.Empty(msgs)

	t.Run("BroadcastToAllWhenIdsEmpty", func(t *testing.T) {
		assert.NoError(mgr.Broadcast(ctx, "ping", []any{"now"}, nil))

		msgs, err := mgr.Receive(ctx, id)
		assert.NoError(err)
		assert.Equal([]any{[]any{"ping", "now"}}, msgs)

		msgs, err = mgr.Receive(ctx, other)
		assert.NoError(err)
		assert.Equal([]any{[]any{"ping", "now"}}, msgs)
	})
}
