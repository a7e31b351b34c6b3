package minion_test

import (
	"context"
	"errors"
	"testing"
	"time"

	// Packages
	minion "github.com/Grinnz/minion-pg/pkg/minion"
	schema "github.com/Grinnz/minion-pg/pkg/minion/schema"
	test "github.com/Grinnz/minion-pg/pkg/test"
	assert "github.com/stretchr/testify/assert"
)

func Test_Lock_AcquireAndRelease(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()

	mgr, err := minion.New(ctx, conn, minion.WithNamespace(test.UniqueNamespace(t)))
	assert.NoError(err)

	ok, err := mgr.Lock(ctx, "import_csv", time.Minute, 1)
	assert.NoError(err)
	assert.True(ok)

	t.Run("SecondAcquireBlockedByLimit", func(t *testing.T) {
		ok, err := mgr.Lock(ctx, "import_csv", time.Minute, 1)
		assert.NoError(err)
		assert.False(ok)
	})

	t.Run("ReleaseFreesTheSlot", func(t *testing.T) {
		released, err := mgr.Unlock(ctx, "import_csv")
		assert.NoError(err)
		assert.True(released)

		ok, err := mgr.Lock(ctx, "import_csv", time.Minute, 1)
		assert.NoError(err)
		assert.True(ok)
	})

	t.Run("UnlockOfUnheldNameReturnsFalse", func(t *testing.T) {
		released, err := mgr.Unlock(ctx, "never_taken")
		assert.NoError(err)
		assert.False(released)
	})

	t.Run("ZeroLimitDefaultsToOne", func(t *testing.T) {
		ok, err := mgr.Lock(ctx, "default_limit", time.Minute, 0)
		assert.NoError(err)
		assert.True(ok)

		ok, err = mgr.Lock(ctx, "default_limit", time.Minute, 0)
		assert.NoError(err)
		assert.False(ok)
	})
}

func Test_Lock_FeasibilityCheckOnly(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()

	mgr, err := minion.New(ctx, conn, minion.WithNamespace(test.UniqueNamespace(t)))
	assert.NoError(err)

	ok, err := mgr.Lock(ctx, "check_only", 0, 1)
	assert.NoError(err)
	assert.True(ok)

	list, err := mgr.ListLocks(ctx, schema.LockListRequest{Names: []string{"check_only"}})
	assert.NoError(err)
	assert.Zero(list.Count)
}

func Test_Lock_WithLock(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()

	mgr, err := minion.New(ctx, conn, minion.WithNamespace(test.UniqueNamespace(t)))
	assert.NoError(err)

	ran := false
	ok, err := mgr.WithLock(ctx, "critical_section", time.Minute, 1, func(context.Context) error {
		ran = true
		return nil
	})
	assert.NoError(err)
	assert.True(ok)
	assert.True(ran)

	// Lock must have been released after fn returned.
	locked, err := mgr.Lock(ctx, "critical_section", time.Minute, 1)
	assert.NoError(err)
	assert.True(locked)
	_, _ = mgr.Unlock(ctx, "critical_section")

	t.Run("PropagatesFnError", func(t *testing.T) {
		boom := errors.New("boom")
		ok, err := mgr.WithLock(ctx, "critical_section", time.Minute, 1, func(context.Context) error {
			return boom
		})
		assert.True(ok)
		assert.ErrorIs(err, boom)
	})
}
