package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lawgraph-core/server/internal/agent/repo"
)

func TestSessionLocker_LockUnlock(t *testing.T) {
	mr, client := newTestRedis(t)
	locker := repo.NewRedisSessionLocker(client)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "session-1", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("conversation:lock:session-1"))

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("conversation:lock:session-1"))
}

func TestSessionLocker_Contention(t *testing.T) {
	_, client := newTestRedis(t)
	locker := repo.NewRedisSessionLocker(client)
	ctx := context.Background()

	unlock1, err := locker.Lock(ctx, "shared", 5*time.Second)
	require.NoError(t, err)

	// A second turn for the same session polls until its context expires.
	ctxTimeout, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()

	_, err = locker.Lock(ctxTimeout, "shared", 5*time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock1(ctx))

	unlock2, err := locker.Lock(ctx, "shared", 5*time.Second)
	require.NoError(t, err)
	defer unlock2(ctx)
}

func TestSessionLocker_UnlockIgnoresStolenLock(t *testing.T) {
	mr, client := newTestRedis(t)
	locker := repo.NewRedisSessionLocker(client)
	ctx := context.Background()

	unlock1, err := locker.Lock(ctx, "expiring", 100*time.Millisecond)
	require.NoError(t, err)

	// Expire the first lock; a second turn then acquires it.
	mr.FastForward(200 * time.Millisecond)
	unlock2, err := locker.Lock(ctx, "expiring", 5*time.Second)
	require.NoError(t, err)

	// The stale unlock must not release the second holder's lock.
	require.NoError(t, unlock1(ctx))
	assert.True(t, mr.Exists("conversation:lock:expiring"))

	require.NoError(t, unlock2(ctx))
	assert.False(t, mr.Exists("conversation:lock:expiring"))
}

func TestSessionLocker_IndependentSessions(t *testing.T) {
	_, client := newTestRedis(t)
	locker := repo.NewRedisSessionLocker(client)
	ctx := context.Background()

	unlockA, err := locker.Lock(ctx, "session-a", 5*time.Second)
	require.NoError(t, err)
	defer unlockA(ctx)

	// Different sessions never contend with each other.
	ctxTimeout, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	unlockB, err := locker.Lock(ctxTimeout, "session-b", 5*time.Second)
	require.NoError(t, err)
	defer unlockB(ctx)
}
