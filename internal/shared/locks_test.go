package shared

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T) (*DocumentLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewDocumentLocker(client, time.Second), mr
}

func TestDocumentLocker_AcquireRelease(t *testing.T) {
	locker, mr := newTestLocker(t)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "invoice", 7)
	require.NoError(t, err)
	assert.True(t, mr.Exists(DocumentLockKey("invoice", 7)))

	_, err = locker.Acquire(ctx, "invoice", 7)
	assert.ErrorIs(t, err, ErrLockHeld)

	other, err := locker.Acquire(ctx, "invoice", 8)
	require.NoError(t, err)
	other()

	release()
	assert.False(t, mr.Exists(DocumentLockKey("invoice", 7)))

	again, err := locker.Acquire(ctx, "invoice", 7)
	require.NoError(t, err)
	again()
}

func TestDocumentLocker_Expires(t *testing.T) {
	locker, mr := newTestLocker(t)
	ctx := context.Background()

	_, err := locker.Acquire(ctx, "invoice", 1)
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	release, err := locker.Acquire(ctx, "invoice", 1)
	require.NoError(t, err)
	release()
}

func TestDocumentLocker_NilClientIsNoop(t *testing.T) {
	locker := NewDocumentLocker(nil, 0)
	release, err := locker.Acquire(context.Background(), "invoice", 1)
	require.NoError(t, err)
	release()
}

func TestNewError_Classification(t *testing.T) {
	err := NewError(ErrConflict, "quotation cannot be finalized")
	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "quotation cannot be finalized", err.Error())
}

func TestActorFromContext(t *testing.T) {
	assert.Equal(t, "system", ActorFromContext(context.Background()))
	ctx := ContextWithActor(context.Background(), "aina")
	assert.Equal(t, "aina", ActorFromContext(ctx))
}
