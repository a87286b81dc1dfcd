package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Gunvolt24/mpsync/internal/domain"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	t.Parallel()
	k := NewKeyedMutex()
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := k.Lock(ctx, "EXT-1")
			if err != nil {
				t.Error(err)
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			_ = unlock(ctx)
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, maxInside)
	require.Empty(t, k.slots)
}

func TestKeyedMutex_DifferentKeysIndependent(t *testing.T) {
	t.Parallel()
	k := NewKeyedMutex()
	ctx := context.Background()

	unlockA, err := k.Lock(ctx, "A")
	require.NoError(t, err)
	defer func() { _ = unlockA(ctx) }()

	ctxB, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	unlockB, err := k.Lock(ctxB, "B")
	require.NoError(t, err)
	require.NoError(t, unlockB(ctx))
}

func TestKeyedMutex_TimeoutAndDoubleUnlock(t *testing.T) {
	t.Parallel()
	k := NewKeyedMutex()
	ctx := context.Background()

	unlock, err := k.Lock(ctx, "busy")
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = k.Lock(waitCtx, "busy")
	require.True(t, errors.Is(err, domain.ErrLockTimeout), "got %v", err)

	require.NoError(t, unlock(ctx))
	require.NoError(t, unlock(ctx)) // повторный вызов ничего не делает

	again, err := k.Lock(ctx, "busy")
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}
