package asyncx

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFutureAwait(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	fut := Run(func() (int, error) {
		<-release
		return 7, nil
	})

	_, ok := fut.Result()
	require.False(t, ok)

	close(release)

	results := make([]Result[int], 4)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i].Value, results[i].Err = fut.Await()
		}()
	}
	wg.Wait()

	for _, r := range results {
		require.NoError(t, r.Err)
		require.Equal(t, 7, r.Value)
	}

	res, ok := fut.Result()
	require.True(t, ok)
	require.True(t, res.OK())
	require.Equal(t, 7, res.Value)
}

func TestFutureError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	fut := Run(func() (string, error) { return "", boom })

	<-fut.Done()
	_, err := fut.Await()
	require.ErrorIs(t, err, boom)

	res, ok := fut.Result()
	require.True(t, ok)
	require.False(t, res.OK())
}

func TestFutureAwaitCtx(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	fut := Run(func() (string, error) {
		<-release
		return "late", nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := fut.AwaitCtx(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	v, err := fut.AwaitCtx(context.Background())
	require.NoError(t, err)
	require.Equal(t, "late", v)
}

func TestDebouncedCoalesces(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	fired := make(chan struct{}, 4)
	fn := Debounced(20*time.Millisecond, func() {
		calls.Add(1)
		fired <- struct{}{}
	})

	for range 5 {
		fn()
	}

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("debounced fn never fired")
	}

	time.Sleep(60 * time.Millisecond)
	require.Equal(t, int32(1), calls.Load())
}
