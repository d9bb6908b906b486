package asyncx

import (
	"context"
	"sync"
	"time"
)

// ─── Future ──────────────────────────────────────────────────────────────────

// Result holds the outcome of a single settled async operation.
type Result[T any] struct {
	Value T
	Err   error
}

// OK reports whether the result carries no error.
func (r Result[T]) OK() bool { return r.Err == nil }

// Future represents a value that will be available asynchronously.
// Create one with Run and retrieve its value with Await.
type Future[T any] struct {
	done chan struct{}
	res  Result[T]
}

// Run executes fn in a goroutine and returns a Future for its result.
// The goroutine starts immediately.
func Run[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.res.Value, f.res.Err = fn()
	}()
	return f
}

// Done returns a channel that is closed once the Future has settled.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the Future completes and returns its value and error.
// Safe to call multiple times and from multiple goroutines.
func (f *Future[T]) Await() (T, error) {
	<-f.done
	return f.res.Value, f.res.Err
}

// AwaitCtx is Await bounded by ctx. Giving up on the wait does not stop the
// underlying work; the Future still settles and can be awaited again.
func (f *Future[T]) AwaitCtx(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.res.Value, f.res.Err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result returns the settled outcome without blocking. ok is false while the
// Future is still pending.
func (f *Future[T]) Result() (res Result[T], ok bool) {
	select {
	case <-f.done:
		return f.res, true
	default:
		return Result[T]{}, false
	}
}

// ─── Debounce ────────────────────────────────────────────────────────────────

// Debounced wraps fn so that it is only called after it stops being invoked
// for at least wait. Every call resets the timer. Thread-safe.
func Debounced(wait time.Duration, fn func()) func() {
	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	return func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(wait, fn)
	}
}
