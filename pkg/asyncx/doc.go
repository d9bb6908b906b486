// Package asyncx provides the small set of async building blocks the rest of
// the module is built on.
//
// # Futures
//
// A [Future] represents a value that will be computed asynchronously.
// Use [Run] to start work immediately in a goroutine and [Future.Await] to
// block until the result is ready. Await is safe to call from multiple
// goroutines; every caller observes the same outcome.
//
//	fut := asyncx.Run(func() (*Page, error) {
//	    return repo.Search(ctx, query)
//	})
//
//	// ... do other work ...
//
//	page, err := fut.Await()
//
// [Future.AwaitCtx] bounds the wait by a context without abandoning the work,
// [Future.Done] exposes settlement as a channel for use in select statements,
// and [Future.Result] polls without blocking.
//
// # Debounce
//
// [Debounced] wraps a function so it is only invoked after calls stop
// arriving for at least the specified duration. Every new call resets
// the timer. Useful for coalescing keystrokes before issuing a lookup.
//
//	search := asyncx.Debounced(150*time.Millisecond, func() {
//	    tracker.Invoke(ctx, box.Text())
//	})
//
// The package has no external dependencies and relies solely on the Go
// standard library.
package asyncx
