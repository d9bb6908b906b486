// Package slotx tracks one logical asynchronous operation slot and makes sure
// only the most recently issued call can update its observable state.
//
// # Latest call wins
//
// A [Tracker] wraps an [Operation]. Every call through [Tracker.Invoke] gets a
// sequence token and moves the slot to Pending right away. When a call
// settles, its outcome becomes the slot's state only if its token is still the
// latest one issued. Ordering is by issue order, not completion order: a
// slow first call that finishes after a fast second call is discarded.
//
//	search := slotx.New(func(ctx context.Context, q string) ([]Hit, error) {
//	    return index.Search(ctx, q)
//	}, slotx.Key{index}, slotx.WithName("search"))
//
//	search.Invoke(ctx, "go")
//	fut := search.Invoke(ctx, "golang")
//
//	hits, err := fut.Await()   // always this call's own outcome
//	state := search.State()    // the "golang" outcome, whatever order they finished in
//
// Calls are never cancelled. A superseded call keeps running, and its future
// still resolves or fails with its true outcome; only the shared state ignores
// it. Staleness is silent: it is never reported as an error.
//
// # State
//
// [State] is a tagged union over [StatusIdle], [StatusPending],
// [StatusFailed] and [StatusSucceeded]. [State.Value] and [State.Err] only
// return what the active variant carries. Pending keeps the previous data or
// error so a reader can keep showing it during a refresh.
//
// # Keys and rebinding
//
// A [Key] lists the outside values an operation closes over. [Tracker.Rebind]
// swaps the bound operation only when the key changes, and returns the same
// [Invoker] pointer when it does not, so callers can memoise on it. Rebinding
// never resets the counter or the state: a call issued under the old binding
// still loses to any call issued after the swap.
//
// # Observing
//
// [Tracker.Subscribe] hands out a one-slot channel that always holds the
// newest state. [SnapshotOf] turns a State into a JSON [Snapshot] for transport.
// [Tracker.Close] ends all subscriptions when the slot is torn down.
package slotx
