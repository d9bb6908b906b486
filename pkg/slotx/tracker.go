package slotx

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Abraxas-365/slotx/pkg/asyncx"
	"github.com/Abraxas-365/slotx/pkg/logx"
	"github.com/google/uuid"
)

// Operation is the asynchronous work a slot tracks. Several parameters are
// passed as one args value, usually a struct.
type Operation[A, T any] func(ctx context.Context, args A) (T, error)

// Tracker owns one logical operation slot. Every call gets a sequence token;
// only the call holding the latest token may move the slot out of Pending.
// Older calls still run to completion and still resolve their own futures.
type Tracker[A, T any] struct {
	name string
	log  *logx.Entry

	mu      sync.Mutex
	seq     uint64
	version uint64
	state   State[T]
	invoker *Invoker[A, T]
	subs    map[uint64]chan State[T]
	nextSub uint64
	closed  bool
}

// Invoker is an operation bound to a tracker under one key. Its pointer is
// stable for as long as the key is unchanged, so it can be used as a
// memoisation handle.
type Invoker[A, T any] struct {
	tracker *Tracker[A, T]
	op      Operation[A, T]
	key     Key
}

// New creates a tracker for op. key identifies the values op closes over; see
// Rebind.
func New[A, T any](op Operation[A, T], key Key, opts ...Option) *Tracker[A, T] {
	cfg := options{logger: logx.GetDefaultLogger()}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.name == "" {
		cfg.name = uuid.NewString()
	}

	t := &Tracker[A, T]{
		name:  cfg.name,
		log:   cfg.logger.WithField("slot", cfg.name),
		state: Idle[T](),
		subs:  make(map[uint64]chan State[T]),
	}
	if cfg.initial != nil {
		if s, ok := cfg.initial.(State[T]); ok {
			t.state = s
		} else {
			t.log.WithField("initial", fmt.Sprintf("%T", cfg.initial)).Warn("slotx: initial state type mismatch, starting idle")
		}
	}
	t.invoker = &Invoker[A, T]{tracker: t, op: op, key: key.clone()}
	return t
}

// Name returns the slot name.
func (t *Tracker[A, T]) Name() string { return t.name }

// State returns the current snapshot.
func (t *Tracker[A, T]) State() State[T] {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Token returns the most recently issued sequence token, 0 before the first
// call.
func (t *Tracker[A, T]) Token() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seq
}

// Invoker returns the currently bound invoker.
func (t *Tracker[A, T]) Invoker() *Invoker[A, T] {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.invoker
}

// Invoke runs the currently bound operation. See Invoker.Invoke.
func (t *Tracker[A, T]) Invoke(ctx context.Context, args A) *asyncx.Future[T] {
	return t.Invoker().Invoke(ctx, args)
}

// Rebind is what re-creating the slot does. If key is the same as the bound
// key, the bound invoker is returned and op is dropped. Otherwise op is bound
// under a new invoker. The sequence counter and state carry over either way,
// so calls still in flight through the old invoker lose to calls issued after
// the swap.
func (t *Tracker[A, T]) Rebind(op Operation[A, T], key Key) *Invoker[A, T] {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.invoker.key.Same(key) {
		return t.invoker
	}
	t.invoker = &Invoker[A, T]{tracker: t, op: op, key: key.clone()}
	t.log.WithField("token", t.seq).Debug("slotx: operation rebound")
	return t.invoker
}

// Subscribe returns a channel that receives the current state right away and
// then the state after every transition. The channel holds one value: a
// reader that falls behind sees the newest state, never an older one after a
// newer one. The returned func unsubscribes and closes the channel.
func (t *Tracker[A, T]) Subscribe() (<-chan State[T], func()) {
	ch := make(chan State[T], 1)

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		close(ch)
		return ch, func() {}
	}

	id := t.nextSub
	t.nextSub++
	t.subs[id] = ch
	ch <- t.state

	return ch, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if c, ok := t.subs[id]; ok {
			delete(t.subs, id)
			close(c)
		}
	}
}

// Close tears the slot down and closes every subscription. Calls made after
// Close still run and resolve their futures.
func (t *Tracker[A, T]) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	t.closed = true
	for id, ch := range t.subs {
		delete(t.subs, id)
		close(ch)
	}
}

// Issue is Invoke that also reports the call's sequence token.
func (t *Tracker[A, T]) Issue(ctx context.Context, args A) Call[T] {
	return t.Invoker().Issue(ctx, args)
}

// Call is one issued invocation: its token and its own future.
type Call[T any] struct {
	Token uint64
	*asyncx.Future[T]
}

// Key returns a copy of the invoker's key.
func (iv *Invoker[A, T]) Key() Key { return iv.key.clone() }

// Invoke issues a call of the invoker's operation. The slot moves to Pending
// immediately, keeping the previous payload. The returned future always
// carries this call's own outcome; the slot only takes it if no newer call was
// issued in the meantime.
func (iv *Invoker[A, T]) Invoke(ctx context.Context, args A) *asyncx.Future[T] {
	return iv.Issue(ctx, args).Future
}

// Issue is Invoke that also reports the call's sequence token.
func (iv *Invoker[A, T]) Issue(ctx context.Context, args A) Call[T] {
	t := iv.tracker

	t.mu.Lock()
	t.seq++
	token := t.seq
	t.transitionLocked(pendingFrom(t.state), token)
	t.mu.Unlock()

	t.log.WithField("token", token).Debug("slotx: invoke")

	fut := asyncx.Run(func() (T, error) {
		v, err := call(ctx, iv.op, args)
		t.settle(token, v, err)
		return v, err
	})
	return Call[T]{Token: token, Future: fut}
}

func (t *Tracker[A, T]) settle(token uint64, v T, err error) {
	t.mu.Lock()
	latest := t.seq
	if token != latest {
		t.mu.Unlock()
		t.log.WithFields(logx.Fields{"token": token, "latest": latest}).Trace("slotx: stale result discarded")
		return
	}

	next := Succeeded(v)
	if err != nil {
		next = Failed[T](err)
	}
	t.transitionLocked(next, token)
	t.mu.Unlock()

	t.log.WithFields(logx.Fields{"token": token, "status": next.status}).Debug("slotx: committed")
}

// transitionLocked stamps next and fans it out. Subscriber channels have room
// for one value and are only written here, under t.mu, so draining before the
// send keeps it from blocking.
func (t *Tracker[A, T]) transitionLocked(next State[T], token uint64) {
	t.version++
	next.token = token
	next.version = t.version
	next.updatedAt = time.Now()
	t.state = next

	for _, ch := range t.subs {
		select {
		case <-ch:
		default:
		}
		ch <- next
	}
}

func call[A, T any](ctx context.Context, op Operation[A, T], args A) (v T, err error) {
	if op == nil {
		return v, slotxErrors.New(ErrNoOperation)
	}
	defer func() {
		if r := recover(); r != nil {
			var zero T
			v = zero
			err = slotxErrors.New(ErrOperationPanicked).WithDetail("panic", fmt.Sprint(r))
		}
	}()
	return op(ctx, args)
}
