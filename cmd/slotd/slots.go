package main

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Abraxas-365/slotx/pkg/errx"
	"github.com/Abraxas-365/slotx/pkg/slotx"
	"github.com/Abraxas-365/slotx/pkg/slotx/slotxredis"
)

var serverErrors = errx.NewRegistry("SLOTD")

var (
	ErrSlotNotFound = serverErrors.Register("SLOT_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Slot not found")
	ErrBadArgs      = serverErrors.Register("BAD_ARGS", errx.TypeValidation, http.StatusBadRequest, "Request body is not valid arguments for the slot")
	ErrWaitTimeout  = serverErrors.Register("WAIT_TIMEOUT", errx.TypeOperation, http.StatusGatewayTimeout, "Call did not settle before the wait timeout")
	ErrNoMirror     = serverErrors.Register("MIRROR_DISABLED", errx.TypeExternal, http.StatusServiceUnavailable, "Redis mirror is not enabled")
	ErrBadSource    = serverErrors.Register("BAD_SOURCE", errx.TypeValidation, http.StatusBadRequest, "Unknown event source")
)

// slot is a tracker seen through JSON, so handlers can serve any A and T.
type slot interface {
	Name() string
	Snapshot() (slotx.Snapshot, error)
	// Invoke decodes body as the slot's args and issues a call.
	Invoke(ctx context.Context, body []byte) (issued, error)
	// Watch streams snapshots, newest first when the reader lags. Cancel
	// closes the channel.
	Watch() (<-chan slotx.Snapshot, func())
	// Mirror publishes every transition until ctx ends or the slot closes.
	Mirror(ctx context.Context, m *slotxredis.Mirror) error
	Close()
}

// issued is a call seen through JSON.
type issued struct {
	Token uint64
	// Await waits for the call's own outcome.
	Await func(ctx context.Context) (any, error)
}

type trackedSlot[A, T any] struct {
	tr *slotx.Tracker[A, T]
}

func newSlot[A, T any](tr *slotx.Tracker[A, T]) slot {
	return &trackedSlot[A, T]{tr: tr}
}

func (s *trackedSlot[A, T]) Name() string { return s.tr.Name() }

func (s *trackedSlot[A, T]) Snapshot() (slotx.Snapshot, error) { return s.tr.Snapshot() }

func (s *trackedSlot[A, T]) Invoke(ctx context.Context, body []byte) (issued, error) {
	var args A
	if len(body) > 0 {
		if err := json.Unmarshal(body, &args); err != nil {
			return issued{}, serverErrors.NewWithCause(ErrBadArgs, err).WithDetail("slot", s.Name())
		}
	}

	call := s.tr.Issue(ctx, args)
	return issued{
		Token: call.Token,
		Await: func(ctx context.Context) (any, error) {
			return call.AwaitCtx(ctx)
		},
	}, nil
}

func (s *trackedSlot[A, T]) Watch() (<-chan slotx.Snapshot, func()) {
	states, unsubscribe := s.tr.Subscribe()
	out := make(chan slotx.Snapshot, 1)

	go func() {
		defer close(out)
		for st := range states {
			snap, err := slotx.SnapshotOf(s.Name(), st)
			if err != nil {
				continue
			}
			// Only this goroutine sends, so draining first never blocks.
			select {
			case <-out:
			default:
			}
			out <- snap
		}
	}()

	return out, unsubscribe
}

func (s *trackedSlot[A, T]) Mirror(ctx context.Context, m *slotxredis.Mirror) error {
	states, unsubscribe := s.tr.Subscribe()
	defer unsubscribe()
	return slotxredis.Follow(ctx, m, s.Name(), states)
}

func (s *trackedSlot[A, T]) Close() { s.tr.Close() }
