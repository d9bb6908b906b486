// Package slotxredis mirrors slot snapshots into Redis so processes other than
// the one running the tracker can read and watch them.
package slotxredis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Abraxas-365/slotx/pkg/logx"
	"github.com/Abraxas-365/slotx/pkg/slotx"
	"github.com/redis/go-redis/v9"
)

// Mirror writes snapshots under slotx:state:<slot> and announces them on
// slotx:events:<slot>.
type Mirror struct {
	rdb *redis.Client
	ttl time.Duration
	log *logx.Entry
}

// NewMirror creates a mirror. A ttl of 0 keeps stored snapshots forever.
func NewMirror(rdb *redis.Client, ttl time.Duration) *Mirror {
	return &Mirror{
		rdb: rdb,
		ttl: ttl,
		log: logx.WithField("component", "slotxredis"),
	}
}

// Key helpers
func stateKey(slot string) string  { return fmt.Sprintf("slotx:state:%s", slot) }
func eventsKey(slot string) string { return fmt.Sprintf("slotx:events:%s", slot) }

// Publish stores snap and notifies watchers in one round trip.
func (m *Mirror) Publish(ctx context.Context, snap slotx.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return redisErrors.NewWithCause(ErrMarshal, err).WithDetail("slot", snap.Slot)
	}

	pipe := m.rdb.Pipeline()
	pipe.Set(ctx, stateKey(snap.Slot), data, m.ttl)
	pipe.Publish(ctx, eventsKey(snap.Slot), data)
	if _, err := pipe.Exec(ctx); err != nil {
		return redisErrors.NewWithCause(ErrPublish, err).
			WithDetail("slot", snap.Slot).
			WithDetail("version", snap.Version)
	}

	return nil
}

// Get returns the last snapshot published for slot.
func (m *Mirror) Get(ctx context.Context, slot string) (*slotx.Snapshot, error) {
	data, err := m.rdb.Get(ctx, stateKey(slot)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, redisErrors.New(ErrNotFound).WithDetail("slot", slot)
		}
		return nil, redisErrors.NewWithCause(ErrGet, err).WithDetail("slot", slot)
	}

	var snap slotx.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, redisErrors.NewWithCause(ErrUnmarshal, err).WithDetail("slot", slot)
	}

	return &snap, nil
}

// Follow publishes every state read from states until ctx is done or states
// is closed. States whose version is not newer than the last one published are
// skipped. Failures to encode or publish are logged and do not stop the loop.
func Follow[T any](ctx context.Context, m *Mirror, slot string, states <-chan slotx.State[T]) error {
	log := m.log.WithField("slot", slot)

	var (
		last      uint64
		published bool
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case s, ok := <-states:
			if !ok {
				return nil
			}
			if published && s.Version() <= last {
				continue
			}

			snap, err := slotx.SnapshotOf(slot, s)
			if err != nil {
				log.WithError(err).Warn("slotxredis: skipping snapshot")
				continue
			}
			if err := m.Publish(ctx, snap); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				log.WithError(err).Warn("slotxredis: publish failed")
				continue
			}

			last, published = s.Version(), true
			log.WithFields(logx.Fields{"version": snap.Version, "status": snap.Status}).Trace("slotxredis: published")
		}
	}
}

// Watch subscribes to snapshots published for slot. The returned channel is
// closed after the stop func is called or ctx ends, even if nobody is reading
// it. Messages that do not decode are dropped.
func (m *Mirror) Watch(ctx context.Context, slot string) (<-chan slotx.Snapshot, func() error, error) {
	pubsub := m.rdb.Subscribe(ctx, eventsKey(slot))

	// Wait for confirmation so nothing published after Watch returns is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, redisErrors.NewWithCause(ErrSubscribe, err).WithDetail("slot", slot)
	}

	out := make(chan slotx.Snapshot)
	msgs := pubsub.Channel()
	done := make(chan struct{})

	var (
		once     sync.Once
		closeErr error
	)
	stop := func() error {
		once.Do(func() {
			close(done)
			closeErr = pubsub.Close()
		})
		return closeErr
	}

	go func() {
		defer close(out)
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				_ = stop()
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var snap slotx.Snapshot
				if err := json.Unmarshal([]byte(msg.Payload), &snap); err != nil {
					m.log.WithField("slot", slot).WithError(err).Warn("slotxredis: dropping undecodable event")
					continue
				}
				select {
				case out <- snap:
				case <-done:
					return
				case <-ctx.Done():
					_ = stop()
					return
				}
			}
		}
	}()

	return out, stop, nil
}
