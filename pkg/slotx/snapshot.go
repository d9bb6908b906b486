package slotx

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/Abraxas-365/slotx/pkg/errx"
)

// Snapshot is the wire form of a State, used by the HTTP API and the Redis
// mirror.
type Snapshot struct {
	Slot      string          `json:"slot"`
	Status    Status          `json:"status"`
	Token     uint64          `json:"token"`
	Version   uint64          `json:"version"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
	ErrorCode string          `json:"error_code,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// SnapshotOf encodes s for slot. Data is whatever Value exposes, the error is
// whatever Err exposes.
func SnapshotOf[T any](slot string, s State[T]) (Snapshot, error) {
	snap := Snapshot{
		Slot:      slot,
		Status:    s.Status(),
		Token:     s.Token(),
		Version:   s.Version(),
		UpdatedAt: s.UpdatedAt(),
	}

	if v, ok := s.Value(); ok {
		raw, err := json.Marshal(v)
		if err != nil {
			return Snapshot{}, slotxErrors.NewWithCause(ErrEncodeSnapshot, err).WithDetail("slot", slot)
		}
		snap.Data = raw
	}

	if err := s.Err(); err != nil {
		snap.Error = err.Error()
		var e *errx.Error
		if errors.As(err, &e) {
			snap.ErrorCode = e.Code
		}
	}

	return snap, nil
}

// Snapshot encodes the tracker's current state.
func (t *Tracker[A, T]) Snapshot() (Snapshot, error) {
	return SnapshotOf(t.name, t.State())
}
