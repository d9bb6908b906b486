package slotx

import (
	"fmt"
	"time"
)

// Status discriminates the variants of State.
type Status uint8

const (
	// StatusIdle means no operation has ever run.
	StatusIdle Status = iota
	// StatusPending means an operation is in flight.
	StatusPending
	// StatusFailed means the most recently issued operation returned an error.
	StatusFailed
	// StatusSucceeded means the most recently issued operation returned a value.
	StatusSucceeded
)

var statusNames = [...]string{"idle", "pending", "failed", "succeeded"}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	for i, name := range statusNames {
		if name == string(text) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("slotx: unknown status %q", text)
}

// State is an immutable snapshot of a tracker's slot. Exactly one Status is
// active; the payload accessors only expose what that variant carries:
//
//   - Idle: nothing.
//   - Pending: whatever the previous state carried, for showing stale data
//     while a refresh is in flight.
//   - Failed: the operation's error, verbatim.
//   - Succeeded: the operation's value.
type State[T any] struct {
	status    Status
	data      T
	hasData   bool
	err       error
	token     uint64
	version   uint64
	updatedAt time.Time
}

// Idle returns the state of a slot that has never run an operation.
func Idle[T any]() State[T] {
	return State[T]{status: StatusIdle}
}

// Pending returns an in-flight state with no auxiliary payload.
func Pending[T any]() State[T] {
	return State[T]{status: StatusPending}
}

// Succeeded returns a settled state holding v.
func Succeeded[T any](v T) State[T] {
	return State[T]{status: StatusSucceeded, data: v, hasData: true}
}

// Failed returns a settled state holding err.
func Failed[T any](err error) State[T] {
	return State[T]{status: StatusFailed, err: err}
}

// pendingFrom keeps prev's payload so readers can keep rendering it.
func pendingFrom[T any](prev State[T]) State[T] {
	return State[T]{
		status:  StatusPending,
		data:    prev.data,
		hasData: prev.hasData,
		err:     prev.err,
	}
}

// Status returns the active variant.
func (s State[T]) Status() Status { return s.status }

// IsIdle reports whether no operation has run yet.
func (s State[T]) IsIdle() bool { return s.status == StatusIdle }

// IsPending reports whether an operation is in flight.
func (s State[T]) IsPending() bool { return s.status == StatusPending }

// IsFailed reports whether the latest operation failed.
func (s State[T]) IsFailed() bool { return s.status == StatusFailed }

// IsSucceeded reports whether the latest operation succeeded.
func (s State[T]) IsSucceeded() bool { return s.status == StatusSucceeded }

// Value returns the data of a Succeeded state, or the data a Pending state
// kept from its predecessor. ok is false when no data is accessible.
func (s State[T]) Value() (v T, ok bool) {
	if s.hasData && (s.status == StatusSucceeded || s.status == StatusPending) {
		return s.data, true
	}
	return v, false
}

// Err returns the error of a Failed state, or the error a Pending state kept
// from its predecessor.
func (s State[T]) Err() error {
	if s.status == StatusFailed || s.status == StatusPending {
		return s.err
	}
	return nil
}

// Token is the sequence token of the call that produced this state, 0 for the
// initial state.
func (s State[T]) Token() uint64 { return s.token }

// Version counts transitions on the owning tracker, 0 for the initial state.
func (s State[T]) Version() uint64 { return s.version }

// UpdatedAt is when the transition happened; zero for the initial state.
func (s State[T]) UpdatedAt() time.Time { return s.updatedAt }

func (s State[T]) String() string {
	switch s.status {
	case StatusSucceeded:
		return fmt.Sprintf("succeeded{data: %v}", s.data)
	case StatusFailed:
		return fmt.Sprintf("failed{error: %v}", s.err)
	default:
		return s.status.String()
	}
}
