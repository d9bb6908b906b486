package slotx

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type hit struct {
	Title string `json:"title"`
}

func TestSnapshotOfSucceeded(t *testing.T) {
	t.Parallel()

	snap, err := SnapshotOf("search", Succeeded([]hit{{Title: "go"}}))
	require.NoError(t, err)
	require.Equal(t, "search", snap.Slot)
	require.Equal(t, StatusSucceeded, snap.Status)
	require.JSONEq(t, `[{"title":"go"}]`, string(snap.Data))
	require.Empty(t, snap.Error)
}

func TestSnapshotOfFailedCarriesCode(t *testing.T) {
	t.Parallel()

	snap, err := SnapshotOf("search", Failed[int](slotxErrors.New(ErrNoOperation)))
	require.NoError(t, err)
	require.Equal(t, StatusFailed, snap.Status)
	require.Nil(t, snap.Data)
	require.Equal(t, "SLOTX_NO_OPERATION", snap.ErrorCode)
	require.Contains(t, snap.Error, "No operation is bound")

	plain, err := SnapshotOf("search", Failed[int](errors.New("down")))
	require.NoError(t, err)
	require.Equal(t, "down", plain.Error)
	require.Empty(t, plain.ErrorCode)
}

func TestSnapshotOfIdleOmitsPayload(t *testing.T) {
	t.Parallel()

	snap, err := SnapshotOf("preview", Idle[string]())
	require.NoError(t, err)

	raw, err := json.Marshal(snap)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	require.Equal(t, "idle", body["status"])
	require.NotContains(t, body, "data")
	require.NotContains(t, body, "error")

	var back Snapshot
	require.NoError(t, json.Unmarshal(raw, &back))
	require.Equal(t, StatusIdle, back.Status)
}

func TestSnapshotEncodeFailure(t *testing.T) {
	t.Parallel()

	_, err := SnapshotOf("bad", Succeeded(make(chan int)))
	require.True(t, ErrEncodeSnapshot.Is(err))
}

func TestStatusText(t *testing.T) {
	t.Parallel()

	for _, s := range []Status{StatusIdle, StatusPending, StatusFailed, StatusSucceeded} {
		text, err := s.MarshalText()
		require.NoError(t, err)

		var back Status
		require.NoError(t, back.UnmarshalText(text))
		require.Equal(t, s, back)
	}

	var s Status
	require.Error(t, s.UnmarshalText([]byte("running")))
	require.Equal(t, "status(9)", Status(9).String())
}

func TestStateAccessorsByVariant(t *testing.T) {
	t.Parallel()

	pending := Pending[string]()
	require.True(t, pending.IsPending())
	_, ok := pending.Value()
	require.False(t, ok)
	require.NoError(t, pending.Err())

	failed := Failed[string](errors.New("x"))
	_, ok = failed.Value()
	require.False(t, ok)
	require.EqualError(t, failed.Err(), "x")
	require.Equal(t, "failed{error: x}", failed.String())

	require.Equal(t, "idle", Idle[string]().String())
}
