package opsx

import (
	"context"
	"testing"
	"time"

	"github.com/Abraxas-365/slotx/pkg/logx"
	"github.com/Abraxas-365/slotx/pkg/slotx"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logx.Logger {
	cfg := logx.DefaultConfig()
	cfg.Level = logx.LevelOff
	return logx.NewLogger(cfg)
}

func TestEchoReturnsValue(t *testing.T) {
	t.Parallel()

	res, err := Echo()(context.Background(), EchoArgs{Value: "hi"})
	require.NoError(t, err)
	require.Equal(t, "hi", res.Value)
}

func TestEchoFailsOnRequest(t *testing.T) {
	t.Parallel()

	_, err := Echo()(context.Background(), EchoArgs{Error: "nope"})
	require.True(t, ErrEchoFailed.Is(err))
}

func TestEchoRejectsBadDelay(t *testing.T) {
	t.Parallel()

	_, err := Echo()(context.Background(), EchoArgs{DelayMS: -1})
	require.True(t, ErrInvalidArgs.Is(err))

	_, err = Echo()(context.Background(), EchoArgs{DelayMS: int(time.Minute / time.Millisecond)})
	require.True(t, ErrInvalidArgs.Is(err))
}

func TestEchoHonoursContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Echo()(ctx, EchoArgs{Value: "late", DelayMS: 5000})
	require.ErrorIs(t, err, context.Canceled)
}

// A slow first call that fails after a fast second call succeeds must not
// touch the slot.
func TestEchoSlowStaleFailureIsIgnored(t *testing.T) {
	t.Parallel()

	tr := slotx.New(Echo(), nil, slotx.WithName("echo"), slotx.WithLogger(quietLogger()))
	defer tr.Close()
	ctx := context.Background()

	slow := tr.Invoke(ctx, EchoArgs{DelayMS: 200, Error: "slow failure"})
	fast := tr.Invoke(ctx, EchoArgs{Value: "fast"})

	res, err := fast.Await()
	require.NoError(t, err)
	require.Equal(t, "fast", res.Value)

	_, err = slow.Await()
	require.True(t, ErrEchoFailed.Is(err))

	state := tr.State()
	require.True(t, state.IsSucceeded())
	v, _ := state.Value()
	require.Equal(t, "fast", v.Value)
	require.Equal(t, uint64(2), state.Token())
}
