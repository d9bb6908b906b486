package opsx

import (
	"context"
	"time"

	"github.com/Abraxas-365/slotx/pkg/slotx"
)

// EchoArgs asks Echo to wait DelayMS and then return Value, or fail with
// Error when it is set.
type EchoArgs struct {
	Value   string `json:"value"`
	DelayMS int    `json:"delay_ms"`
	Error   string `json:"error,omitempty"`
}

// EchoResult is what a successful Echo returns.
type EchoResult struct {
	Value string `json:"value"`
	Took  string `json:"took"`
}

// Echo returns an operation that replays its arguments. Racing calls with
// different delays reproduces any settlement order.
func Echo() slotx.Operation[EchoArgs, EchoResult] {
	return func(ctx context.Context, args EchoArgs) (EchoResult, error) {
		d, err := delayOf(args.DelayMS)
		if err != nil {
			return EchoResult{}, err
		}

		start := time.Now()
		if err := sleep(ctx, d); err != nil {
			return EchoResult{}, err
		}

		if args.Error != "" {
			return EchoResult{}, opsErrors.New(ErrEchoFailed).WithDetail("reason", args.Error)
		}
		return EchoResult{Value: args.Value, Took: time.Since(start).Round(time.Millisecond).String()}, nil
	}
}
