// Package opsx holds the operations the slotd server tracks. Each one is an
// ordinary slotx.Operation; none of them knows it is being tracked.
package opsx

import (
	"context"
	"time"
)

// maxDelay caps artificial delays so a request cannot park a goroutine for
// long.
const maxDelay = 30 * time.Second

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func delayOf(ms int) (time.Duration, error) {
	if ms < 0 {
		return 0, opsErrors.New(ErrInvalidArgs).WithDetail("delay_ms", ms)
	}
	d := time.Duration(ms) * time.Millisecond
	if d > maxDelay {
		return 0, opsErrors.New(ErrInvalidArgs).
			WithDetail("delay_ms", ms).
			WithDetail("max_delay_ms", maxDelay.Milliseconds())
	}
	return d, nil
}
