package slotx

import "github.com/Abraxas-365/slotx/pkg/logx"

type options struct {
	name    string
	initial any
	logger  *logx.Logger
}

// Option configures a Tracker.
type Option func(*options)

// WithName names the slot in logs and snapshots. Defaults to a random UUID.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithInitialState replaces the default Idle state. T must match the tracker's
// result type, otherwise the option is ignored with a warning. Token and
// version of s are reset to 0.
func WithInitialState[T any](s State[T]) Option {
	return func(o *options) {
		s.token, s.version = 0, 0
		o.initial = s
	}
}

// WithLogger sets the logger used for lifecycle debug output.
func WithLogger(logger *logx.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
