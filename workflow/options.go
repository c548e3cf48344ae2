package workflow

import (
	"log/slog"
	"time"

	"github.com/spetersoncode/chartflow/internal/logging"
)

// Guard checks a step's effect on state after it returns. before is a
// snapshot taken just before the step ran.
type Guard[S any] func(step string, contract Contract, before, after *S) error

// Options contains configuration for compiled executors.
type Options struct {
	Logger   *slog.Logger
	Observer Observer

	// StepTimeout bounds each step's context. Zero means no per-step deadline.
	StepTimeout time.Duration

	guard any
}

// Option is a functional option for executor configuration.
type Option func(*Options)

// WithLogger sets the structured logger. Steps reach it through
// logging.FromContext.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

// WithObserver installs an execution observer, such as a metrics recorder.
func WithObserver(obs Observer) Option {
	return func(o *Options) {
		if obs != nil {
			o.Observer = obs
		}
	}
}

// WithStepTimeout sets a deadline for each individual step.
func WithStepTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.StepTimeout = d
	}
}

// WithGuard installs a post-step check. The guard's state type must match
// the graph's, otherwise Compile fails with ErrGuardType.
func WithGuard[S any](g Guard[S]) Option {
	return func(o *Options) {
		o.guard = g
	}
}

// ApplyOptions applies functional options with defaults.
func ApplyOptions(opts ...Option) *Options {
	o := &Options{
		Logger:   logging.NewNop(),
		Observer: nopObserver{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}
