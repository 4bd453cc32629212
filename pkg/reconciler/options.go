package reconciler

import (
	"github.com/agentstation/featuresync/pkg/differ"
	"github.com/agentstation/featuresync/pkg/errors"
)

// options configures a reconciler.
type options struct {
	dryRun    bool
	strategy  differ.ApplyStrategy
	tolerance float64
	reporter  Reporter
}

func defaultOptions() *options {
	return &options{
		strategy: differ.ApplyAll,
		reporter: NopReporter{},
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (options *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}
	return options, nil
}

// newOptions returns reconciler options with default values.
func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithDryRun classifies without editing the target.
func WithDryRun(enabled bool) Option {
	return func(o *options) error {
		o.dryRun = enabled
		return nil
	}
}

// WithStrategy restricts which changes are applied.
func WithStrategy(strategy differ.ApplyStrategy) Option {
	return func(o *options) error {
		parsed, err := differ.ParseApplyStrategy(string(strategy))
		if err != nil {
			return &errors.ValidationError{
				Field:   "strategy",
				Value:   strategy,
				Message: err.Error(),
			}
		}
		o.strategy = parsed
		return nil
	}
}

// WithTolerance treats moves up to metres as unchanged.
func WithTolerance(metres float64) Option {
	return func(o *options) error {
		if metres < 0 {
			return &errors.ValidationError{
				Field:   "tolerance",
				Value:   metres,
				Message: "cannot be negative",
			}
		}
		o.tolerance = metres
		return nil
	}
}

// WithReporter sets the receiver of per-record diagnostics.
func WithReporter(reporter Reporter) Option {
	return func(o *options) error {
		if reporter == nil {
			return &errors.ValidationError{
				Field:   "reporter",
				Message: "cannot be nil",
			}
		}
		o.reporter = reporter
		return nil
	}
}
