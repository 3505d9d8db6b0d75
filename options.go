package guidance

import "time"

// Option configures a Controller with optional dependencies.
type Option func(*controllerOptions)

// controllerOptions holds optional Controller configuration.
type controllerOptions struct {
	hooks   *Hooks
	metrics MetricsCollector
	logger  Logger
	clock   func() time.Time
}

// WithHooks sets lifecycle event hooks.
//
// Parameters:
//   - hooks: Hooks structure with callback functions
//
// Returns:
//   - Option: Functional option for NewController
//
// Example:
//
//	hooks := &guidance.Hooks{
//	    OnCommandIssued: func(ctx context.Context, msg string) error {
//	        return audit.Record(ctx, msg)
//	    },
//	}
//	ctrl, err := guidance.NewController(&cfg, nc, guidance.WithHooks(hooks))
func WithHooks(hooks *Hooks) Option {
	return func(o *controllerOptions) {
		o.hooks = hooks
	}
}

// WithMetrics sets a metrics collector.
//
// Parameters:
//   - metrics: MetricsCollector implementation
//
// Returns:
//   - Option: Functional option for NewController
//
// Example:
//
//	collector := metrics.NewPrometheus(prometheus.DefaultRegisterer, "guidance")
//	ctrl, err := guidance.NewController(&cfg, nc, guidance.WithMetrics(collector))
func WithMetrics(metrics MetricsCollector) Option {
	return func(o *controllerOptions) {
		o.metrics = metrics
	}
}

// WithLogger sets a logger.
//
// Parameters:
//   - logger: Logger implementation
//
// Returns:
//   - Option: Functional option for NewController
//
// Example:
//
//	ctrl, err := guidance.NewController(&cfg, nc, guidance.WithLogger(logging.NewSlogDefault()))
func WithLogger(logger Logger) Option {
	return func(o *controllerOptions) {
		o.logger = logger
	}
}

// WithClock overrides the time source used for trip speed tracking.
func WithClock(now func() time.Time) Option {
	return func(o *controllerOptions) {
		o.clock = now
	}
}
