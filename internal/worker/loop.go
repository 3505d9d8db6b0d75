package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/arloliu/guidance/internal/logging"
	"github.com/arloliu/guidance/internal/metrics"
	"github.com/arloliu/guidance/types"
)

// Defaults for the worker loop.
const (
	DefaultReceiveTimeout = 1 * time.Second
	DefaultErrorBackoff   = 50 * time.Millisecond
	errorBackoffMult      = 2.0
)

// Decider turns one telemetry sample into zero or more status messages.
//
// *decision.Engine satisfies this interface.
type Decider interface {
	Run(sample types.TelemetrySample) ([]string, error)
}

// Option configures a Loop.
type Option func(*loopOptions)

type loopOptions struct {
	receiveTimeout time.Duration
	errorBackoff   time.Duration
	backoffSeed    int64
	metrics        types.MetricsCollector
	onError        func(err error)
	onMessage      func(msg string)
}

// WithReceiveTimeout bounds each telemetry receive (default: 1s).
func WithReceiveTimeout(d time.Duration) Option {
	return func(o *loopOptions) {
		o.receiveTimeout = d
	}
}

// WithErrorBackoff sets the base pause after a recovered error (default: 50ms).
//
// Consecutive errors grow the pause with jitter, capped at the receive
// timeout. A non-positive base disables the pause.
func WithErrorBackoff(base time.Duration) Option {
	return func(o *loopOptions) {
		o.errorBackoff = base
	}
}

// WithBackoffSeed makes the error backoff jitter deterministic. Zero uses the
// shared PRNG.
func WithBackoffSeed(seed int64) Option {
	return func(o *loopOptions) {
		o.backoffSeed = seed
	}
}

// WithMetrics sets the metrics collector for loop metrics.
func WithMetrics(m types.MetricsCollector) Option {
	return func(o *loopOptions) {
		o.metrics = m
	}
}

// WithOnError registers a callback for every recovered loop error.
func WithOnError(fn func(err error)) Option {
	return func(o *loopOptions) {
		o.onError = fn
	}
}

// WithOnMessage registers a callback for every status message delivered to the sink.
func WithOnMessage(fn func(msg string)) Option {
	return func(o *loopOptions) {
		o.onMessage = fn
	}
}

// Stats is a snapshot of loop counters.
type Stats struct {
	Samples  int64 // Samples received and processed
	Messages int64 // Status messages delivered to the sink
	Timeouts int64 // Receives that elapsed without a sample
	Errors   int64 // Recovered errors
}

// Loop serializes telemetry consumption and command emission.
type Loop struct {
	source  types.TelemetrySource
	decider Decider
	sink    types.MessageSink
	exit    types.ExitSignal
	logger  types.Logger
	opts    loopOptions

	samples  *xsync.Counter
	messages *xsync.Counter
	timeouts *xsync.Counter
	errors   *xsync.Counter
}

// New creates a worker loop.
//
// Parameters:
//   - source: Telemetry source polled with a bounded receive
//   - decider: Decision engine evaluating each sample
//   - sink: Destination of status messages
//   - exit: Exit signal checked between iterations (nil means context only)
//   - logger: Logger for recovered errors (nil uses a no-op logger)
//   - opts: Optional timeouts, metrics and callbacks
//
// Returns:
//   - *Loop: Loop ready to Run
//   - error: Wraps types.ErrLink if source, decider or sink is nil,
//     types.ErrInvalidConfig if the receive timeout is not positive
func New(source types.TelemetrySource, decider Decider, sink types.MessageSink, exit types.ExitSignal, logger types.Logger, opts ...Option) (*Loop, error) {
	if source == nil || decider == nil || sink == nil {
		return nil, fmt.Errorf("%w: source, decider and sink are required", types.ErrLink)
	}

	o := loopOptions{
		receiveTimeout: DefaultReceiveTimeout,
		errorBackoff:   DefaultErrorBackoff,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.receiveTimeout <= 0 {
		return nil, fmt.Errorf("%w: receive timeout must be positive", types.ErrInvalidConfig)
	}
	if o.metrics == nil {
		o.metrics = metrics.NewNop()
	}
	if exit == nil {
		exit = &ExitFlag{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Loop{
		source:   source,
		decider:  decider,
		sink:     sink,
		exit:     exit,
		logger:   logger,
		opts:     o,
		samples:  xsync.NewCounter(),
		messages: xsync.NewCounter(),
		timeouts: xsync.NewCounter(),
		errors:   xsync.NewCounter(),
	}, nil
}

// Stats returns a snapshot of the loop counters. Safe for concurrent use.
func (l *Loop) Stats() Stats {
	return Stats{
		Samples:  l.samples.Value(),
		Messages: l.messages.Value(),
		Timeouts: l.timeouts.Value(),
		Errors:   l.errors.Value(),
	}
}

// Run processes telemetry until the exit signal is raised, ctx is done, or a
// channel closes.
//
// Parameters:
//   - ctx: Context for cooperative cancellation
//
// Returns:
//   - error: nil on exit request or context cancellation, an error wrapping
//     types.ErrChannelClosed when the source or sink closed
func (l *Loop) Run(ctx context.Context) error {
	rng := newRetryRNG(l.opts.backoffSeed)
	var backoff time.Duration

	for !l.exit.IsExitRequested() && ctx.Err() == nil {
		inFlight, err := l.step(ctx)
		switch {
		case err == nil:
			backoff = 0
		case errors.Is(err, types.ErrChannelClosed):
			l.logger.Warn("worker loop stopping", "error", err, types.PersistKey, true)
			return err
		case ctx.Err() != nil && !inFlight:
			// Cancellation interrupted the receive; no sample was taken.
		default:
			l.errors.Inc()
			l.logger.Error("worker loop error", "error", err, "in_flight", inFlight, types.PersistKey, true)
			if l.opts.onError != nil {
				l.opts.onError(err)
			}

			if l.opts.errorBackoff > 0 && ctx.Err() == nil {
				backoff = jitterBackoff(backoff, l.opts.errorBackoff, errorBackoffMult, l.opts.receiveTimeout, rng)
				sleepCtx(ctx, backoff)
			}
		}
	}

	l.logger.Info("worker loop stopped", "exit_requested", l.exit.IsExitRequested(), types.PersistKey, true)

	return nil
}

// step runs one receive, decide, send cycle. inFlight reports whether a
// sample was taken from the source, so a failure after that point is never
// mistaken for an interrupted receive.
func (l *Loop) step(ctx context.Context) (inFlight bool, err error) {
	sample, err := l.source.Receive(ctx, l.opts.receiveTimeout)
	if err != nil {
		if errors.Is(err, types.ErrReceiveTimeout) {
			l.timeouts.Inc()
			return false, nil
		}
		if !errors.Is(err, types.ErrChannelClosed) {
			l.opts.metrics.RecordLoopError("receive")
		}

		return false, fmt.Errorf("receive telemetry: %w", err)
	}

	start := time.Now()
	l.samples.Inc()
	defer func() {
		l.opts.metrics.RecordSampleDuration(time.Since(start).Seconds())
	}()

	msgs, err := l.decider.Run(sample)
	if err != nil {
		l.opts.metrics.RecordLoopError("decide")
		return true, fmt.Errorf("decide: %w", err)
	}

	for _, msg := range msgs {
		if err := l.sink.Send(ctx, msg); err != nil {
			l.opts.metrics.RecordStatusMessage(false)
			if !errors.Is(err, types.ErrChannelClosed) {
				l.opts.metrics.RecordLoopError("send")
			}

			return true, fmt.Errorf("send status %q: %w", msg, err)
		}

		l.messages.Inc()
		l.opts.metrics.RecordStatusMessage(true)
		if l.opts.onMessage != nil {
			l.opts.onMessage(msg)
		}
	}

	return true, nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
