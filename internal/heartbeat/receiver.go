package heartbeat

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/arloliu/guidance/internal/logging"
	"github.com/arloliu/guidance/internal/metrics"
	"github.com/arloliu/guidance/types"
)

// Receiver defaults.
const (
	DefaultPollInterval  = 1 * time.Second
	DefaultMissThreshold = 5
)

// ReceiverOption configures a Receiver.
type ReceiverOption func(*receiverOptions)

type receiverOptions struct {
	pollInterval  time.Duration
	missThreshold int
	metrics       types.MetricsCollector
	onChange      func(from, to types.LinkStatus)
}

// WithPollInterval sets the pause after every poll (default: 1s).
//
// A non-positive interval disables the pause, which is only useful in tests
// driving Poll directly.
func WithPollInterval(d time.Duration) ReceiverOption {
	return func(o *receiverOptions) {
		o.pollInterval = d
	}
}

// WithMissThreshold sets how many consecutive misses declare the link lost (default: 5).
func WithMissThreshold(n int) ReceiverOption {
	return func(o *receiverOptions) {
		o.missThreshold = n
	}
}

// WithReceiverMetrics sets the metrics collector for heartbeat polls.
func WithReceiverMetrics(m types.MetricsCollector) ReceiverOption {
	return func(o *receiverOptions) {
		o.metrics = m
	}
}

// WithOnStatusChange registers a callback invoked synchronously on every
// connected/disconnected edge, from the goroutine running the Receiver.
func WithOnStatusChange(fn func(from, to types.LinkStatus)) ReceiverOption {
	return func(o *receiverOptions) {
		o.onChange = fn
	}
}

// Receiver tracks command link liveness from heartbeat polls.
//
// The link starts Disconnected. A single received heartbeat connects it and
// resets the miss counter. The link is declared lost only after
// MissThreshold consecutive polls see no heartbeat, and the loss is logged
// once per edge.
//
// Poll and Run must be driven by one goroutine. Status and Missed are safe
// to call from any goroutine.
type Receiver struct {
	ch     types.LivenessChannel
	logger types.Logger
	opts   receiverOptions

	status atomic.Int32
	missed atomic.Int64
}

// NewReceiver creates a link health monitor.
//
// Parameters:
//   - ch: Liveness channel to poll (must be non-nil and valid)
//   - logger: Logger for status lines and link edges (nil uses a no-op logger)
//   - opts: Optional interval, threshold, metrics and edge callback
//
// Returns:
//   - *Receiver: Receiver in the Disconnected state
//   - error: Wraps types.ErrLink if the channel is missing or invalid,
//     types.ErrInvalidConfig if the threshold is not positive
func NewReceiver(ch types.LivenessChannel, logger types.Logger, opts ...ReceiverOption) (*Receiver, error) {
	if ch == nil {
		return nil, fmt.Errorf("%w: liveness channel is nil", types.ErrLink)
	}
	if err := ch.Validate(); err != nil {
		return nil, fmt.Errorf("%w: liveness channel: %w", types.ErrLink, err)
	}

	o := receiverOptions{
		pollInterval:  DefaultPollInterval,
		missThreshold: DefaultMissThreshold,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.missThreshold <= 0 {
		return nil, fmt.Errorf("%w: miss threshold must be positive, got %d", types.ErrInvalidConfig, o.missThreshold)
	}
	if o.metrics == nil {
		o.metrics = metrics.NewNop()
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	r := &Receiver{ch: ch, logger: logger, opts: o}
	r.status.Store(int32(types.LinkDisconnected))

	return r, nil
}

// Status returns the current link status.
func (r *Receiver) Status() types.LinkStatus {
	return types.LinkStatus(r.status.Load())
}

// Missed returns the current number of consecutive missed heartbeats.
func (r *Receiver) Missed() int {
	return int(r.missed.Load())
}

// Poll checks the liveness channel once and updates the link state.
//
// A transport error counts as a miss. After updating state Poll pauses for
// the poll interval, returning early if ctx is cancelled.
//
// Parameters:
//   - ctx: Context bounding the pause
//
// Returns:
//   - error: ctx.Err() if the pause was interrupted, nil otherwise
func (r *Receiver) Poll(ctx context.Context) error {
	received, err := r.ch.TryReceiveHeartbeat()
	if err != nil {
		r.logger.Error("heartbeat receive failed", "error", err, types.PersistKey, true)
		received = false
	}

	r.opts.metrics.RecordHeartbeat(received)

	if received {
		r.onReceived()
	} else {
		r.onMissed()
	}

	return r.pause(ctx)
}

// Run polls until ctx is cancelled.
//
// Returns:
//   - error: Always ctx.Err() once the context is done
func (r *Receiver) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := r.Poll(ctx); err != nil {
			return err
		}
	}
}

func (r *Receiver) onReceived() {
	r.missed.Store(0)
	r.opts.metrics.RecordMissedHeartbeats(0)

	if r.Status() != types.LinkConnected {
		r.logger.Info("reconnected", types.PersistKey, true)
		r.transition(types.LinkConnected)
	}

	r.logger.Info("link status", "status", r.Status().String(), types.PersistKey, true)
}

func (r *Receiver) onMissed() {
	missed := r.missed.Add(1)
	r.opts.metrics.RecordMissedHeartbeats(int(missed))
	r.logger.Warn("no heartbeat received", "missed", missed, types.PersistKey, true)

	if missed >= int64(r.opts.missThreshold) && r.Status() != types.LinkDisconnected {
		r.logger.Warn("lost connection", "missed", missed, types.PersistKey, true)
		r.transition(types.LinkDisconnected)
	}
}

func (r *Receiver) transition(to types.LinkStatus) {
	from := types.LinkStatus(r.status.Swap(int32(to)))
	r.opts.metrics.RecordLinkStatus(to)

	if r.opts.onChange != nil && from != to {
		r.opts.onChange(from, to)
	}
}

func (r *Receiver) pause(ctx context.Context) error {
	if r.opts.pollInterval <= 0 {
		return nil
	}

	timer := time.NewTimer(r.opts.pollInterval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
