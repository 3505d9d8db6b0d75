package guidance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/puzpuzpuz/xsync/v4"

	"github.com/arloliu/guidance/decision"
	"github.com/arloliu/guidance/internal/heartbeat"
	"github.com/arloliu/guidance/internal/hooks"
	"github.com/arloliu/guidance/internal/lease"
	"github.com/arloliu/guidance/internal/logging"
	"github.com/arloliu/guidance/internal/metrics"
	"github.com/arloliu/guidance/internal/worker"
	"github.com/arloliu/guidance/link"
	"github.com/arloliu/guidance/types"
)

// Stats is a snapshot of the worker loop counters.
type Stats = worker.Stats

// subscriberBuffer is the channel capacity of each link status subscriber.
const subscriberBuffer = 4

// Controller wires the guidance components to NATS and runs them.
//
// Start builds the command, liveness, telemetry and status links from the
// configuration, then runs the worker loop (telemetry to decision engine to
// status stream), the link health monitor and, with Config.Lease.Enabled,
// the lease keep-alive. Stop requests a cooperative exit and waits for them.
//
// Thread Safety: All exported methods are safe for concurrent use.
type Controller struct {
	cfg     Config
	conn    *nats.Conn
	hooks   Hooks
	metrics MetricsCollector
	logger  Logger
	now     func() time.Time

	// running is the active run, nil when stopped. last outlives Stop so
	// Done, Err and Stats still describe the most recent run.
	mu      sync.Mutex
	running *run
	last    *run

	status           atomic.Int32
	subscribers      *xsync.Map[uint64, *linkSubscriber]
	nextSubscriberID atomic.Uint64
}

// NewController creates a new guidance controller.
//
// Parameters:
//   - cfg: Configuration; missing values are filled with defaults
//   - conn: NATS connection used for every link
//   - opts: Optional logger, metrics, hooks and clock
//
// Returns:
//   - *Controller: Controller ready to Start
//   - error: ErrInvalidConfig or ErrNATSConnectionRequired
//
// Example:
//
//	cfg := guidance.DefaultConfig()
//	cfg.Target = guidance.TargetConfig{X: 120, Y: -40, Z: 30}
//	ctrl, err := guidance.NewController(&cfg, nc, guidance.WithLogger(logger))
func NewController(cfg *Config, conn *nats.Conn, opts ...Option) (*Controller, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if conn == nil {
		return nil, ErrNATSConnectionRequired
	}

	SetDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	o := &controllerOptions{}
	for _, opt := range opts {
		opt(o)
	}

	metricsCollector := o.metrics
	if metricsCollector == nil {
		metricsCollector = metrics.NewNop()
	}

	loggerInstance := o.logger
	if loggerInstance == nil {
		loggerInstance = logging.NewNop()
	}

	cfg.ValidateWithWarnings(loggerInstance)

	c := &Controller{
		cfg:         *cfg,
		conn:        conn,
		hooks:       hooks.Fill(o.hooks),
		metrics:     metricsCollector,
		logger:      loggerInstance,
		now:         o.clock,
		subscribers: xsync.NewMap[uint64, *linkSubscriber](),
	}
	c.status.Store(int32(LinkDisconnected)) //nolint:gosec // LinkStatus values are a controlled enum

	return c, nil
}

// Start builds the links and launches the worker loop and link monitor.
//
// Start returns once both goroutines are running; it does not wait for
// telemetry or heartbeats.
//
// Parameters:
//   - ctx: Context bounding stream and consumer setup
//
// Returns:
//   - error: ErrAlreadyStarted, ErrLeaseHeld, or a setup error wrapping ErrLink
func (c *Controller) Start(ctx context.Context) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running != nil {
		return ErrAlreadyStarted
	}

	setupCtx, cancel := context.WithTimeout(ctx, c.cfg.OperationTimeout)
	defer cancel()

	js, err := jetstream.New(c.conn)
	if err != nil {
		return fmt.Errorf("failed to create jetstream context: %w", err)
	}

	if c.cfg.Streams.Create {
		telemetrySubject, statusSubject := c.cfg.StreamSubjects()
		err := link.EnsureStreams(setupCtx, js,
			link.StreamSpec{Name: c.cfg.Streams.Telemetry, Subjects: []string{telemetrySubject}, MaxAge: c.cfg.Streams.MaxAge},
			link.StreamSpec{Name: c.cfg.Streams.Status, Subjects: []string{statusSubject}, MaxAge: c.cfg.Streams.MaxAge},
		)
		if err != nil {
			return fmt.Errorf("failed to ensure streams: %w", err)
		}
	}

	var authority *lease.Lease
	if c.cfg.Lease.Enabled {
		authority, err = c.acquireLease(setupCtx, js)
		if err != nil {
			return err
		}

		defer func() {
			if err != nil {
				c.releaseLease(authority)
			}
		}()
	}

	commands := link.NewCommandPublisher(c.conn, c.cfg.Subjects.Command,
		link.WithTarget(c.cfg.Command.TargetSystem, c.cfg.Command.TargetComponent),
		link.WithFlushTimeout(c.cfg.OperationTimeout),
	)

	engine, err := decision.New(commands, c.cfg.Target.Position(), c.logger, c.engineOptions()...)
	if err != nil {
		return fmt.Errorf("failed to create decision engine: %w", err)
	}

	telemetry, err := link.NewTelemetryConsumer(setupCtx, js, link.TelemetryConfig{
		Stream:  c.cfg.Streams.Telemetry,
		Subject: c.cfg.Subjects.Telemetry,
		Durable: c.cfg.Streams.TelemetryDurable,
		Logger:  c.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create telemetry consumer: %w", err)
	}

	heartbeats, err := link.NewHeartbeatSubscriber(c.conn, c.cfg.Subjects.Heartbeat, c.cfg.VehicleID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLink, err)
	}

	receiver, err := heartbeat.NewReceiver(heartbeats, c.logger,
		heartbeat.WithPollInterval(c.cfg.HeartbeatPollInterval),
		heartbeat.WithMissThreshold(c.cfg.HeartbeatMissThreshold),
		heartbeat.WithReceiverMetrics(c.metrics),
		heartbeat.WithOnStatusChange(c.onLinkStatusChanged),
	)
	if err != nil {
		_ = heartbeats.Close()
		return fmt.Errorf("failed to create link monitor: %w", err)
	}

	exit := &worker.ExitFlag{}
	status := link.NewStatusPublisher(js, c.cfg.Subjects.Status, c.cfg.VehicleID)
	loop, err := worker.New(telemetry, engine, status, exit, c.logger,
		worker.WithReceiveTimeout(c.cfg.ReceiveTimeout),
		worker.WithMetrics(c.metrics),
		worker.WithOnError(c.onLoopError),
		worker.WithOnMessage(c.onCommandIssued),
	)
	if err != nil {
		_ = heartbeats.Close()
		return fmt.Errorf("failed to create worker loop: %w", err)
	}

	r := newRun(exit, heartbeats, loop, authority)
	c.running = r
	c.last = r

	r.wg.Add(2)
	go c.runLoop(r)
	go c.runReceiver(r, receiver)

	if authority != nil {
		r.wg.Add(1)
		go c.runLease(r)
	}

	go func() {
		r.wg.Wait()
		close(r.done)
	}()

	c.logger.Info("controller started",
		"vehicle_id", c.cfg.VehicleID,
		"target", c.cfg.Target.Position().String(),
		"telemetry", c.cfg.Subjects.Telemetry,
		"command", c.cfg.Subjects.Command,
	)

	return nil
}

// Stop requests a cooperative exit and waits for the loops to finish.
//
// The worker loop is not cancelled: it finishes the sample in flight and
// exits before the next receive, so worst-case exit latency is one receive
// timeout. Only when ctx or Config.ShutdownTimeout expires is the loop
// cancelled.
//
// Parameters:
//   - ctx: Context for shutdown timeout
//
// Returns:
//   - error: ErrNotStarted, the shutdown timeout, or nil
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	r := c.running
	c.running = nil
	c.mu.Unlock()

	if r == nil {
		return ErrNotStarted
	}

	r.exit.Request()
	r.stopMonitor()

	var shutdownErr error
	if c.cfg.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.ShutdownTimeout)
		defer cancel()
	}

	select {
	case <-r.done:
		c.logger.Info("controller stopped gracefully")
	case <-ctx.Done():
		c.logger.Error("shutdown timeout exceeded, some goroutines may still be running")
		shutdownErr = ctx.Err()
	}
	r.stopLoop()

	if err := r.heartbeats.Close(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		c.logger.Warn("failed to close heartbeat subscription", "error", err)
	}

	if r.lease != nil {
		c.releaseLease(r.lease)
	}

	return shutdownErr
}

// Done returns a channel closed once the loops have exited, either after
// Stop or because a channel closed. It returns nil before Start.
func (c *Controller) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.last == nil {
		return nil
	}

	return c.last.done
}

// Err returns the error that terminated the worker loop, if any.
func (c *Controller) Err() error {
	c.mu.Lock()
	r := c.last
	c.mu.Unlock()

	if r == nil {
		return nil
	}

	return r.Err()
}

// LinkStatus returns the current command link status.
func (c *Controller) LinkStatus() LinkStatus {
	return LinkStatus(c.status.Load())
}

// Stats returns a snapshot of the worker loop counters.
//
// Returns:
//   - Stats: Zero value before Start
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	r := c.last
	c.mu.Unlock()

	if r == nil {
		return Stats{}
	}

	return r.loop.Stats()
}

// SubscribeLinkStatus returns a channel receiving link status edges and a
// function to unsubscribe.
//
// The current status is sent immediately. Delivery is non-blocking, so a
// subscriber that falls behind misses intermediate edges.
//
// Returns:
//   - <-chan LinkStatus: Status updates
//   - func(): Unsubscribe function; closes the channel
//
// Example:
//
//	ch, unsubscribe := ctrl.SubscribeLinkStatus()
//	defer unsubscribe()
//	for status := range ch {
//	    log.Printf("link %s", status)
//	}
func (c *Controller) SubscribeLinkStatus() (<-chan LinkStatus, func()) {
	id := c.nextSubscriberID.Add(1)
	sub := &linkSubscriber{ch: make(chan LinkStatus, subscriberBuffer)}
	c.subscribers.Store(id, sub)

	sub.trySend(c.LinkStatus())

	return sub.ch, func() {
		if s, ok := c.subscribers.LoadAndDelete(id); ok {
			s.close()
		}
	}
}

func (c *Controller) engineOptions() []decision.Option {
	dir, _ := types.ParseYawDirection(c.cfg.YawDirection)

	opts := []decision.Option{
		decision.WithAltitudeTolerance(c.cfg.AltitudeTolerance),
		decision.WithYawTolerance(c.cfg.YawToleranceDeg),
		decision.WithYawRate(c.cfg.YawRateDegPerSec),
		decision.WithYawDirection(dir),
		decision.WithSignedYawDirection(c.cfg.SignedYawDirection),
		decision.WithMetrics(c.metrics),
	}
	if c.now != nil {
		opts = append(opts, decision.WithClock(c.now))
	}

	return opts
}

func (c *Controller) runLoop(r *run) {
	defer r.wg.Done()

	if err := r.loop.Run(r.loopCtx); err != nil {
		c.logger.Error("worker loop terminated", "error", err, types.PersistKey, true)
		r.setErr(err)
	}

	// The monitor has nothing to guard once telemetry stopped.
	r.stopMonitor()
}

func (c *Controller) runReceiver(r *run, receiver *heartbeat.Receiver) {
	defer r.wg.Done()

	if err := receiver.Run(r.monitorCtx); err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Warn("link monitor stopped", "error", err)
	}
}

// acquireLease takes the command authority over the vehicle.
func (c *Controller) acquireLease(ctx context.Context, js jetstream.JetStream) (*lease.Lease, error) {
	kv, err := lease.EnsureBucket(ctx, js, c.cfg.Lease.Bucket, c.cfg.Lease.TTL, 3)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure lease bucket: %w", err)
	}

	authority := lease.New(kv, c.cfg.VehicleID)
	ok, err := authority.Acquire(ctx, c.cfg.Lease.Holder)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire command lease: %w", err)
	}

	if !ok {
		holder, _ := authority.Holder(ctx)
		return nil, fmt.Errorf("%w: vehicle %s is steered by %q", ErrLeaseHeld, c.cfg.VehicleID, holder)
	}

	c.logger.Info("command lease acquired", "vehicle_id", c.cfg.VehicleID, "holder", c.cfg.Lease.Holder)

	return authority, nil
}

func (c *Controller) releaseLease(authority *lease.Lease) {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.OperationTimeout)
	defer cancel()

	if err := authority.Release(ctx); err != nil && !errors.Is(err, lease.ErrNotHeld) {
		c.logger.Warn("failed to release command lease", "error", err)
	}
}

// runLease renews the lease until the run stops. Losing it ends the run.
func (c *Controller) runLease(r *run) {
	defer r.wg.Done()

	err := r.lease.KeepAlive(r.monitorCtx, c.cfg.Lease.TTL/3)
	if err == nil {
		return
	}

	c.logger.Error("command lease lost", "vehicle_id", c.cfg.VehicleID, "error", err, types.PersistKey, true)
	r.setErr(fmt.Errorf("%w: %w", ErrLeaseLost, err))

	r.exit.Request()
	r.stopMonitor()
}

// onLinkStatusChanged runs on the receiver goroutine for every edge.
func (c *Controller) onLinkStatusChanged(from, to LinkStatus) {
	c.status.Store(int32(to)) //nolint:gosec // LinkStatus values are a controlled enum

	c.subscribers.Range(func(_ uint64, sub *linkSubscriber) bool {
		sub.trySend(to)
		return true
	})

	ctx := c.hookContext()
	go func() {
		if err := c.hooks.OnLinkStatusChanged(ctx, from, to); err != nil {
			c.logger.Error("OnLinkStatusChanged hook failed", "error", err)
		}
	}()
}

func (c *Controller) onCommandIssued(msg string) {
	ctx := c.hookContext()
	go func() {
		if err := c.hooks.OnCommandIssued(ctx, msg); err != nil {
			c.logger.Error("OnCommandIssued hook failed", "error", err)
		}
	}()
}

func (c *Controller) onLoopError(loopErr error) {
	ctx := c.hookContext()
	go func() {
		if err := c.hooks.OnError(ctx, loopErr); err != nil {
			c.logger.Error("OnError hook failed", "error", err)
		}
	}()
}

// hookContext returns the running monitor context, or a cancelled one after Stop.
func (c *Controller) hookContext() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running != nil {
		return c.running.monitorCtx
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	return ctx
}
