package heartbeat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/arloliu/guidance/internal/logging"
	"github.com/arloliu/guidance/types"
)

// Common errors for heartbeat operations.
var (
	ErrNotStarted     = types.ErrPublisherNotStarted
	ErrAlreadyStarted = types.ErrPublisherAlreadyStarted
	ErrNoVehicleID    = errors.New("vehicle ID not set")
)

// Publisher publishes periodic heartbeats on a core NATS subject.
//
// The vehicle side of the command link runs a Publisher; the ground side
// polls the same subject through a LivenessChannel and feeds a Receiver.
// Heartbeats are fire-and-forget: a lost heartbeat is exactly what the
// Receiver is designed to tolerate.
type Publisher struct {
	nc        *nats.Conn
	subject   string
	vehicleID string
	interval  time.Duration
	metrics   types.MetricsCollector
	logger    types.Logger

	mu       sync.Mutex
	started  bool
	sequence uint64
	stopCh   chan struct{}
	doneCh   chan struct{}
	ticker   *time.Ticker
}

// New creates a new heartbeat publisher.
//
// Parameters:
//   - nc: NATS connection used to publish heartbeats
//   - subject: Heartbeat subject (e.g., "guidance.heartbeat.uav-1")
//   - interval: Heartbeat interval (typically 1s)
//
// Returns:
//   - *Publisher: New heartbeat publisher instance
//
// Example:
//
//	publisher := heartbeat.New(nc, "guidance.heartbeat.uav-1", time.Second)
//	publisher.SetVehicleID("uav-1")
//	if err := publisher.Start(ctx); err != nil {
//	    return err
//	}
//	defer publisher.Stop()
func New(nc *nats.Conn, subject string, interval time.Duration) *Publisher {
	return &Publisher{
		nc:       nc,
		subject:  subject,
		interval: interval,
		logger:   logging.NewNop(),
	}
}

// SetVehicleID sets the vehicle ID carried in every heartbeat.
//
// Must be called before Start().
//
// Parameters:
//   - vehicleID: Vehicle identifier
func (p *Publisher) SetVehicleID(vehicleID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.vehicleID = vehicleID
}

// SetMetrics sets the metrics collector for heartbeat events.
//
// Optional. If not set, metrics are not recorded.
//
// Parameters:
//   - metrics: Metrics collector instance
func (p *Publisher) SetMetrics(metrics types.MetricsCollector) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.metrics = metrics
}

// SetLogger sets the logger used to report publish failures.
func (p *Publisher) SetLogger(logger types.Logger) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if logger != nil {
		p.logger = logger
	}
}

// Start begins publishing heartbeats in the background.
//
// Publishes the first heartbeat immediately, then at regular intervals.
// Continues until Stop() is called.
//
// Parameters:
//   - ctx: Context for the initial publish
//
// Returns:
//   - error: ErrAlreadyStarted if already running, ErrNoVehicleID if vehicle ID not set
func (p *Publisher) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return ErrAlreadyStarted
	}

	if p.vehicleID == "" {
		return ErrNoVehicleID
	}

	if p.nc == nil {
		return types.ErrNATSConnectionRequired
	}

	if err := p.publish(ctx); err != nil {
		return fmt.Errorf("failed to publish initial heartbeat: %w", err)
	}

	p.started = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.ticker = time.NewTicker(p.interval)

	go p.publishLoop(p.ticker, p.stopCh, p.doneCh)

	return nil
}

// Stop stops the heartbeat publisher.
//
// Blocks until the publisher goroutine exits. The receiving side notices the
// silence after its miss threshold and reports the link as lost.
//
// Returns:
//   - error: ErrNotStarted if not running
func (p *Publisher) Stop() error {
	p.mu.Lock()

	if !p.started {
		p.mu.Unlock()
		return ErrNotStarted
	}

	p.ticker.Stop()
	close(p.stopCh)
	p.started = false
	doneCh := p.doneCh

	p.mu.Unlock()

	<-doneCh

	return nil
}

// publishLoop is the background goroutine that publishes heartbeats.
func (p *Publisher) publishLoop(ticker *time.Ticker, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			p.mu.Lock()
			err := p.publish(context.Background())
			logger := p.logger
			p.mu.Unlock()

			if err != nil {
				logger.Warn("heartbeat publish failed", "subject", p.subject, "error", err)
			}
		}
	}
}

// publish sends one heartbeat. Caller holds p.mu.
func (p *Publisher) publish(ctx context.Context) error {
	p.sequence++
	hb := types.Heartbeat{
		VehicleID: p.vehicleID,
		Sequence:  p.sequence,
		SentAt:    time.Now().UTC(),
	}

	data, err := json.Marshal(hb)
	if err != nil {
		p.recordMetric(false)
		return fmt.Errorf("failed to encode heartbeat: %w", err)
	}

	if err := p.nc.Publish(p.subject, data); err != nil {
		p.recordMetric(false)
		return fmt.Errorf("failed to publish heartbeat for %s: %w", p.vehicleID, err)
	}

	if err := ctx.Err(); err != nil {
		p.recordMetric(false)
		return err
	}

	p.recordMetric(true)

	return nil
}

// recordMetric records heartbeat success/failure. Caller holds p.mu.
func (p *Publisher) recordMetric(success bool) {
	if p.metrics != nil {
		p.metrics.RecordHeartbeatPublished(success)
	}
}

// VehicleID returns the current vehicle ID.
//
// Returns:
//   - string: Vehicle ID
func (p *Publisher) VehicleID() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.vehicleID
}

// Sequence returns the sequence number of the last published heartbeat.
func (p *Publisher) Sequence() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.sequence
}

// IsStarted returns whether the publisher is currently running.
//
// Returns:
//   - bool: true if started, false otherwise
func (p *Publisher) IsStarted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.started
}
