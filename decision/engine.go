package decision

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/arloliu/guidance/internal/logging"
	"github.com/arloliu/guidance/internal/metrics"
	"github.com/arloliu/guidance/types"
)

// tripState records where and when the trip started.
//
// started flips exactly once, together with start and at.
type tripState struct {
	started bool
	start   types.Position
	at      time.Time
}

// Engine decides which corrective command, if any, a telemetry sample needs.
type Engine struct {
	ch     types.CommandChannel
	target types.Position
	logger types.Logger
	opts   engineOptions

	trip     tripState
	previous *types.TelemetrySample
}

// New creates a decision engine bound to a command channel and a target waypoint.
//
// Parameters:
//   - ch: Command channel used to issue corrections (must be non-nil and valid)
//   - target: Fixed target waypoint
//   - logger: Logger for decisions and trip statistics (nil uses a no-op logger)
//   - opts: Optional thresholds, metrics and clock
//
// Returns:
//   - *Engine: Ready-to-use engine
//   - error: Wraps types.ErrLink if the channel is missing or invalid,
//     types.ErrInvalidConfig if a threshold is negative
func New(ch types.CommandChannel, target types.Position, logger types.Logger, opts ...Option) (*Engine, error) {
	if ch == nil {
		return nil, fmt.Errorf("%w: command channel is nil", types.ErrLink)
	}
	if err := ch.Validate(); err != nil {
		return nil, fmt.Errorf("%w: command channel: %w", types.ErrLink, err)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if o.altitudeTolerance < 0 || o.yawToleranceDeg < 0 || o.yawRate < 0 {
		return nil, fmt.Errorf("%w: tolerances and yaw rate must be non-negative", types.ErrInvalidConfig)
	}
	if o.yawDirection != types.Clockwise && o.yawDirection != types.CounterClockwise {
		return nil, fmt.Errorf("%w: unknown yaw direction %d", types.ErrInvalidConfig, o.yawDirection)
	}
	if o.metrics == nil {
		o.metrics = metrics.NewNop()
	}
	if o.now == nil {
		o.now = time.Now
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Engine{
		ch:     ch,
		target: target,
		logger: logger,
		opts:   o,
	}, nil
}

// Target returns the waypoint the engine steers towards.
func (e *Engine) Target() types.Position {
	return e.target
}

// Run evaluates one telemetry sample.
//
// At most one command is issued per call. An altitude error beyond tolerance
// produces an altitude command and suppresses the heading check; otherwise a
// heading error beyond tolerance produces a relative yaw command.
//
// Parameters:
//   - sample: Latest telemetry sample
//
// Returns:
//   - []string: Zero or one status line ("Change in Alt.: %.2f" or "Change in Yaw: %.2f")
//   - error: Wraps types.ErrTransientIO if the command channel rejected the command
func (e *Engine) Run(sample types.TelemetrySample) ([]string, error) {
	current := sample.Position()
	e.logger.Info("position vector", "position", current.String(), "yaw", sample.Yaw, types.PersistKey, true)

	e.updateTrip(current)
	e.previous = &sample

	altError := e.target.Z() - sample.Z
	if math.Abs(altError) > e.opts.altitudeTolerance {
		if err := e.ch.SendAltitudeChange(e.target.Z()); err != nil {
			e.opts.metrics.RecordCommand(types.CommandKindAltitude, false)
			return nil, e.sendError(types.CommandKindAltitude, err)
		}
		e.opts.metrics.RecordCommand(types.CommandKindAltitude, true)

		return e.issued(fmt.Sprintf("Change in Alt.: %.2f", altError)), nil
	}

	desired := math.Atan2(e.target.Y()-sample.Y, e.target.X()-sample.X)
	yawErrDeg := NormalizeAngle(desired-sample.Yaw) * 180 / math.Pi
	if math.Abs(yawErrDeg) > e.opts.yawToleranceDeg {
		if err := e.ch.SendYawChange(e.yawChange(yawErrDeg)); err != nil {
			e.opts.metrics.RecordCommand(types.CommandKindYaw, false)
			return nil, e.sendError(types.CommandKindYaw, err)
		}
		e.opts.metrics.RecordCommand(types.CommandKindYaw, true)

		return e.issued(fmt.Sprintf("Change in Yaw: %.2f", yawErrDeg)), nil
	}

	e.opts.metrics.RecordWithinTolerance()

	return nil, nil
}

// issued records a sent command in the journal and returns it as the status line.
func (e *Engine) issued(msg string) []string {
	e.logger.Info(msg, types.PersistKey, true)

	return []string{msg}
}

func (e *Engine) updateTrip(current types.Position) {
	now := e.opts.now()
	if !e.trip.started {
		e.trip = tripState{started: true, start: current, at: now}
	}

	if e.previous == nil {
		return
	}

	elapsed := now.Sub(e.trip.at).Seconds()
	if elapsed <= 0 {
		return
	}

	distance := e.trip.start.DistanceTo(current)
	speed := distance / elapsed
	e.opts.metrics.RecordTripSpeed(speed)
	e.logger.Info("trip average speed",
		"speed_mps", speed,
		"distance", humanize.SIWithDigits(distance, 2, "m"),
		"elapsed", time.Duration(elapsed*float64(time.Second)).String(),
		types.PersistKey, true,
	)
}

func (e *Engine) yawChange(errDeg float64) types.YawChange {
	cmd := types.YawChange{
		AngleDeg:      errDeg,
		RateDegPerSec: e.opts.yawRate,
		Direction:     e.opts.yawDirection,
		Relative:      true,
	}

	if e.opts.signedDirection {
		cmd.AngleDeg = math.Abs(errDeg)
		if errDeg < 0 {
			cmd.Direction = types.CounterClockwise
		} else {
			cmd.Direction = types.Clockwise
		}
	}

	return cmd
}

func (e *Engine) sendError(kind string, err error) error {
	e.logger.Warn("command send failed", "kind", kind, "error", err)
	if errors.Is(err, types.ErrTransientIO) {
		return fmt.Errorf("send %s command: %w", kind, err)
	}

	return fmt.Errorf("send %s command: %w: %w", kind, types.ErrTransientIO, err)
}

// NormalizeAngle maps an angle in radians into (-π, π].
func NormalizeAngle(rad float64) float64 {
	r := math.Mod(rad+math.Pi, 2*math.Pi)
	if r < 0 {
		r += 2 * math.Pi
	}
	r -= math.Pi

	if r <= -math.Pi {
		r = math.Pi
	}

	return r
}
