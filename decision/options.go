package decision

import (
	"time"

	"github.com/arloliu/guidance/types"
)

// Default decision thresholds.
const (
	DefaultAltitudeTolerance = 0.5 // meters
	DefaultYawToleranceDeg   = 5.0 // degrees
	DefaultYawRateDegPerSec  = 5.0 // degrees per second
)

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	altitudeTolerance float64
	yawToleranceDeg   float64
	yawRate           float64
	yawDirection      types.YawDirection
	signedDirection   bool
	metrics           types.MetricsCollector
	now               func() time.Time
}

func defaultOptions() engineOptions {
	return engineOptions{
		altitudeTolerance: DefaultAltitudeTolerance,
		yawToleranceDeg:   DefaultYawToleranceDeg,
		yawRate:           DefaultYawRateDegPerSec,
		yawDirection:      types.Clockwise,
		now:               time.Now,
	}
}

// WithAltitudeTolerance sets the altitude error, in meters, above which an
// altitude command is issued (default: 0.5).
func WithAltitudeTolerance(meters float64) Option {
	return func(o *engineOptions) {
		o.altitudeTolerance = meters
	}
}

// WithYawTolerance sets the heading error, in degrees, above which a yaw
// command is issued (default: 5).
func WithYawTolerance(degrees float64) Option {
	return func(o *engineOptions) {
		o.yawToleranceDeg = degrees
	}
}

// WithYawRate sets the rotation rate carried by yaw commands (default: 5 deg/s).
func WithYawRate(degPerSec float64) Option {
	return func(o *engineOptions) {
		o.yawRate = degPerSec
	}
}

// WithYawDirection sets the fixed rotation direction of yaw commands
// (default: types.Clockwise).
func WithYawDirection(dir types.YawDirection) Option {
	return func(o *engineOptions) {
		o.yawDirection = dir
	}
}

// WithSignedYawDirection derives the rotation direction from the sign of the
// heading error instead of using the fixed direction.
//
// A positive error turns clockwise, a negative one counter-clockwise. The
// angle is always sent as a magnitude when this option is enabled.
func WithSignedYawDirection(enabled bool) Option {
	return func(o *engineOptions) {
		o.signedDirection = enabled
	}
}

// WithMetrics sets a metrics collector for command and trip metrics.
//
// Parameters:
//   - metrics: MetricsCollector implementation
//
// Returns:
//   - Option: Functional option for New
func WithMetrics(metrics types.MetricsCollector) Option {
	return func(o *engineOptions) {
		o.metrics = metrics
	}
}

// WithClock overrides the time source used for trip-speed bookkeeping.
func WithClock(now func() time.Time) Option {
	return func(o *engineOptions) {
		o.now = now
	}
}
