package types

import (
	"context"
	"time"
)

// CommandChannel sends corrective commands to the vehicle.
//
// Implementations own the wire encoding of commands. Both send methods must not
// block for longer than the implementation's operation timeout.
type CommandChannel interface {
	// Validate checks that the underlying connection is usable.
	//
	// Returns:
	//   - error: Non-nil if the handle cannot be used (e.g., connection closed)
	Validate() error

	// SendAltitudeChange commands the vehicle to change altitude to targetAltitude (meters).
	SendAltitudeChange(targetAltitude float64) error

	// SendYawChange commands the vehicle to rotate according to cmd.
	SendYawChange(cmd YawChange) error
}

// LivenessChannel exposes the heartbeat stream of the command link.
type LivenessChannel interface {
	// Validate checks that the underlying connection is usable.
	Validate() error

	// TryReceiveHeartbeat checks for a heartbeat without blocking.
	//
	// Returns:
	//   - bool: true if at least one heartbeat arrived since the previous call
	//   - error: Transport-level failure (treated as "no heartbeat" by callers)
	TryReceiveHeartbeat() (bool, error)
}

// TelemetrySource yields telemetry samples with a bounded wait.
type TelemetrySource interface {
	// Receive waits up to timeout for the next sample.
	//
	// Returns:
	//   - TelemetrySample: The received sample
	//   - error: ErrReceiveTimeout if nothing arrived, ErrChannelClosed if the source
	//     is permanently closed, or a transient error
	Receive(ctx context.Context, timeout time.Duration) (TelemetrySample, error)
}

// MessageSink accepts formatted status messages produced by the decision engine.
type MessageSink interface {
	// Send delivers msg. Returns ErrChannelClosed when the sink is permanently closed.
	Send(ctx context.Context, msg string) error
}

// ExitSignal reports whether a cooperative shutdown was requested. Never blocks.
type ExitSignal interface {
	IsExitRequested() bool
}
