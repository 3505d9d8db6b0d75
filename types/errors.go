package types

import (
	"errors"
)

// Sentinel errors for the guidance library.
//
// These errors provide type-safe error checking using errors.Is() and errors.As().
// All components should use these sentinel errors for known error conditions
// and wrap external errors with context using fmt.Errorf("%s: %w", msg, err).
//
// Error taxonomy:
//   - ErrLink: construction-time failure, fatal to the component being built
//   - ErrTransientIO: a single send/receive failed, recovered by the caller
//   - ErrChannelClosed: a conduit is permanently closed, ends the owning loop
//   - ErrReceiveTimeout: a bounded receive elapsed without data (not a failure)

// Controller errors - Public API errors returned by the Controller.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNATSConnectionRequired is returned when NATS connection is nil.
	ErrNATSConnectionRequired = errors.New("NATS connection is required")

	// ErrAlreadyStarted is returned when Start is called on an already running controller.
	ErrAlreadyStarted = errors.New("controller already started")

	// ErrNotStarted is returned when operations require a started controller.
	ErrNotStarted = errors.New("controller not started")

	// ErrLeaseHeld is returned by Start when another controller holds the vehicle's command lease.
	ErrLeaseHeld = errors.New("command lease held by another controller")

	// ErrLeaseLost is reported by Err when the command lease could not be renewed.
	ErrLeaseLost = errors.New("command lease lost")
)

// Link errors - Errors raised by command, liveness, telemetry and outbound channels.
var (
	// ErrLink is returned when a channel handle is invalid at construction time.
	// The component cannot be built; the caller must re-establish the channel.
	ErrLink = errors.New("invalid link")

	// ErrTransientIO is returned when a single send or receive fails.
	// Callers log the failure and continue with the next cycle.
	ErrTransientIO = errors.New("transient I/O failure")

	// ErrChannelClosed is returned when a telemetry or outbound channel is permanently closed.
	ErrChannelClosed = errors.New("channel closed")

	// ErrReceiveTimeout is returned when a bounded receive elapses without a sample.
	ErrReceiveTimeout = errors.New("receive timeout")

	// ErrMalformedMessage is returned when a payload cannot be decoded.
	ErrMalformedMessage = errors.New("malformed message")
)

// Heartbeat errors - Errors returned by the heartbeat publisher.
var (
	// ErrPublisherAlreadyStarted is returned when Start is called on a running publisher.
	ErrPublisherAlreadyStarted = errors.New("heartbeat publisher already started")

	// ErrPublisherNotStarted is returned when Stop is called before Start.
	ErrPublisherNotStarted = errors.New("heartbeat publisher not started")
)

// IsTransient reports whether err is a recoverable, per-cycle failure.
//
// Closed channels and construction errors are not transient even when they
// are joined with a transient error.
//
// Parameters:
//   - err: The error to check
//
// Returns:
//   - bool: true if the caller should log and continue
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrChannelClosed) || errors.Is(err, ErrLink) {
		return false
	}

	return true
}
