package guidance

import "github.com/arloliu/guidance/types"

// Sentinel errors returned by the Controller and its links.
//
// They alias the types package so errors.Is works across package boundaries.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = types.ErrInvalidConfig

	// ErrNATSConnectionRequired is returned when NATS connection is nil.
	ErrNATSConnectionRequired = types.ErrNATSConnectionRequired

	// ErrAlreadyStarted is returned when Start is called on a running controller.
	ErrAlreadyStarted = types.ErrAlreadyStarted

	// ErrNotStarted is returned when Stop is called on a controller that hasn't been started.
	ErrNotStarted = types.ErrNotStarted

	// ErrLeaseHeld is returned by Start when another controller holds the vehicle's command lease.
	ErrLeaseHeld = types.ErrLeaseHeld

	// ErrLeaseLost is reported by Err when the command lease could not be renewed.
	ErrLeaseLost = types.ErrLeaseLost

	// ErrLink is returned when a channel handle is invalid at construction time.
	ErrLink = types.ErrLink

	// ErrTransientIO is returned when a single send or receive fails.
	ErrTransientIO = types.ErrTransientIO

	// ErrChannelClosed is returned when the telemetry or status channel is permanently closed.
	ErrChannelClosed = types.ErrChannelClosed

	// ErrReceiveTimeout is returned when a bounded receive elapses without a sample.
	ErrReceiveTimeout = types.ErrReceiveTimeout

	// ErrMalformedMessage is returned when a telemetry payload cannot be decoded.
	ErrMalformedMessage = types.ErrMalformedMessage
)
