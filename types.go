package guidance

import "github.com/arloliu/guidance/types"

// Re-export types from the types package.
//
// Internal packages depend on types only, so the root package can import
// them without a cycle while users still write guidance.Position,
// guidance.Logger and so on.
type (
	Position        = types.Position
	TelemetrySample = types.TelemetrySample
	LinkStatus      = types.LinkStatus
	YawChange       = types.YawChange
	YawDirection    = types.YawDirection
)

// Re-export interfaces from the types package for convenience.
type (
	CommandChannel   = types.CommandChannel
	LivenessChannel  = types.LivenessChannel
	TelemetrySource  = types.TelemetrySource
	MessageSink      = types.MessageSink
	ExitSignal       = types.ExitSignal
	MetricsCollector = types.MetricsCollector
	Logger           = types.Logger
	Hooks            = types.Hooks
)

// Re-export LinkStatus and YawDirection constants.
const (
	LinkDisconnected = types.LinkDisconnected
	LinkConnected    = types.LinkConnected

	Clockwise        = types.Clockwise
	CounterClockwise = types.CounterClockwise
)
