package types

// MetricsCollector defines methods for recording operational metrics.
//
// Implementations should be non-blocking and handle failures gracefully.
// All methods are called from internal goroutines and must be thread-safe.
//
// This interface composes smaller, domain-focused interfaces for better modularity.
type MetricsCollector interface {
	CommandMetrics
	LinkMetrics
	LoopMetrics
}

// CommandMetrics defines metrics recorded by the decision engine.
type CommandMetrics interface {
	// RecordCommand records a corrective command dispatch.
	//
	// Parameters:
	//   - kind: Command kind ("altitude", "yaw")
	//   - success: true if the command channel accepted the command
	RecordCommand(kind string, success bool)

	// RecordTripSpeed sets the current trip-average speed in meters per second (gauge metric).
	RecordTripSpeed(speed float64)

	// RecordWithinTolerance records a sample that required no correction.
	RecordWithinTolerance()
}

// LinkMetrics defines metrics for command link liveness.
type LinkMetrics interface {
	// RecordHeartbeat records a heartbeat poll outcome.
	//
	// Parameters:
	//   - received: true if a heartbeat was received during the poll
	RecordHeartbeat(received bool)

	// RecordLinkStatus sets the current link status (gauge metric, 1=connected).
	RecordLinkStatus(status LinkStatus)

	// RecordMissedHeartbeats sets the current consecutive miss count (gauge metric).
	RecordMissedHeartbeats(count int)

	// RecordHeartbeatPublished records a heartbeat emitted by the publisher side.
	RecordHeartbeatPublished(success bool)
}

// LoopMetrics defines metrics for the telemetry worker loop.
type LoopMetrics interface {
	// RecordSampleDuration records the time spent processing one sample, in seconds.
	RecordSampleDuration(duration float64)

	// RecordLoopError records a recovered loop error.
	//
	// Parameters:
	//   - stage: Where the error happened ("receive", "decide", "send")
	RecordLoopError(stage string)

	// RecordStatusMessage records an outbound status message delivery.
	RecordStatusMessage(success bool)
}
