package metrics

import "github.com/arloliu/guidance/types"

// NopMetrics implements a no-op metrics collector.
//
// All metrics are discarded. Useful for testing or when external
// metrics collection is used.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
//
// Returns:
//   - *NopMetrics: A new no-op metrics collector instance
//
// Example:
//
//	metrics := metrics.NewNop()
//	ctrl, _ := guidance.NewController(&cfg, nc, guidance.WithMetrics(metrics))
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// CommandMetrics implementation

// RecordCommand discards the command dispatch metric.
func (n *NopMetrics) RecordCommand(_ /* kind */ string, _ /* success */ bool) {
	// No-op
}

// RecordTripSpeed discards the trip speed metric.
func (n *NopMetrics) RecordTripSpeed(_ /* speed */ float64) {
	// No-op
}

// RecordWithinTolerance discards the within-tolerance counter.
func (n *NopMetrics) RecordWithinTolerance() {
	// No-op
}

// LinkMetrics implementation

// RecordHeartbeat discards the heartbeat poll metric.
func (n *NopMetrics) RecordHeartbeat(_ /* received */ bool) {
	// No-op
}

// RecordLinkStatus discards the link status metric.
func (n *NopMetrics) RecordLinkStatus(_ /* status */ types.LinkStatus) {
	// No-op
}

// RecordMissedHeartbeats discards the missed heartbeat gauge.
func (n *NopMetrics) RecordMissedHeartbeats(_ /* count */ int) {
	// No-op
}

// RecordHeartbeatPublished discards the heartbeat publish metric.
func (n *NopMetrics) RecordHeartbeatPublished(_ /* success */ bool) {
	// No-op
}

// LoopMetrics implementation

// RecordSampleDuration discards the sample processing duration.
func (n *NopMetrics) RecordSampleDuration(_ /* duration */ float64) {
	// No-op
}

// RecordLoopError discards the loop error metric.
func (n *NopMetrics) RecordLoopError(_ /* stage */ string) {
	// No-op
}

// RecordStatusMessage discards the status message metric.
func (n *NopMetrics) RecordStatusMessage(_ /* success */ bool) {
	// No-op
}
