package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arloliu/guidance/types"
)

// PrometheusCollector implements types.MetricsCollector backed by Prometheus.
//
// Metrics are created and registered lazily on first use, so constructing a
// collector that is never exercised leaves the registerer untouched.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	// Decision engine metrics
	commands        *prometheus.CounterVec
	tripSpeed       prometheus.Gauge
	withinTolerance prometheus.Counter

	// Link metrics
	heartbeats          *prometheus.CounterVec
	linkStatus          prometheus.Gauge
	missedHeartbeats    prometheus.Gauge
	heartbeatsPublished *prometheus.CounterVec

	// Worker loop metrics
	sampleDuration prometheus.Histogram
	loopErrors     *prometheus.CounterVec
	statusMessages *prometheus.CounterVec
}

// Compile-time assertion that PrometheusCollector implements MetricsCollector.
var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer interface (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Prometheus metrics namespace (defaults to "guidance" if empty)
//
// Returns:
//   - *PrometheusCollector: A MetricsCollector implementation using Prometheus
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "guidance"
	}

	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.commands = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "engine",
			Name:      "commands_total",
			Help:      "Total corrective commands by kind and result (success,failure).",
		}, []string{"kind", "result"})

		p.tripSpeed = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "engine",
			Name:      "trip_average_speed_mps",
			Help:      "Average speed since the first sample of the trip, in meters per second.",
		})

		p.withinTolerance = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "engine",
			Name:      "within_tolerance_total",
			Help:      "Samples that required no correction.",
		})

		p.heartbeats = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "link",
			Name:      "heartbeat_polls_total",
			Help:      "Heartbeat polls by outcome (received,missed).",
		}, []string{"outcome"})

		p.linkStatus = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "link",
			Name:      "connected",
			Help:      "Command link status (1=connected,0=disconnected).",
		})

		p.missedHeartbeats = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "link",
			Name:      "missed_heartbeats",
			Help:      "Current number of consecutive missed heartbeats.",
		})

		p.heartbeatsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "link",
			Name:      "heartbeats_published_total",
			Help:      "Heartbeats published by result (success,failure).",
		}, []string{"result"})

		p.sampleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "worker",
			Name:      "sample_duration_seconds",
			Help:      "Time spent deciding on and emitting one telemetry sample.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms .. ~1s
		})

		p.loopErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "worker",
			Name:      "errors_total",
			Help:      "Recovered worker loop errors by stage (receive,decide,send).",
		}, []string{"stage"})

		p.statusMessages = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "worker",
			Name:      "status_messages_total",
			Help:      "Outbound status messages by result (success,failure).",
		}, []string{"result"})

		p.reg.MustRegister(p.commands)
		p.reg.MustRegister(p.tripSpeed)
		p.reg.MustRegister(p.withinTolerance)
		p.reg.MustRegister(p.heartbeats)
		p.reg.MustRegister(p.linkStatus)
		p.reg.MustRegister(p.missedHeartbeats)
		p.reg.MustRegister(p.heartbeatsPublished)
		p.reg.MustRegister(p.sampleDuration)
		p.reg.MustRegister(p.loopErrors)
		p.reg.MustRegister(p.statusMessages)
	})
}

func result(success bool) string {
	if success {
		return "success"
	}

	return "failure"
}

// CommandMetrics implementation

// RecordCommand increments the command counter for kind and result.
func (p *PrometheusCollector) RecordCommand(kind string, success bool) {
	p.ensureRegistered()
	p.commands.WithLabelValues(kind, result(success)).Inc()
}

// RecordTripSpeed sets the trip-average speed gauge.
func (p *PrometheusCollector) RecordTripSpeed(speed float64) {
	p.ensureRegistered()
	p.tripSpeed.Set(speed)
}

// RecordWithinTolerance increments the within-tolerance counter.
func (p *PrometheusCollector) RecordWithinTolerance() {
	p.ensureRegistered()
	p.withinTolerance.Inc()
}

// LinkMetrics implementation

// RecordHeartbeat increments the heartbeat poll counter.
func (p *PrometheusCollector) RecordHeartbeat(received bool) {
	p.ensureRegistered()
	if received {
		p.heartbeats.WithLabelValues("received").Inc()
	} else {
		p.heartbeats.WithLabelValues("missed").Inc()
	}
}

// RecordLinkStatus sets the link status gauge (1 connected, 0 otherwise).
func (p *PrometheusCollector) RecordLinkStatus(status types.LinkStatus) {
	p.ensureRegistered()
	if status == types.LinkConnected {
		p.linkStatus.Set(1)
	} else {
		p.linkStatus.Set(0)
	}
}

// RecordMissedHeartbeats sets the consecutive miss gauge.
func (p *PrometheusCollector) RecordMissedHeartbeats(count int) {
	p.ensureRegistered()
	p.missedHeartbeats.Set(float64(count))
}

// RecordHeartbeatPublished increments the published heartbeat counter.
func (p *PrometheusCollector) RecordHeartbeatPublished(success bool) {
	p.ensureRegistered()
	p.heartbeatsPublished.WithLabelValues(result(success)).Inc()
}

// LoopMetrics implementation

// RecordSampleDuration observes the per-sample processing time.
func (p *PrometheusCollector) RecordSampleDuration(duration float64) {
	p.ensureRegistered()
	p.sampleDuration.Observe(duration)
}

// RecordLoopError increments the loop error counter for stage.
func (p *PrometheusCollector) RecordLoopError(stage string) {
	p.ensureRegistered()
	p.loopErrors.WithLabelValues(stage).Inc()
}

// RecordStatusMessage increments the status message counter.
func (p *PrometheusCollector) RecordStatusMessage(success bool) {
	p.ensureRegistered()
	p.statusMessages.WithLabelValues(result(success)).Inc()
}
