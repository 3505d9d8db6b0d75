// Package link implements the guidance channels over NATS.
//
// Each type here satisfies one of the channel interfaces the core consumes:
//
//   - CommandPublisher (types.CommandChannel): publishes COMMAND_LONG style
//     JSON commands on a core NATS subject
//   - HeartbeatSubscriber (types.LivenessChannel): non-blocking heartbeat
//     polling over a buffered core NATS subscription
//   - TelemetryConsumer (types.TelemetrySource): bounded receive from a
//     JetStream durable pull consumer
//   - StatusPublisher (types.MessageSink): JetStream publish of status lines
//     with deterministic Nats-Msg-Id for deduplication
//
// TelemetryPublisher is the producer side of the telemetry stream, used by
// the serial bridge and by tests. EnsureStreams creates or updates the
// telemetry and status streams.
//
// Errors follow the guidance taxonomy: a closed connection, subscription or
// consumer maps to types.ErrChannelClosed, any other single failure to
// types.ErrTransientIO.
package link
