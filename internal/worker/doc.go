// Package worker runs the telemetry consumption loop.
//
// A Loop pulls one telemetry sample at a time from a TelemetrySource with a
// bounded receive, hands it to a decision engine, and forwards every status
// message the engine returns to a MessageSink. Exactly one sample is in
// flight at a time, so commands are emitted in telemetry order.
//
// Cancellation is cooperative. The exit signal and the context are checked
// between iterations only, so an in-flight sample is always fully processed
// and the worst-case shutdown latency is one receive timeout.
//
// Error policy:
//   - types.ErrReceiveTimeout is not an error; the loop simply polls again
//   - types.ErrChannelClosed from the source or the sink ends the loop
//   - anything else is logged, counted, reported, and the loop continues
//     after a short jittered pause
package worker
