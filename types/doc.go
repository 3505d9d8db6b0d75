// Package types provides core type definitions and interfaces for the guidance library.
//
// This package contains shared types that are used across multiple packages in the
// guidance library. By keeping these types in a separate package, we avoid import cycles
// between the main guidance package and its internal implementations.
//
// Key types:
//   - Position: Immutable 3D coordinate (target or reference point)
//   - TelemetrySample: Position plus heading as reported by the vehicle
//   - YawChange: Heading correction command parameters
//   - LinkStatus: Command link liveness state
//   - CommandChannel, LivenessChannel, TelemetrySource, MessageSink: I/O collaborators
//   - Logger: Structured logging interface
//   - MetricsCollector: Metrics recording interface
package types
