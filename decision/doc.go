// Package decision implements the target-approach logic of the guidance loop.
//
// An Engine is given a fixed target waypoint and a command channel. For every
// telemetry sample it decides whether the vehicle needs an altitude correction
// or a heading correction, issues at most one command, and returns the
// human-readable status line describing what it did.
//
// Altitude always takes priority: while the altitude error exceeds its
// tolerance no heading command is issued for that sample. The engine also
// tracks the trip-average speed since the first sample it saw and reports it
// through the logger and the metrics collector.
//
// An Engine is owned by a single goroutine and performs no locking.
//
// Example:
//
//	engine, err := decision.New(cmdChannel, types.NewPosition(10, 0, 5), logger)
//	if err != nil {
//	    return err
//	}
//	msgs, err := engine.Run(sample)
package decision
