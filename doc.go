// Package guidance provides a NATS-based guidance loop that steers a vehicle towards a fixed
// waypoint with single-step altitude and heading corrections, and watches the health of the
// command link through periodic heartbeats.
//
// The Controller consumes telemetry from a JetStream stream, evaluates every sample with the
// decision engine, publishes corrective commands on a core NATS subject and records a status
// line for each issued command in a second stream. A separate link monitor polls heartbeats and
// reports connected/disconnected edges with hysteresis.
//
// # Quick Start
//
// Basic usage with default settings:
//
//	import "github.com/arloliu/guidance"
//
//	cfg := guidance.DefaultConfig()
//	cfg.VehicleID = "uav-1"
//	cfg.Target = guidance.TargetConfig{X: 120, Y: -40, Z: 30}
//
//	ctrl, err := guidance.NewController(&cfg, natsConn)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := ctrl.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer ctrl.Stop(context.Background())
//
// # Decision Rules
//
// For each sample, in priority order:
//
//   - |target.z - z| > AltitudeTolerance: issue an altitude change to target.z
//   - otherwise |heading error| > YawToleranceDeg: issue a relative yaw change
//   - otherwise: nothing
//
// At most one command is issued per sample. The engine also logs the trip-average speed since
// the first sample.
//
// # Subjects and Streams
//
// With the default prefix and vehicle "uav-1":
//
//	guidance.telemetry.uav-1   JetStream (GUIDANCE_TELEMETRY), JSON samples in
//	guidance.command.uav-1     core NATS, COMMAND_LONG-style JSON out
//	guidance.heartbeat.uav-1   core NATS, vehicle heartbeats in
//	guidance.status.uav-1      JetStream (GUIDANCE_STATUS), status lines out
//
// # Observing the Link
//
//	ch, unsubscribe := ctrl.SubscribeLinkStatus()
//	defer unsubscribe()
//	for status := range ch {
//	    log.Printf("command link %s", status)
//	}
//
// See cmd/guidance for a complete program with Prometheus metrics and a durable log journal.
package guidance
