// Package heartbeat provides command link liveness over NATS.
//
// Two halves live here. The vehicle side runs a Publisher that emits a small
// JSON heartbeat on a core NATS subject at a fixed interval. The ground side
// runs a Receiver that polls a LivenessChannel once per interval and keeps a
// two-state link status with miss-count hysteresis.
//
// # Receiver State Machine
//
//   - Initial state is Disconnected with zero misses
//   - Any received heartbeat resets the miss counter and moves to Connected
//   - A Connected link moves to Disconnected only after MissThreshold (5)
//     consecutive polls without a heartbeat
//   - Transitions are logged once per edge with persist=true; steady-state
//     polls log at info (connected) or warn (each miss)
//
// # Publisher Lifecycle
//
//  1. Create publisher with New(nc, subject, interval)
//  2. Set vehicle ID with SetVehicleID(id)
//  3. Start publishing with Start(ctx)
//  4. Stop publishing with Stop()
//
// Example:
//
//	publisher := heartbeat.New(nc, "guidance.heartbeat.uav-1", time.Second)
//	publisher.SetVehicleID("uav-1")
//	if err := publisher.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer publisher.Stop()
//
//	receiver, _ := heartbeat.NewReceiver(livenessChannel, logger)
//	go receiver.Run(ctx)
//
// # Thread Safety
//
// The Publisher is safe for concurrent use. A Receiver is driven by one
// goroutine; its Status and Missed accessors may be read from any goroutine.
package heartbeat
