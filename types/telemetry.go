package types

import "time"

// TelemetrySample is a single position and heading report from the vehicle.
//
// Samples are produced externally at bounded intervals and travel over the
// telemetry channel as JSON.
type TelemetrySample struct {
	X   float64 `json:"x"`   // Local x coordinate in meters
	Y   float64 `json:"y"`   // Local y coordinate in meters
	Z   float64 `json:"z"`   // Altitude in meters
	Yaw float64 `json:"yaw"` // Heading in radians

	// Timestamp is when the vehicle took the measurement. Optional on the wire.
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// Position returns the sample's coordinates as a Position.
func (s TelemetrySample) Position() Position {
	return NewPosition(s.X, s.Y, s.Z)
}

// Heartbeat is the liveness message emitted by the remote end of the command link.
type Heartbeat struct {
	VehicleID string    `json:"vehicle_id"`
	Sequence  uint64    `json:"seq"`
	SentAt    time.Time `json:"sent_at"`
}
