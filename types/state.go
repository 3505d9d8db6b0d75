package types

// LinkStatus represents the liveness state of the command link.
//
// The link starts Disconnected and follows a two-state machine:
//
//	LinkDisconnected → LinkConnected      on any received heartbeat
//	LinkConnected    → LinkDisconnected   after N consecutive missed heartbeats
type LinkStatus int

const (
	// LinkDisconnected indicates no recent heartbeat. Initial state.
	LinkDisconnected LinkStatus = iota

	// LinkConnected indicates heartbeats are being received.
	LinkConnected
)

// String returns the string representation of the link status.
func (s LinkStatus) String() string {
	switch s {
	case LinkDisconnected:
		return "Disconnected"
	case LinkConnected:
		return "Connected"
	default:
		return "Unknown"
	}
}
