package types

// YawDirection is the rotation direction of a yaw command.
type YawDirection int

const (
	// Clockwise rotates the vehicle clockwise (wire value 1).
	Clockwise YawDirection = 1

	// CounterClockwise rotates the vehicle counter-clockwise (wire value -1).
	CounterClockwise YawDirection = -1
)

// String returns the string representation of the direction.
func (d YawDirection) String() string {
	switch d {
	case Clockwise:
		return "clockwise"
	case CounterClockwise:
		return "counter-clockwise"
	default:
		return "unknown"
	}
}

// ParseYawDirection converts a configuration string into a YawDirection.
//
// Accepts "clockwise"/"cw" and "counter-clockwise"/"ccw". The boolean result is
// false for any other value.
func ParseYawDirection(s string) (YawDirection, bool) {
	switch s {
	case "clockwise", "cw":
		return Clockwise, true
	case "counter-clockwise", "counterclockwise", "ccw":
		return CounterClockwise, true
	default:
		return 0, false
	}
}

// YawChange carries the parameters of a heading correction.
type YawChange struct {
	AngleDeg      float64      // Angle to rotate by, in degrees
	RateDegPerSec float64      // Rotation rate in degrees per second
	Direction     YawDirection // Rotation direction
	Relative      bool         // true: angle is relative to current heading
}

// Command kinds used in metrics labels and hooks.
const (
	CommandKindAltitude = "altitude"
	CommandKindYaw      = "yaw"
)
