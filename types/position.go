package types

import (
	"fmt"
	"math"
)

// Position is an immutable 3D coordinate in a consistent local frame (meters).
//
// Fields are unexported so a Position cannot be mutated after construction;
// use NewPosition to build one and the accessors to read it.
type Position struct {
	x, y, z float64
}

// NewPosition creates a Position from its coordinates.
//
// Parameters:
//   - x, y: Horizontal coordinates in meters
//   - z: Altitude in meters
//
// Returns:
//   - Position: Immutable coordinate value
func NewPosition(x, y, z float64) Position {
	return Position{x: x, y: y, z: z}
}

// X returns the x coordinate in meters.
func (p Position) X() float64 { return p.x }

// Y returns the y coordinate in meters.
func (p Position) Y() float64 { return p.y }

// Z returns the altitude in meters.
func (p Position) Z() float64 { return p.z }

// DistanceTo returns the Euclidean distance between two positions in meters.
func (p Position) DistanceTo(o Position) float64 {
	dx := o.x - p.x
	dy := o.y - p.y
	dz := o.z - p.z

	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// String formats the position as "(x, y, z)".
func (p Position) String() string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", p.x, p.y, p.z)
}
