package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPosition_Accessors(t *testing.T) {
	p := NewPosition(1.5, -2, 10)

	require.Equal(t, 1.5, p.X())
	require.Equal(t, -2.0, p.Y())
	require.Equal(t, 10.0, p.Z())
	require.Equal(t, "(1.50, -2.00, 10.00)", p.String())
}

func TestPosition_DistanceTo(t *testing.T) {
	tests := []struct {
		name string
		a, b Position
		want float64
	}{
		{"same point", NewPosition(1, 2, 3), NewPosition(1, 2, 3), 0},
		{"3-4-5 triangle", NewPosition(0, 0, 0), NewPosition(3, 4, 0), 5},
		{"vertical only", NewPosition(0, 0, 0), NewPosition(0, 0, -7), 7},
		{"3d diagonal", NewPosition(0, 0, 0), NewPosition(1, 1, 1), math.Sqrt(3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.InDelta(t, tt.want, tt.a.DistanceTo(tt.b), 1e-12)
			require.InDelta(t, tt.want, tt.b.DistanceTo(tt.a), 1e-12)
		})
	}
}

func TestTelemetrySample_Position(t *testing.T) {
	s := TelemetrySample{X: 3, Y: 4, Z: 5, Yaw: math.Pi}

	require.Equal(t, NewPosition(3, 4, 5), s.Position())
}

func TestParseYawDirection(t *testing.T) {
	tests := []struct {
		in   string
		want YawDirection
		ok   bool
	}{
		{"clockwise", Clockwise, true},
		{"cw", Clockwise, true},
		{"counter-clockwise", CounterClockwise, true},
		{"ccw", CounterClockwise, true},
		{"sideways", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseYawDirection(tt.in)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}

	require.Equal(t, "clockwise", Clockwise.String())
	require.Equal(t, "counter-clockwise", CounterClockwise.String())
	require.Equal(t, "unknown", YawDirection(0).String())
}
