// Package serialbridge forwards telemetry read from a serial radio to NATS.
//
// The radio emits one newline-terminated sample per line:
//
//	x,y,z,yaw
//
// with coordinates in meters and yaw in radians. Blank lines and lines
// starting with '#' are ignored; malformed lines are logged and skipped.
package serialbridge
