package serialbridge

import (
	"fmt"
	"time"

	serial "go.bug.st/serial"
)

// OpenPort opens a serial device in 8N1 mode with a read timeout.
//
// The timeout makes Read return (0, nil) periodically so Bridge.Run can
// notice cancellation on a silent line.
//
// Parameters:
//   - device: Device path (e.g., "/dev/ttyUSB0")
//   - baud: Baud rate (e.g., 57600)
//   - readTimeout: Upper bound on a single Read; non-positive blocks forever
//
// Returns:
//   - serial.Port: Open port (implements io.ReadWriteCloser)
//   - error: Open or configuration failure
func OpenPort(device string, baud int, readTimeout time.Duration) (serial.Port, error) {
	port, err := serial.Open(device, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial %s: %w", device, err)
	}

	if readTimeout > 0 {
		if err := port.SetReadTimeout(readTimeout); err != nil {
			_ = port.Close()
			return nil, fmt.Errorf("failed to set read timeout on %s: %w", device, err)
		}
	}

	return port, nil
}
