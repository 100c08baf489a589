// Package serial opens the board's telemetry UART on the host side.
package serial

import (
	"io"
	"time"
)

// Port is the read side of the telemetry link. The link is one way by
// design; there is nothing to write to the board. Implementations:
//   - Native serial (github.com/tarm/serial)
//   - Scripted ports in tests
type Port interface {
	io.ReadCloser
}

// Config holds serial port configuration.
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate, matching the firmware's UART setup
	Baud int

	// Read timeout (0 = blocking)
	ReadTimeout time.Duration
}

// DefaultConfig returns the configuration matching the firmware UART.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100 * time.Millisecond,
	}
}
