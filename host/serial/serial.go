package serial

import (
	"io"
)

// Port represents a serial port interface
// This abstraction allows for different implementations:
// - Native serial (using github.com/tarm/serial)
// - In-memory streams (for testing the monitor)
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string

	// Baud rate of the firmware console
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultBaud is the console rate the firmware's UART runs at
const DefaultBaud = 115200

// DefaultConfig returns a configuration for the firmware console
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: 0, // Console is read line by line; block until data arrives
	}
}
