//go:build !wasm

package serial

import (
	"fmt"
	"time"

	"github.com/tarm/serial"
)

// NativePort wraps the tarm/serial implementation
type NativePort struct {
	port *serial.Port
}

// Open opens a native serial port
func Open(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Device == "" {
		return nil, fmt.Errorf("device path is required")
	}
	baud := cfg.Baud
	if baud == 0 {
		baud = DefaultBaud
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        baud,
		ReadTimeout: time.Duration(cfg.ReadTimeout) * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}

	return &NativePort{port: port}, nil
}

// Read reads data from the serial port
func (p *NativePort) Read(b []byte) (int, error) {
	return p.port.Read(b)
}

// Write writes data to the serial port
func (p *NativePort) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

// Close closes the serial port
func (p *NativePort) Close() error {
	if p.port != nil {
		return p.port.Close()
	}
	return nil
}

// Flush discards unread console input so monitoring starts at a line boundary
func (p *NativePort) Flush() error {
	return p.port.Flush()
}
