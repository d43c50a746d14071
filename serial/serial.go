// Package serial provides the command link to the controlling host.
package serial

import (
	"io"
)

// Port is the serial link the command protocol runs over. Implementations:
// the native tarm/serial port, or an in-memory pipe in simulator mode and
// tests.
type Port interface {
	io.ReadWriteCloser
}

// Config holds serial port configuration. Reads are always blocking: the
// command intake waits on line availability and is unblocked at shutdown by
// closing the port.
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string

	// Baud rate for the command link
	Baud int
}
