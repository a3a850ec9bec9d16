package controlport

import (
	"io"

	"go.bug.st/serial"
)

// DefaultBaudRate is the sensor CLI channel rate. The IWR6843 exposes two
// USB serial functions; the command console always runs at 115200 8N1.
const DefaultBaudRate = 115200

// SerialPorter is the minimal surface the mux needs from a serial port.
// The abstraction keeps the mux testable without hardware.
type SerialPorter interface {
	io.ReadWriter
	io.Closer
}

// Open opens the sensor command console at path.
func Open(path string, baud int) (serial.Port, error) {
	if baud == 0 {
		baud = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	return serial.Open(path, mode)
}
