// Package serialport opens the sensor's serial line and provides a
// scriptable fake for tests.
package serialport

import (
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// Port is the minimal interface the ingestion path needs from a serial port.
type Port interface {
	io.ReadWriteCloser
}

// TimeoutPort is a Port whose reads can be bounded. A read that times out
// returns (0, nil).
type TimeoutPort interface {
	Port
	SetReadTimeout(timeout time.Duration) error
}

// Opener opens a port at path. Tests replace it to avoid real hardware.
type Opener func(path string, opts PortOptions) (Port, error)

// Open opens the serial device at path with opts and applies the read
// timeout.
func Open(path string, opts PortOptions) (Port, error) {
	opts, err := opts.Normalise()
	if err != nil {
		return nil, err
	}
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", path, err)
	}
	if err := port.SetReadTimeout(opts.ReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", path, err)
	}
	return port, nil
}

// Recorder copies every byte read from a port to a sink, so a session can
// be replayed later. Writes go to the port only.
type Recorder struct {
	Port
	sink io.Writer
}

// NewRecorder returns a Recorder teeing reads from port into sink.
func NewRecorder(port Port, sink io.Writer) *Recorder {
	return &Recorder{Port: port, sink: sink}
}

func (r *Recorder) Read(p []byte) (int, error) {
	n, err := r.Port.Read(p)
	if n > 0 {
		if _, werr := r.sink.Write(p[:n]); werr != nil {
			return n, fmt.Errorf("failed to record serial data: %w", werr)
		}
	}
	return n, err
}
