// Package visa provides a small VISA-style resource manager for SCPI instruments.
//
// Resource strings follow the VISA conventions:
//
//	TCPIP[board]::<host>::<port>::SOCKET   raw SCPI socket
//	ASRL<port>::INSTR                      serial port (number or device path)
//	GPIB[board]::<primary>::INSTR          GPIB through a Prologix-style controller
//
// Transport failures are normalized to a closed set of codes (see errors.go).
package visa

import (
	"context"
	"time"
)

// DefaultTimeout is the response timeout applied when a resource is opened.
const DefaultTimeout = 5000 * time.Millisecond

// Instrument is an open connection to a single instrument.
type Instrument interface {
	// Write sends a command that produces no response.
	Write(ctx context.Context, cmd string) error

	// Query sends a command and reads one terminated response line.
	Query(ctx context.Context, cmd string) (string, error)

	// QueryBinary sends a command and reads an IEEE 488.2 block response.
	QueryBinary(ctx context.Context, cmd string) ([]byte, error)

	// Close releases the underlying transport.
	Close() error

	// Resource returns the resource string the instrument was opened with.
	Resource() string
}

// Manager discovers and opens instrument resources.
type Manager interface {
	List(ctx context.Context) ([]string, error)
	Open(ctx context.Context, resource string, opts ...OpenOption) (Instrument, error)
}

// OpenOptions controls how a resource is opened.
type OpenOptions struct {
	Timeout          time.Duration
	ReadTermination  string
	WriteTermination string
}

// OpenOption mutates OpenOptions.
type OpenOption func(*OpenOptions)

// DefaultOpenOptions returns the options used when none are given.
func DefaultOpenOptions() OpenOptions {
	return OpenOptions{
		Timeout:          DefaultTimeout,
		ReadTermination:  "\n",
		WriteTermination: "\n",
	}
}

// WithTimeout sets the response timeout. Non-positive values keep the default.
func WithTimeout(d time.Duration) OpenOption {
	return func(o *OpenOptions) {
		if d > 0 {
			o.Timeout = d
		}
	}
}

// WithTermination sets the read and write termination sequences.
func WithTermination(read, write string) OpenOption {
	return func(o *OpenOptions) {
		if read != "" {
			o.ReadTermination = read
		}
		if write != "" {
			o.WriteTermination = write
		}
	}
}

// ApplyOptions folds opts over the defaults.
func ApplyOptions(opts ...OpenOption) OpenOptions {
	o := DefaultOpenOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
