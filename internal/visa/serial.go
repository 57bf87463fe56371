package visa

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.bug.st/serial"
)

// SerialSettings describes the line settings used for ASRL resources and
// for the GPIB controller port.
type SerialSettings struct {
	BaudRate int
	DataBits int
	Parity   string // N, E, O, M, S
	StopBits string // 1, 1.5, 2
}

// DefaultSerialSettings returns 9600 8N1.
func DefaultSerialSettings() SerialSettings {
	return SerialSettings{
		BaudRate: 9600,
		DataBits: 8,
		Parity:   "N",
		StopBits: "1",
	}
}

// Mode converts the settings to a serial.Mode.
func (s SerialSettings) Mode() (*serial.Mode, error) {
	mode := &serial.Mode{
		BaudRate: s.BaudRate,
		DataBits: s.DataBits,
	}

	switch strings.ToUpper(s.Parity) {
	case "", "N", "NONE":
		mode.Parity = serial.NoParity
	case "E", "EVEN":
		mode.Parity = serial.EvenParity
	case "O", "ODD":
		mode.Parity = serial.OddParity
	case "M", "MARK":
		mode.Parity = serial.MarkParity
	case "S", "SPACE":
		mode.Parity = serial.SpaceParity
	default:
		return nil, fmt.Errorf("invalid parity %q", s.Parity)
	}

	switch s.StopBits {
	case "", "1":
		mode.StopBits = serial.OneStopBit
	case "1.5":
		mode.StopBits = serial.OnePointFiveStopBits
	case "2":
		mode.StopBits = serial.TwoStopBits
	default:
		return nil, fmt.Errorf("invalid stop bits %q", s.StopBits)
	}

	return mode, nil
}

// serialLink adapts a serial.Port to the stream reader.
// serial.Port reports an expired read timeout as (0, nil).
type serialLink struct {
	serial.Port
}

func (l serialLink) Read(p []byte) (int, error) {
	n, err := l.Port.Read(p)
	if n == 0 && err == nil {
		return 0, timeoutError{}
	}
	return n, err
}

func (l serialLink) arm(deadline time.Time) error {
	d := time.Until(deadline)
	if d <= 0 {
		return timeoutError{}
	}
	return l.Port.SetReadTimeout(d)
}

func openSerialPort(device string, settings SerialSettings) (serialLink, error) {
	mode, err := settings.Mode()
	if err != nil {
		return serialLink{}, err
	}
	port, err := serial.Open(device, mode)
	if err != nil {
		return serialLink{}, err
	}
	return serialLink{Port: port}, nil
}

// openSerial opens an ASRL resource.
func openSerial(ctx context.Context, resource string, addr Address, settings SerialSettings, opts OpenOptions) (Instrument, error) {
	if err := ctx.Err(); err != nil {
		return nil, Normalize("open", resource, err)
	}

	link, err := openSerialPort(addr.Device, settings)
	if err != nil {
		return nil, normalizeSerial("open", resource, err)
	}
	if err := link.ResetInputBuffer(); err != nil {
		link.Close()
		return nil, normalizeSerial("open", resource, err)
	}

	return newStreamInstrument(resource, link, link.arm, opts), nil
}

// normalizeSerial maps serial.PortError codes before falling back to token matching.
func normalizeSerial(op, resource string, err error) error {
	var perr *serial.PortError
	if errors.As(err, &perr) {
		switch perr.Code() {
		case serial.PortNotFound, serial.InvalidSerialPort:
			return &Error{Code: ErrResourceNotFound, Op: op, Resource: resource, Err: err}
		case serial.PortBusy, serial.PermissionDenied, serial.PortClosed:
			return &Error{Code: ErrConnection, Op: op, Resource: resource, Err: err}
		}
	}
	return Normalize(op, resource, err)
}

// serialResource formats a discovered serial port as a resource string.
func serialResource(port string) string {
	return "ASRL" + port + "::INSTR"
}
