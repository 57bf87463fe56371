package visa

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Prologix GPIB-USB controllers accept ++ commands on a virtual serial port.
// Data bytes CR, LF, ESC and '+' are escaped with ESC so they reach the bus.
var prologixEscaper = strings.NewReplacer(
	"\x1b", "\x1b\x1b",
	"+", "\x1b+",
	"\r", "\x1b\r",
	"\n", "\x1b\n",
)

func prologixEncode(cmd string) string {
	return prologixEscaper.Replace(cmd) + "\n"
}

// prologixSetup returns the controller commands sent when a GPIB resource opens.
func prologixSetup(addr Address, opts OpenOptions) []string {
	readTimeout := opts.Timeout.Milliseconds()
	if readTimeout < 1 {
		readTimeout = 1
	}
	if readTimeout > 3000 {
		readTimeout = 3000
	}

	return []string{
		"++mode 1",
		"++auto 0",
		"++eoi 1",
		"++eos 2",
		fmt.Sprintf("++read_tmo_ms %d", readTimeout),
		fmt.Sprintf("++addr %d", addr.Primary),
	}
}

// openGPIB opens a GPIB resource through the configured controller port.
func openGPIB(ctx context.Context, resource string, addr Address, controller string, settings SerialSettings, opts OpenOptions) (Instrument, error) {
	if controller == "" {
		return nil, &Error{
			Code:     ErrUnsupportedResource,
			Op:       "open",
			Resource: resource,
			Err:      errors.New("no GPIB controller configured (visa.gpib.controller)"),
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, Normalize("open", resource, err)
	}

	link, err := openSerialPort(controller, settings)
	if err != nil {
		return nil, normalizeSerial("open", resource, err)
	}

	inst := newStreamInstrument(resource, link, link.arm, opts)
	for _, cmd := range prologixSetup(addr, opts) {
		if err := inst.send(ctx, "open", cmd+"\n"); err != nil {
			link.Close()
			return nil, err
		}
	}

	inst.encode = prologixEncode
	inst.readRequest = "++read eoi\n"
	return inst, nil
}
