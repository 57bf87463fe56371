package visa

import (
	"context"
	"net"
	"strconv"
)

// openSocket dials a raw SCPI socket (TCPIP::host::port::SOCKET).
func openSocket(ctx context.Context, resource string, addr Address, opts OpenOptions) (Instrument, error) {
	dialer := net.Dialer{Timeout: opts.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(addr.Host, strconv.Itoa(addr.Port)))
	if err != nil {
		return nil, Normalize("open", resource, err)
	}

	if tcp, ok := conn.(*net.TCPConn); ok {
		tcp.SetNoDelay(true)
	}

	return newStreamInstrument(resource, conn, conn.SetDeadline, opts), nil
}
