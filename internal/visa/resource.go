package visa

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

// InterfaceType is the VISA interface keyword of a resource string.
type InterfaceType string

const (
	InterfaceTCPIP InterfaceType = "TCPIP"
	InterfaceASRL  InterfaceType = "ASRL"
	InterfaceGPIB  InterfaceType = "GPIB"
)

// Address is a parsed resource string.
type Address struct {
	Interface InterfaceType
	Board     int
	Host      string // TCPIP
	Port      int    // TCPIP
	Device    string // ASRL: serial device path
	Primary   int    // GPIB primary address
	Class     string // SOCKET or INSTR
}

// String returns the canonical resource string for the address.
func (a Address) String() string {
	switch a.Interface {
	case InterfaceTCPIP:
		return fmt.Sprintf("TCPIP%d::%s::%d::SOCKET", a.Board, a.Host, a.Port)
	case InterfaceASRL:
		return fmt.Sprintf("ASRL%s::INSTR", a.Device)
	case InterfaceGPIB:
		return fmt.Sprintf("GPIB%d::%d::INSTR", a.Board, a.Primary)
	}
	return ""
}

// ParseResource parses a VISA resource string. Keywords are case-insensitive.
func ParseResource(resource string) (Address, error) {
	s := strings.TrimSpace(resource)
	if s == "" {
		return Address{}, invalidResource(resource, "empty resource string")
	}

	parts := strings.Split(s, "::")
	head := strings.ToUpper(parts[0])

	switch {
	case strings.HasPrefix(head, string(InterfaceTCPIP)):
		return parseTCPIP(resource, parts)
	case strings.HasPrefix(head, string(InterfaceASRL)):
		return parseASRL(resource, parts)
	case strings.HasPrefix(head, string(InterfaceGPIB)):
		return parseGPIB(resource, parts)
	}

	return Address{}, &Error{
		Code:     ErrUnsupportedResource,
		Op:       "parse",
		Resource: resource,
		Err:      fmt.Errorf("interface %q is not supported", parts[0]),
	}
}

func parseTCPIP(resource string, parts []string) (Address, error) {
	board, err := parseBoard(parts[0], len(InterfaceTCPIP))
	if err != nil {
		return Address{}, invalidResource(resource, err.Error())
	}

	class := strings.ToUpper(parts[len(parts)-1])
	if class != "SOCKET" {
		// VXI-11 and HiSLIP INSTR resources need an RPC stack this package does not carry.
		return Address{}, &Error{
			Code:     ErrUnsupportedResource,
			Op:       "parse",
			Resource: resource,
			Err:      fmt.Errorf("only TCPIP SOCKET resources are supported"),
		}
	}
	if len(parts) != 4 {
		return Address{}, invalidResource(resource, "expected TCPIP[board]::<host>::<port>::SOCKET")
	}

	host := strings.TrimSpace(parts[1])
	if host == "" {
		return Address{}, invalidResource(resource, "missing host")
	}
	port, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil || port <= 0 || port > 65535 {
		return Address{}, invalidResource(resource, fmt.Sprintf("invalid port %q", parts[2]))
	}

	return Address{
		Interface: InterfaceTCPIP,
		Board:     board,
		Host:      host,
		Port:      port,
		Class:     "SOCKET",
	}, nil
}

func parseASRL(resource string, parts []string) (Address, error) {
	if len(parts) > 2 || (len(parts) == 2 && strings.ToUpper(parts[1]) != "INSTR") {
		return Address{}, invalidResource(resource, "expected ASRL<port>::INSTR")
	}

	port := parts[0][len(InterfaceASRL):]
	if port == "" {
		return Address{}, invalidResource(resource, "missing serial port")
	}

	device := port
	if n, err := strconv.Atoi(port); err == nil {
		device = serialDeviceForNumber(n)
	}

	return Address{
		Interface: InterfaceASRL,
		Device:    device,
		Class:     "INSTR",
	}, nil
}

func parseGPIB(resource string, parts []string) (Address, error) {
	board, err := parseBoard(parts[0], len(InterfaceGPIB))
	if err != nil {
		return Address{}, invalidResource(resource, err.Error())
	}
	if len(parts) < 2 || len(parts) > 3 || (len(parts) == 3 && strings.ToUpper(parts[2]) != "INSTR") {
		return Address{}, invalidResource(resource, "expected GPIB[board]::<primary>::INSTR")
	}

	primary, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || primary < 0 || primary > 30 {
		return Address{}, invalidResource(resource, fmt.Sprintf("invalid GPIB primary address %q", parts[1]))
	}

	return Address{
		Interface: InterfaceGPIB,
		Board:     board,
		Primary:   primary,
		Class:     "INSTR",
	}, nil
}

func parseBoard(head string, prefixLen int) (int, error) {
	digits := head[prefixLen:]
	if digits == "" {
		return 0, nil
	}
	board, err := strconv.Atoi(digits)
	if err != nil || board < 0 {
		return 0, fmt.Errorf("invalid board number %q", digits)
	}
	return board, nil
}

// serialDeviceForNumber maps the VISA port number to the OS device name.
// ASRL1 is the first port (COM1 or /dev/ttyS0).
func serialDeviceForNumber(n int) string {
	if runtime.GOOS == "windows" {
		return fmt.Sprintf("COM%d", n)
	}
	if n < 1 {
		n = 1
	}
	return fmt.Sprintf("/dev/ttyS%d", n-1)
}

func invalidResource(resource, reason string) error {
	return &Error{
		Code:     ErrInvalidResource,
		Op:       "parse",
		Resource: resource,
		Err:      fmt.Errorf("%s", reason),
	}
}
