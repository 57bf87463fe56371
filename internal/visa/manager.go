package visa

import (
	"context"
	"log"
	"sort"
	"strings"

	"go.bug.st/serial"
)

// ResourceManager is the production Manager.
type ResourceManager struct {
	resources      []string
	scanSerial     bool
	serial         SerialSettings
	gpibController string
	gpibSerial     SerialSettings

	// listPorts enumerates serial ports.
	listPorts func() ([]string, error)
}

// ManagerOption configures a ResourceManager.
type ManagerOption func(*ResourceManager)

// WithResources adds statically configured resources to List.
func WithResources(resources ...string) ManagerOption {
	return func(m *ResourceManager) {
		m.resources = append(m.resources, resources...)
	}
}

// WithSerialScan enables serial port discovery in List.
func WithSerialScan(enabled bool) ManagerOption {
	return func(m *ResourceManager) {
		m.scanSerial = enabled
	}
}

// WithSerialSettings sets the line settings for ASRL resources.
func WithSerialSettings(s SerialSettings) ManagerOption {
	return func(m *ResourceManager) {
		m.serial = s
	}
}

// WithGPIBController sets the serial device of the Prologix-style controller.
func WithGPIBController(device string) ManagerOption {
	return func(m *ResourceManager) {
		m.gpibController = device
	}
}

// WithPortLister replaces serial port enumeration.
func WithPortLister(list func() ([]string, error)) ManagerOption {
	return func(m *ResourceManager) {
		m.listPorts = list
	}
}

// NewResourceManager creates a resource manager.
func NewResourceManager(opts ...ManagerOption) *ResourceManager {
	m := &ResourceManager{
		serial: DefaultSerialSettings(),
		gpibSerial: SerialSettings{
			BaudRate: 115200,
			DataBits: 8,
			Parity:   "N",
			StopBits: "1",
		},
		listPorts: serial.GetPortsList,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// List returns configured and discovered resources, sorted and de-duplicated.
// An empty result is not an error.
func (m *ResourceManager) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, Normalize("list", "", err)
	}

	seen := make(map[string]bool)
	resources := []string{}
	add := func(r string) {
		r = strings.TrimSpace(r)
		if r == "" || seen[r] {
			return
		}
		seen[r] = true
		resources = append(resources, r)
	}

	for _, r := range m.resources {
		add(r)
	}

	if m.scanSerial && m.listPorts != nil {
		ports, err := m.listPorts()
		if err != nil {
			log.Printf("Serial port enumeration failed: %v", err)
		}
		for _, port := range ports {
			if port == m.gpibController {
				continue
			}
			add(serialResource(port))
		}
	}

	sort.Strings(resources)
	return resources, nil
}

// Open parses resource and connects to it.
func (m *ResourceManager) Open(ctx context.Context, resource string, opts ...OpenOption) (Instrument, error) {
	addr, err := ParseResource(resource)
	if err != nil {
		return nil, err
	}
	o := ApplyOptions(opts...)

	switch addr.Interface {
	case InterfaceTCPIP:
		return openSocket(ctx, resource, addr, o)
	case InterfaceASRL:
		return openSerial(ctx, resource, addr, m.serial, o)
	case InterfaceGPIB:
		return openGPIB(ctx, resource, addr, m.gpibController, m.gpibSerial, o)
	}

	return nil, &Error{Code: ErrUnsupportedResource, Op: "open", Resource: resource, Err: errUnknownInterface}
}
