package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/instrument-tool/scpicon/internal/session"
	"github.com/instrument-tool/scpicon/internal/visa"
)

// DeviceListHandler lists visible resources
type DeviceListHandler struct{}

// NewDeviceListHandler creates a new device list handler
func NewDeviceListHandler() *DeviceListHandler {
	return &DeviceListHandler{}
}

// Handle lists resources
func (h *DeviceListHandler) Handle(ctx context.Context, env *Env, arg string) (*Result, error) {
	resources, err := env.Session.List(ctx)
	if err != nil {
		return nil, transportError("Error listing devices", err)
	}

	if len(resources) == 0 {
		return message("No VISA resources detected."), nil
	}

	result := message("Available VISA Resources:")
	for _, r := range resources {
		result.Addf("  %s", r)
	}
	return result, nil
}

// GetName returns the command name
func (h *DeviceListHandler) GetName() string {
	return "devicelist"
}

// GetGroup returns the help group
func (h *DeviceListHandler) GetGroup() string {
	return GroupDevice
}

// GetDescription returns the command description
func (h *DeviceListHandler) GetDescription() string {
	return "List detected VISA resources"
}

// GetUsage returns the usage line
func (h *DeviceListHandler) GetUsage() string {
	return "devicelist"
}

// IsSpeculative returns false
func (h *DeviceListHandler) IsSpeculative() bool {
	return false
}

// DeviceSelectHandler connects to a resource
type DeviceSelectHandler struct{}

// NewDeviceSelectHandler creates a new device select handler
func NewDeviceSelectHandler() *DeviceSelectHandler {
	return &DeviceSelectHandler{}
}

// Handle closes any open connection and opens the given resource
func (h *DeviceSelectHandler) Handle(ctx context.Context, env *Env, arg string) (*Result, error) {
	resource := session.CleanResource(arg)
	if resource == "" {
		return nil, invalidArgument("Please provide a device ID. Use 'devicelist' to see options.")
	}

	idn, err := env.Session.Select(ctx, resource)
	if err != nil {
		var verr *visa.Error
		if errors.As(err, &verr) {
			return nil, transportError(fmt.Sprintf("Error connecting to device '%s'", resource), err)
		}
		return nil, internalError(err)
	}

	result := message("Successfully selected and connected to: %s", env.Session.Resource())
	if idn != "" {
		result.Addf("Instrument IDN: %s", idn)
	} else {
		result.Addf("Instrument IDN: (no response to *IDN?)")
	}
	return result, nil
}

// GetName returns the command name
func (h *DeviceSelectHandler) GetName() string {
	return "deviceselect"
}

// GetGroup returns the help group
func (h *DeviceSelectHandler) GetGroup() string {
	return GroupDevice
}

// GetDescription returns the command description
func (h *DeviceSelectHandler) GetDescription() string {
	return "Connect to a VISA resource, closing any open connection"
}

// GetUsage returns the usage line
func (h *DeviceSelectHandler) GetUsage() string {
	return `deviceselect "RESOURCE"`
}

// IsSpeculative returns false
func (h *DeviceSelectHandler) IsSpeculative() bool {
	return false
}

// DeviceInfoHandler describes a resource string without connecting
type DeviceInfoHandler struct{}

// NewDeviceInfoHandler creates a new device info handler
func NewDeviceInfoHandler() *DeviceInfoHandler {
	return &DeviceInfoHandler{}
}

// Handle parses the resource string and prints its fields
func (h *DeviceInfoHandler) Handle(ctx context.Context, env *Env, arg string) (*Result, error) {
	resource := session.CleanResource(arg)
	if resource == "" {
		return nil, usageError(h.GetUsage())
	}

	result := message("Device ID: %s", resource)

	addr, err := visa.ParseResource(resource)
	if err != nil {
		result.Addf("Resource string not recognized: %v", err)
	} else {
		result.Addf("Interface: %s", addr.Interface)
		switch addr.Interface {
		case visa.InterfaceTCPIP:
			result.Addf("Host: %s, Port: %d", addr.Host, addr.Port)
		case visa.InterfaceASRL:
			result.Addf("Serial device: %s", addr.Device)
		case visa.InterfaceGPIB:
			result.Addf("Board: %d, Primary address: %d", addr.Board, addr.Primary)
		}
	}

	result.Addf("To get manufacturer/model, use 'deviceselect' then 'id' (which queries *IDN?).")
	return result, nil
}

// GetName returns the command name
func (h *DeviceInfoHandler) GetName() string {
	return "deviceinfo"
}

// GetGroup returns the help group
func (h *DeviceInfoHandler) GetGroup() string {
	return GroupDevice
}

// GetDescription returns the command description
func (h *DeviceInfoHandler) GetDescription() string {
	return "Show a resource string's fields without connecting"
}

// GetUsage returns the usage line
func (h *DeviceInfoHandler) GetUsage() string {
	return `deviceinfo "RESOURCE"`
}

// IsSpeculative returns false
func (h *DeviceInfoHandler) IsSpeculative() bool {
	return false
}

// RegisterDeviceCommands registers connection management commands
func RegisterDeviceCommands(r *Registry) {
	r.Register(NewDeviceListHandler())
	r.Register(NewDeviceSelectHandler())
	r.Register(NewDeviceInfoHandler())
}
