package command

import (
	"context"
	"fmt"
	"strings"
)

// measureUnits maps the measurement type accepted by *_measure_* commands to its unit.
var measureUnits = map[string]string{
	"VOLT": "V",
	"CURR": "A",
}

var psuSpecs = []Spec{
	{
		Name:        "psu_set_voltage",
		Group:       GroupPSU,
		Description: "Set the output voltage",
		Usage:       "psu_set_voltage <voltage>",
		NeedsArg:    true,
		ErrContext:  "Error setting voltage",
		Run:         valueWrite(":VOLTage %s", "Voltage set to %s V"),
	},
	{
		Name:        "psu_set_current",
		Group:       GroupPSU,
		Description: "Set the current limit",
		Usage:       "psu_set_current <current>",
		NeedsArg:    true,
		ErrContext:  "Error setting current",
		Run:         valueWrite(":CURRent %s", "Current limit set to %s A"),
	},
	{
		Name:        "psu_output_on",
		Group:       GroupPSU,
		Description: "Enable the supply output",
		Usage:       "psu_output_on",
		ErrContext:  "Error enabling PSU output",
		Run:         fixedWrite(":OUTPut ON", "Power supply output ON."),
	},
	{
		Name:        "psu_output_off",
		Group:       GroupPSU,
		Description: "Disable the supply output",
		Usage:       "psu_output_off",
		ErrContext:  "Error disabling PSU output",
		Run:         fixedWrite(":OUTPut OFF", "Power supply output OFF."),
	},
	{
		Name:        "psu_set_ovp",
		Group:       GroupPSU,
		Description: "Set the over-voltage protection level",
		Usage:       "psu_set_ovp <voltage>",
		NeedsArg:    true,
		ErrContext:  "Error setting OVP",
		Run:         valueWrite(":VOLTage:PROTection:LEVel %s", "OVP set to %s V"),
	},
	{
		Name:        "psu_set_ocp",
		Group:       GroupPSU,
		Description: "Set the over-current protection level",
		Usage:       "psu_set_ocp <current>",
		NeedsArg:    true,
		ErrContext:  "Error setting OCP",
		Run:         valueWrite(":CURRent:PROTection:LEVel %s", "OCP set to %s A"),
	},
	{
		Name:        "psu_set_otp",
		Group:       GroupPSU,
		Description: "Set the over-temperature protection level in °C (instrument-specific)",
		Usage:       "psu_set_otp <temperature>",
		NeedsArg:    true,
		Speculative: true,
		ErrContext:  "Error setting OTP",
		Run:         valueWrite(":SENSe:TEMPerature:PROTection:LEVel %s", "OTP level set to %s °C."),
	},
	{
		Name:        "psu_measure_output",
		Group:       GroupPSU,
		Description: "Measure the output voltage or current",
		Usage:       "psu_measure_output <VOLT|CURR>",
		NeedsArg:    true,
		ErrContext:  "Error measuring output",
		Run:         measureInput("psu_measure_output <VOLT|CURR>", "Output %s: %s %s"),
	},
	{
		Name:        "psu_protection_clear",
		Group:       GroupPSU,
		Description: "Clear a protection trip (*CLS)",
		Usage:       "psu_protection_clear",
		ErrContext:  "Error clearing protection state",
		Run:         fixedWrite("*CLS", "PSU protection trip state cleared (*CLS sent)."),
	},
}

// measureInput queries :MEASure:<TYPE>? for VOLT or CURR.
func measureInput(usage, layout string) InstrumentFunc {
	return func(ctx context.Context, c *Call) (*Result, error) {
		kind := strings.ToUpper(c.Arg)
		unit, ok := measureUnits[kind]
		if !ok {
			return nil, usageError(usage)
		}
		value, err := c.Query(ctx, fmt.Sprintf(":MEASure:%s?", kind))
		if err != nil {
			return nil, err
		}
		return message(layout, kind, value, unit), nil
	}
}

// RegisterPSUCommands registers the power supply commands
func RegisterPSUCommands(r *Registry) {
	registerSpecs(r, psuSpecs)
}
