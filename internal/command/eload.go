package command

import (
	"context"
)

var eloadModes = map[string]string{
	"CURR": "CURR",
	"VOLT": "VOLT",
	"RES":  "RES",
	"POW":  "POW",
}

var eloadSpecs = []Spec{
	{
		Name:        "eload_set_mode",
		Group:       GroupELoad,
		Description: "Set the load mode: constant current, voltage, resistance or power",
		Usage:       "eload_set_mode <CURR|VOLT|RES|POW>",
		NeedsArg:    true,
		ErrContext:  "Error setting load mode",
		Run: choiceWrite(":FUNCtion:MODE %s", eloadModes,
			"Invalid mode. Use CURR, VOLT, RES, or POW.",
			"Electronic Load mode set to: %s"),
	},
	{
		Name:        "eload_set_current",
		Group:       GroupELoad,
		Description: "Set the CC level in amps",
		Usage:       "eload_set_current <amps>",
		NeedsArg:    true,
		ErrContext:  "Error setting current",
		Run:         valueWrite(":CURRent %s", "CC current set to %s A."),
	},
	{
		Name:        "eload_set_voltage",
		Group:       GroupELoad,
		Description: "Set the CV level in volts",
		Usage:       "eload_set_voltage <volts>",
		NeedsArg:    true,
		ErrContext:  "Error setting voltage",
		Run:         valueWrite(":VOLTage %s", "CV voltage set to %s V."),
	},
	{
		Name:        "eload_set_resistance",
		Group:       GroupELoad,
		Description: "Set the CR level in ohms",
		Usage:       "eload_set_resistance <ohms>",
		NeedsArg:    true,
		ErrContext:  "Error setting resistance",
		Run:         valueWrite(":RESistance %s", "CR resistance set to %s Ohm."),
	},
	{
		Name:        "eload_set_power",
		Group:       GroupELoad,
		Description: "Set the CP level in watts",
		Usage:       "eload_set_power <watts>",
		NeedsArg:    true,
		ErrContext:  "Error setting power",
		Run:         valueWrite(":POWer %s", "CP power set to %s W."),
	},
	{
		Name:        "eload_input_on",
		Group:       GroupELoad,
		Description: "Enable the load input",
		Usage:       "eload_input_on",
		ErrContext:  "Error enabling load input",
		Run:         fixedWrite(":INPut ON", "Electronic Load Input ON (Load active)."),
	},
	{
		Name:        "eload_input_off",
		Group:       GroupELoad,
		Description: "Disable the load input",
		Usage:       "eload_input_off",
		ErrContext:  "Error disabling load input",
		Run:         fixedWrite(":INPut OFF", "Electronic Load Input OFF (Load inactive)."),
	},
	{
		Name:        "eload_measure_input",
		Group:       GroupELoad,
		Description: "Measure the input voltage or current",
		Usage:       "eload_measure_input <VOLT|CURR>",
		NeedsArg:    true,
		ErrContext:  "Error measuring ELoad input",
		Run:         measureInput("eload_measure_input <VOLT|CURR>", "ELoad Input %s: %s %s"),
	},
	{
		Name:        "eload_set_slew",
		Group:       GroupELoad,
		Description: "Set the CC slew rate in A/s (instrument-specific)",
		Usage:       "eload_set_slew <amps_per_second>",
		NeedsArg:    true,
		Speculative: true,
		ErrContext:  "Error setting current slew rate",
		Run:         valueWrite(":CURRent:SLEW:RATE %s", "CC Slew Rate set to %s A/s."),
	},
	{
		Name:        "eload_set_transient",
		Group:       GroupELoad,
		Description: "Configure a pulsed transient between two current levels",
		Usage:       "eload_set_transient <level_A>,<level_B>,<pulse_width>",
		NeedsArg:    true,
		ErrContext:  "Error setting transient mode",
		Run:         eloadSetTransient,
	},
	{
		Name:        "eload_set_ovl",
		Group:       GroupELoad,
		Description: "Set the over-voltage limit (instrument-specific)",
		Usage:       "eload_set_ovl <voltage>",
		NeedsArg:    true,
		Speculative: true,
		ErrContext:  "Error setting OVL",
		Run:         valueWrite(":VOLTage:PROTection:LEVel %s", "OVL set to %s V"),
	},
	{
		Name:        "eload_set_opl",
		Group:       GroupELoad,
		Description: "Set the over-power limit (instrument-specific)",
		Usage:       "eload_set_opl <power_watts>",
		NeedsArg:    true,
		Speculative: true,
		ErrContext:  "Error setting OPL",
		Run:         valueWrite(":POWer:PROTection:LEVel %s", "OPL set to %s W"),
	},
}

func eloadSetTransient(ctx context.Context, c *Call) (*Result, error) {
	f, ok := splitFields(c.Arg, 3)
	if !ok {
		return nil, formatError("<level_A>,<level_B>,<pulse_width> (e.g., 0.5A,2.0A,10ms)")
	}
	levelA, levelB, width := f[0], f[1], f[2]

	err := c.WriteAll(ctx,
		":CURRent:STATic "+levelA,
		":CURRent:TRANsient:LEVel "+levelB,
		":CURRent:TRANsient:PULSe:WIDTh "+width,
		":FUNCtion:MODE TRANsient",
	)
	if err != nil {
		return nil, err
	}
	return message("ELoad set for transient test: A=%s, B=%s, Width=%s.", levelA, levelB, width), nil
}

// RegisterELoadCommands registers the electronic load commands
func RegisterELoadCommands(r *Registry) {
	registerSpecs(r, eloadSpecs)
}
