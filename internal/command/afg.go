package command

import (
	"context"
	"strings"
)

var afgSpecs = []Spec{
	{
		Name:        "afg_set_wave",
		Group:       GroupAFG,
		Description: "Set waveform shape, frequency (Hz) and amplitude (Vpp)",
		Usage:       `afg_set_wave "WAVE,FREQ,AMPL"`,
		NeedsArg:    true,
		ErrContext:  "Error setting waveform",
		Run:         afgSetWave,
	},
	{
		Name:        "afg_output_on",
		Group:       GroupAFG,
		Description: "Enable the generator output",
		Usage:       "afg_output_on",
		ErrContext:  "Error enabling output",
		Run:         fixedWrite(":OUTPut ON", "AFG output turned ON."),
	},
	{
		Name:        "afg_output_off",
		Group:       GroupAFG,
		Description: "Disable the generator output",
		Usage:       "afg_output_off",
		ErrContext:  "Error disabling output",
		Run:         fixedWrite(":OUTPut OFF", "AFG output turned OFF."),
	},
	{
		Name:        "afg_psu_slew_set",
		Group:       GroupAFG,
		Description: "Set the voltage slew rate in V/s (instrument-specific)",
		Usage:       "afg_psu_slew_set [<channel>,]<rate_V_per_s>",
		NeedsArg:    true,
		Speculative: true,
		ErrContext:  "Error setting slew rate",
		Run:         afgSetSlew,
	},
}

func afgSetWave(ctx context.Context, c *Call) (*Result, error) {
	f, ok := splitFields(unquote(c.Arg), 3)
	if !ok {
		return nil, formatError(`afg_set_wave "WAVE,FREQ,AMPL" (e.g., SIN,1000,1.0)`)
	}
	wave, freq, ampl := strings.ToUpper(f[0]), f[1], f[2]

	err := c.WriteAll(ctx,
		":FUNCtion "+wave,
		":FREQuency "+freq,
		":VOLTage "+ampl,
	)
	if err != nil {
		return nil, err
	}
	return message("AFG set to %s wave, %s Hz, %s Vpp", wave, freq, ampl), nil
}

func afgSetSlew(ctx context.Context, c *Call) (*Result, error) {
	if !strings.Contains(c.Arg, ",") {
		if err := c.Write(ctx, ":VOLTage:SLEW:RATE "+c.Arg); err != nil {
			return nil, err
		}
		return message("Slew rate set to %s V/s.", c.Arg), nil
	}

	f, ok := splitFields(c.Arg, 2)
	if !ok {
		return nil, formatError("[<channel>,]<rate_V_per_s> (e.g., 1,10.0)")
	}
	channel, rate := f[0], f[1]
	if err := c.Write(ctx, ":VOLTage:SLEW:RATE "+rate); err != nil {
		return nil, err
	}
	return message("Slew rate set to %s V/s (Assuming Channel %s or single output).", rate, channel), nil
}

// RegisterAFGCommands registers the function generator commands
func RegisterAFGCommands(r *Registry) {
	registerSpecs(r, afgSpecs)
}
