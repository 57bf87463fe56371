package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

const setupDisplayLimit = 200

var scopeSpecs = []Spec{
	{
		Name:        "oscope_set_timebase",
		Group:       GroupScope,
		Description: "Set the horizontal scale in seconds per division",
		Usage:       "oscope_set_timebase <seconds_per_div>",
		NeedsArg:    true,
		ErrContext:  "Error setting timebase",
		Run:         valueWrite(":HORizontal:SCALe %s", "Oscilloscope timebase set to: %s s/div"),
	},
	{
		Name:        "oscope_set_vertscale",
		Group:       GroupScope,
		Description: "Set a channel's vertical scale in volts per division",
		Usage:       "oscope_set_vertscale <channel>,<volts_per_div>",
		NeedsArg:    true,
		ErrContext:  "Error setting vertical scale",
		Run:         scopeSetVerticalScale,
	},
	{
		Name:        "oscope_measure_param",
		Group:       GroupScope,
		Description: "Read an automatic measurement (FREQ, VPP, VRMS, ...) on a channel",
		Usage:       "oscope_measure_param <channel>,<parameter>",
		NeedsArg:    true,
		ErrContext:  "Error reading measurement",
		Hint:        "Check if this measurement is supported.",
		Run:         scopeMeasureParam,
	},
	{
		Name:        "oscope_set_trigger_source",
		Group:       GroupScope,
		Description: "Set the trigger source (CHAN1, EXT, LINE, ...)",
		Usage:       "oscope_set_trigger_source <source>",
		NeedsArg:    true,
		ErrContext:  "Error setting trigger source",
		Run:         scopeSetTriggerSource,
	},
	{
		Name:        "oscope_set_trigger_level",
		Group:       GroupScope,
		Description: "Set the trigger level in volts",
		Usage:       "oscope_set_trigger_level <channel>,<voltage>",
		NeedsArg:    true,
		ErrContext:  "Error setting trigger level",
		Run:         scopeSetTriggerLevel,
	},
	{
		Name:        "oscope_set_trigger_slope",
		Group:       GroupScope,
		Description: "Set the edge trigger slope",
		Usage:       "oscope_set_trigger_slope <channel>,<POS|NEG|EITH>",
		NeedsArg:    true,
		ErrContext:  "Error setting trigger slope",
		Run:         scopeSetTriggerSlope,
	},
	{
		Name:        "oscope_set_wfm_source",
		Group:       GroupScope,
		Description: "Select the channel read by waveform capture",
		Usage:       "oscope_set_wfm_source <channel|source>",
		NeedsArg:    true,
		ErrContext:  "Error setting waveform source",
		Run:         scopeSetWaveformSource,
	},
	{
		Name:        "oscope_get_setup",
		Group:       GroupScope,
		Description: "Read the instrument setup string (truncated)",
		Usage:       "oscope_get_setup",
		ErrContext:  "Error getting setup",
		Hint:        "Check instrument capability.",
		Run:         scopeGetSetup,
	},
	{
		Name:        "oscope_run",
		Group:       GroupScope,
		Description: "Start continuous acquisition",
		Usage:       "oscope_run",
		ErrContext:  "Error setting RUN mode",
		Run:         fixedWrite(":RUN", "Oscilloscope set to RUN mode."),
	},
	{
		Name:        "oscope_stop",
		Group:       GroupScope,
		Description: "Stop acquisition",
		Usage:       "oscope_stop",
		ErrContext:  "Error setting STOP mode",
		Run:         fixedWrite(":STOP", "Oscilloscope acquisition stopped."),
	},
	{
		Name:        "oscope_single",
		Group:       GroupScope,
		Description: "Arm a single acquisition",
		Usage:       "oscope_single",
		ErrContext:  "Error setting SINGLE mode",
		Run:         fixedWrite(":SINGle", "Oscilloscope armed for a single acquisition."),
	},
	{
		Name:        "oscope_screen_capture",
		Group:       GroupScope,
		Description: "Save the scope screen as PNG or JPEG",
		Usage:       "oscope_screen_capture <filename.png|filename.jpeg>",
		NeedsArg:    true,
		ErrContext:  "Error communicating with instrument",
		Hint:        "Ensure the waveform source is set via 'oscope_set_wfm_source'.",
		Run:         screenCapture("scope "),
	},
	{
		Name:        "oscope_capture_data",
		Group:       GroupScope,
		Description: "Save the current waveform as time/voltage CSV or TXT",
		Usage:       "oscope_capture_data <filename.csv|filename.txt>",
		NeedsArg:    true,
		ErrContext:  "Error communicating with instrument",
		Hint:        "Ensure the instrument is ready and the waveform source is set.",
		Run:         captureWaveform,
	},
}

func scopeSetVerticalScale(ctx context.Context, c *Call) (*Result, error) {
	f, ok := splitFields(c.Arg, 2)
	if !ok {
		return nil, formatError("<channel>,<volts_per_div> (e.g., 1,0.5)")
	}
	channel, vpd := f[0], f[1]
	if err := c.Write(ctx, fmt.Sprintf(":CHANnel%s:SCALe %s", channel, vpd)); err != nil {
		return nil, err
	}
	return message("Oscilloscope Channel %s scale set to: %s V/div", channel, vpd), nil
}

func scopeMeasureParam(ctx context.Context, c *Call) (*Result, error) {
	f, ok := splitFields(c.Arg, 2)
	if !ok {
		return nil, formatError("<channel>,<parameter> (e.g., 1,FREQ)")
	}
	channel, param := f[0], strings.ToUpper(f[1])
	value, err := c.Query(ctx, fmt.Sprintf(":MEASure:%s? CHANnel%s", param, channel))
	if err != nil {
		return nil, err
	}
	return message("Channel %s %s: %s", channel, param, value), nil
}

func scopeSetTriggerSource(ctx context.Context, c *Call) (*Result, error) {
	source := strings.ToUpper(c.Arg)
	if err := c.Write(ctx, ":TRIGger:SOURce "+source); err != nil {
		return nil, err
	}
	return message("Oscilloscope trigger source set to: %s", source), nil
}

func scopeSetTriggerLevel(ctx context.Context, c *Call) (*Result, error) {
	f, ok := splitFields(c.Arg, 2)
	if !ok {
		return nil, formatError("<channel>,<voltage> (e.g., 1,0.5)")
	}
	channel, level := f[0], f[1]
	if err := c.Write(ctx, ":TRIGger:LEVel "+level); err != nil {
		return nil, err
	}
	return message("Oscilloscope trigger level set to: %s V (Assumed for Channel %s source)", level, channel), nil
}

var triggerSlopes = map[string]bool{"POS": true, "NEG": true, "EITH": true}

func scopeSetTriggerSlope(ctx context.Context, c *Call) (*Result, error) {
	f, ok := splitFields(c.Arg, 2)
	if !ok {
		return nil, formatError("<channel>,<POS|NEG|EITH> (e.g., 1,POS)")
	}
	channel, slope := f[0], strings.ToUpper(f[1])
	if !triggerSlopes[slope] {
		return nil, invalidArgument("Invalid slope. Use POS, NEG, or EITH.")
	}
	if err := c.Write(ctx, ":TRIGger:EDGE:SLOPe "+slope); err != nil {
		return nil, err
	}
	return message("Oscilloscope trigger slope set to: %s (Assumed for Channel %s source)", slope, channel), nil
}

func scopeSetWaveformSource(ctx context.Context, c *Call) (*Result, error) {
	source := strings.ToUpper(c.Arg)
	if _, err := strconv.Atoi(source); err == nil {
		source = "CHANnel" + source
	}
	if err := c.Write(ctx, ":WAVeform:SOURce "+source); err != nil {
		return nil, err
	}
	return message("Waveform source set to: %s", source), nil
}

func scopeGetSetup(ctx context.Context, c *Call) (*Result, error) {
	setup, err := c.Query(ctx, ":SETup?")
	if err != nil {
		return nil, err
	}
	if len(setup) > setupDisplayLimit {
		setup = setup[:setupDisplayLimit]
	}
	return message("Oscilloscope Setup String (truncated to %d chars): %s...", setupDisplayLimit, setup), nil
}

// RegisterScopeCommands registers the oscilloscope commands
func RegisterScopeCommands(r *Registry) {
	registerSpecs(r, scopeSpecs)
}
