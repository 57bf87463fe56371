package command

import (
	"context"
	"fmt"
	"strings"
)

const dmmMeasureHint = "Check instrument capability."

var dmmSpecs = []Spec{
	{
		Name:        "dmm_func_set",
		Group:       GroupDMM,
		Description: "Set the DMM measurement function (e.g. VOLT:DC, RES)",
		Usage:       `dmm_func_set "FUNCTION"`,
		NeedsArg:    true,
		ErrContext:  "Error setting DMM function",
		Run:         dmmSetFunction,
	},
	{
		Name:        "dmm_range_set",
		Group:       GroupDMM,
		Description: "Set the DMM range",
		Usage:       "dmm_range_set <range_value|AUTO>",
		NeedsArg:    true,
		ErrContext:  "Error setting DMM range",
		Run:         valueWrite(":SENSe:RANGe %s", "DMM range set to: %s"),
	},
	{
		Name:        "dmm_autoranging",
		Group:       GroupDMM,
		Description: "Enable or disable DMM auto-ranging",
		Usage:       "dmm_autoranging <ON|OFF>",
		NeedsArg:    true,
		ErrContext:  "Error setting DMM auto-ranging",
		Run: choiceWrite(":SENSe:RANGe:AUTO %s",
			map[string]string{"ON": "ON", "OFF": "OFF", "1": "ON", "0": "OFF"},
			"Invalid state. Use ON or OFF.",
			"DMM auto-ranging set to: %s"),
	},
	{
		Name:        "dmm_delay_set",
		Group:       GroupDMM,
		Description: "Set the DMM trigger delay in seconds",
		Usage:       "dmm_delay_set <seconds>",
		NeedsArg:    true,
		ErrContext:  "Error setting DMM delay",
		Run:         valueWrite(":SENSe:DELay %s", "DMM measurement delay set to: %s s"),
	},
	{
		Name:        "dmm_resolution_set",
		Group:       GroupDMM,
		Description: "Set the DMM resolution",
		Usage:       "dmm_resolution_set <resolution>",
		NeedsArg:    true,
		ErrContext:  "Error setting DMM resolution",
		Run:         valueWrite(":SENSe:RESolution %s", "DMM resolution set to: %s"),
	},
	dmmMeasure("dmm_measure_dc_v", "Measure DC voltage", ":MEASure:VOLTage:DC?", "DC Voltage: %s V", "Error measuring DC Voltage"),
	dmmMeasure("dmm_measure_ac_v", "Measure AC voltage (RMS)", ":MEASure:VOLTage:AC?", "AC Voltage (RMS): %s V", "Error measuring AC Voltage"),
	dmmMeasure("dmm_measure_dc_i", "Measure DC current", ":MEASure:CURRent:DC?", "DC Current: %s A", "Error measuring DC Current"),
	dmmMeasure("dmm_measure_ac_i", "Measure AC current (RMS)", ":MEASure:CURRent:AC?", "AC Current (RMS): %s A", "Error measuring AC Current"),
	dmmMeasure("dmm_measure_continuity", "Measure continuity", ":MEASure:CONTinuity?", "Continuity Resistance: %s Ohm", "Error measuring continuity"),
	dmmMeasure("dmm_measure_diode", "Measure diode forward voltage", ":MEASure:DIODe?", "Diode Forward Voltage: %s V", "Error measuring diode forward voltage"),
	dmmMeasure("dmm_measure2_resistance", "Measure 2-wire resistance", ":MEASure:RESistance?", "Resistance: %s Ohm", "Error measuring 2-wire Resistance"),
	dmmMeasure("dmm_measure4_resistance", "Measure 4-wire resistance", ":MEASure:FRESistance?", "4-Wire Resistance: %s Ohm", "Error measuring 4-wire Resistance"),
}

func dmmMeasure(name, description, query, layout, errContext string) Spec {
	return Spec{
		Name:        name,
		Group:       GroupDMM,
		Description: description,
		Usage:       name,
		ErrContext:  errContext,
		Hint:        dmmMeasureHint,
		Run:         fixedQuery(query, layout),
	}
}

func dmmSetFunction(ctx context.Context, c *Call) (*Result, error) {
	fn := strings.ToUpper(unquote(c.Arg))
	if fn == "" {
		return nil, usageError(`dmm_func_set "FUNCTION"`)
	}
	if err := c.Write(ctx, fmt.Sprintf(`:SENSe:FUNCtion "%s"`, fn)); err != nil {
		return nil, err
	}
	return message("DMM function set to: %s", fn), nil
}

// RegisterDMMCommands registers the multimeter commands
func RegisterDMMCommands(r *Registry) {
	registerSpecs(r, dmmSpecs)
}
