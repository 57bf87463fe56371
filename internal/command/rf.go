package command

import (
	"context"
	"fmt"
	"strings"
)

// vnaPreviewCount is the number of trace values shown by vna_query_data.
const vnaPreviewCount = 10

var rfSpecs = []Spec{
	{
		Name:        "rf_set_center_freq",
		Group:       GroupRF,
		Description: "Set the center frequency",
		Usage:       "rf_set_center_freq <frequency>",
		NeedsArg:    true,
		ErrContext:  "Error setting center frequency",
		Run:         valueWrite(":SENSe:FREQuency:CENTer %s", "Center frequency set to: %s"),
	},
	{
		Name:        "rf_set_span",
		Group:       GroupRF,
		Description: "Set the frequency span",
		Usage:       "rf_set_span <span_frequency>",
		NeedsArg:    true,
		ErrContext:  "Error setting span",
		Run:         valueWrite(":SENSe:FREQuency:SPAN %s", "Span set to: %s"),
	},
	{
		Name:        "rf_set_power",
		Group:       GroupRF,
		Description: "Set the source power or reference level",
		Usage:       "rf_set_power <power_level>",
		NeedsArg:    true,
		ErrContext:  "Error setting RF power level",
		Run:         valueWrite(":SOURce:POWer:LEVel %s", "RF Power/Ref Level set to: %s"),
	},
	{
		Name:        "sa_set_rbw_vbw",
		Group:       GroupRF,
		Description: "Set the resolution and video bandwidths",
		Usage:       "sa_set_rbw_vbw <rbw>,<vbw>",
		NeedsArg:    true,
		ErrContext:  "Error setting bandwidths",
		Run:         saSetBandwidths,
	},
	{
		Name:        "sa_read_marker",
		Group:       GroupRF,
		Description: "Read a marker's frequency and amplitude",
		Usage:       "sa_read_marker <marker_number>",
		NeedsArg:    true,
		ErrContext:  "Error reading marker",
		Run:         saReadMarker,
	},
	{
		Name:        "vna_set_sweep",
		Group:       GroupRF,
		Description: "Set start and stop frequency and number of points",
		Usage:       "vna_set_sweep <start_freq>,<stop_freq>,<points>",
		NeedsArg:    true,
		ErrContext:  "Error setting VNA sweep parameters",
		Run:         vnaSetSweep,
	},
	{
		Name:        "vna_measure_sparam",
		Group:       GroupRF,
		Description: "Define an S-parameter measurement and its display format",
		Usage:       "vna_measure_sparam <sparam>,<format>",
		NeedsArg:    true,
		ErrContext:  "Error setting S-parameter measurement",
		Run:         vnaMeasureSParam,
	},
	{
		Name:        "vna_set_trace",
		Group:       GroupRF,
		Description: "Show an S-parameter on a trace in a window",
		Usage:       "vna_set_trace <trace_num>,<sparam>,<window_num>",
		NeedsArg:    true,
		ErrContext:  "Error setting VNA trace",
		Run:         vnaSetTrace,
	},
	{
		Name:        "vna_query_data",
		Group:       GroupRF,
		Description: "Read the formatted data of the selected trace",
		Usage:       "vna_query_data",
		ErrContext:  "Error querying VNA data",
		Run:         vnaQueryData,
	},
	{
		Name:        "rf_screen_capture",
		Group:       GroupRF,
		Description: "Save the analyzer screen as PNG or JPEG",
		Usage:       "rf_screen_capture <filename.png|filename.jpeg>",
		NeedsArg:    true,
		ErrContext:  "Error communicating with instrument",
		Hint:        "Check instrument manual for the exact SCPI screen capture command.",
		Run:         screenCapture(""),
	},
}

func saSetBandwidths(ctx context.Context, c *Call) (*Result, error) {
	f, ok := splitFields(c.Arg, 2)
	if !ok {
		return nil, formatError("<rbw>,<vbw> (e.g., 10kHz,3kHz)")
	}
	rbw, vbw := f[0], f[1]
	err := c.WriteAll(ctx,
		":SENSe:BANDwidth:RESolution "+rbw,
		":SENSe:BANDwidth:VIDeo "+vbw,
	)
	if err != nil {
		return nil, err
	}
	return message("RBW set to %s, VBW set to %s", rbw, vbw), nil
}

func saReadMarker(ctx context.Context, c *Call) (*Result, error) {
	marker := c.Arg
	freq, err := c.Query(ctx, fmt.Sprintf(":CALCulate:MARKer%s:X?", marker))
	if err != nil {
		return nil, err
	}
	amp, err := c.Query(ctx, fmt.Sprintf(":CALCulate:MARKer%s:Y?", marker))
	if err != nil {
		return nil, err
	}
	return message("Marker %s: Frequency = %s Hz, Amplitude = %s dBm", marker, freq, amp), nil
}

func vnaSetSweep(ctx context.Context, c *Call) (*Result, error) {
	f, ok := splitFields(c.Arg, 3)
	if !ok {
		return nil, formatError("<start_freq>,<stop_freq>,<points> (e.g., 1GHz,2GHz,201)")
	}
	start, stop, points := f[0], f[1], f[2]
	err := c.WriteAll(ctx,
		":SENSe:FREQuency:STARt "+start,
		":SENSe:FREQuency:STOP "+stop,
		":SENSe:SWEep:POINts "+points,
	)
	if err != nil {
		return nil, err
	}
	return message("VNA sweep set: %s to %s, %s points.", start, stop, points), nil
}

func vnaMeasureSParam(ctx context.Context, c *Call) (*Result, error) {
	f, ok := splitFields(c.Arg, 2)
	if !ok {
		return nil, formatError("<sparam>,<format> (e.g., S21,MLOG)")
	}
	sparam, format := strings.ToUpper(f[0]), strings.ToUpper(f[1])
	err := c.WriteAll(ctx,
		fmt.Sprintf(`:CALCulate:PARameter:DEFine "Trc1_%s",%s`, sparam, sparam),
		":CALCulate:SELected:FORMat "+format,
	)
	if err != nil {
		return nil, err
	}
	return message("VNA Measurement set to %s with format %s.", sparam, format), nil
}

func vnaSetTrace(ctx context.Context, c *Call) (*Result, error) {
	f, ok := splitFields(c.Arg, 3)
	if !ok {
		return nil, formatError("<trace_num>,<sparam>,<window_num> (e.g., 2,S21,1)")
	}
	trace, sparam, window := f[0], strings.ToUpper(f[1]), f[2]
	err := c.WriteAll(ctx,
		fmt.Sprintf(`:CALCulate%s:PARameter%s:DEFine "%s"`, window, trace, sparam),
		fmt.Sprintf(`:DISPlay:WINDow%s:TRACe%s:FEED "%s"`, window, trace, sparam),
	)
	if err != nil {
		return nil, err
	}
	return message("Trace %s in Window %s now displays %s.", trace, window, sparam), nil
}

func vnaQueryData(ctx context.Context, c *Call) (*Result, error) {
	data, err := c.Query(ctx, ":CALCulate:SELected:DATA:FDATa?")
	if err != nil {
		return nil, err
	}

	values := strings.Split(data, ",")
	if data == "" {
		values = nil
	}
	preview := values
	if len(preview) > vnaPreviewCount {
		preview = preview[:vnaPreviewCount]
	}

	result := message("VNA Trace Data Queried: %d values received.", len(values))
	result.Addf("First %d values: [%s]...", len(preview), strings.Join(preview, ", "))
	return result, nil
}

// RegisterRFCommands registers the RF source, spectrum and network analyzer commands
func RegisterRFCommands(r *Registry) {
	registerSpecs(r, rfSpecs)
}
