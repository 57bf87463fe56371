package command

import (
	"context"
	"strings"

	"github.com/instrument-tool/scpicon/internal/visa"
)

// capabilityProbes are queried by check_capabilities. A probe that answers is
// reported as likely supported; failures are ignored.
var capabilityProbes = []string{
	":MEASure:VOLTage:DC?",
	":MEASure:VOLTage:AC?",
	":MEASure:CURRent:DC?",
	":MEASure:RESistance?",
	":WAVeform:DATA?",
	":TRIGger:SOURce?",
	":OUTPut:STATe?",
}

var diagnosticSpecs = []Spec{
	{
		Name:        "ping_device",
		Group:       GroupDiag,
		Description: "Verify communication with *OPC?",
		Usage:       "ping_device",
		ErrContext:  "Device ping failed",
		Run:         pingDevice,
	},
	{
		Name:        "check_capabilities",
		Group:       GroupDiag,
		Description: "Query *IDN?, *OPT? and probe common SCPI subsystems",
		Usage:       "check_capabilities",
		ErrContext:  "Error checking capabilities",
		Run:         checkCapabilities,
	},
}

func pingDevice(ctx context.Context, c *Call) (*Result, error) {
	resp, err := c.Query(ctx, "*OPC?")
	if err != nil {
		return nil, err
	}
	if resp == "1" || strings.EqualFold(resp, "true") {
		return message("Instrument communication OK."), nil
	}
	return message("Unexpected response: %s", resp), nil
}

func checkCapabilities(ctx context.Context, c *Call) (*Result, error) {
	result := message("Checking instrument capabilities...")

	if idn, err := c.Query(ctx, "*IDN?"); err == nil {
		result.Addf("IDN: %s", idn)
	} else {
		result.Addf("IDN query not supported or failed.")
	}

	if opts, err := c.Query(ctx, "*OPT?"); err == nil {
		result.Addf("Options: %s", opts)
	} else {
		result.Addf("Options query not supported.")
	}

	var supported []string
	for _, probe := range capabilityProbes {
		if err := ctx.Err(); err != nil {
			return nil, visa.Normalize("query", c.Inst.Resource(), err)
		}
		if _, err := c.Query(ctx, probe); err == nil {
			supported = append(supported, probe)
		}
	}

	if len(supported) == 0 {
		result.Addf("Could not auto-detect SCPI feature set from probes.")
		return result, nil
	}

	result.Addf("Likely supported SCPI commands (best-effort probe):")
	for _, cmd := range supported {
		result.Addf("  %s", cmd)
	}
	return result, nil
}

// RegisterDiagnosticCommands registers the diagnostic commands
func RegisterDiagnosticCommands(r *Registry) {
	registerSpecs(r, diagnosticSpecs)
}
