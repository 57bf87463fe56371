package command

import (
	"context"
)

var coreSpecs = []Spec{
	{
		Name:        "id",
		Group:       GroupSCPI,
		Description: "Query the instrument identification (*IDN?)",
		Usage:       "id",
		ErrContext:  "Error querying *IDN?",
		Run:         fixedQuery("*IDN?", "Instrument IDN: %s"),
	},
	{
		Name:        "write",
		Group:       GroupSCPI,
		Description: "Send a raw SCPI command without reading a response",
		Usage:       `write "SCPI_CMD"`,
		NeedsArg:    true,
		ErrContext:  "Error writing command",
		Run:         rawWrite,
	},
	{
		Name:        "query",
		Group:       GroupSCPI,
		Description: "Send a raw SCPI query and print the response",
		Usage:       `query "SCPI_QUERY"`,
		NeedsArg:    true,
		ErrContext:  "Error querying command",
		Run:         rawQuery,
	},
	{
		Name:        "reset",
		Group:       GroupSCPI,
		Description: "Reset the instrument (*RST)",
		Usage:       "reset",
		ErrContext:  "Error resetting instrument",
		Run:         fixedWrite("*RST", "Instrument reset command (*RST) sent."),
	},
	{
		Name:        "wait_opc",
		Group:       GroupSCPI,
		Description: "Block until pending operations complete (*OPC?)",
		Usage:       "wait_opc",
		ErrContext:  "Error waiting for OPC",
		Run:         waitOPC,
	},
	{
		Name:        "get_error",
		Group:       GroupSCPI,
		Description: "Read the next entry of the instrument error queue",
		Usage:       "get_error",
		ErrContext:  "Error querying system error",
		Run:         fixedQuery(":SYSTem:ERRor?", "Instrument Error: %s"),
	},
}

func rawWrite(ctx context.Context, c *Call) (*Result, error) {
	cmd := unquote(c.Arg)
	if cmd == "" {
		return nil, usageError(`write "SCPI_CMD"`)
	}
	if err := c.Write(ctx, cmd); err != nil {
		return nil, err
	}
	return message("Sent: %s", cmd), nil
}

func rawQuery(ctx context.Context, c *Call) (*Result, error) {
	cmd := unquote(c.Arg)
	if cmd == "" {
		return nil, usageError(`query "SCPI_QUERY"`)
	}
	resp, err := c.Query(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return message("Response: %s", resp), nil
}

func waitOPC(ctx context.Context, c *Call) (*Result, error) {
	if _, err := c.Query(ctx, "*OPC?"); err != nil {
		return nil, err
	}
	return message("Operation Complete (*OPC?) verified."), nil
}

// RegisterCoreCommands registers the generic SCPI commands
func RegisterCoreCommands(r *Registry) {
	registerSpecs(r, coreSpecs)
}
