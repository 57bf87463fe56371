package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/instrument-tool/scpicon/internal/visa"
)

// Call carries one invocation of an instrument command.
type Call struct {
	Inst visa.Instrument
	Arg  string
	Env  *Env
}

// Write sends cmd.
func (c *Call) Write(ctx context.Context, cmd string) error {
	return c.Inst.Write(ctx, cmd)
}

// WriteAll sends cmds in order and stops at the first failure.
func (c *Call) WriteAll(ctx context.Context, cmds ...string) error {
	for _, cmd := range cmds {
		if err := c.Inst.Write(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}

// Query sends cmd and returns the trimmed response.
func (c *Call) Query(ctx context.Context, cmd string) (string, error) {
	resp, err := c.Inst.Query(ctx, cmd)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp), nil
}

// InstrumentFunc runs a command against the open instrument.
type InstrumentFunc func(ctx context.Context, c *Call) (*Result, error)

// Spec declares an instrument command.
type Spec struct {
	Name        string
	Group       string
	Description string
	Usage       string
	NeedsArg    bool
	Speculative bool
	ErrContext  string // Prefix for transport failures, e.g. "Error setting voltage"
	Hint        string
	Run         InstrumentFunc
}

// InstrumentHandler runs a Spec. It guards the connection and argument
// presence before any transport I/O and types every failure.
type InstrumentHandler struct {
	spec Spec
}

// NewInstrumentHandler creates a handler from spec
func NewInstrumentHandler(spec Spec) *InstrumentHandler {
	return &InstrumentHandler{spec: spec}
}

// Handle checks the connection and argument, then runs the command
func (h *InstrumentHandler) Handle(ctx context.Context, env *Env, arg string) (*Result, error) {
	inst, ok := env.Session.Instrument()
	if !ok {
		return nil, noDevice()
	}

	arg = strings.TrimSpace(arg)
	if h.spec.NeedsArg && arg == "" {
		return nil, usageError(h.spec.Usage)
	}

	result, err := h.spec.Run(ctx, &Call{Inst: inst, Arg: arg, Env: env})
	if err != nil {
		return nil, h.classify(err)
	}
	return result, nil
}

func (h *InstrumentHandler) classify(err error) error {
	var cerr *Error
	if errors.As(err, &cerr) {
		return err
	}

	var verr *visa.Error
	if !errors.As(err, &verr) {
		return internalError(err)
	}

	terr := transportError(h.spec.ErrContext, err)
	switch {
	case h.spec.Hint != "":
		terr.Hint = h.spec.Hint
	case h.spec.Speculative:
		terr.Hint = HintSpeculative
	}
	return terr
}

// GetName returns the command name
func (h *InstrumentHandler) GetName() string {
	return h.spec.Name
}

// GetGroup returns the help group
func (h *InstrumentHandler) GetGroup() string {
	return h.spec.Group
}

// GetDescription returns the command description
func (h *InstrumentHandler) GetDescription() string {
	return h.spec.Description
}

// GetUsage returns the usage line
func (h *InstrumentHandler) GetUsage() string {
	return h.spec.Usage
}

// IsSpeculative returns true for instrument-specific SCPI
func (h *InstrumentHandler) IsSpeculative() bool {
	return h.spec.Speculative
}

func registerSpecs(r *Registry, specs []Spec) {
	for _, s := range specs {
		r.Register(NewInstrumentHandler(s))
	}
}

// fixedWrite sends cmd and reports msg.
func fixedWrite(cmd, msg string) InstrumentFunc {
	return func(ctx context.Context, c *Call) (*Result, error) {
		if err := c.Write(ctx, cmd); err != nil {
			return nil, err
		}
		return message("%s", msg), nil
	}
}

// fixedQuery sends cmd and formats the response with layout.
func fixedQuery(cmd, layout string) InstrumentFunc {
	return func(ctx context.Context, c *Call) (*Result, error) {
		resp, err := c.Query(ctx, cmd)
		if err != nil {
			return nil, err
		}
		return message(layout, resp), nil
	}
}

// valueWrite substitutes the argument into template and reports layout.
func valueWrite(template, layout string) InstrumentFunc {
	return func(ctx context.Context, c *Call) (*Result, error) {
		if err := c.Write(ctx, fmt.Sprintf(template, c.Arg)); err != nil {
			return nil, err
		}
		return message(layout, c.Arg), nil
	}
}

// choiceWrite upper-cases the argument, checks it against allowed and
// substitutes the mapped SCPI token into template.
func choiceWrite(template string, allowed map[string]string, invalid, layout string) InstrumentFunc {
	return func(ctx context.Context, c *Call) (*Result, error) {
		token, ok := allowed[strings.ToUpper(c.Arg)]
		if !ok {
			return nil, invalidArgument("%s", invalid)
		}
		if err := c.Write(ctx, fmt.Sprintf(template, token)); err != nil {
			return nil, err
		}
		return message(layout, token), nil
	}
}

// splitFields splits a comma-separated argument into exactly n trimmed,
// non-empty fields.
func splitFields(arg string, n int) ([]string, bool) {
	parts := strings.Split(arg, ",")
	if len(parts) != n {
		return nil, false
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
		if parts[i] == "" {
			return nil, false
		}
	}
	return parts, true
}

// unquote strips surrounding whitespace and double quotes.
func unquote(arg string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(arg), `"`))
}
