// Package command implements the console's named commands.
//
// Each command formats SCPI text from its argument string and either writes it
// or writes it and reads the response. Failures are returned as *Error values
// with a closed Code; rendering is left to the console.
package command

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/instrument-tool/scpicon/internal/session"
)

// Handler defines the interface for command handlers
type Handler interface {
	// Handle runs the command with the raw argument text after the name
	Handle(ctx context.Context, env *Env, arg string) (*Result, error)

	// GetName returns the command name
	GetName() string

	// GetGroup returns the help group the command is listed under
	GetGroup() string

	// GetDescription returns a one-line description
	GetDescription() string

	// GetUsage returns the usage line
	GetUsage() string

	// IsSpeculative returns true if the SCPI sent is instrument-specific and may be rejected
	IsSpeculative() bool
}

// Env is the state a handler may use.
type Env struct {
	Session *session.Session

	// OutputDir is prepended to relative export file names. Empty means the
	// working directory.
	OutputDir string
}

// resolvePath places relative file names under OutputDir.
func (e *Env) resolvePath(name string) string {
	if e.OutputDir == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(e.OutputDir, name)
}

// Result is the display output of a successful command.
type Result struct {
	Lines []string
}

// Addf appends a formatted line.
func (r *Result) Addf(format string, args ...interface{}) *Result {
	r.Lines = append(r.Lines, fmt.Sprintf(format, args...))
	return r
}

func message(format string, args ...interface{}) *Result {
	return (&Result{}).Addf(format, args...)
}

// Registry manages available commands
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register adds a handler, replacing any handler with the same name
func (r *Registry) Register(handler Handler) {
	r.handlers[handler.GetName()] = handler
}

// Get returns a handler by name
func (r *Registry) Get(name string) (Handler, bool) {
	handler, exists := r.handlers[name]
	return handler, exists
}

// List returns all registered command names, sorted
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Groups returns handlers keyed by group, each group sorted by name
func (r *Registry) Groups() map[string][]Handler {
	groups := make(map[string][]Handler)
	for _, name := range r.List() {
		h := r.handlers[name]
		groups[h.GetGroup()] = append(groups[h.GetGroup()], h)
	}
	return groups
}

// Help groups in display order.
const (
	GroupDevice = "device"
	GroupSCPI   = "scpi"
	GroupDMM    = "dmm"
	GroupScope  = "oscope"
	GroupAFG    = "afg"
	GroupPSU    = "psu"
	GroupRF     = "rf"
	GroupELoad  = "eload"
	GroupDiag   = "diag"
)

// GroupOrder lists the help groups in display order.
var GroupOrder = []string{
	GroupDevice, GroupSCPI, GroupDMM, GroupScope, GroupAFG,
	GroupPSU, GroupRF, GroupELoad, GroupDiag,
}

// NewDefaultRegistry returns a registry holding every console command.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDeviceCommands(r)
	RegisterCoreCommands(r)
	RegisterDMMCommands(r)
	RegisterScopeCommands(r)
	RegisterAFGCommands(r)
	RegisterPSUCommands(r)
	RegisterRFCommands(r)
	RegisterELoadCommands(r)
	RegisterDiagnosticCommands(r)
	return r
}
