// Package fake provides an in-memory instrument and resource manager for testing.
package fake

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/instrument-tool/scpicon/internal/visa"
)

// DefaultIDN is the identification string of a new fake instrument.
const DefaultIDN = "FAKE INSTRUMENTS,SIM-1000,0001,1.0"

// Call records a single transport operation.
type Call struct {
	Op      string // write, query, query_binary
	Command string
}

// Instrument implements visa.Instrument with scripted responses.
// Queries without a scripted response fail with a normalized timeout,
// which is what a real instrument does when it does not recognize a query.
type Instrument struct {
	mu       sync.Mutex
	resource string

	responses map[string]string
	binary    map[string][]byte
	failures  map[string]error

	calls    []Call
	closed   bool
	closeErr error
}

// NewInstrument creates a fake instrument that answers *IDN? and *OPC?.
func NewInstrument(resource string) *Instrument {
	return &Instrument{
		resource: resource,
		responses: map[string]string{
			"*IDN?": DefaultIDN,
			"*OPC?": "1",
		},
		binary:   make(map[string][]byte),
		failures: make(map[string]error),
	}
}

// SetResponse scripts the response to a query.
func (f *Instrument) SetResponse(cmd, response string) *Instrument {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[cmd] = response
	return f
}

// SetBinary scripts the block payload returned for a binary query.
func (f *Instrument) SetBinary(cmd string, data []byte) *Instrument {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.binary[cmd] = data
	return f
}

// FailOn makes any operation carrying cmd return err.
func (f *Instrument) FailOn(cmd string, err error) *Instrument {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[cmd] = err
	return f
}

// FailClose makes Close return err.
func (f *Instrument) FailClose(err error) *Instrument {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeErr = err
	return f
}

// Write records cmd.
func (f *Instrument) Write(ctx context.Context, cmd string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.check(ctx, "write", cmd); err != nil {
		return err
	}
	return nil
}

// Query records cmd and returns its scripted response.
func (f *Instrument) Query(ctx context.Context, cmd string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.check(ctx, "query", cmd); err != nil {
		return "", err
	}
	resp, ok := f.responses[cmd]
	if !ok {
		return "", f.timeout("query", cmd)
	}
	return resp, nil
}

// QueryBinary records cmd and returns its scripted block payload.
func (f *Instrument) QueryBinary(ctx context.Context, cmd string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.check(ctx, "query_binary", cmd); err != nil {
		return nil, err
	}
	data, ok := f.binary[cmd]
	if !ok {
		return nil, f.timeout("query", cmd)
	}
	return append([]byte(nil), data...), nil
}

// Close marks the instrument closed.
func (f *Instrument) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	return f.closeErr
}

// Resource returns the resource string.
func (f *Instrument) Resource() string {
	return f.resource
}

// Calls returns the recorded operations in order.
func (f *Instrument) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Commands returns the command text of each recorded operation.
func (f *Instrument) Commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	cmds := make([]string, len(f.calls))
	for i, c := range f.calls {
		cmds[i] = c.Command
	}
	return cmds
}

// Closed reports whether Close has been called.
func (f *Instrument) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Reset clears the recorded calls.
func (f *Instrument) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *Instrument) check(ctx context.Context, op, cmd string) error {
	select {
	case <-ctx.Done():
		return visa.Normalize(op, f.resource, ctx.Err())
	default:
	}

	if f.closed {
		return &visa.Error{Code: visa.ErrConnection, Op: op, Resource: f.resource, Err: errors.New("connection closed")}
	}

	f.calls = append(f.calls, Call{Op: op, Command: cmd})

	if err, ok := f.failures[cmd]; ok {
		return visa.Normalize(op, f.resource, err)
	}
	return nil
}

func (f *Instrument) timeout(op, cmd string) error {
	return &visa.Error{
		Code:     visa.ErrTimeout,
		Op:       op,
		Resource: f.resource,
		Err:      fmt.Errorf("no response to %q", cmd),
	}
}

// Manager implements visa.Manager over a fixed set of fake instruments.
type Manager struct {
	mu          sync.Mutex
	instruments map[string]*Instrument
	openErrs    map[string]error
	listErr     error
	opened      []string
	options     []visa.OpenOptions
}

// NewManager creates a manager with one fake instrument per resource.
func NewManager(resources ...string) *Manager {
	m := &Manager{
		instruments: make(map[string]*Instrument),
		openErrs:    make(map[string]error),
	}
	for _, r := range resources {
		m.instruments[r] = NewInstrument(r)
	}
	return m
}

// Add registers inst under its resource string.
func (m *Manager) Add(inst *Instrument) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.instruments[inst.Resource()] = inst
}

// Instrument returns the fake registered for resource.
func (m *Manager) Instrument(resource string) *Instrument {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.instruments[resource]
}

// FailOpen makes Open of resource return err.
func (m *Manager) FailOpen(resource string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openErrs[resource] = err
}

// FailList makes List return err.
func (m *Manager) FailList(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listErr = err
}

// List returns the registered resources, sorted.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.listErr != nil {
		return nil, m.listErr
	}
	resources := make([]string, 0, len(m.instruments))
	for r := range m.instruments {
		resources = append(resources, r)
	}
	sort.Strings(resources)
	return resources, nil
}

// Open returns the registered fake for resource.
func (m *Manager) Open(ctx context.Context, resource string, opts ...visa.OpenOption) (visa.Instrument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.opened = append(m.opened, resource)
	m.options = append(m.options, visa.ApplyOptions(opts...))

	if err, ok := m.openErrs[resource]; ok {
		return nil, visa.Normalize("open", resource, err)
	}
	inst, ok := m.instruments[resource]
	if !ok {
		return nil, &visa.Error{
			Code:     visa.ErrResourceNotFound,
			Op:       "open",
			Resource: resource,
			Err:      errors.New("no such resource"),
		}
	}
	inst.mu.Lock()
	inst.closed = false
	inst.mu.Unlock()
	return inst, nil
}

// Opened returns the resources passed to Open, in order.
func (m *Manager) Opened() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.opened...)
}

// LastOptions returns the options of the most recent Open.
func (m *Manager) LastOptions() (visa.OpenOptions, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.options) == 0 {
		return visa.OpenOptions{}, false
	}
	return m.options[len(m.options)-1], true
}
