package command

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"strings"
	"time"

	"github.com/instrument-tool/scpicon/internal/visa"
)

// ErrUnknownCommand is returned by Dispatch for names with no handler.
var ErrUnknownCommand = errors.New("unknown command")

// AuditLogger records one entry per dispatched command.
type AuditLogger interface {
	LogAction(ctx context.Context, action, arg, resource, outcome string, latency time.Duration)
}

// MetricsRecorder observes command outcomes.
type MetricsRecorder interface {
	ObserveCommand(name, code string, latency time.Duration)
}

// TransportErrorRecorder is implemented by metrics sinks that count
// transport failures by normalized code.
type TransportErrorRecorder interface {
	ObserveTransportError(code string)
}

// Dispatcher routes command lines to handlers. Every handler runs inside a
// recover boundary so no command can end the console loop.
type Dispatcher struct {
	registry *Registry
	env      *Env
	audit    AuditLogger
	metrics  MetricsRecorder
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithAuditLogger sets the audit sink.
func WithAuditLogger(a AuditLogger) DispatcherOption {
	return func(d *Dispatcher) {
		d.audit = a
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m MetricsRecorder) DispatcherOption {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// NewDispatcher creates a dispatcher over registry and env.
func NewDispatcher(registry *Registry, env *Env, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		env:      env,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry returns the dispatcher's registry.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Env returns the dispatcher's environment.
func (d *Dispatcher) Env() *Env {
	return d.env
}

// Dispatch runs the named command with arg.
func (d *Dispatcher) Dispatch(ctx context.Context, name, arg string) (*Result, error) {
	handler, ok := d.registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}

	start := time.Now()
	result, err := d.invoke(ctx, handler, arg)
	latency := time.Since(start)

	d.record(ctx, name, arg, CodeOf(err), latency)
	d.recordTransport(err)
	return result, err
}

func (d *Dispatcher) invoke(ctx context.Context, handler Handler, arg string) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered panic in %s: %v\n%s", handler.GetName(), r, debug.Stack())
			result = nil
			err = internalError(fmt.Errorf("panic: %v", r))
		}
	}()

	result, err = handler.Handle(ctx, d.env, arg)
	if err != nil {
		var cerr *Error
		if !errors.As(err, &cerr) {
			err = internalError(err)
		}
	}
	return result, err
}

func (d *Dispatcher) record(ctx context.Context, name, arg string, code Code, latency time.Duration) {
	resource := ""
	if d.env != nil && d.env.Session != nil {
		resource = d.env.Session.Resource()
	}

	if d.audit != nil {
		d.audit.LogAction(ctx, name, arg, resource, code.String(), latency)
	}
	if d.metrics != nil {
		d.metrics.ObserveCommand(name, code.String(), latency)
	}
}

func (d *Dispatcher) recordTransport(err error) {
	recorder, ok := d.metrics.(TransportErrorRecorder)
	if !ok {
		return
	}
	if code := visa.CodeOf(err); code != nil {
		recorder.ObserveTransportError(code.Error())
	}
}

// ParseLine splits a console line into the command name and its argument text.
func ParseLine(line string) (name, arg string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", ""
	}

	i := strings.IndexAny(line, " \t")
	if i < 0 {
		return line, ""
	}
	return line[:i], strings.TrimSpace(line[i+1:])
}
