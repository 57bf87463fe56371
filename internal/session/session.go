// Package session owns the console's single instrument connection.
package session

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/instrument-tool/scpicon/internal/visa"
)

// ErrEmptyResource is returned by Select when no resource string is given.
var ErrEmptyResource = errors.New("no resource given")

// Observer is notified when the connection state changes.
type Observer func(resource string, connected bool)

// Session holds at most one open instrument. It is owned by one goroutine
// and performs no locking.
type Session struct {
	manager   visa.Manager
	timeout   time.Duration
	readTerm  string
	writeTerm string
	observer  Observer

	inst     visa.Instrument
	resource string
	idn      string
}

// Option configures a Session.
type Option func(*Session)

// WithTimeout sets the response timeout applied when a resource is opened.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithTermination sets the read and write termination sequences applied when
// a resource is opened. Empty values keep the transport defaults.
func WithTermination(read, write string) Option {
	return func(s *Session) {
		s.readTerm = read
		s.writeTerm = write
	}
}

// WithObserver registers a connection state observer.
func WithObserver(o Observer) Option {
	return func(s *Session) {
		s.observer = o
	}
}

// New creates a disconnected session.
func New(manager visa.Manager, opts ...Option) *Session {
	s := &Session{
		manager: manager,
		timeout: visa.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the resources the manager can see. An empty list is not an error.
func (s *Session) List(ctx context.Context) ([]string, error) {
	resources, err := s.manager.List(ctx)
	if err != nil {
		return nil, err
	}
	if resources == nil {
		resources = []string{}
	}
	return resources, nil
}

// Select closes any open instrument and opens resource.
//
// The identification query is best-effort: its failure is logged and an empty
// IDN is returned with a nil error. If the open fails the session is left
// disconnected and the cause is returned.
func (s *Session) Select(ctx context.Context, resource string) (string, error) {
	resource = CleanResource(resource)
	if resource == "" {
		return "", ErrEmptyResource
	}

	s.Deselect()

	inst, err := s.manager.Open(ctx, resource,
		visa.WithTimeout(s.timeout),
		visa.WithTermination(s.readTerm, s.writeTerm),
	)
	if err != nil {
		return "", err
	}

	s.inst = inst
	s.resource = resource
	s.notify(true)

	idn, err := inst.Query(ctx, "*IDN?")
	if err != nil {
		log.Printf("Identification query on %s failed: %v", resource, err)
		idn = ""
	}
	s.idn = strings.TrimSpace(idn)

	return s.idn, nil
}

// Deselect closes the open instrument, if any. Close errors are suppressed.
func (s *Session) Deselect() {
	if s.inst == nil {
		return
	}

	if err := s.inst.Close(); err != nil {
		log.Printf("Ignoring close error on %s: %v", s.resource, err)
	}

	resource := s.resource
	s.inst = nil
	s.resource = ""
	s.idn = ""

	if s.observer != nil {
		s.observer(resource, false)
	}
}

// Close releases the session's instrument on shutdown.
func (s *Session) Close() {
	s.Deselect()
}

// Instrument returns the open instrument.
func (s *Session) Instrument() (visa.Instrument, bool) {
	return s.inst, s.inst != nil
}

// Connected reports whether an instrument is open.
func (s *Session) Connected() bool {
	return s.inst != nil
}

// Resource returns the selected resource string, or "" when disconnected.
func (s *Session) Resource() string {
	return s.resource
}

// IDN returns the identification captured by the last Select.
func (s *Session) IDN() string {
	return s.idn
}

// Timeout returns the response timeout used for new connections.
func (s *Session) Timeout() time.Duration {
	return s.timeout
}

func (s *Session) notify(connected bool) {
	if s.observer != nil {
		s.observer(s.resource, connected)
	}
}

// CleanResource trims whitespace and one pair of surrounding double quotes.
func CleanResource(resource string) string {
	resource = strings.TrimSpace(resource)
	resource = strings.Trim(resource, `"`)
	return strings.TrimSpace(resource)
}
