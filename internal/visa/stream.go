package visa

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
	"time"
)

// streamInstrument implements Instrument over any byte stream.
// Socket, serial and GPIB backends differ only in how deadlines are armed,
// how commands are framed and whether a read must be requested explicitly.
type streamInstrument struct {
	mu       sync.Mutex
	resource string
	link     io.ReadWriteCloser
	arm      func(deadline time.Time) error
	reader   *bufio.Reader
	opts     OpenOptions

	// encode frames a command for the wire.
	encode func(cmd string) string
	// readRequest is sent before every read when non-empty.
	readRequest string

	pendingTerm bool
	closed      bool
}

func newStreamInstrument(resource string, link io.ReadWriteCloser, arm func(time.Time) error, opts OpenOptions) *streamInstrument {
	s := &streamInstrument{
		resource: resource,
		link:     link,
		arm:      arm,
		reader:   bufio.NewReader(link),
		opts:     opts,
	}
	s.encode = func(cmd string) string {
		return cmd + s.opts.WriteTermination
	}
	return s
}

// Resource returns the resource string.
func (s *streamInstrument) Resource() string {
	return s.resource
}

// Write sends cmd without reading a response.
func (s *streamInstrument) Write(ctx context.Context, cmd string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.send(ctx, "write", s.encode(cmd))
}

// Query sends cmd and returns the response line without its termination.
func (s *streamInstrument) Query(ctx context.Context, cmd string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.send(ctx, "query", s.encode(cmd)); err != nil {
		return "", err
	}
	if err := s.requestRead(ctx, "query"); err != nil {
		return "", err
	}

	line, err := s.readLine(ctx)
	if err != nil {
		return "", Normalize("query", s.resource, err)
	}
	return line, nil
}

// QueryBinary sends cmd and returns the payload of the block response.
func (s *streamInstrument) QueryBinary(ctx context.Context, cmd string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.send(ctx, "query", s.encode(cmd)); err != nil {
		return nil, err
	}
	if err := s.requestRead(ctx, "query"); err != nil {
		return nil, err
	}

	if err := s.prepareRead(ctx); err != nil {
		return nil, Normalize("query", s.resource, err)
	}
	data, definite, err := readBlock(s.reader)
	if err != nil {
		return nil, Normalize("query", s.resource, err)
	}
	s.pendingTerm = definite
	return data, nil
}

// Close closes the transport. Closing twice is a no-op.
func (s *streamInstrument) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.link.Close()
}

func (s *streamInstrument) send(ctx context.Context, op, payload string) error {
	if s.closed {
		return Normalize(op, s.resource, errClosed)
	}
	if err := ctx.Err(); err != nil {
		return Normalize(op, s.resource, err)
	}
	if err := s.arm(s.deadline(ctx)); err != nil {
		return Normalize(op, s.resource, err)
	}
	if _, err := io.WriteString(s.link, payload); err != nil {
		return Normalize(op, s.resource, err)
	}
	return nil
}

func (s *streamInstrument) requestRead(ctx context.Context, op string) error {
	if s.readRequest == "" {
		return nil
	}
	return s.send(ctx, op, s.readRequest)
}

func (s *streamInstrument) prepareRead(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.arm(s.deadline(ctx))
}

func (s *streamInstrument) readLine(ctx context.Context) (string, error) {
	if err := s.prepareRead(ctx); err != nil {
		return "", err
	}

	term := s.opts.ReadTermination

	// Definite blocks leave their terminator on the wire.
	if s.pendingTerm {
		s.pendingTerm = false
		if b, err := s.reader.Peek(len(term)); err == nil && string(b) == term {
			s.reader.Discard(len(term))
		}
	}

	last := term[len(term)-1]

	var sb strings.Builder
	for {
		chunk, err := s.reader.ReadString(last)
		sb.WriteString(chunk)
		if err != nil {
			return "", err
		}
		if strings.HasSuffix(sb.String(), term) {
			break
		}
	}

	line := strings.TrimSuffix(sb.String(), term)
	return strings.TrimRight(line, "\r"), nil
}

// deadline returns the earlier of the context deadline and the open timeout.
func (s *streamInstrument) deadline(ctx context.Context) time.Time {
	deadline := time.Now().Add(s.opts.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	return deadline
}
