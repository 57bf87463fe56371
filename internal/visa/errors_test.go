package visa

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"net timeout", &net.OpError{Op: "read", Net: "tcp", Err: os.ErrDeadlineExceeded}, ErrTimeout},
		{"serial timeout", timeoutError{}, ErrTimeout},
		{"context deadline", context.DeadlineExceeded, ErrTimeout},
		{"wrapped deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), ErrTimeout},
		{"visa timeout token", errors.New("VI_ERROR_TMO (-1073807339)"), ErrTimeout},
		{"timed out", errors.New("operation timed out"), ErrTimeout},
		{"missing device", &os.PathError{Op: "open", Path: "/dev/ttyUSB9", Err: os.ErrNotExist}, ErrResourceNotFound},
		{"no such host", errors.New("dial tcp: lookup nohost: no such host"), ErrResourceNotFound},
		{"eof", io.EOF, ErrConnection},
		{"unexpected eof", io.ErrUnexpectedEOF, ErrConnection},
		{"closed", errClosed, ErrConnection},
		{"closed pipe", io.ErrClosedPipe, ErrConnection},
		{"refused", errors.New("dial tcp 127.0.0.1:5025: connect: connection refused"), ErrConnection},
		{"reset", errors.New("read tcp: connection reset by peer"), ErrConnection},
		{"broken pipe", errors.New("write: broken pipe"), ErrConnection},
		{"closed conn", errors.New("use of closed network connection"), ErrConnection},
		{"unknown", errors.New("something odd"), ErrIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Normalize("query", "TCPIP0::h::1::SOCKET", tt.err)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("Expected cause %v to be preserved", tt.err)
			}
			if CodeOf(err) != tt.want {
				t.Errorf("CodeOf: expected %v, got %v", tt.want, CodeOf(err))
			}
		})
	}
}

func TestNormalizeNil(t *testing.T) {
	if err := Normalize("write", "", nil); err != nil {
		t.Errorf("Expected nil, got %v", err)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	first := Normalize("open", "ASRL1::INSTR", io.EOF)
	second := Normalize("query", "GPIB0::1::INSTR", first)

	if second != first {
		t.Errorf("Expected already-normalized error to be returned unchanged")
	}
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Code: ErrTimeout, Op: "query", Resource: "ASRL1::INSTR", Err: errors.New("read timeout")}
	if got := err.Error(); got != "TIMEOUT: query ASRL1::INSTR: read timeout" {
		t.Errorf("Unexpected message %q", got)
	}

	err = &Error{Code: ErrIO, Op: "list", Err: errors.New("boom")}
	if got := err.Error(); got != "IO_ERROR: list: boom" {
		t.Errorf("Unexpected message %q", got)
	}
}

func TestCodeOfUnnormalized(t *testing.T) {
	if CodeOf(errors.New("plain")) != nil {
		t.Error("Expected nil code for a plain error")
	}
	if CodeOf(nil) != nil {
		t.Error("Expected nil code for nil")
	}
}
