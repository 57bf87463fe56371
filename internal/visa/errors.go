package visa

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Normalized transport errors.
var (
	ErrTimeout             = errors.New("TIMEOUT")
	ErrConnection          = errors.New("CONNECTION_LOST")
	ErrResourceNotFound    = errors.New("RESOURCE_NOT_FOUND")
	ErrInvalidResource     = errors.New("INVALID_RESOURCE")
	ErrUnsupportedResource = errors.New("UNSUPPORTED_RESOURCE")
	ErrIO                  = errors.New("IO_ERROR")
)

var (
	errClosed           = errors.New("connection closed")
	errUnknownInterface = errors.New("unknown interface")
)

// ErrorTokens maps substrings of transport error messages to normalized codes.
// Entries are checked in order; the first match wins. Unmatched errors map to ErrIO.
var ErrorTokens = []struct {
	Code   error
	Tokens []string
}{
	{
		Code: ErrTimeout,
		Tokens: []string{
			"I/O TIMEOUT",
			"TIMEOUT",
			"TIMED OUT",
			"DEADLINE EXCEEDED",
			"VI_ERROR_TMO",
		},
	},
	{
		Code: ErrResourceNotFound,
		Tokens: []string{
			"NO SUCH FILE",
			"NO SUCH DEVICE",
			"NO SUCH HOST",
			"PORT NOT FOUND",
			"VI_ERROR_RSRC_NFOUND",
		},
	},
	{
		Code: ErrConnection,
		Tokens: []string{
			"CONNECTION REFUSED",
			"CONNECTION RESET",
			"BROKEN PIPE",
			"NETWORK IS UNREACHABLE",
			"NO ROUTE TO HOST",
			"CONNECTION CLOSED",
			"USE OF CLOSED",
			"HAS BEEN CLOSED",
			"EOF",
		},
	},
}

// Error wraps a transport failure with its normalized code.
type Error struct {
	Code     error  // Normalized code
	Op       string // open, write, query, list
	Resource string
	Err      error // Underlying cause
}

func (e *Error) Error() string {
	if e.Resource == "" {
		return fmt.Sprintf("%v: %s: %v", e.Code, e.Op, e.Err)
	}
	return fmt.Sprintf("%v: %s %s: %v", e.Code, e.Op, e.Resource, e.Err)
}

// Unwrap exposes both the normalized code and the underlying cause.
func (e *Error) Unwrap() []error {
	return []error{e.Code, e.Err}
}

// Normalize maps a transport error to an *Error. Nil stays nil and errors that
// are already normalized are returned unchanged.
func Normalize(op, resource string, err error) error {
	if err == nil {
		return nil
	}

	var verr *Error
	if errors.As(err, &verr) {
		return err
	}

	return &Error{
		Code:     classify(err),
		Op:       op,
		Resource: resource,
		Err:      err,
	}
}

func classify(err error) error {
	var timeout interface{ Timeout() bool }
	if errors.As(err, &timeout) && timeout.Timeout() {
		return ErrTimeout
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	case errors.Is(err, os.ErrNotExist):
		return ErrResourceNotFound
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.ErrClosedPipe), errors.Is(err, errClosed):
		return ErrConnection
	}

	msg := strings.ToUpper(err.Error())
	for _, entry := range ErrorTokens {
		for _, token := range entry.Tokens {
			if strings.Contains(msg, token) {
				return entry.Code
			}
		}
	}

	return ErrIO
}

// CodeOf returns the normalized code carried by err, or nil.
func CodeOf(err error) error {
	var verr *Error
	if errors.As(err, &verr) {
		return verr.Code
	}
	return nil
}

// timeoutError is reported when a serial read returns no data before its deadline.
type timeoutError struct{}

func (timeoutError) Error() string   { return "read timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }
