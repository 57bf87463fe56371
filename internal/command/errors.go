package command

import (
	"errors"
	"fmt"
)

// Code classifies a command outcome.
type Code int

const (
	CodeOK Code = iota
	CodeNoDevice
	CodeUsage
	CodeFormat
	CodeTransport
	CodeInternal
)

func (c Code) String() string {
	switch c {
	case CodeOK:
		return "OK"
	case CodeNoDevice:
		return "NO_DEVICE"
	case CodeUsage:
		return "USAGE"
	case CodeFormat:
		return "FORMAT"
	case CodeTransport:
		return "TRANSPORT"
	case CodeInternal:
		return "INTERNAL"
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

// Error is the typed failure returned by handlers. The console renders it.
type Error struct {
	Code    Code
	Message string // Display text, or context for Err
	Hint    string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil:
		return e.Message
	case e.Message == "":
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of err. Untyped errors are CodeInternal.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Code
	}
	return CodeInternal
}

// HintSpeculative is attached to transport failures of commands whose SCPI
// is not standardized across vendors.
const HintSpeculative = "Command likely unsupported by this instrument."

func noDevice() error {
	return &Error{Code: CodeNoDevice, Message: "No device selected. Use 'deviceselect' first."}
}

func usageError(usage string) error {
	return &Error{Code: CodeUsage, Message: "Usage: " + usage}
}

func invalidArgument(format string, args ...interface{}) error {
	return &Error{Code: CodeUsage, Message: fmt.Sprintf(format, args...)}
}

func formatError(example string) error {
	return &Error{Code: CodeFormat, Message: "Invalid format. Use: " + example}
}

func transportError(context string, err error) *Error {
	return &Error{Code: CodeTransport, Message: context, Err: err}
}

func internalError(err error) error {
	return &Error{Code: CodeInternal, Err: err}
}
