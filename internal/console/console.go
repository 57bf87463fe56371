// Package console runs the operator-facing command loop: it reads lines,
// dispatches them to command handlers and renders the outcome as text.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/instrument-tool/scpicon/internal/command"
	"github.com/instrument-tool/scpicon/internal/session"
)

// Intro is printed when an interactive console starts.
const Intro = "Welcome! This is a command prompt for controlling IVI VISA instruments. " +
	"Type 'help' or '?' to list commands. Type 'exit' to quit."

// DefaultPrompt is shown before each input line.
const DefaultPrompt = "(instrument) "

const (
	goodbyeMessage   = "Exiting console. Goodbye!"
	interruptMessage = "Ctrl+C detected. Exiting console. Goodbye!"
	helpHint         = "Type 'help' or '?' to list commands."
)

// Console is a line-oriented front end over a command dispatcher.
type Console struct {
	dispatcher *command.Dispatcher
	out        io.Writer
	prompt     string
	history    *History
	closed     bool
}

// Option configures a Console.
type Option func(*Console)

// WithOutput sets the writer operator output goes to. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(c *Console) {
		c.out = w
	}
}

// WithPrompt sets the input prompt.
func WithPrompt(prompt string) Option {
	return func(c *Console) {
		if prompt != "" {
			c.prompt = prompt
		}
	}
}

// WithHistory records executed lines in h.
func WithHistory(h *History) Option {
	return func(c *Console) {
		c.history = h
	}
}

// New creates a console over d.
func New(d *command.Dispatcher, opts ...Option) *Console {
	c := &Console{
		dispatcher: d,
		out:        os.Stdout,
		prompt:     DefaultPrompt,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute runs one input line and reports whether the console should exit.
// Command failures are rendered and never end the loop.
func (c *Console) Execute(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if c.history != nil && line != "EOF" {
		c.history.Add(line)
	}

	// "?topic" is "help topic".
	if strings.HasPrefix(line, "?") {
		line = "help " + line[1:]
	}

	name, arg := command.ParseLine(line)
	switch name {
	case "help":
		c.help(arg)
		return false
	case "exit", "quit", "EOF":
		c.Close()
		fmt.Fprintln(c.out, goodbyeMessage)
		return true
	}

	result, err := c.dispatcher.Dispatch(ctx, name, arg)
	if errors.Is(err, command.ErrUnknownCommand) {
		fmt.Fprintf(c.out, "*** Unknown syntax: %s\n", line)
		fmt.Fprintln(c.out, helpHint)
		return false
	}
	c.render(result, err)
	return false
}

// Interrupt closes the console after Ctrl+C.
func (c *Console) Interrupt() {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, interruptMessage)
	c.Close()
}

// Close releases the instrument connection and saves the history. It is
// safe to call more than once.
func (c *Console) Close() {
	if c.closed {
		return
	}
	c.closed = true

	if s := c.session(); s != nil && s.Connected() {
		fmt.Fprintf(c.out, "Closing connection to %s...\n", s.Resource())
		s.Close()
	}

	if c.history != nil {
		if err := c.history.Save(); err != nil {
			log.Printf("Failed to save history: %v", err)
		}
	}
}

// Prompt returns the prompt text, naming the selected resource if any.
func (c *Console) Prompt() string {
	s := c.session()
	if s == nil || !s.Connected() {
		return c.prompt
	}
	return fmt.Sprintf("(%s) ", s.Resource())
}

func (c *Console) session() *session.Session {
	if env := c.dispatcher.Env(); env != nil {
		return env.Session
	}
	return nil
}
