package console

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/instrument-tool/scpicon/internal/command"
)

func (c *Console) render(result *command.Result, err error) {
	if err != nil {
		for _, line := range ErrorLines(err) {
			fmt.Fprintln(c.out, line)
		}
		return
	}
	if result == nil {
		return
	}
	for _, line := range result.Lines {
		fmt.Fprintln(c.out, line)
	}
}

// ErrorLines renders a command failure for the operator.
func ErrorLines(err error) []string {
	var cerr *command.Error
	if !errors.As(err, &cerr) {
		return []string{"An unexpected error occurred: " + err.Error()}
	}

	switch cerr.Code {
	case command.CodeInternal:
		return []string{"An unexpected error occurred: " + cerr.Error()}
	case command.CodeTransport:
		lines := []string{cerr.Error()}
		if cerr.Hint != "" {
			lines = append(lines, "HINT: "+cerr.Hint)
		}
		return lines
	}
	return []string{cerr.Error()}
}

func (c *Console) help(topic string) {
	registry := c.dispatcher.Registry()

	if topic != "" {
		h, ok := registry.Get(topic)
		if !ok {
			fmt.Fprintf(c.out, "*** No help on %s\n", topic)
			return
		}
		fmt.Fprintln(c.out, h.GetDescription())
		fmt.Fprintf(c.out, "Usage: %s\n", h.GetUsage())
		return
	}

	fmt.Fprintln(c.out, "Documented commands (type help <topic>):")
	groups := registry.Groups()
	for _, group := range orderedGroups(groups) {
		handlers := groups[group]
		width := 0
		for _, h := range handlers {
			if len(h.GetName()) > width {
				width = len(h.GetName())
			}
		}

		fmt.Fprintf(c.out, "\n%s:\n", strings.ToUpper(group))
		for _, h := range handlers {
			fmt.Fprintf(c.out, "  %-*s  %s\n", width, h.GetName(), h.GetDescription())
		}
	}
	fmt.Fprintf(c.out, "\nCONSOLE:\n  help [command]  Show all commands or one command's usage\n  exit            Close the connection and quit\n")
}

// orderedGroups returns the known groups in display order followed by any
// others alphabetically.
func orderedGroups(groups map[string][]command.Handler) []string {
	known := make(map[string]bool, len(command.GroupOrder))
	var ordered []string
	for _, g := range command.GroupOrder {
		known[g] = true
		if len(groups[g]) > 0 {
			ordered = append(ordered, g)
		}
	}

	var extra []string
	for g := range groups {
		if !known[g] {
			extra = append(extra, g)
		}
	}
	sort.Strings(extra)
	return append(ordered, extra...)
}
