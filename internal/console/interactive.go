package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/c-bata/go-prompt"
	"github.com/instrument-tool/scpicon/internal/command"
)

// RunInteractive runs the console on the terminal with line editing,
// command completion and history until exit, Ctrl+D or Ctrl+C.
func (c *Console) RunInteractive(ctx context.Context) {
	fmt.Fprintln(c.out, Intro)

	done := false
	interrupted := false

	var history []string
	if c.history != nil {
		history = c.history.Entries()
	}

	p := prompt.New(
		func(line string) {
			if c.Execute(ctx, line) {
				done = true
			}
		},
		c.complete,
		prompt.OptionTitle("scpicon"),
		prompt.OptionPrefix(c.prompt),
		prompt.OptionLivePrefix(func() (string, bool) {
			return c.Prompt(), true
		}),
		prompt.OptionHistory(history),
		prompt.OptionPrefixTextColor(prompt.Yellow),
		prompt.OptionSuggestionBGColor(prompt.DarkGray),
		prompt.OptionSelectedSuggestionBGColor(prompt.LightGray),
		prompt.OptionSelectedSuggestionTextColor(prompt.Black),
		prompt.OptionDescriptionBGColor(prompt.DarkGray),
		prompt.OptionDescriptionTextColor(prompt.White),
		prompt.OptionCompletionWordSeparator(" "),
		prompt.OptionAddKeyBind(prompt.KeyBind{
			Key: prompt.ControlC,
			Fn: func(*prompt.Buffer) {
				interrupted = true
			},
		}),
		prompt.OptionSetExitCheckerOnInput(func(string, bool) bool {
			return done || interrupted || ctx.Err() != nil
		}),
	)
	p.Run()

	switch {
	case done:
	case interrupted || ctx.Err() != nil:
		c.Interrupt()
	default:
		// Ctrl+D on an empty line.
		c.Execute(ctx, "EOF")
	}
}

// Run reads lines from r until exit or end of input. It is used when stdin
// is not a terminal.
func (c *Console) Run(ctx context.Context, r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		if ctx.Err() != nil {
			c.Interrupt()
			return
		}
		if c.Execute(ctx, scanner.Text()) {
			return
		}
	}
	if ctx.Err() != nil {
		c.Interrupt()
		return
	}
	c.Execute(ctx, "EOF")
}

func (c *Console) complete(d prompt.Document) []prompt.Suggest {
	before := d.TextBeforeCursor()
	if strings.ContainsAny(strings.TrimLeft(before, " \t"), " \t") {
		return c.completeArgument(commandName(before), d.GetWordBeforeCursor())
	}
	return prompt.FilterHasPrefix(c.commandSuggestions(), d.GetWordBeforeCursor(), true)
}

func (c *Console) commandSuggestions() []prompt.Suggest {
	registry := c.dispatcher.Registry()
	suggestions := []prompt.Suggest{
		{Text: "help", Description: "List commands or show one command's usage"},
		{Text: "exit", Description: "Close the connection and quit"},
	}
	for _, name := range registry.List() {
		h, _ := registry.Get(name)
		suggestions = append(suggestions, prompt.Suggest{Text: name, Description: h.GetDescription()})
	}
	return suggestions
}

// completeArgument offers command names after help. Other arguments are
// free text.
func (c *Console) completeArgument(name, word string) []prompt.Suggest {
	if name != "help" && name != "?" {
		return nil
	}
	return prompt.FilterHasPrefix(c.commandSuggestions()[2:], word, true)
}

func commandName(line string) string {
	name, _ := command.ParseLine(line)
	return name
}
