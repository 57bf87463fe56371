package simulator

import (
	"strings"
)

// matchHeader reports whether header matches pattern. Patterns use SCPI
// mnemonic case: "WAVeform" accepts WAV and WAVEFORM in any case. A node
// ending in '#' takes a numeric suffix, returned in order (default "1").
// The leading colon is optional and a trailing '?' must match exactly.
func matchHeader(pattern, header string) ([]string, bool) {
	pattern = strings.TrimPrefix(pattern, ":")
	header = strings.TrimPrefix(header, ":")

	if strings.HasSuffix(pattern, "?") != strings.HasSuffix(header, "?") {
		return nil, false
	}
	pattern = strings.TrimSuffix(pattern, "?")
	header = strings.TrimSuffix(header, "?")

	pnodes := strings.Split(pattern, ":")
	hnodes := strings.Split(header, ":")
	if len(pnodes) != len(hnodes) {
		return nil, false
	}

	var suffixes []string
	for i, p := range pnodes {
		suffix, ok := matchNode(p, hnodes[i])
		if !ok {
			return nil, false
		}
		if suffix != "" {
			suffixes = append(suffixes, suffix)
		}
	}
	return suffixes, true
}

func matchNode(pattern, input string) (string, bool) {
	numbered := strings.HasSuffix(pattern, "#")
	pattern = strings.TrimSuffix(pattern, "#")
	input = strings.ToUpper(input)

	suffix := ""
	if numbered {
		end := len(input)
		for end > 0 && input[end-1] >= '0' && input[end-1] <= '9' {
			end--
		}
		suffix = input[end:]
		input = input[:end]
		if suffix == "" {
			suffix = "1"
		}
	}

	long := strings.ToUpper(pattern)
	short := shortForm(pattern)
	if input != long && input != short {
		return "", false
	}
	return suffix, true
}

// shortForm returns the leading upper-case part of a mnemonic.
func shortForm(mnemonic string) string {
	for i, r := range mnemonic {
		if r >= 'a' && r <= 'z' {
			return mnemonic[:i]
		}
	}
	return mnemonic
}

// splitProgram splits a program message on ';' outside double quotes.
func splitProgram(line string) []string {
	var parts []string
	inQuote := false
	start := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			inQuote = !inQuote
		case ';':
			if !inQuote {
				parts = append(parts, line[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, line[start:])

	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitCommand separates the header from its argument text.
func splitCommand(cmd string) (header, args string) {
	cmd = strings.TrimSpace(cmd)
	i := strings.IndexAny(cmd, " \t")
	if i < 0 {
		return cmd, ""
	}
	return cmd[:i], strings.TrimSpace(cmd[i+1:])
}
