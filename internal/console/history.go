package console

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// History is the persisted list of executed lines, oldest first.
type History struct {
	path    string
	limit   int
	entries []string
}

// LoadHistory reads the history file at path. A missing file yields an empty
// history. limit caps the number of entries kept on Save; zero keeps all.
func LoadHistory(path string, limit int) (*History, error) {
	h := &History{path: path, limit: limit}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return h, nil
		}
		return h, fmt.Errorf("failed to open history file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			h.entries = append(h.entries, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return h, fmt.Errorf("failed to read history file: %w", err)
	}
	return h, nil
}

// Add appends line unless it repeats the previous entry.
func (h *History) Add(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if n := len(h.entries); n > 0 && h.entries[n-1] == line {
		return
	}
	h.entries = append(h.entries, line)
}

// Entries returns a copy of the history.
func (h *History) Entries() []string {
	return append([]string(nil), h.entries...)
}

// Path returns the history file location.
func (h *History) Path() string {
	return h.path
}

// Save writes the most recent entries, up to the limit, to the history file.
func (h *History) Save() error {
	if h.path == "" {
		return nil
	}

	entries := h.entries
	if h.limit > 0 && len(entries) > h.limit {
		entries = entries[len(entries)-h.limit:]
	}

	if err := os.MkdirAll(filepath.Dir(h.path), 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(h.path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	return nil
}
