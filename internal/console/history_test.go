package console

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadHistoryMissingFile(t *testing.T) {
	h, err := LoadHistory(filepath.Join(t.TempDir(), "absent"), 10)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(h.Entries()) != 0 {
		t.Errorf("Expected empty history, got %v", h.Entries())
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history")

	h, err := LoadHistory(path, 3)
	if err != nil {
		t.Fatalf("LoadHistory failed: %v", err)
	}
	for _, line := range []string{"devicelist", "id", "id", "  ", "reset", "get_error"} {
		h.Add(line)
	}
	if got := strings.Join(h.Entries(), ","); got != "devicelist,id,reset,get_error" {
		t.Errorf("Unexpected entries %q", got)
	}

	if err := h.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected mode 0600, got %v", info.Mode().Perm())
	}

	reloaded, err := LoadHistory(path, 3)
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if got := strings.Join(reloaded.Entries(), ","); got != "id,reset,get_error" {
		t.Errorf("Expected history truncated to the last 3 entries, got %q", got)
	}
}

func TestHistoryWithoutPath(t *testing.T) {
	h := &History{}
	h.Add("id")
	if err := h.Save(); err != nil {
		t.Errorf("Save without a path should be a no-op, got %v", err)
	}
}
