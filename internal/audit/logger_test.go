package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func readEntries(t *testing.T, path string) []AuditEntry {
	t.Helper()

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	var entries []AuditEntry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var entry AuditEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("Invalid JSON line %q: %v", scanner.Text(), err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestNewLogger(t *testing.T) {
	tempDir := filepath.Join(t.TempDir(), "nested", "audit")

	logger, err := NewLogger(tempDir, Rotation{})
	if err != nil {
		t.Fatalf("NewLogger() failed: %v", err)
	}
	defer func() { _ = logger.Close() }()

	expectedPath := filepath.Join(tempDir, "audit.jsonl")
	if logger.GetFilePath() != expectedPath {
		t.Errorf("Expected file path %s, got %s", expectedPath, logger.GetFilePath())
	}

	if info, err := os.Stat(tempDir); err != nil || !info.IsDir() {
		t.Error("Audit log directory was not created")
	}
}

func TestLogAction(t *testing.T) {
	logger, err := NewLogger(t.TempDir(), Rotation{})
	if err != nil {
		t.Fatalf("NewLogger() failed: %v", err)
	}
	defer func() { _ = logger.Close() }()

	ctx := context.Background()
	logger.LogAction(ctx, "psu_set_voltage", "5.0", "ASRL1::INSTR", "OK", 12*time.Millisecond)
	logger.LogAction(ctx, "id", "", "", "NO_DEVICE", 0)

	entries := readEntries(t, logger.GetFilePath())
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}

	first := entries[0]
	if first.Action != "psu_set_voltage" || first.Arg != "5.0" || first.Resource != "ASRL1::INSTR" {
		t.Errorf("Unexpected entry %+v", first)
	}
	if first.Outcome != "SUCCESS" || first.Code != "OK" {
		t.Errorf("Expected SUCCESS/OK, got %s/%s", first.Outcome, first.Code)
	}
	if first.LatencyMs != 12 {
		t.Errorf("Expected latency 12ms, got %d", first.LatencyMs)
	}
	if first.Timestamp.IsZero() {
		t.Error("Expected timestamp to be set")
	}

	second := entries[1]
	if second.Outcome != "ERROR" || second.Code != "NO_DEVICE" {
		t.Errorf("Expected ERROR/NO_DEVICE, got %s/%s", second.Outcome, second.Code)
	}
}

func TestEmptyArgIsOmitted(t *testing.T) {
	logger, err := NewLogger(t.TempDir(), Rotation{})
	if err != nil {
		t.Fatalf("NewLogger() failed: %v", err)
	}
	defer func() { _ = logger.Close() }()

	logger.LogAction(context.Background(), "reset", "", "GPIB0::5::INSTR", "OK", time.Millisecond)

	content, err := os.ReadFile(logger.GetFilePath())
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if strings.Contains(string(content), `"arg"`) {
		t.Errorf("Expected arg to be omitted, got %s", content)
	}
}

func TestConcurrentLogging(t *testing.T) {
	logger, err := NewLogger(t.TempDir(), Rotation{})
	if err != nil {
		t.Fatalf("NewLogger() failed: %v", err)
	}
	defer func() { _ = logger.Close() }()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.LogAction(context.Background(), "ping_device", "", "TCPIP0::10.0.0.2::5025::SOCKET", "OK", time.Millisecond)
		}()
	}
	wg.Wait()

	if entries := readEntries(t, logger.GetFilePath()); len(entries) != n {
		t.Errorf("Expected %d entries, got %d", n, len(entries))
	}
}

func TestRotate(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir, Rotation{MaxBackups: 3})
	if err != nil {
		t.Fatalf("NewLogger() failed: %v", err)
	}
	defer func() { _ = logger.Close() }()

	logger.LogAction(context.Background(), "id", "", "ASRL1::INSTR", "OK", 0)
	if err := logger.Rotate(); err != nil {
		t.Fatalf("Rotate() failed: %v", err)
	}
	logger.LogAction(context.Background(), "reset", "", "ASRL1::INSTR", "OK", 0)

	entries := readEntries(t, logger.GetFilePath())
	if len(entries) != 1 || entries[0].Action != "reset" {
		t.Errorf("Expected only the post-rotation entry, got %+v", entries)
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("Expected current file and one backup, got %d files", len(files))
	}
}

func TestClose(t *testing.T) {
	logger, err := NewLogger(t.TempDir(), Rotation{})
	if err != nil {
		t.Fatalf("NewLogger() failed: %v", err)
	}

	if err := logger.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("Second Close() failed: %v", err)
	}

	logger.LogAction(context.Background(), "id", "", "", "OK", 0)
	if err := logger.Rotate(); err == nil {
		t.Error("Expected Rotate() on a closed logger to fail")
	}
}
