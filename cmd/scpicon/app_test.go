package main

import (
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/instrument-tool/scpicon/internal/audit"
	"github.com/instrument-tool/scpicon/internal/config"
)

func TestNewAppLogsConfigWarningsAfterLoggingSetup(t *testing.T) {
	wd, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(wd) })
	dir := t.TempDir()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir failed: %v", err)
	}
	t.Setenv("SCPICON_CONFIG", "")
	if err := os.WriteFile(filepath.Join(dir, config.DefaultFile), []byte("visa: [unclosed\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetFlags(log.LstdFlags)
	})

	a, err := newApp("", true)
	if err != nil {
		t.Fatalf("newApp failed: %v", err)
	}
	defer a.close()

	if len(a.cfg.Warnings) != 1 {
		t.Errorf("Expected one config warning, got %q", a.cfg.Warnings)
	}
	if buf.Len() != 0 {
		t.Errorf("Expected quiet mode to discard the warning, got %q", buf.String())
	}
}

func TestWatchHangupRotates(t *testing.T) {
	hup := make(chan os.Signal, 1)
	rotated := make(chan struct{}, 1)
	stop := watchHangup(hup, func() { rotated <- struct{}{} })
	defer stop()

	hup <- syscall.SIGHUP
	select {
	case <-rotated:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected a rotation after SIGHUP")
	}
}

func TestRotateLogsStartsNewAuditFile(t *testing.T) {
	dir := t.TempDir()
	logger, err := audit.NewLogger(dir, audit.Rotation{MaxBackups: 3})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	a := &app{audit: logger}
	defer a.close()

	logger.LogAction(context.Background(), "id", "", "ASRL1::INSTR", "SUCCESS", 0)
	a.rotateLogs()

	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("Expected current file and one backup, got %d files", len(files))
	}
}
