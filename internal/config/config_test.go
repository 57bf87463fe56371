package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scpicon.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := getDefaultConfig()

	if cfg.VISA.TimeoutMs != 5000 {
		t.Errorf("Expected timeout 5000ms, got %d", cfg.VISA.TimeoutMs)
	}
	if cfg.VISA.Timeout() != 5*time.Second {
		t.Errorf("Expected 5s timeout, got %v", cfg.VISA.Timeout())
	}
	if cfg.VISA.Serial.BaudRate != 9600 || cfg.VISA.Serial.DataBits != 8 {
		t.Errorf("Expected 9600 8N1, got %+v", cfg.VISA.Serial)
	}
	if cfg.Console.Prompt != "(instrument) " {
		t.Errorf("Expected default prompt, got %q", cfg.Console.Prompt)
	}
	if cfg.Audit.Enabled {
		t.Error("Expected audit to be disabled by default")
	}
	if cfg.Metrics.Addr != "" {
		t.Error("Expected metrics listener to be disabled by default")
	}
	if len(cfg.Simulator.AllowedCIDRs) != 2 {
		t.Errorf("Expected 2 allowed CIDRs, got %d", len(cfg.Simulator.AllowedCIDRs))
	}

	if err := validateConfig(cfg); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeFile(t, `
console:
  history_limit: 50
visa:
  timeout_ms: 2500
  read_termination: "\r\n"
  resources:
    - TCPIP0::192.168.1.50::5025::SOCKET
    - GPIB0::12::INSTR
  scan_serial: false
  serial:
    baud_rate: 115200
    parity: E
  gpib:
    controller: /dev/ttyUSB0
audit:
  enabled: true
  dir: /var/log/scpicon
metrics:
  addr: ":9464"
simulator:
  idle_timeout_ms: 30000
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Console.HistoryLimit != 50 {
		t.Errorf("Expected history limit 50, got %d", cfg.Console.HistoryLimit)
	}
	if cfg.VISA.TimeoutMs != 2500 {
		t.Errorf("Expected timeout 2500, got %d", cfg.VISA.TimeoutMs)
	}
	if cfg.VISA.ReadTermination != "\r\n" || cfg.VISA.WriteTermination != "\n" {
		t.Errorf("Unexpected terminations %q/%q", cfg.VISA.ReadTermination, cfg.VISA.WriteTermination)
	}
	if cfg.Simulator.IdleTimeout() != 30*time.Second {
		t.Errorf("Expected idle timeout 30s, got %v", cfg.Simulator.IdleTimeout())
	}
	if len(cfg.VISA.Resources) != 2 {
		t.Errorf("Expected 2 resources, got %v", cfg.VISA.Resources)
	}
	if cfg.VISA.ScanSerial {
		t.Error("Expected scan_serial false")
	}
	if cfg.VISA.Serial.BaudRate != 115200 || cfg.VISA.Serial.Parity != "E" {
		t.Errorf("Unexpected serial settings %+v", cfg.VISA.Serial)
	}
	if cfg.VISA.Serial.DataBits != 8 {
		t.Errorf("Expected unset data bits to keep default 8, got %d", cfg.VISA.Serial.DataBits)
	}
	if cfg.VISA.GPIB.Controller != "/dev/ttyUSB0" {
		t.Errorf("Unexpected controller %q", cfg.VISA.GPIB.Controller)
	}
	if !cfg.Audit.Enabled || cfg.Audit.Dir != "/var/log/scpicon" || cfg.Audit.MaxBackups != 5 {
		t.Errorf("Unexpected audit settings %+v", cfg.Audit)
	}
	if cfg.Metrics.Addr != ":9464" {
		t.Errorf("Unexpected metrics addr %q", cfg.Metrics.Addr)
	}
	if got := len(cfg.VISA.ManagerOptions()); got != 4 {
		t.Errorf("Expected 4 manager options with a controller, got %d", got)
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for a missing explicit config file")
	}
}

func TestLoadFromEnvPath(t *testing.T) {
	path := writeFile(t, "visa:\n  timeout_ms: 1234\n")
	t.Setenv("SCPICON_CONFIG", path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.VISA.TimeoutMs != 1234 {
		t.Errorf("Expected timeout from SCPICON_CONFIG file, got %d", cfg.VISA.TimeoutMs)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	wd, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(wd) })
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Chdir failed: %v", err)
	}
	t.Setenv("SCPICON_CONFIG", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() without a file should use defaults: %v", err)
	}
	if cfg.VISA.TimeoutMs != 5000 {
		t.Errorf("Expected default timeout, got %d", cfg.VISA.TimeoutMs)
	}
}

func TestLoadMalformedDefaultFileWarns(t *testing.T) {
	wd, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(wd) })
	dir := t.TempDir()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir failed: %v", err)
	}
	t.Setenv("SCPICON_CONFIG", "")
	if err := os.WriteFile(filepath.Join(dir, DefaultFile), []byte("visa: [unclosed\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("A malformed default file should not be fatal: %v", err)
	}
	if len(cfg.Warnings) != 1 || !strings.Contains(cfg.Warnings[0], DefaultFile) {
		t.Errorf("Expected one warning naming %s, got %q", DefaultFile, cfg.Warnings)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeFile(t, "visa: [unclosed\n")
	if _, err := Load(path); err == nil {
		t.Error("Expected error for malformed YAML")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("SCPICON_TIMEOUT_MS", "750")
	t.Setenv("SCPICON_HISTORY_FILE", "/tmp/hist")
	t.Setenv("SCPICON_RESOURCES", "ASRL1::INSTR, ,TCPIP::10.0.0.5::5025::SOCKET")
	t.Setenv("SCPICON_AUDIT_DIR", "/tmp/audit")
	t.Setenv("SCPICON_METRICS_ADDR", "127.0.0.1:9000")

	cfg := getDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.VISA.TimeoutMs != 750 {
		t.Errorf("Expected timeout 750, got %d", cfg.VISA.TimeoutMs)
	}
	if cfg.Console.HistoryFile != "/tmp/hist" || cfg.Console.HistoryPath() != "/tmp/hist" {
		t.Errorf("Unexpected history file %q", cfg.Console.HistoryFile)
	}
	if strings.Join(cfg.VISA.Resources, "|") != "ASRL1::INSTR|TCPIP::10.0.0.5::5025::SOCKET" {
		t.Errorf("Unexpected resources %v", cfg.VISA.Resources)
	}
	if !cfg.Audit.Enabled || cfg.Audit.Dir != "/tmp/audit" {
		t.Errorf("Expected audit enabled in /tmp/audit, got %+v", cfg.Audit)
	}
	if cfg.Metrics.Addr != "127.0.0.1:9000" {
		t.Errorf("Unexpected metrics addr %q", cfg.Metrics.Addr)
	}
}

func TestInvalidEnvValueIgnored(t *testing.T) {
	t.Setenv("SCPICON_TIMEOUT_MS", "fast")

	cfg := getDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.VISA.TimeoutMs != 5000 {
		t.Errorf("Expected invalid override to be ignored, got %d", cfg.VISA.TimeoutMs)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"zero timeout", func(c *Config) { c.VISA.TimeoutMs = 0 }, "timeout"},
		{"huge timeout", func(c *Config) { c.VISA.TimeoutMs = 600001 }, "timeout"},
		{"bad resource", func(c *Config) { c.VISA.Resources = []string{"USB0::1::INSTR"} }, "invalid resource"},
		{"bad parity", func(c *Config) { c.VISA.Serial.Parity = "X" }, "serial"},
		{"bad stop bits", func(c *Config) { c.VISA.Serial.StopBits = "3" }, "serial"},
		{"bad data bits", func(c *Config) { c.VISA.Serial.DataBits = 9 }, "data bits"},
		{"bad baud", func(c *Config) { c.VISA.Serial.BaudRate = 0 }, "baud"},
		{"negative history", func(c *Config) { c.Console.HistoryLimit = -1 }, "history"},
		{"audit without dir", func(c *Config) { c.Audit.Enabled = true; c.Audit.Dir = "" }, "audit"},
		{"empty read termination", func(c *Config) { c.VISA.ReadTermination = "" }, "termination"},
		{"bad port", func(c *Config) { c.Simulator.Port = 70000 }, "port"},
		{"negative idle timeout", func(c *Config) { c.Simulator.IdleTimeoutMs = -1 }, "idle timeout"},
		{"bad cidr", func(c *Config) { c.Simulator.AllowedCIDRs = []string{"10.0.0.0"} }, "CIDR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := getDefaultConfig()
			tt.mutate(cfg)

			err := validateConfig(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestHistoryPathDefault(t *testing.T) {
	t.Setenv("HOME", "/home/operator")

	cfg := getDefaultConfig()
	if got := cfg.Console.HistoryPath(); got != "/home/operator/.instrument_tool_history" {
		t.Errorf("Unexpected default history path %q", got)
	}
}

func TestRotation(t *testing.T) {
	cfg := getDefaultConfig()
	r := cfg.Audit.Rotation()
	if r.MaxSizeMB != 10 || r.MaxBackups != 5 || r.MaxAgeDays != 30 {
		t.Errorf("Unexpected rotation %+v", r)
	}
}
