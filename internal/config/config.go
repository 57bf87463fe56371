package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/instrument-tool/scpicon/internal/audit"
	"github.com/instrument-tool/scpicon/internal/visa"
)

// DefaultFile is loaded from the working directory when no file is named.
const DefaultFile = "scpicon.yaml"

// DefaultHistoryFile is the history file name in the user's home directory.
const DefaultHistoryFile = ".instrument_tool_history"

// Config represents the complete configuration for the console
type Config struct {
	Console   ConsoleConfig   `yaml:"console"`
	VISA      VISAConfig      `yaml:"visa"`
	Audit     AuditConfig     `yaml:"audit"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Simulator SimulatorConfig `yaml:"simulator"`

	// Warnings collects non-fatal problems found by Load, for logging once
	// logging is configured.
	Warnings []string `yaml:"-"`
}

// ConsoleConfig holds prompt and history settings
type ConsoleConfig struct {
	Prompt       string `yaml:"prompt"`
	HistoryFile  string `yaml:"history_file"` // Empty means ~/.instrument_tool_history
	HistoryLimit int    `yaml:"history_limit"`
	OutputDir    string `yaml:"output_dir"` // Relative capture files are written here
}

// VISAConfig holds transport settings
type VISAConfig struct {
	TimeoutMs        int          `yaml:"timeout_ms"`
	ReadTermination  string       `yaml:"read_termination"` // e.g. "\r\n"
	WriteTermination string       `yaml:"write_termination"`
	Resources        []string     `yaml:"resources"`
	ScanSerial       bool         `yaml:"scan_serial"`
	Serial           SerialConfig `yaml:"serial"`
	GPIB             GPIBConfig   `yaml:"gpib"`
}

// SerialConfig holds ASRL line settings
type SerialConfig struct {
	BaudRate int    `yaml:"baud_rate"`
	DataBits int    `yaml:"data_bits"`
	Parity   string `yaml:"parity"`    // N, E, O, M, S
	StopBits string `yaml:"stop_bits"` // 1, 1.5, 2
}

// GPIBConfig holds the GPIB controller settings
type GPIBConfig struct {
	Controller string `yaml:"controller"` // Serial device of a Prologix-style controller
}

// AuditConfig holds audit log settings
type AuditConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Dir        string `yaml:"dir"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// LogConfig holds diagnostic log settings
type LogConfig struct {
	File       string `yaml:"file"` // Empty discards diagnostics in the interactive console
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// MetricsConfig holds the Prometheus listener settings
type MetricsConfig struct {
	Addr string `yaml:"addr"` // Empty disables the listener
}

// SimulatorConfig holds settings for the built-in SCPI simulator
type SimulatorConfig struct {
	Port          int      `yaml:"port"`
	IDN           string   `yaml:"idn"`
	AllowedCIDRs  []string `yaml:"allowed_cidrs"`
	IdleTimeoutMs int      `yaml:"idle_timeout_ms"` // Zero keeps idle clients connected
}

// Load loads configuration from defaults, a YAML file and environment
// variables. An explicit path or SCPICON_CONFIG must exist; the default file
// is optional.
func Load(path string) (*Config, error) {
	cfg := getDefaultConfig()

	if path == "" {
		path = os.Getenv("SCPICON_CONFIG")
	}

	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %v", path, err)
		}
	} else if err := loadFromFile(cfg, DefaultFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("Could not load %s: %v", DefaultFile, err))
	}

	applyEnvOverrides(cfg)

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %v", err)
	}

	return cfg, nil
}

// getDefaultConfig returns the default configuration
func getDefaultConfig() *Config {
	serial := visa.DefaultSerialSettings()
	return &Config{
		Console: ConsoleConfig{
			Prompt:       "(instrument) ",
			HistoryLimit: 1000,
		},
		VISA: VISAConfig{
			TimeoutMs:        int(visa.DefaultTimeout / time.Millisecond),
			ReadTermination:  "\n",
			WriteTermination: "\n",
			ScanSerial:       true,
			Serial: SerialConfig{
				BaudRate: serial.BaudRate,
				DataBits: serial.DataBits,
				Parity:   serial.Parity,
				StopBits: serial.StopBits,
			},
		},
		Audit: AuditConfig{
			Enabled:    false,
			Dir:        "audit",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
		Log: LogConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Simulator: SimulatorConfig{
			Port:         5025,
			IDN:          "SCPICON,SIMULATOR,0001,1.0",
			AllowedCIDRs: []string{"127.0.0.0/8", "::1/128"},
		},
	}
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(cfg *Config, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides applies environment variable overrides. Values that do
// not parse are ignored.
func applyEnvOverrides(cfg *Config) {
	if timeout := os.Getenv("SCPICON_TIMEOUT_MS"); timeout != "" {
		if ms, err := strconv.Atoi(timeout); err == nil {
			cfg.VISA.TimeoutMs = ms
		}
	}

	if history := os.Getenv("SCPICON_HISTORY_FILE"); history != "" {
		cfg.Console.HistoryFile = history
	}

	if resources := os.Getenv("SCPICON_RESOURCES"); resources != "" {
		cfg.VISA.Resources = nil
		for _, r := range strings.Split(resources, ",") {
			if r = strings.TrimSpace(r); r != "" {
				cfg.VISA.Resources = append(cfg.VISA.Resources, r)
			}
		}
	}

	if dir := os.Getenv("SCPICON_AUDIT_DIR"); dir != "" {
		cfg.Audit.Dir = dir
		cfg.Audit.Enabled = true
	}

	if addr := os.Getenv("SCPICON_METRICS_ADDR"); addr != "" {
		cfg.Metrics.Addr = addr
	}
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.VISA.TimeoutMs <= 0 || cfg.VISA.TimeoutMs > 600000 {
		return fmt.Errorf("timeout %d ms is outside reasonable range [1, 600000]", cfg.VISA.TimeoutMs)
	}

	if cfg.VISA.ReadTermination == "" {
		return fmt.Errorf("read termination must not be empty")
	}

	for _, r := range cfg.VISA.Resources {
		if _, err := visa.ParseResource(r); err != nil {
			return fmt.Errorf("invalid resource %q: %v", r, err)
		}
	}

	if cfg.VISA.Serial.BaudRate <= 0 {
		return fmt.Errorf("invalid baud rate %d", cfg.VISA.Serial.BaudRate)
	}

	if cfg.VISA.Serial.DataBits < 5 || cfg.VISA.Serial.DataBits > 8 {
		return fmt.Errorf("data bits %d is outside range [5, 8]", cfg.VISA.Serial.DataBits)
	}

	if _, err := cfg.VISA.Serial.Settings().Mode(); err != nil {
		return fmt.Errorf("invalid serial settings: %v", err)
	}

	if cfg.Console.HistoryLimit < 0 {
		return fmt.Errorf("history limit %d must not be negative", cfg.Console.HistoryLimit)
	}

	if cfg.Audit.Enabled && cfg.Audit.Dir == "" {
		return fmt.Errorf("audit is enabled but no directory is configured")
	}

	if cfg.Simulator.Port < 0 || cfg.Simulator.Port > 65535 {
		return fmt.Errorf("invalid simulator port %d", cfg.Simulator.Port)
	}

	if cfg.Simulator.IdleTimeoutMs < 0 {
		return fmt.Errorf("simulator idle timeout %d ms must not be negative", cfg.Simulator.IdleTimeoutMs)
	}

	for _, cidr := range cfg.Simulator.AllowedCIDRs {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			return fmt.Errorf("invalid allowed CIDR %q: %v", cidr, err)
		}
	}

	return nil
}

// Timeout returns the I/O timeout as a duration.
func (c VISAConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// IdleTimeout returns the simulator client idle timeout as a duration.
func (c SimulatorConfig) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutMs) * time.Millisecond
}

// Settings converts the serial section to transport settings.
func (c SerialConfig) Settings() visa.SerialSettings {
	return visa.SerialSettings{
		BaudRate: c.BaudRate,
		DataBits: c.DataBits,
		Parity:   c.Parity,
		StopBits: c.StopBits,
	}
}

// ManagerOptions returns the resource manager options for this section.
func (c VISAConfig) ManagerOptions() []visa.ManagerOption {
	opts := []visa.ManagerOption{
		visa.WithResources(c.Resources...),
		visa.WithSerialScan(c.ScanSerial),
		visa.WithSerialSettings(c.Serial.Settings()),
	}
	if c.GPIB.Controller != "" {
		opts = append(opts, visa.WithGPIBController(c.GPIB.Controller))
	}
	return opts
}

// Rotation returns the audit file rotation limits.
func (c AuditConfig) Rotation() audit.Rotation {
	return audit.Rotation{
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
	}
}

// HistoryPath returns the history file, defaulting to the home directory.
func (c ConsoleConfig) HistoryPath() string {
	if c.HistoryFile != "" {
		return c.HistoryFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultHistoryFile
	}
	return filepath.Join(home, DefaultHistoryFile)
}
