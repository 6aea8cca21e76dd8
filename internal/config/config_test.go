package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Mode != ModeBatch {
		t.Errorf("Expected default mode to be 'batch', got '%s'", cfg.Mode)
	}

	if cfg.Format != FormatJSON {
		t.Errorf("Expected default format to be 'json', got '%s'", cfg.Format)
	}

	if cfg.Workers < 1 {
		t.Errorf("Expected at least one worker, got %d", cfg.Workers)
	}

	if !cfg.OCR {
		t.Error("Expected OCR to be enabled by default")
	}

	c := cfg.Calibration
	if c.MinTextChars != 30 || c.OCRDPI != 300 || c.UpscaleFactor != 3 {
		t.Errorf("Unexpected calibration defaults: %+v", c)
	}
	if c.NoteWindowBefore != 300 || c.NoteWindowAfter != 3000 {
		t.Errorf("Unexpected credit-note window: %d/%d", c.NoteWindowBefore, c.NoteWindowAfter)
	}
}

func validConfig(mode string) *Config {
	cfg := DefaultConfig()
	cfg.Mode = mode
	cfg.Inputs = []string{"processo.pdf"}
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid batch", func(*Config) {}, false},
		{"valid stdio without inputs", func(c *Config) { c.Mode = ModeStdio; c.Inputs = nil }, false},
		{"valid server", func(c *Config) { c.Mode = ModeServer }, false},
		{"invalid mode", func(c *Config) { c.Mode = "invalid" }, true},
		{"batch without inputs", func(c *Config) { c.Inputs = nil }, true},
		{"port too low in server mode", func(c *Config) { c.Mode = ModeServer; c.Port = 0 }, true},
		{"port too high in server mode", func(c *Config) { c.Mode = ModeServer; c.Port = 70000 }, true},
		{"port ignored in stdio mode", func(c *Config) { c.Mode = ModeStdio; c.Port = 0 }, false},
		{"invalid format", func(c *Config) { c.Format = "xml" }, true},
		{"zero workers", func(c *Config) { c.Workers = 0 }, true},
		{"invalid log level", func(c *Config) { c.LogLevel = "invalid" }, true},
		{"invalid max file size", func(c *Config) { c.MaxFileSize = 0 }, true},
		{"dpi too low", func(c *Config) { c.Calibration.OCRDPI = 10 }, true},
		{"empty credit-note window", func(c *Config) { c.Calibration.NoteWindowAfter = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(ModeBatch)
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigValidateCreatesOutputDir(t *testing.T) {
	tempDir := t.TempDir()
	out := filepath.Join(tempDir, "results", "nested")

	cfg := validConfig(ModeBatch)
	cfg.OutputDir = out
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if info, err := os.Stat(out); err != nil || !info.IsDir() {
		t.Errorf("Expected output directory %s to be created", out)
	}
}

func TestConfigAddress(t *testing.T) {
	cfg := &Config{
		Host: "192.168.1.1",
		Port: 9090,
	}

	expected := "192.168.1.1:9090"
	if got := cfg.Address(); got != expected {
		t.Errorf("Config.Address() = %v, want %v", got, expected)
	}
}

func TestConfigModes(t *testing.T) {
	tests := []struct {
		mode                 string
		batch, stdio, server bool
	}{
		{ModeBatch, true, false, false},
		{ModeStdio, false, true, false},
		{ModeServer, false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			cfg := &Config{Mode: tt.mode}
			if cfg.IsBatchMode() != tt.batch || cfg.IsStdioMode() != tt.stdio || cfg.IsServerMode() != tt.server {
				t.Errorf("mode predicates wrong for %s", tt.mode)
			}
		})
	}
}

func TestConfigIsDebug(t *testing.T) {
	if !(&Config{LogLevel: "debug"}).IsDebug() {
		t.Error("debug level should report IsDebug")
	}
	if (&Config{LogLevel: "info"}).IsDebug() {
		t.Error("info level should not report IsDebug")
	}
}
