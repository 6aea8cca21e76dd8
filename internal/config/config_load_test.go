package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to reset pflag.CommandLine for testing
func resetFlags() {
	pflag.CommandLine = pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	viper.Reset()
}

// loadWithArgs runs LoadFromFlags against args, restoring the global
// flag state afterwards.
func loadWithArgs(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	originalArgs := os.Args
	t.Cleanup(func() {
		os.Args = originalArgs
		resetFlags()
	})
	os.Args = append([]string{"process-extractor"}, args...)
	resetFlags()
	return LoadFromFlags()
}

func TestLoadFromFlags_Defaults(t *testing.T) {
	cfg, err := loadWithArgs(t, "processo.pdf")
	require.NoError(t, err)

	assert.Equal(t, ModeBatch, cfg.Mode)
	assert.Equal(t, []string{"processo.pdf"}, cfg.Inputs)
	assert.Equal(t, FormatJSON, cfg.Format)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, int64(DefaultMaxFileSize), cfg.MaxFileSize)
	assert.True(t, cfg.OCR)
	assert.Equal(t, DefaultCalibration(), cfg.Calibration)
}

func TestLoadFromFlags_ValidFlags(t *testing.T) {
	out := filepath.Join(t.TempDir(), "results")

	tests := []struct {
		name   string
		args   []string
		verify func(t *testing.T, cfg *Config)
	}{
		{
			name: "stdio mode needs no inputs",
			args: []string{"--mode=stdio"},
			verify: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.IsStdioMode())
				assert.Empty(t, cfg.Inputs)
			},
		},
		{
			name: "server mode with custom address",
			args: []string{"--mode=server", "--host=0.0.0.0", "--port=9090"},
			verify: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "0.0.0.0:9090", cfg.Address())
			},
		},
		{
			name: "batch output options",
			args: []string{"-o", out, "-f", "yaml", "-w", "3", "a.pdf", "b.pdf"},
			verify: func(t *testing.T, cfg *Config) {
				assert.Equal(t, out, cfg.OutputDir)
				assert.DirExists(t, out)
				assert.Equal(t, FormatYAML, cfg.Format)
				assert.Equal(t, 3, cfg.Workers)
				assert.Equal(t, []string{"a.pdf", "b.pdf"}, cfg.Inputs)
			},
		},
		{
			name: "mcp root",
			args: []string{"--mode=stdio", "--root=" + filepath.Dir(out)},
			verify: func(t *testing.T, cfg *Config) {
				assert.Equal(t, filepath.Dir(out), cfg.Root)
			},
		},
		{
			name: "ocr options",
			args: []string{"--ocr=false", "--ocr-lang=por+eng", "--ocr-dpi=200", "x.pdf"},
			verify: func(t *testing.T, cfg *Config) {
				assert.False(t, cfg.OCR)
				assert.Equal(t, "por+eng", cfg.Calibration.OCRLanguage)
				assert.InDelta(t, 200.0, cfg.Calibration.OCRDPI, 0.001)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := loadWithArgs(t, tt.args...)
			require.NoError(t, err)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadFromFlags_EnvironmentVariables(t *testing.T) {
	t.Setenv("PROC_EXTRACT_MODE", "server")
	t.Setenv("PROC_EXTRACT_PORT", "7070")
	t.Setenv("PROC_EXTRACT_NCWINDOW_AFTER", "5000")

	cfg, err := loadWithArgs(t)
	require.NoError(t, err)
	assert.Equal(t, ModeServer, cfg.Mode)
	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, 5000, cfg.Calibration.NoteWindowAfter)
}

func TestLoadFromFlags_FlagOverridesEnvironment(t *testing.T) {
	t.Setenv("PROC_EXTRACT_MODE", "server")

	cfg, err := loadWithArgs(t, "--mode=stdio")
	require.NoError(t, err)
	assert.Equal(t, ModeStdio, cfg.Mode)
}

func TestLoadFromFlags_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"invalid mode", []string{"--mode=daemon"}, "mode must be one of"},
		{"invalid port", []string{"--mode=server", "--port=99999"}, "port must be between"},
		{"invalid log level", []string{"--loglevel=loud", "a.pdf"}, "invalid log level"},
		{"invalid format", []string{"--format=xml", "a.pdf"}, "invalid format"},
		{"batch without inputs", nil, "at least one PDF"},
		{"missing root", []string{"--mode=stdio", "--root=/non/existent/dir"}, "root must be an existing directory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadWithArgs(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFromFlags_VersionFlag(t *testing.T) {
	_, err := loadWithArgs(t, "--version")
	assert.True(t, errors.Is(err, ErrVersionRequested))
}
