package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeBatch  = "batch"
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Output formats
	FormatJSON = "json"
	FormatYAML = "yaml"

	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 200 * 1024 * 1024 // 200MB

	// Directory permissions
	DefaultDirPerm = 0o750

	envPrefix = "PROC_EXTRACT"
)

var envKeyReplacer = strings.NewReplacer(".", "_", "-", "_")

// Calibration holds the heuristics' tunable thresholds.
type Calibration struct {
	OCRLanguage       string
	OCRDPI            float64
	MinTextChars      int // pages with at most this many characters are treated as scans
	MinImageWidth     int
	MinImageHeight    int
	UpscaleBelowWidth int
	UpscaleFactor     int
	MinImageTextChars int
	NoteWindowBefore  int // characters scanned before a credit-note number
	NoteWindowAfter   int // characters scanned after it
}

// DefaultCalibration returns the thresholds tuned against real process files.
func DefaultCalibration() Calibration {
	return Calibration{
		OCRLanguage:       "por",
		OCRDPI:            300,
		MinTextChars:      30,
		MinImageWidth:     200,
		MinImageHeight:    100,
		UpscaleBelowWidth: 1500,
		UpscaleFactor:     3,
		MinImageTextChars: 20,
		NoteWindowBefore:  300,
		NoteWindowAfter:   3000,
	}
}

// Config holds all configuration for the extractor
type Config struct {
	// Server configuration
	Mode string // "batch", "stdio" or "server"
	Host string
	Port int

	// Batch configuration
	Inputs    []string
	OutputDir string
	Format    string
	Workers   int

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	LogFile     string
	MaxFileSize int64 // Maximum PDF file size in bytes
	OCR         bool
	Root        string // Directory MCP tool paths are confined to (optional)

	Calibration Calibration
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Mode:        ModeBatch,
		Host:        DefaultHost,
		Port:        DefaultPort,
		Format:      FormatJSON,
		Workers:     max(1, runtime.NumCPU()/2),
		Version:     "1.0.0",
		ServerName:  "process-extractor",
		LogLevel:    DefaultLogLevel,
		MaxFileSize: DefaultMaxFileSize,
		OCR:         true,
		Calibration: DefaultCalibration(),
	}
}

// LoadFromFlags parses command line flags and returns a configuration.
// A .env file in the working directory is loaded first, if present.
func LoadFromFlags() (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)
	cfg.Inputs = pflag.Args()

	if cfg.OutputDir != "" {
		if expandedPath, err := filepath.Abs(cfg.OutputDir); err == nil {
			cfg.OutputDir = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("output", cfg.OutputDir)
	viper.SetDefault("format", cfg.Format)
	viper.SetDefault("workers", cfg.Workers)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("logfile", cfg.LogFile)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("ocr.enabled", cfg.OCR)
	viper.SetDefault("root", cfg.Root)

	c := cfg.Calibration
	viper.SetDefault("ocr.lang", c.OCRLanguage)
	viper.SetDefault("ocr.dpi", c.OCRDPI)
	viper.SetDefault("ocr.min_text", c.MinTextChars)
	viper.SetDefault("ocr.min_image_width", c.MinImageWidth)
	viper.SetDefault("ocr.min_image_height", c.MinImageHeight)
	viper.SetDefault("ocr.upscale_below", c.UpscaleBelowWidth)
	viper.SetDefault("ocr.upscale_factor", c.UpscaleFactor)
	viper.SetDefault("ncwindow.before", c.NoteWindowBefore)
	viper.SetDefault("ncwindow.after", c.NoteWindowAfter)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Run mode: 'batch' to process files, 'stdio' for MCP standard I/O, 'server' for MCP over HTTP/SSE")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.StringP("output", "o", cfg.OutputDir, "Directory for result files (batch mode; stdout when empty)")
	pflag.StringP("format", "f", cfg.Format, "Result format: json or yaml")
	pflag.IntP("workers", "w", cfg.Workers, "Number of PDFs processed concurrently (batch mode)")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.String("logfile", cfg.LogFile, "Rotating log file path (optional)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	pflag.String("root", cfg.Root, "Only allow MCP tools to read PDFs under this directory")
	pflag.Bool("ocr", cfg.OCR, "Use OCR for scanned pages and embedded images when available")
	pflag.String("ocr-lang", cfg.Calibration.OCRLanguage, "Tesseract language")
	pflag.Float64("ocr-dpi", cfg.Calibration.OCRDPI, "Rendering resolution for full-page OCR")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range []string{
		"mode", "host", "port", "output", "format", "workers",
		"loglevel", "logfile", "maxfilesize", "root",
	} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
	_ = viper.BindPFlag("ocr.enabled", pflag.Lookup("ocr"))
	_ = viper.BindPFlag("ocr.lang", pflag.Lookup("ocr-lang"))
	_ = viper.BindPFlag("ocr.dpi", pflag.Lookup("ocr-dpi"))
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nProcess Extractor - structured data from military procurement process PDFs\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s processo.pdf                          # print JSON result\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -o out/ -f yaml *.pdf                 # one YAML file per PDF\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=stdio                          # MCP over stdio\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --host=0.0.0.0          # MCP over HTTP\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  PROC_EXTRACT_MODE, PROC_EXTRACT_PORT, PROC_EXTRACT_LOGLEVEL, PROC_EXTRACT_OCR_ENABLED,\n")
		fmt.Fprintf(os.Stderr, "  PROC_EXTRACT_OCR_LANG, PROC_EXTRACT_NCWINDOW_AFTER, ... (also read from .env)\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return ErrVersionRequested
		}
	}
	return nil
}

// ErrVersionRequested signals that only the version should be printed.
var ErrVersionRequested = errors.New("version requested")

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.OutputDir = viper.GetString("output")
	cfg.Format = viper.GetString("format")
	cfg.Workers = viper.GetInt("workers")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.LogFile = viper.GetString("logfile")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.OCR = viper.GetBool("ocr.enabled")
	cfg.Root = viper.GetString("root")

	c := &cfg.Calibration
	c.OCRLanguage = viper.GetString("ocr.lang")
	c.OCRDPI = viper.GetFloat64("ocr.dpi")
	c.MinTextChars = viper.GetInt("ocr.min_text")
	c.MinImageWidth = viper.GetInt("ocr.min_image_width")
	c.MinImageHeight = viper.GetInt("ocr.min_image_height")
	c.UpscaleBelowWidth = viper.GetInt("ocr.upscale_below")
	c.UpscaleFactor = viper.GetInt("ocr.upscale_factor")
	c.NoteWindowBefore = viper.GetInt("ncwindow.before")
	c.NoteWindowAfter = viper.GetInt("ncwindow.after")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeBatch, ModeStdio, ModeServer:
	default:
		return errors.New("mode must be one of 'batch', 'stdio' or 'server'")
	}

	// Validate port range (only for server mode)
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.Mode == ModeBatch && len(c.Inputs) == 0 {
		return errors.New("batch mode needs at least one PDF path")
	}

	if c.Format != FormatJSON && c.Format != FormatYAML {
		return fmt.Errorf("invalid format: %s (must be json or yaml)", c.Format)
	}

	if c.Workers < 1 {
		return errors.New("workers must be at least 1")
	}

	// Create the output directory if needed
	if c.OutputDir != "" {
		if _, err := os.Stat(c.OutputDir); os.IsNotExist(err) {
			if err := os.MkdirAll(c.OutputDir, DefaultDirPerm); err != nil {
				return fmt.Errorf("cannot create output directory %s: %w", c.OutputDir, err)
			}
		} else if err != nil {
			return fmt.Errorf("cannot access output directory %s: %w", c.OutputDir, err)
		}
	}

	if c.Root != "" {
		if info, err := os.Stat(c.Root); err != nil || !info.IsDir() {
			return fmt.Errorf("root must be an existing directory: %s", c.Root)
		}
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return c.Calibration.Validate()
}

// Validate rejects thresholds that would disable the heuristics.
func (c Calibration) Validate() error {
	if c.OCRDPI < 72 {
		return fmt.Errorf("ocr dpi too low: %v", c.OCRDPI)
	}
	if c.MinTextChars < 0 || c.MinImageWidth < 0 || c.MinImageHeight < 0 {
		return errors.New("calibration thresholds cannot be negative")
	}
	if c.UpscaleFactor < 1 {
		return errors.New("upscale factor must be at least 1")
	}
	if c.NoteWindowBefore < 0 || c.NoteWindowAfter <= 0 {
		return errors.New("credit-note window must be positive")
	}
	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, Inputs: %d, OutputDir: %s, Format: %s, Workers: %d, LogLevel: %s, OCR: %t}",
		c.Mode, c.Host, c.Port, len(c.Inputs), c.OutputDir, c.Format, c.Workers, c.LogLevel, c.OCR)
}

// IsServerMode returns true if running as an MCP HTTP server
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if running as an MCP stdio server
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}

// IsBatchMode returns true if processing files from the command line
func (c *Config) IsBatchMode() bool {
	return c.Mode == ModeBatch
}
