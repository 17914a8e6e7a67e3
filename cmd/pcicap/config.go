package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/pcicap/pcicap-go/pkg/configspace"
)

// ErrInvalidConfig is returned when the configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the pcicap settings shared by all commands.
type Config struct {
	// SysfsRoot is the directory with one entry per PCI function.
	SysfsRoot string `yaml:"sysfs_root"`

	// Concurrency bounds the number of devices decoded in parallel.
	Concurrency int `yaml:"concurrency"`

	// TraceFile receives the CBOR scan trace when set.
	TraceFile string `yaml:"trace_file"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// Verbose prints register details below each capability.
	Verbose bool `yaml:"verbose"`

	// ShowIDs prints numeric capability IDs next to names.
	ShowIDs bool `yaml:"show_ids"`

	// Names resolves vendor and device names from the PCI ID database.
	Names bool `yaml:"names"`
}

// fileConfig mirrors the TOML keys; definedness is checked per key.
type fileConfig struct {
	SysfsRoot   string `toml:"sysfs_root"`
	Concurrency int    `toml:"concurrency"`
	TraceFile   string `toml:"trace_file"`
	LogLevel    string `toml:"log_level"`
	Verbose     bool   `toml:"verbose"`
	ShowIDs     bool   `toml:"show_ids"`
	Names       bool   `toml:"names"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SysfsRoot:   configspace.DefaultSysfsRoot,
		Concurrency: runtime.NumCPU(),
		LogLevel:    "info",
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SysfsRoot) == "" {
		return fmt.Errorf("%w: sysfs_root is empty", ErrInvalidConfig)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("%w: concurrency must be at least 1, got %d", ErrInvalidConfig, c.Concurrency)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// LoadConfig overlays the settings of a YAML or TOML file onto cfg. Keys
// missing from the file keep their current values.
func LoadConfig(path string, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return loadYAML(path, cfg)
	case ".toml":
		return loadTOML(path, cfg)
	default:
		return fmt.Errorf("load config %s: unsupported format (use .yaml, .yml or .toml)", path)
	}
}

func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}
	return nil
}

func loadTOML(path string, cfg *Config) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("sysfs_root") {
		cfg.SysfsRoot = strings.TrimSpace(raw.SysfsRoot)
	}
	if meta.IsDefined("concurrency") {
		cfg.Concurrency = raw.Concurrency
	}
	if meta.IsDefined("trace_file") {
		cfg.TraceFile = strings.TrimSpace(raw.TraceFile)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("verbose") {
		cfg.Verbose = raw.Verbose
	}
	if meta.IsDefined("show_ids") {
		cfg.ShowIDs = raw.ShowIDs
	}
	if meta.IsDefined("names") {
		cfg.Names = raw.Names
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load config %s: unknown key %q", path, undecoded[0].String())
	}
	return nil
}

// configFlags holds the flag values shared by all subcommands.
type configFlags struct {
	configFile  string
	sysfsRoot   string
	concurrency int
	traceFile   string
	logLevel    string
	verbose     bool
	showIDs     bool
	names       bool
}

// register adds the shared flags to fs.
func (f *configFlags) register(fs *flag.FlagSet) {
	def := DefaultConfig()
	fs.StringVar(&f.configFile, "config", "", "Configuration file (.yaml, .yml or .toml)")
	fs.StringVar(&f.sysfsRoot, "root", def.SysfsRoot, "Directory with one entry per PCI function")
	fs.IntVar(&f.concurrency, "concurrency", def.Concurrency, "Devices decoded in parallel")
	fs.StringVar(&f.traceFile, "trace", "", "Write the scan trace to this file")
	fs.StringVar(&f.logLevel, "log-level", def.LogLevel, "Log level: debug, info, warn, error")
	fs.BoolVar(&f.verbose, "v", false, "Print register details")
	fs.BoolVar(&f.showIDs, "ids", false, "Print numeric capability IDs")
	fs.BoolVar(&f.names, "names", false, "Resolve vendor and device names")
}

// resolve builds the effective configuration: defaults, then the config
// file, then the flags given on the command line.
func (f *configFlags) resolve(fs *flag.FlagSet) (Config, error) {
	cfg := DefaultConfig()
	if f.configFile != "" {
		if err := LoadConfig(f.configFile, &cfg); err != nil {
			return cfg, err
		}
	}

	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "root":
			cfg.SysfsRoot = f.sysfsRoot
		case "concurrency":
			cfg.Concurrency = f.concurrency
		case "trace":
			cfg.TraceFile = f.traceFile
		case "log-level":
			cfg.LogLevel = f.logLevel
		case "v":
			cfg.Verbose = f.verbose
		case "ids":
			cfg.ShowIDs = f.showIDs
		case "names":
			cfg.Names = f.names
		}
	})

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// parseLevel converts a log level name to an slog.Level.
func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", level)
	}
}

// newLogger creates the operational logger writing to w.
func newLogger(cfg Config, w io.Writer) *slog.Logger {
	level, _ := parseLevel(cfg.LogLevel)
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
