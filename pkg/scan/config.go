package scan

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/pcicap/pcicap-go/pkg/configspace"
	"github.com/pcicap/pcicap-go/pkg/log"
)

// ErrInvalidConfig is returned when a Config fails validation.
var ErrInvalidConfig = errors.New("invalid scan configuration")

// Config configures a Scanner.
type Config struct {
	// Root is the directory holding one entry per PCI function, each with
	// a config file.
	Root string

	// Concurrency bounds the number of devices decoded in parallel.
	Concurrency int

	// Trace receives scan events. Nil disables tracing.
	Trace log.Logger

	// Logger receives operational messages. Nil uses slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Root:        configspace.DefaultSysfsRoot,
		Concurrency: runtime.NumCPU(),
	}
}

// Validate checks if the scan config is valid.
func (c *Config) Validate() error {
	if c.Root == "" {
		return fmt.Errorf("%w: root is empty", ErrInvalidConfig)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("%w: concurrency %d", ErrInvalidConfig, c.Concurrency)
	}
	return nil
}
