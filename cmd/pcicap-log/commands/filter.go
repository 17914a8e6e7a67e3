package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/pcicap/pcicap-go/pkg/log"
)

// FilterOptions specifies filtering criteria for the filter command.
type FilterOptions struct {
	Output     string
	ScanID     string
	Device     string
	Vendor     string
	Capability string
	TimeStart  string
	TimeEnd    string
	Category   string
	Scope      string
}

// buildFilter converts the command-line options into a log.Filter.
func buildFilter(opts FilterOptions) (log.Filter, error) {
	filter := log.Filter{
		ScanID: opts.ScanID,
		Device: opts.Device,
	}

	if opts.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeStart)
		if err != nil {
			return filter, fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}

	if opts.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeEnd)
		if err != nil {
			return filter, fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}

	if opts.Vendor != "" {
		v, err := ParseVendorFlag(opts.Vendor)
		if err != nil {
			return filter, err
		}
		filter.VendorID = &v
	}

	if opts.Capability != "" {
		id, err := ParseCapabilityFlag(opts.Capability)
		if err != nil {
			return filter, err
		}
		filter.CapabilityID = &id
	}

	if opts.Category != "" {
		c, err := ParseCategoryFlag(opts.Category)
		if err != nil {
			return filter, err
		}
		filter.Category = &c
	}

	if opts.Scope != "" {
		s, err := ParseScopeFlag(opts.Scope)
		if err != nil {
			return filter, err
		}
		filter.Scope = &s
	}

	return filter, nil
}

// RunFilter filters the trace file and writes matching events to a new
// file. It returns the number of events written.
func RunFilter(path string, opts FilterOptions) (int, error) {
	if opts.Output == "" {
		return 0, fmt.Errorf("output file is required")
	}

	filter, err := buildFilter(opts)
	if err != nil {
		return 0, err
	}

	// Open input
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	// Create file logger to write filtered events
	logger, err := log.NewFileLogger(opts.Output)
	if err != nil {
		return 0, fmt.Errorf("failed to create output logger: %w", err)
	}
	defer logger.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, fmt.Errorf("failed to read event: %w", err)
		}

		logger.Log(event)
		count++
	}

	if err := logger.Err(); err != nil {
		return count, fmt.Errorf("failed to write events: %w", err)
	}
	return count, nil
}
