// Package commands implements the pcicap-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pcicap/pcicap-go/pkg/inspect"
	"github.com/pcicap/pcicap-go/pkg/log"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Device   string
	Category *log.Category
	Scope    *log.ErrorScope
}

// matches reports whether the event passes the filter.
func (f ViewFilter) matches(event log.Event) bool {
	if f.Device != "" && event.Device != f.Device {
		return false
	}
	if f.Category != nil && event.Category != *f.Category {
		return false
	}
	if f.Scope != nil && (event.Error == nil || event.Error.Scope != *f.Scope) {
		return false
	}
	return true
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [scan:id] device CATEGORY
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	device := event.Device
	if device == "" {
		device = "-"
	}

	fmt.Fprintf(w, "%s [scan:%s] %s %s\n", ts, shortenScanID(event.ScanID), device, event.Category)

	switch {
	case event.Header != nil:
		formatHeaderDetails(w, event)
	case event.Capability != nil:
		formatCapabilityDetails(w, event.Capability)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	case event.Summary != nil:
		formatSummaryDetails(w, event.Summary)
	}

	fmt.Fprintln(w) // Blank line between events
}

// shortenScanID returns the first 8 characters of the scan ID.
func shortenScanID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatHeaderDetails(w io.Writer, event log.Event) {
	h := event.Header
	fmt.Fprintf(w, "  Device: %04x:%04x %s\n", event.VendorID, event.DeviceID,
		inspect.DeviceName(event.VendorID, event.DeviceID))
	fmt.Fprintf(w, "  Type: %s  Class: %s  Rev: %02x\n", h.HeaderType, h.ClassCode, h.Revision)
	switch {
	case !h.HasCapabilities:
		fmt.Fprintln(w, "  Capabilities: none")
	default:
		fmt.Fprintf(w, "  Capabilities: [%02x]\n", h.CapabilitiesPointer)
	}
}

func formatCapabilityDetails(w io.Writer, c *log.CapabilityEvent) {
	fmt.Fprintf(w, "  [%02x] (%02x) %s\n", c.Offset, c.ID, c.Name)
	if c.Detail != "" {
		fmt.Fprintf(w, "  %s\n", c.Detail)
	}
}

func formatErrorDetails(w io.Writer, e *log.ErrorEventData) {
	fmt.Fprintf(w, "  Scope: %s\n", e.Scope)
	if e.Offset != nil {
		fmt.Fprintf(w, "  Offset: %02x\n", *e.Offset)
	}
	if e.CapabilityID != nil {
		fmt.Fprintf(w, "  Capability: %02x\n", *e.CapabilityID)
	}
	fmt.Fprintf(w, "  Message: %s\n", e.Message)
	if e.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", e.Context)
	}
}

func formatSummaryDetails(w io.Writer, s *log.SummaryEvent) {
	chain := "no"
	if s.ChainError {
		chain = "yes"
	}
	fmt.Fprintf(w, "  Capabilities: %d  Record errors: %d  Chain error: %s\n",
		s.Capabilities, s.RecordErrors, chain)
	fmt.Fprintf(w, "  Duration: %s\n", formatDuration(s.Duration))
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// ParseCategoryFlag parses a category string from command-line flag (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	c, ok := log.ParseCategory(strings.ToUpper(s))
	if !ok {
		return 0, fmt.Errorf("invalid category: %s (must be header, capability, error, or summary)", s)
	}
	return c, nil
}

// ParseScopeFlag parses an error scope string from command-line flag (case-insensitive).
func ParseScopeFlag(s string) (log.ErrorScope, error) {
	switch strings.ToLower(s) {
	case "device":
		return log.ErrorScopeDevice, nil
	case "chain":
		return log.ErrorScopeChain, nil
	case "record":
		return log.ErrorScopeRecord, nil
	default:
		return 0, fmt.Errorf("invalid scope: %s (must be device, chain, or record)", s)
	}
}

// ParseVendorFlag parses a vendor ID given in hex, with or without 0x.
func ParseVendorFlag(s string) (uint16, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid vendor: %s (must be four hex digits)", s)
	}
	return uint16(v), nil
}

// ParseCapabilityFlag parses a capability given by name, alias, or number.
func ParseCapabilityFlag(s string) (uint8, error) {
	id, ok := inspect.ResolveCapabilityName(s)
	if !ok {
		return 0, fmt.Errorf("invalid capability: %s", s)
	}
	return uint8(id), nil
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		if !filter.matches(event) {
			continue
		}

		formatEvent(output, event)
	}

	return nil
}
