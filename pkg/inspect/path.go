// Package inspect renders decoded configuration space for display.
//
// The inspect package offers a unified interface for:
//   - Parsing selector paths (e.g., "0000:00:1f.2/msi" or "@80")
//   - Resolving capability names to IDs and PCI IDs to names
//   - Formatting capabilities and walk errors in lspci notation
package inspect

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pcicap/pcicap-go/pkg/capability"
	"github.com/pcicap/pcicap-go/pkg/configspace"
)

// Path errors.
var (
	ErrEmptyPath         = errors.New("empty path")
	ErrInvalidPath       = errors.New("invalid path format")
	ErrInvalidNumber     = errors.New("invalid numeric value in path")
	ErrUnknownCapability = errors.New("unknown capability name")
)

// Path represents a parsed inspection path.
// Format: [device/]capability or [device/]@offset
type Path struct {
	// Device is the PCI address (empty for the current device).
	Device string

	// ID selects capabilities by identifier (when HasID is true).
	ID    capability.ID
	HasID bool

	// Offset selects the record at a configuration space offset (when
	// HasOffset is true).
	Offset    uint8
	HasOffset bool

	// IsPartial indicates the path names no capability
	// (used for inspect operations that show the whole list).
	IsPartial bool

	// Raw stores the original input string.
	Raw string
}

// ParsePath parses a path string into a Path struct.
//
// Supported formats:
//   - "msi" - capability by name or alias
//   - "0x05" or "#05" - capability by numeric ID
//   - "@80" - record at offset 0x80 (hex, optional 0x prefix)
//   - "0000:00:1f.2/msi" - on a specific device
//   - "0000:00:1f.2" - partial (for listing all capabilities)
func ParsePath(input string) (*Path, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyPath
	}

	// Check for invalid patterns
	if strings.HasPrefix(input, "/") || strings.HasSuffix(input, "/") || strings.Contains(input, "//") {
		return nil, ErrInvalidPath
	}

	parts := strings.Split(input, "/")
	if len(parts) > 2 {
		return nil, ErrInvalidPath
	}

	p := &Path{Raw: input}

	// Addresses always contain a colon, capability selectors never do.
	if strings.Contains(parts[0], ":") {
		addr, err := configspace.ParseAddress(parts[0])
		if err != nil {
			return nil, fmt.Errorf("device: %w", err)
		}
		p.Device = addr.String()
		parts = parts[1:]
	} else if len(parts) > 1 {
		return nil, fmt.Errorf("device: %w: %s", ErrInvalidPath, parts[0])
	}

	if len(parts) == 0 {
		p.IsPartial = true
		return p, nil
	}

	selector := parts[0]
	if off, ok := strings.CutPrefix(selector, "@"); ok {
		offset, err := parseOffset(off)
		if err != nil {
			return nil, fmt.Errorf("offset: %w", err)
		}
		p.Offset = offset
		p.HasOffset = true
		return p, nil
	}

	id, ok := ResolveCapabilityName(selector)
	if !ok {
		return nil, fmt.Errorf("capability: %w: %s", ErrUnknownCapability, selector)
	}
	p.ID = id
	p.HasID = true
	return p, nil
}

// String returns the path as a string.
func (p *Path) String() string {
	var sb strings.Builder

	if p.Device != "" {
		sb.WriteString(p.Device)
		if p.IsPartial {
			return sb.String()
		}
		sb.WriteString("/")
	}

	switch {
	case p.HasOffset:
		sb.WriteString(fmt.Sprintf("@%02x", p.Offset))
	case p.HasID:
		sb.WriteString(fmt.Sprintf("#%02x", uint8(p.ID)))
	}
	return sb.String()
}

// Matches reports whether a decoded capability is selected by the path.
// Partial paths select everything.
func (p *Path) Matches(c capability.Capability) bool {
	switch {
	case p.HasOffset:
		return c.Offset == p.Offset
	case p.HasID:
		return c.ID() == p.ID
	default:
		return true
	}
}

// MatchesError reports whether a walk error is selected by the path.
// Chain errors carry no identifier, so they only match by offset.
func (p *Path) MatchesError(err error) bool {
	var ce *capability.Error
	if !errors.As(err, &ce) {
		return p.IsPartial
	}
	switch {
	case p.HasOffset:
		return ce.Offset == p.Offset
	case p.HasID:
		return !ce.Structural() && ce.ID == p.ID
	default:
		return true
	}
}

// parseOffset parses a configuration space offset, always hex.
func parseOffset(s string) (uint8, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidNumber, s)
	}
	return uint8(v), nil
}

// parseUint8 parses a uint8 from decimal or hex string.
func parseUint8(s string) (uint8, error) {
	var v uint64
	var err error

	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err = strconv.ParseUint(s[2:], 16, 8)
	} else {
		v, err = strconv.ParseUint(s, 10, 8)
	}
	if err != nil {
		return 0, err
	}
	return uint8(v), nil
}
