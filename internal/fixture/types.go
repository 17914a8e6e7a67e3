// Package fixture loads YAML device fixtures: a configuration space,
// described either as a header plus sparse byte writes or as an lspci
// hex dump, together with the capability list it is expected to decode to.
package fixture

import (
	"fmt"
)

// Fixture represents a single device fixture loaded from YAML.
type Fixture struct {
	// ID is the unique fixture identifier (e.g., "ahci-ich9").
	ID string `yaml:"id"`

	// Name is a human-readable name for the device.
	Name string `yaml:"name"`

	// Description explains what the fixture exercises.
	Description string `yaml:"description"`

	// Address is the PCI address reported for the device.
	Address string `yaml:"address,omitempty"`

	// Dump is lspci -x/-xxx output used as the initial bytes.
	Dump string `yaml:"dump,omitempty"`

	// Header sets the configuration header fields.
	Header *Header `yaml:"header,omitempty"`

	// Writes are applied in order after Dump and Header.
	Writes []Write `yaml:"writes,omitempty"`

	// Expect is the decoded list, in walk order.
	Expect []Expectation `yaml:"expect"`

	// Tags for categorizing fixtures.
	Tags []string `yaml:"tags,omitempty"`
}

// Header holds the configuration header fields a fixture can set.
type Header struct {
	Vendor   uint16 `yaml:"vendor"`
	Device   uint16 `yaml:"device"`
	Command  uint16 `yaml:"command,omitempty"`
	Status   uint16 `yaml:"status"`
	Revision uint8  `yaml:"revision,omitempty"`

	// Class is the 24-bit class code, base class in the top byte.
	Class uint32 `yaml:"class"`

	// Type is the raw Header Type register, including the
	// multi-function bit.
	Type uint8 `yaml:"type,omitempty"`

	// Pointer is the Capabilities Pointer register.
	Pointer uint8 `yaml:"pointer"`
}

// Write places bytes at an offset.
type Write struct {
	Offset uint8 `yaml:"offset"`

	// Bytes are whitespace-separated hex octets, e.g. "05 70 01 00".
	Bytes string `yaml:"bytes"`
}

// Expectation is one item of the expected walk: a capability or an error.
type Expectation struct {
	Offset uint8 `yaml:"offset"`

	// Capability is a capability name or alias. For record errors it
	// names the capability that failed.
	Capability string `yaml:"capability,omitempty"`

	// Summary, when set, must equal the one-line description.
	Summary string `yaml:"summary,omitempty"`

	// Error names the expected error: invalid_pointer, truncated_header,
	// cycle, payload_too_short or malformed.
	Error string `yaml:"error,omitempty"`
}

// LoadError provides details about a fixture loading error.
type LoadError struct {
	// File is the path to the file that failed to load.
	File string

	// Message describes the error.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.File == "" {
		return msg
	}
	return e.File + ": " + msg
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
