package log

import (
	"time"
)

// Event represents one step of a capability scan.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ScanID identifies the scan run (UUID).
	ScanID string `cbor:"2,keyasint"`

	// Device is the function address, e.g. "0000:00:1f.2". It is empty for
	// spaces read from dumps without a title line.
	Device string `cbor:"3,keyasint,omitempty"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// VendorID and DeviceID are populated once the header is parsed.
	VendorID uint16 `cbor:"5,keyasint,omitempty"`
	DeviceID uint16 `cbor:"6,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Header     *HeaderEvent     `cbor:"10,keyasint,omitempty"` // Configuration header
	Capability *CapabilityEvent `cbor:"11,keyasint,omitempty"` // Decoded record
	Error      *ErrorEventData  `cbor:"12,keyasint,omitempty"` // Device, chain or record error
	Summary    *SummaryEvent    `cbor:"13,keyasint,omitempty"` // End of device
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryHeader indicates a parsed configuration header.
	CategoryHeader Category = 0
	// CategoryCapability indicates a decoded capability.
	CategoryCapability Category = 1
	// CategoryError indicates an error event.
	CategoryError Category = 2
	// CategorySummary indicates the end of a device scan.
	CategorySummary Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryHeader:
		return "HEADER"
	case CategoryCapability:
		return "CAPABILITY"
	case CategoryError:
		return "ERROR"
	case CategorySummary:
		return "SUMMARY"
	default:
		return "UNKNOWN"
	}
}

// ParseCategory returns the category with the given name.
func ParseCategory(s string) (Category, bool) {
	for c := CategoryHeader; c <= CategorySummary; c++ {
		if c.String() == s {
			return c, true
		}
	}
	return 0, false
}

// HeaderEvent captures the configuration header facts decoding depends on.
type HeaderEvent struct {
	// HeaderType is the layout name ("Normal", "Bridge", "CardBus").
	HeaderType string `cbor:"1,keyasint"`

	// ClassCode as six hex digits, base class first.
	ClassCode string `cbor:"2,keyasint"`

	Revision uint8 `cbor:"3,keyasint,omitempty"`

	// CapabilitiesPointer is the first list pointer (0 if absent).
	CapabilitiesPointer uint8 `cbor:"4,keyasint,omitempty"`

	// HasCapabilities mirrors the Status register bit.
	HasCapabilities bool `cbor:"5,keyasint,omitempty"`
}

// CapabilityEvent captures one decoded capability.
type CapabilityEvent struct {
	// Offset in configuration space.
	Offset uint8 `cbor:"1,keyasint"`

	// ID is the raw capability identifier.
	ID uint8 `cbor:"2,keyasint"`

	// Name is the capability name.
	Name string `cbor:"3,keyasint"`

	// Detail is a one-line rendering of the decoded fields.
	Detail string `cbor:"4,keyasint,omitempty"`
}

// ErrorScope indicates what an error applies to.
type ErrorScope uint8

const (
	// ErrorScopeDevice indicates the device could not be read or parsed.
	ErrorScopeDevice ErrorScope = 0
	// ErrorScopeChain indicates an error that ended the capabilities list.
	ErrorScopeChain ErrorScope = 1
	// ErrorScopeRecord indicates a single record failed to decode.
	ErrorScopeRecord ErrorScope = 2
)

// String returns the scope name.
func (s ErrorScope) String() string {
	switch s {
	case ErrorScopeDevice:
		return "DEVICE"
	case ErrorScopeChain:
		return "CHAIN"
	case ErrorScopeRecord:
		return "RECORD"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any scope.
type ErrorEventData struct {
	// Scope of the error.
	Scope ErrorScope `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Offset is the list pointer being followed (chain and record scope).
	Offset *uint8 `cbor:"3,keyasint,omitempty"`

	// CapabilityID is the identifier read at Offset (record scope only).
	CapabilityID *uint8 `cbor:"4,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"5,keyasint,omitempty"`
}

// SummaryEvent closes the events of one device.
type SummaryEvent struct {
	// Capabilities is the number of capabilities decoded successfully.
	Capabilities int `cbor:"1,keyasint"`

	// RecordErrors is the number of records that failed to decode.
	RecordErrors int `cbor:"2,keyasint,omitempty"`

	// ChainError is set when the list ended with a structural error.
	ChainError bool `cbor:"3,keyasint,omitempty"`

	// Duration is the time spent on the device. Stored as nanoseconds.
	Duration time.Duration `cbor:"4,keyasint"`
}
