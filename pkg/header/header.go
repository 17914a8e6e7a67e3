// Package header decodes the standardized first 64 bytes of a PCI
// function's configuration space.
//
// Only the fields needed to drive capability decoding and basic device
// identification are exposed. Base address registers and the bridge
// window registers are not decoded.
package header

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Size is the length of the standardized configuration header.
const Size = 0x40

// Register offsets within the configuration header.
const (
	offVendorID            = 0x00
	offDeviceID            = 0x02
	offCommand             = 0x04
	offStatus              = 0x06
	offRevision            = 0x08
	offClassCode           = 0x09
	offCacheLineSize       = 0x0c
	offLatencyTimer        = 0x0d
	offHeaderType          = 0x0e
	offBIST                = 0x0f
	offCapabilitiesPointer = 0x34
	offInterruptLine       = 0x3c
	offInterruptPin        = 0x3d
)

// statusCapabilitiesList is the Status register bit indicating that the
// capabilities pointer is valid.
const statusCapabilitiesList = 1 << 4

// ErrTooShort indicates fewer than Size bytes were supplied.
var ErrTooShort = errors.New("configuration header too short")

// Type is the layout of the header, bits 6:0 of the Header Type register.
// It determines the structural role of the function.
type Type uint8

const (
	// TypeNormal is a type 0 header (endpoints).
	TypeNormal Type = 0

	// TypeBridge is a type 1 header (PCI-to-PCI bridges).
	TypeBridge Type = 1

	// TypeCardBus is a type 2 header (CardBus bridges).
	TypeCardBus Type = 2
)

// String returns the header type name.
func (t Type) String() string {
	switch t {
	case TypeNormal:
		return "Normal"
	case TypeBridge:
		return "Bridge"
	case TypeCardBus:
		return "CardBus"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(t))
	}
}

// IsBridge reports whether the header describes a PCI-to-PCI bridge.
func (t Type) IsBridge() bool {
	return t == TypeBridge
}

// ClassCode is the three-byte class code register.
type ClassCode struct {
	// Interface is the register-level programming interface.
	Interface uint8

	// Sub is the sub-class code.
	Sub uint8

	// Base is the base class code.
	Base uint8
}

// String returns the class code as six hex digits, base class first.
func (c ClassCode) String() string {
	return fmt.Sprintf("%02x%02x%02x", c.Base, c.Sub, c.Interface)
}

// Header is a decoded configuration header.
type Header struct {
	VendorID uint16
	DeviceID uint16
	Command  uint16
	Status   uint16
	Revision uint8

	ClassCode ClassCode

	CacheLineSize uint8
	LatencyTimer  uint8

	// Type is the header layout with the multi-function bit removed.
	Type Type

	// MultiFunction is bit 7 of the Header Type register.
	MultiFunction bool

	BIST uint8

	// CapabilitiesPointer is the offset of the first capability, or 0.
	CapabilitiesPointer uint8

	InterruptLine uint8
	InterruptPin  uint8
}

// Parse decodes the configuration header from the start of data.
// Bytes beyond Size are ignored.
func Parse(data []byte) (*Header, error) {
	if len(data) < Size {
		return nil, fmt.Errorf("%w: got %d bytes, need %d", ErrTooShort, len(data), Size)
	}

	ht := data[offHeaderType]
	return &Header{
		VendorID: binary.LittleEndian.Uint16(data[offVendorID:]),
		DeviceID: binary.LittleEndian.Uint16(data[offDeviceID:]),
		Command:  binary.LittleEndian.Uint16(data[offCommand:]),
		Status:   binary.LittleEndian.Uint16(data[offStatus:]),
		Revision: data[offRevision],
		ClassCode: ClassCode{
			Interface: data[offClassCode],
			Sub:       data[offClassCode+1],
			Base:      data[offClassCode+2],
		},
		CacheLineSize:       data[offCacheLineSize],
		LatencyTimer:        data[offLatencyTimer],
		Type:                Type(ht &^ 0x80),
		MultiFunction:       ht&0x80 != 0,
		BIST:                data[offBIST],
		CapabilitiesPointer: data[offCapabilitiesPointer],
		InterruptLine:       data[offInterruptLine],
		InterruptPin:        data[offInterruptPin],
	}, nil
}

// HasCapabilities reports whether the Status register advertises a
// capabilities list.
func (h *Header) HasCapabilities() bool {
	return h.Status&statusCapabilitiesList != 0
}

// String returns "vendor:device" in lspci notation.
func (h *Header) String() string {
	return fmt.Sprintf("%04x:%04x", h.VendorID, h.DeviceID)
}
