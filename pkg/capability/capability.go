package capability

import (
	"fmt"

	"github.com/pcicap/pcicap-go/pkg/header"
)

// Configuration space layout.
const (
	// DeviceDependentOffset is where the device-dependent region, and
	// therefore every valid capability, begins.
	DeviceDependentOffset = 0x40

	// ExtendedOffset is the end of the region reachable by 8-bit pointers.
	ExtendedOffset = 0x100

	// HeaderSize is the identifier byte plus the next pointer byte.
	HeaderSize = 2
)

// ID is a capability identifier assigned by the PCI-SIG.
type ID uint8

const (
	IDNull                      ID = 0x00
	IDPowerManagement           ID = 0x01
	IDAGP                       ID = 0x02
	IDVitalProductData          ID = 0x03
	IDSlotIdentification        ID = 0x04
	IDMSI                       ID = 0x05
	IDCompactPCIHotSwap         ID = 0x06
	IDPCIX                      ID = 0x07
	IDHyperTransport            ID = 0x08
	IDVendorSpecific            ID = 0x09
	IDDebugPort                 ID = 0x0a
	IDCompactPCIResourceControl ID = 0x0b
	IDPCIHotPlug                ID = 0x0c
	IDBridgeSubsystemVendorID   ID = 0x0d
	IDAGP8x                     ID = 0x0e
	IDSecureDevice              ID = 0x0f
	IDPCIExpress                ID = 0x10
	IDMSIX                      ID = 0x11
	IDSATA                      ID = 0x12
	IDAdvancedFeatures          ID = 0x13
	IDEnhancedAllocation        ID = 0x14
	IDFlatteningPortalBridge    ID = 0x15
)

var idNames = [...]string{
	IDNull:                      "Null",
	IDPowerManagement:           "Power Management",
	IDAGP:                       "AGP",
	IDVitalProductData:          "Vital Product Data",
	IDSlotIdentification:        "Slot Identification",
	IDMSI:                       "MSI",
	IDCompactPCIHotSwap:         "CompactPCI Hot Swap",
	IDPCIX:                      "PCI-X",
	IDHyperTransport:            "HyperTransport",
	IDVendorSpecific:            "Vendor Specific",
	IDDebugPort:                 "Debug Port",
	IDCompactPCIResourceControl: "CompactPCI Central Resource Control",
	IDPCIHotPlug:                "PCI Hot-Plug",
	IDBridgeSubsystemVendorID:   "Bridge Subsystem Vendor ID",
	IDAGP8x:                     "AGP 8x",
	IDSecureDevice:              "Secure Device",
	IDPCIExpress:                "PCI Express",
	IDMSIX:                      "MSI-X",
	IDSATA:                      "SATA",
	IDAdvancedFeatures:          "Advanced Features",
	IDEnhancedAllocation:        "Enhanced Allocation",
	IDFlatteningPortalBridge:    "Flattening Portal Bridge",
}

// Known reports whether the identifier is one this package decodes.
func (id ID) Known() bool {
	return int(id) < len(idNames)
}

// String returns the capability name, or "Reserved (xx)" for identifiers
// outside the recognized set.
func (id ID) String() string {
	if id.Known() {
		return idNames[id]
	}
	return fmt.Sprintf("Reserved (%02x)", uint8(id))
}

// Context carries the facts from the configuration header that capability
// decoding depends on. It is read-only and passed by value.
type Context struct {
	// Pointer is the offset of the first capability, or 0 for none.
	Pointer uint8

	// HeaderType selects between the two PCI-X layouts and whether
	// Enhanced Allocation carries the bridge bus-number dword.
	HeaderType header.Type

	// VendorID and DeviceID select vendor-specific framing.
	VendorID uint16
	DeviceID uint16
}

// ContextFromHeader builds the decoding context from a parsed header.
func ContextFromHeader(h *header.Header) Context {
	return Context{
		Pointer:    h.CapabilitiesPointer,
		HeaderType: h.Type,
		VendorID:   h.VendorID,
		DeviceID:   h.DeviceID,
	}
}

// Capability is one decoded record of the list.
type Capability struct {
	// Offset is where the record was found in configuration space.
	Offset uint8

	// Kind is the decoded payload.
	Kind Kind
}

// ID returns the identifier of the decoded kind.
func (c Capability) ID() ID {
	if c.Kind == nil {
		return IDNull
	}
	return c.Kind.ID()
}

// Kind is the decoded payload of a capability. The set of implementations
// is closed: one type per recognized identifier plus Null and Reserved.
type Kind interface {
	// ID returns the capability identifier of this kind.
	ID() ID

	kind()
}

// Null is the Null Capability (00h). It has no registers and may appear
// any number of times.
type Null struct{}

// Reserved is a capability whose identifier is not recognized. The
// payload is not interpreted.
type Reserved struct {
	Raw uint8
}

// CompactPCIHotSwap is the CompactPCI Hot Swap capability (06h).
type CompactPCIHotSwap struct{}

// CompactPCIResourceControl is the CompactPCI Central Resource Control
// capability (0Bh).
type CompactPCIResourceControl struct{}

// PCIHotPlug indicates the function conforms to the Standard Hot-Plug
// Controller model (0Ch).
type PCIHotPlug struct{}

// AGP8x is the AGP 8x capability (0Eh).
type AGP8x struct{}

// SecureDevice is the Secure Device capability (0Fh).
type SecureDevice struct{}

func (Null) ID() ID                      { return IDNull }
func (r Reserved) ID() ID                { return ID(r.Raw) }
func (CompactPCIHotSwap) ID() ID         { return IDCompactPCIHotSwap }
func (CompactPCIResourceControl) ID() ID { return IDCompactPCIResourceControl }
func (PCIHotPlug) ID() ID                { return IDPCIHotPlug }
func (AGP8x) ID() ID                     { return IDAGP8x }
func (SecureDevice) ID() ID              { return IDSecureDevice }

func (Null) kind()                      {}
func (Reserved) kind()                  {}
func (CompactPCIHotSwap) kind()         {}
func (CompactPCIResourceControl) kind() {}
func (PCIHotPlug) kind()                {}
func (AGP8x) kind()                     {}
func (SecureDevice) kind()              {}
