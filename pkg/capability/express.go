package capability

import "fmt"

// PCIExpress is the PCI Express capability (10h).
type PCIExpress struct {
	Version                uint8
	PortType               PortType
	SlotImplemented        bool
	InterruptMessageNumber uint8

	DeviceCapabilities PCIeDeviceCapabilities
	DeviceControl      uint16
	DeviceStatus       uint16

	// Link is nil for port types without a link.
	Link *PCIeLink
}

// PortType is the Device/Port Type field of the capabilities register.
type PortType uint8

const (
	PortTypeEndpoint                  PortType = 0x0
	PortTypeLegacyEndpoint            PortType = 0x1
	PortTypeRootPort                  PortType = 0x4
	PortTypeUpstreamPort              PortType = 0x5
	PortTypeDownstreamPort            PortType = 0x6
	PortTypePCIeToPCIBridge           PortType = 0x7
	PortTypePCIToPCIeBridge           PortType = 0x8
	PortTypeRootComplexEndpoint       PortType = 0x9
	PortTypeRootComplexEventCollector PortType = 0xa
)

// String returns the port type name as printed by lspci.
func (p PortType) String() string {
	switch p {
	case PortTypeEndpoint:
		return "Endpoint"
	case PortTypeLegacyEndpoint:
		return "Legacy Endpoint"
	case PortTypeRootPort:
		return "Root Port"
	case PortTypeUpstreamPort:
		return "Upstream Port"
	case PortTypeDownstreamPort:
		return "Downstream Port"
	case PortTypePCIeToPCIBridge:
		return "PCI-Express to PCI/PCI-X Bridge"
	case PortTypePCIToPCIeBridge:
		return "PCI/PCI-X to PCI-Express Bridge"
	case PortTypeRootComplexEndpoint:
		return "Root Complex Integrated Endpoint"
	case PortTypeRootComplexEventCollector:
		return "Root Complex Event Collector"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(p))
	}
}

// Valid reports whether the port type is defined.
func (p PortType) Valid() bool {
	switch p {
	case PortTypeEndpoint, PortTypeLegacyEndpoint, PortTypeRootPort,
		PortTypeUpstreamPort, PortTypeDownstreamPort, PortTypePCIeToPCIBridge,
		PortTypePCIToPCIeBridge, PortTypeRootComplexEndpoint,
		PortTypeRootComplexEventCollector:
		return true
	}
	return false
}

// HasLink reports whether functions of this type implement the link
// registers.
func (p PortType) HasLink() bool {
	return p != PortTypeRootComplexEndpoint && p != PortTypeRootComplexEventCollector
}

// PCIeDeviceCapabilities is the Device Capabilities register.
type PCIeDeviceCapabilities uint32

// MaxPayloadSize returns the maximum supported payload in bytes.
func (d PCIeDeviceCapabilities) MaxPayloadSize() int {
	return 128 << (d & 0x7)
}

// FunctionLevelReset reports Function Level Reset capability.
func (d PCIeDeviceCapabilities) FunctionLevelReset() bool {
	return bit(d, 28)
}

// PCIeLink holds the link registers.
type PCIeLink struct {
	Capabilities uint32
	Control      uint16
	Status       uint16
}

// MaxSpeed returns the Max Link Speed encoding (1 = 2.5GT/s, 2 = 5GT/s, ...).
func (l PCIeLink) MaxSpeed() uint8 { return uint8(l.Capabilities & 0xf) }

// MaxWidth returns the maximum link width.
func (l PCIeLink) MaxWidth() uint8 { return uint8((l.Capabilities >> 4) & 0x3f) }

// PortNumber returns the port number.
func (l PCIeLink) PortNumber() uint8 { return uint8(l.Capabilities >> 24) }

// Speed returns the negotiated link speed encoding.
func (l PCIeLink) Speed() uint8 { return uint8(l.Status & 0xf) }

// Width returns the negotiated link width.
func (l PCIeLink) Width() uint8 { return uint8((l.Status >> 4) & 0x3f) }

// SpeedString formats a link speed encoding.
func SpeedString(speed uint8) string {
	switch speed {
	case 1:
		return "2.5GT/s"
	case 2:
		return "5GT/s"
	case 3:
		return "8GT/s"
	case 4:
		return "16GT/s"
	case 5:
		return "32GT/s"
	case 6:
		return "64GT/s"
	default:
		return "unknown"
	}
}

func (PCIExpress) ID() ID { return IDPCIExpress }
func (PCIExpress) kind()  {}

const (
	pcieDeviceSize = 10
	pcieLinkSize   = 18
)

func decodePCIExpress(data []byte) (Kind, error) {
	if err := need("PCI Express", data, pcieDeviceSize); err != nil {
		return nil, err
	}

	caps := u16(data, 0)
	pe := PCIExpress{
		Version:                uint8(caps & 0xf),
		PortType:               PortType((caps >> 4) & 0xf),
		SlotImplemented:        bit(caps, 8),
		InterruptMessageNumber: uint8((caps >> 9) & 0x1f),
		DeviceCapabilities:     PCIeDeviceCapabilities(u32(data, 2)),
		DeviceControl:          u16(data, 6),
		DeviceStatus:           u16(data, 8),
	}
	if !pe.PortType.Valid() {
		return nil, malformed("PCI Express", "reserved device/port type %d", uint8(pe.PortType))
	}

	if pe.PortType.HasLink() {
		if err := need("PCI Express Link", data, pcieLinkSize); err != nil {
			return nil, err
		}
		pe.Link = &PCIeLink{
			Capabilities: u32(data, 10),
			Control:      u16(data, 14),
			Status:       u16(data, 16),
		}
	}
	return pe, nil
}
