package capability

import "fmt"

// HyperTransport is the HyperTransport capability (08h). The capability
// type is encoded in the upper bits of the command register.
type HyperTransport struct {
	Type    HTType
	Command uint16
}

// HTType identifies the HyperTransport capability block. Interface types
// use a 3-bit code; all others use a 5-bit code. Both are stored as the
// masked top byte of the command register.
type HTType uint8

const (
	HTSlavePrimary        HTType = 0x00
	HTHostSecondary       HTType = 0x20
	HTSwitch              HTType = 0x40
	HTInterruptDiscovery  HTType = 0x80
	HTRevisionID          HTType = 0x88
	HTUnitIDClumping      HTType = 0x90
	HTExtendedConfigSpace HTType = 0x98
	HTAddressMapping      HTType = 0xa0
	HTMSIMapping          HTType = 0xa8
	HTDirectRoute         HTType = 0xb0
	HTVCSet               HTType = 0xb8
	HTRetryMode           HTType = 0xc0
	HTX86Encoding         HTType = 0xc8
	HTGen3                HTType = 0xd0
	HTFunctionExtension   HTType = 0xd8
	HTPowerManagement     HTType = 0xe0
	HTHighNodeCount       HTType = 0xe8
)

var htTypeNames = map[HTType]string{
	HTSlavePrimary:        "Slave or Primary Interface",
	HTHostSecondary:       "Host or Secondary Interface",
	HTSwitch:              "Switch",
	HTInterruptDiscovery:  "Interrupt Discovery and Configuration",
	HTRevisionID:          "Revision ID",
	HTUnitIDClumping:      "UnitID Clumping",
	HTExtendedConfigSpace: "Extended Configuration Space Access",
	HTAddressMapping:      "Address Mapping",
	HTMSIMapping:          "MSI Mapping",
	HTDirectRoute:         "DirectRoute",
	HTVCSet:               "VCSet",
	HTRetryMode:           "Retry Mode",
	HTX86Encoding:         "X86 Encoding",
	HTGen3:                "Gen3",
	HTFunctionExtension:   "Function-Level Extension",
	HTPowerManagement:     "Power Management",
	HTHighNodeCount:       "High Node Count",
}

// String returns the HyperTransport capability type name.
func (t HTType) String() string {
	if name, ok := htTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%02x)", uint8(t))
}

func (HyperTransport) ID() ID { return IDHyperTransport }
func (HyperTransport) kind()  {}

func decodeHyperTransport(data []byte) (Kind, error) {
	if err := need("HyperTransport", data, 2); err != nil {
		return nil, err
	}

	cmd := u16(data, 0)
	top := uint8(cmd >> 8)

	var typ HTType
	if top&0xc0 == 0 {
		typ = HTType(top & 0xe0)
	} else {
		typ = HTType(top & 0xf8)
		if _, ok := htTypeNames[typ]; !ok {
			return nil, malformed("HyperTransport", "unknown capability type %02x", uint8(typ))
		}
	}
	return HyperTransport{Type: typ, Command: cmd}, nil
}
