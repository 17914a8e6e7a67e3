package capability

import "encoding/binary"

// decode interprets payload according to the capability identifier.
// Unrecognized identifiers decode to Reserved and never fail.
func decode(id uint8, payload []byte, ctx Context) (Kind, error) {
	switch ID(id) {
	case IDNull:
		return Null{}, nil
	case IDPowerManagement:
		return decodePowerManagement(payload)
	case IDAGP:
		return decodeAGP(payload)
	case IDVitalProductData:
		return decodeVitalProductData(payload)
	case IDSlotIdentification:
		return decodeSlotIdentification(payload)
	case IDMSI:
		return decodeMSI(payload)
	case IDCompactPCIHotSwap:
		return CompactPCIHotSwap{}, nil
	case IDPCIX:
		if ctx.HeaderType.IsBridge() {
			return decodePCIXBridge(payload)
		}
		return decodePCIX(payload)
	case IDHyperTransport:
		return decodeHyperTransport(payload)
	case IDVendorSpecific:
		return decodeVendorSpecific(payload, ctx)
	case IDDebugPort:
		return decodeDebugPort(payload)
	case IDCompactPCIResourceControl:
		return CompactPCIResourceControl{}, nil
	case IDPCIHotPlug:
		return PCIHotPlug{}, nil
	case IDBridgeSubsystemVendorID:
		return decodeBridgeSubsystemVendorID(payload)
	case IDAGP8x:
		return AGP8x{}, nil
	case IDSecureDevice:
		return SecureDevice{}, nil
	case IDPCIExpress:
		return decodePCIExpress(payload)
	case IDMSIX:
		return decodeMSIX(payload)
	case IDSATA:
		return decodeSATA(payload)
	case IDAdvancedFeatures:
		return decodeAdvancedFeatures(payload)
	case IDEnhancedAllocation:
		return decodeEnhancedAllocation(payload, ctx)
	case IDFlatteningPortalBridge:
		return decodeFlatteningPortalBridge(payload)
	default:
		return Reserved{Raw: id}, nil
	}
}

// Little-endian register reads. Callers check lengths first.

func u16(b []byte, off int) uint16 {
	return binary.LittleEndian.Uint16(b[off:])
}

func u32(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off:])
}

func bit[T ~uint8 | ~uint16 | ~uint32](v T, n uint) bool {
	return v&(1<<n) != 0
}
