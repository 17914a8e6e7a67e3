package capability

// EnhancedAllocation is the Enhanced Allocation capability (14h).
type EnhancedAllocation struct {
	// Bridge holds the fixed bus numbers; it is present only for type 1
	// headers.
	Bridge *EABusNumbers

	Entries []EAEntry
}

// EABusNumbers is the second dword of the capability in bridges.
type EABusNumbers struct {
	Secondary   uint8
	Subordinate uint8
}

// EAEntry describes one fixed resource range.
type EAEntry struct {
	// Size is the number of dwords following the entry header.
	Size uint8

	// BEI is the BAR Equivalent Indicator.
	BEI uint8

	PrimaryProperties   uint8
	SecondaryProperties uint8
	Writable            bool
	Enabled             bool

	Base      uint64
	MaxOffset uint64
}

func (EnhancedAllocation) ID() ID { return IDEnhancedAllocation }
func (EnhancedAllocation) kind()  {}

const (
	eaName          = "Enhanced Allocation"
	eaMinEntrySize  = 2
	eaEntryIs64Flag = 1 << 1
)

func decodeEnhancedAllocation(data []byte, ctx Context) (Kind, error) {
	if err := need(eaName, data, 2); err != nil {
		return nil, err
	}

	num := int(data[0] & 0x3f)
	pos := 2

	var ea EnhancedAllocation
	if ctx.HeaderType.IsBridge() {
		if err := need(eaName+" Bridge", data, 6); err != nil {
			return nil, err
		}
		ea.Bridge = &EABusNumbers{Secondary: data[2], Subordinate: data[3]}
		pos = 6
	}

	ea.Entries = make([]EAEntry, 0, num)
	for i := range num {
		if pos+4 > len(data) {
			return nil, malformed(eaName, "entry %d header truncated", i)
		}
		hdr := u32(data, pos)
		size := int(hdr & 0x7)
		if size < eaMinEntrySize {
			return nil, malformed(eaName, "entry %d size %d below %d", i, size, eaMinEntrySize)
		}
		end := pos + 4*(size+1)
		if end > len(data) {
			return nil, malformed(eaName, "entry %d of %d dwords exceeds available bytes", i, size+1)
		}

		e := EAEntry{
			Size:                uint8(size),
			BEI:                 uint8((hdr >> 4) & 0xf),
			PrimaryProperties:   uint8(hdr >> 8),
			SecondaryProperties: uint8(hdr >> 16),
			Writable:            bit(hdr, 30),
			Enabled:             bit(hdr, 31),
		}

		base := u32(data, pos+4)
		maxOff := u32(data, pos+8)
		dw := 2
		if base&eaEntryIs64Flag != 0 {
			dw++
		}
		if maxOff&eaEntryIs64Flag != 0 {
			dw++
		}
		if dw > size {
			return nil, malformed(eaName, "entry %d needs %d dwords, size is %d", i, dw, size)
		}

		e.Base = uint64(base &^ 0x3)
		e.MaxOffset = uint64(maxOff&^0x3) | 0x3
		next := pos + 12
		if base&eaEntryIs64Flag != 0 {
			e.Base |= uint64(u32(data, next)) << 32
			next += 4
		}
		if maxOff&eaEntryIs64Flag != 0 {
			e.MaxOffset |= uint64(u32(data, next)) << 32
		}

		ea.Entries = append(ea.Entries, e)
		pos = end
	}
	return ea, nil
}
