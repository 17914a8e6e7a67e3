package capability

// MSIX is the MSI-X capability (11h).
type MSIX struct {
	Enable       bool
	FunctionMask bool

	// TableSize is the number of table entries (the encoded value plus one).
	TableSize uint16

	Table MSIXRegion
	PBA   MSIXRegion
}

// MSIXRegion locates the MSI-X table or pending bit array in a BAR.
type MSIXRegion struct {
	// BIR is the BAR indicator register, 0-5.
	BIR uint8

	// Offset is the qword-aligned offset within that BAR.
	Offset uint32
}

func (MSIX) ID() ID { return IDMSIX }
func (MSIX) kind()  {}

func msixRegion(v uint32) MSIXRegion {
	return MSIXRegion{BIR: uint8(v & 0x7), Offset: v &^ 0x7}
}

func decodeMSIX(data []byte) (Kind, error) {
	if err := need("MSI-X", data, 10); err != nil {
		return nil, err
	}
	mc := u16(data, 0)
	return MSIX{
		Enable:       bit(mc, 15),
		FunctionMask: bit(mc, 14),
		TableSize:    (mc & 0x7ff) + 1,
		Table:        msixRegion(u32(data, 2)),
		PBA:          msixRegion(u32(data, 6)),
	}, nil
}
