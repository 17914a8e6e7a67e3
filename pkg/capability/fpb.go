package capability

// FlatteningPortalBridge is the Flattening Portal Bridge capability (15h).
// Registers are kept raw apart from the decode-mechanism bits of the
// capabilities register.
type FlatteningPortalBridge struct {
	RIDDecodeSupported     bool
	MemLowDecodeSupported  bool
	MemHighDecodeSupported bool

	Capabilities          uint32
	RIDVectorControl1     uint32
	RIDVectorControl2     uint32
	MemLowVectorControl   uint32
	MemHighVectorControl1 uint32
	MemHighVectorControl2 uint32
	VectorAccessControl   uint32
	VectorAccessData      uint32
}

func (FlatteningPortalBridge) ID() ID { return IDFlatteningPortalBridge }
func (FlatteningPortalBridge) kind()  {}

func decodeFlatteningPortalBridge(data []byte) (Kind, error) {
	if err := need("Flattening Portal Bridge", data, 34); err != nil {
		return nil, err
	}
	caps := u32(data, 2)
	return FlatteningPortalBridge{
		RIDDecodeSupported:     bit(caps, 0),
		MemLowDecodeSupported:  bit(caps, 1),
		MemHighDecodeSupported: bit(caps, 2),
		Capabilities:           caps,
		RIDVectorControl1:      u32(data, 6),
		RIDVectorControl2:      u32(data, 10),
		MemLowVectorControl:    u32(data, 14),
		MemHighVectorControl1:  u32(data, 18),
		MemHighVectorControl2:  u32(data, 22),
		VectorAccessControl:    u32(data, 26),
		VectorAccessData:       u32(data, 30),
	}, nil
}
