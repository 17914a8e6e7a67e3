package capability

// AGP is the Accelerated Graphics Port capability (02h).
type AGP struct {
	Major   uint8
	Minor   uint8
	Status  uint32
	Command uint32
}

// RequestQueueDepth returns the maximum number of outstanding requests
// the target supports.
func (a AGP) RequestQueueDepth() int {
	return int(a.Status>>24) + 1
}

// VitalProductData is the VPD capability (03h).
type VitalProductData struct {
	// Address is the dword-aligned VPD byte address.
	Address uint16

	// Flag signals completion of a VPD read or write.
	Flag bool

	Data uint32
}

// SlotIdentification is the Slot Identification capability (04h) of
// bridges driving expansion slots.
type SlotIdentification struct {
	SlotsProvided  uint8
	FirstInChassis bool
	Chassis        uint8
}

// DebugPort is the Debug Port capability (0Ah) of EHCI controllers.
type DebugPort struct {
	// BAR is the base address register holding the debug port, 1-6.
	BAR uint8

	// Offset of the debug port registers within that BAR.
	Offset uint16
}

// BridgeSubsystemVendorID is the subsystem identification of a
// PCI-to-PCI bridge (0Dh).
type BridgeSubsystemVendorID struct {
	SubsystemVendorID uint16
	SubsystemID       uint16
}

func (AGP) ID() ID                     { return IDAGP }
func (VitalProductData) ID() ID        { return IDVitalProductData }
func (SlotIdentification) ID() ID      { return IDSlotIdentification }
func (DebugPort) ID() ID               { return IDDebugPort }
func (BridgeSubsystemVendorID) ID() ID { return IDBridgeSubsystemVendorID }

func (AGP) kind()                     {}
func (VitalProductData) kind()        {}
func (SlotIdentification) kind()      {}
func (DebugPort) kind()               {}
func (BridgeSubsystemVendorID) kind() {}

func decodeAGP(data []byte) (Kind, error) {
	if err := need("AGP", data, 10); err != nil {
		return nil, err
	}
	return AGP{
		Major:   data[0] >> 4,
		Minor:   data[0] & 0xf,
		Status:  u32(data, 2),
		Command: u32(data, 6),
	}, nil
}

func decodeVitalProductData(data []byte) (Kind, error) {
	if err := need("Vital Product Data", data, 6); err != nil {
		return nil, err
	}
	addr := u16(data, 0)
	return VitalProductData{
		Address: addr & 0x7fff,
		Flag:    bit(addr, 15),
		Data:    u32(data, 2),
	}, nil
}

func decodeSlotIdentification(data []byte) (Kind, error) {
	if err := need("Slot Identification", data, 2); err != nil {
		return nil, err
	}
	return SlotIdentification{
		SlotsProvided:  data[0] & 0x1f,
		FirstInChassis: bit(data[0], 5),
		Chassis:        data[1],
	}, nil
}

func decodeDebugPort(data []byte) (Kind, error) {
	if err := need("Debug Port", data, 2); err != nil {
		return nil, err
	}
	v := u16(data, 0)
	return DebugPort{
		BAR:    uint8(v >> 13),
		Offset: v & 0x1fff,
	}, nil
}

func decodeBridgeSubsystemVendorID(data []byte) (Kind, error) {
	if err := need("Bridge Subsystem Vendor ID", data, 6); err != nil {
		return nil, err
	}
	return BridgeSubsystemVendorID{
		SubsystemVendorID: u16(data, 2),
		SubsystemID:       u16(data, 4),
	}, nil
}
