package capability

// MSI is the Message Signaled Interrupts capability (05h).
type MSI struct {
	Control MSIControl

	// Address is the message address; the upper half is zero unless
	// Control.Address64 is set.
	Address uint64

	Data         uint16
	ExtendedData uint16

	// Mask and Pending are present only with per-vector masking.
	Mask    *uint32
	Pending *uint32
}

// MSIControl is the MSI Message Control register.
type MSIControl struct {
	Enable                 bool
	MultipleMessageCapable MultipleMessage
	MultipleMessageEnable  MultipleMessage
	Address64              bool
	PerVectorMasking       bool
	ExtendedDataCapable    bool
	ExtendedDataEnable     bool
}

// MultipleMessage is a log2-encoded vector count.
type MultipleMessage uint8

// Vectors returns the number of vectors encoded.
func (m MultipleMessage) Vectors() int {
	return 1 << (m & 0x7)
}

func (MSI) ID() ID { return IDMSI }
func (MSI) kind()  {}

// msiLayout returns the layout name and the minimum payload size for the
// combination of 64-bit addressing and per-vector masking.
func msiLayout(address64, masking bool) (string, int) {
	switch {
	case address64 && masking:
		return "MSI 64-bit per-vector masking", 22
	case address64:
		return "MSI 64-bit", 14
	case masking:
		return "MSI 32-bit per-vector masking", 18
	default:
		return "MSI 32-bit", 10
	}
}

func decodeMSI(data []byte) (Kind, error) {
	if err := need("MSI", data, 2); err != nil {
		return nil, err
	}

	mc := u16(data, 0)
	ctrl := MSIControl{
		Enable:                 bit(mc, 0),
		MultipleMessageCapable: MultipleMessage((mc >> 1) & 0x7),
		MultipleMessageEnable:  MultipleMessage((mc >> 4) & 0x7),
		Address64:              bit(mc, 7),
		PerVectorMasking:       bit(mc, 8),
		ExtendedDataCapable:    bit(mc, 9),
		ExtendedDataEnable:     bit(mc, 10),
	}

	name, size := msiLayout(ctrl.Address64, ctrl.PerVectorMasking)
	if err := need(name, data, size); err != nil {
		return nil, err
	}

	msi := MSI{Control: ctrl, Address: uint64(u32(data, 2))}
	off := 6
	if ctrl.Address64 {
		msi.Address |= uint64(u32(data, 6)) << 32
		off = 10
	}
	msi.Data = u16(data, off)
	msi.ExtendedData = u16(data, off+2)
	off += 4

	if ctrl.PerVectorMasking {
		mask, pending := u32(data, off), u32(data, off+4)
		msi.Mask = &mask
		msi.Pending = &pending
	}
	return msi, nil
}
