package capability

// VendorIDVirtio is the PCI vendor ID of virtio devices.
const VendorIDVirtio = 0x1af4

// VendorSpecific is the Vendor Specific capability (09h). Its third byte
// gives the length of the whole capability including the header; the
// remaining layout is defined by the vendor.
type VendorSpecific struct {
	// Length is the declared length of the capability in bytes.
	Length uint8

	// Data holds the vendor-defined bytes following the length byte.
	Data []byte

	// Virtio is set when the function is a virtio device and the bytes
	// describe a virtio configuration structure.
	Virtio *VirtioCapability
}

// VirtioConfigType identifies the virtio structure a capability locates.
type VirtioConfigType uint8

const (
	VirtioCommonConfig VirtioConfigType = 1
	VirtioNotifyConfig VirtioConfigType = 2
	VirtioISRConfig    VirtioConfigType = 3
	VirtioDeviceConfig VirtioConfigType = 4
	VirtioPCIConfig    VirtioConfigType = 5
	VirtioSharedMemory VirtioConfigType = 8
)

// String returns the virtio structure name.
func (t VirtioConfigType) String() string {
	switch t {
	case VirtioCommonConfig:
		return "CommonCfg"
	case VirtioNotifyConfig:
		return "Notify"
	case VirtioISRConfig:
		return "ISR"
	case VirtioDeviceConfig:
		return "DeviceCfg"
	case VirtioPCIConfig:
		return "PCICfg"
	case VirtioSharedMemory:
		return "SharedMemory"
	default:
		return "Unknown"
	}
}

// VirtioCapability is the virtio_pci_cap structure.
type VirtioCapability struct {
	ConfigType VirtioConfigType
	BAR        uint8
	ID         uint8
	Offset     uint32
	Length     uint32

	// NotifyOffsetMultiplier is only meaningful for VirtioNotifyConfig.
	NotifyOffsetMultiplier uint32
}

func (VendorSpecific) ID() ID { return IDVendorSpecific }
func (VendorSpecific) kind()  {}

const (
	virtioCapLength       = 16
	virtioNotifyCapLength = 20
)

func decodeVendorSpecific(data []byte, ctx Context) (Kind, error) {
	const name = "Vendor Specific"
	if err := need(name, data, 1); err != nil {
		return nil, err
	}

	length := data[0]
	if int(length) < HeaderSize+1 {
		return nil, malformed(name, "length %d shorter than capability header", length)
	}
	if avail := len(data) + HeaderSize; int(length) > avail {
		return nil, malformed(name, "length %d exceeds %d available bytes", length, avail)
	}

	// The declared length covers the header, so the body is data[:length-2].
	body := data[:int(length)-HeaderSize]
	vs := VendorSpecific{
		Length: length,
		Data:   append([]byte(nil), body[1:]...),
	}

	if ctx.VendorID == VendorIDVirtio {
		v, err := decodeVirtio(body)
		if err != nil {
			return nil, err
		}
		vs.Virtio = v
	}
	return vs, nil
}

// decodeVirtio decodes a virtio_pci_cap from the capability body, which
// starts at the cap_len byte.
func decodeVirtio(body []byte) (*VirtioCapability, error) {
	const name = "Virtio"
	length := int(body[0])
	if length < virtioCapLength {
		return nil, malformed(name, "length %d below %d", length, virtioCapLength)
	}

	v := &VirtioCapability{
		ConfigType: VirtioConfigType(body[1]),
		BAR:        body[2],
		ID:         body[3],
		Offset:     u32(body, 6),
		Length:     u32(body, 10),
	}
	if v.ConfigType == VirtioNotifyConfig {
		if length < virtioNotifyCapLength {
			return nil, malformed(name, "notify length %d below %d", length, virtioNotifyCapLength)
		}
		v.NotifyOffsetMultiplier = u32(body, 14)
	}
	return v, nil
}
