package capability

// PCIX is the PCI-X capability (07h) of a non-bridge function.
type PCIX struct {
	Command PCIXCommand
	Status  PCIXStatus
}

// PCIXBridge is the PCI-X capability (07h) of a PCI-X-to-PCI-X bridge.
type PCIXBridge struct {
	SecondaryStatus uint16
	Status          PCIXStatus
	UpstreamSplit   PCIXSplitControl
	DownstreamSplit PCIXSplitControl
}

// PCIXCommand is the PCI-X Command register.
type PCIXCommand uint16

// DataParityRecovery reports the Data Parity Error Recovery Enable bit.
func (c PCIXCommand) DataParityRecovery() bool { return bit(c, 0) }

// RelaxedOrdering reports the Enable Relaxed Ordering bit.
func (c PCIXCommand) RelaxedOrdering() bool { return bit(c, 1) }

// MaxReadByteCount returns the maximum memory read byte count in bytes.
func (c PCIXCommand) MaxReadByteCount() int { return 512 << ((c >> 2) & 0x3) }

// MaxOutstandingSplit returns the maximum outstanding split transactions.
func (c PCIXCommand) MaxOutstandingSplit() int {
	return [8]int{1, 2, 3, 4, 8, 12, 16, 32}[(c>>4)&0x7]
}

// PCIXStatus is the PCI-X Status register. The bus/device/function fields
// share the same position in both layouts.
type PCIXStatus uint32

func (s PCIXStatus) Function() uint8 { return uint8(s & 0x7) }
func (s PCIXStatus) Device() uint8   { return uint8((s >> 3) & 0x1f) }
func (s PCIXStatus) Bus() uint8      { return uint8(s >> 8) }
func (s PCIXStatus) Is64Bit() bool   { return bit(s, 16) }
func (s PCIXStatus) Is133MHz() bool  { return bit(s, 17) }

// PCIXSplitControl is a split transaction control register of a bridge.
type PCIXSplitControl uint32

// Capacity returns the split transaction capacity in ADQs.
func (s PCIXSplitControl) Capacity() uint16 { return uint16(s) }

// CommitmentLimit returns the split transaction commitment limit in ADQs.
func (s PCIXSplitControl) CommitmentLimit() uint16 { return uint16(s >> 16) }

func (PCIX) ID() ID       { return IDPCIX }
func (PCIXBridge) ID() ID { return IDPCIX }

func (PCIX) kind()       {}
func (PCIXBridge) kind() {}

func decodePCIX(data []byte) (Kind, error) {
	if err := need("PCI-X", data, 6); err != nil {
		return nil, err
	}
	return PCIX{
		Command: PCIXCommand(u16(data, 0)),
		Status:  PCIXStatus(u32(data, 2)),
	}, nil
}

func decodePCIXBridge(data []byte) (Kind, error) {
	if err := need("PCI-X Bridge", data, 14); err != nil {
		return nil, err
	}
	return PCIXBridge{
		SecondaryStatus: u16(data, 0),
		Status:          PCIXStatus(u32(data, 2)),
		UpstreamSplit:   PCIXSplitControl(u32(data, 6)),
		DownstreamSplit: PCIXSplitControl(u32(data, 10)),
	}, nil
}
