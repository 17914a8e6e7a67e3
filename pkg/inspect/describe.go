package inspect

import (
	"fmt"
	"strings"

	"github.com/pcicap/pcicap-go/pkg/capability"
)

// Flag formats a boolean the way lspci does: "+" or "-".
func Flag(b bool) string {
	if b {
		return "+"
	}
	return "-"
}

// Describe returns a one-line summary of a decoded capability and the
// register details shown in verbose output.
func Describe(k capability.Kind) (summary string, details []string) {
	switch v := k.(type) {
	case nil, capability.Null:
		return "Null", nil
	case capability.Reserved:
		return fmt.Sprintf("#%02x", v.Raw), nil

	case capability.PowerManagement:
		return describePowerManagement(v)
	case capability.AGP:
		return fmt.Sprintf("AGP version %d.%d", v.Major, v.Minor),
			[]string{fmt.Sprintf("Status: RQ=%d Status=%08x", v.RequestQueueDepth(), v.Status),
				fmt.Sprintf("Command: %08x", v.Command)}
	case capability.VitalProductData:
		return "Vital Product Data",
			[]string{fmt.Sprintf("Address=%04x F%s Data=%08x", v.Address, Flag(v.Flag), v.Data)}
	case capability.SlotIdentification:
		return fmt.Sprintf("Slot ID: %d slots, First%s, chassis %02x",
			v.SlotsProvided, Flag(v.FirstInChassis), v.Chassis), nil
	case capability.MSI:
		return describeMSI(v)
	case capability.CompactPCIHotSwap:
		return "CompactPCI hot-swap <?>", nil
	case capability.PCIX:
		return "PCI-X non-bridge device", []string{
			fmt.Sprintf("Command: DPERE%s ERO%s RBC=%d OST=%d",
				Flag(v.Command.DataParityRecovery()), Flag(v.Command.RelaxedOrdering()),
				v.Command.MaxReadByteCount(), v.Command.MaxOutstandingSplit()),
			describePCIXStatus(v.Status),
		}
	case capability.PCIXBridge:
		return "PCI-X bridge device", []string{
			fmt.Sprintf("Secondary Status: %04x", v.SecondaryStatus),
			describePCIXStatus(v.Status),
			fmt.Sprintf("Upstream: Capacity=%d CommitmentLimit=%d",
				v.UpstreamSplit.Capacity(), v.UpstreamSplit.CommitmentLimit()),
			fmt.Sprintf("Downstream: Capacity=%d CommitmentLimit=%d",
				v.DownstreamSplit.Capacity(), v.DownstreamSplit.CommitmentLimit()),
		}
	case capability.HyperTransport:
		return "HyperTransport: " + v.Type.String(), nil
	case capability.VendorSpecific:
		return describeVendorSpecific(v)
	case capability.DebugPort:
		return fmt.Sprintf("Debug port: BAR=%d offset=%04x", v.BAR, v.Offset), nil
	case capability.CompactPCIResourceControl:
		return "CompactPCI central resource control <?>", nil
	case capability.PCIHotPlug:
		return "Hot-plug capable", nil
	case capability.BridgeSubsystemVendorID:
		return fmt.Sprintf("Subsystem: %04x:%04x", v.SubsystemVendorID, v.SubsystemID), nil
	case capability.AGP8x:
		return "AGP3 <?>", nil
	case capability.SecureDevice:
		return "Secure device <?>", nil
	case capability.PCIExpress:
		return describePCIExpress(v)
	case capability.MSIX:
		return fmt.Sprintf("MSI-X: Enable%s Count=%d Masked%s", Flag(v.Enable), v.TableSize, Flag(v.FunctionMask)),
			[]string{
				fmt.Sprintf("Vector table: BAR=%d offset=%08x", v.Table.BIR, v.Table.Offset),
				fmt.Sprintf("PBA: BAR=%d offset=%08x", v.PBA.BIR, v.PBA.Offset),
			}
	case capability.SATA:
		return fmt.Sprintf("SATA HBA v%d.%d %s Offset=%08x", v.Major, v.Minor, v.BarLocation, v.BarOffset), nil
	case capability.AdvancedFeatures:
		return "PCI Advanced Features", []string{
			fmt.Sprintf("AFCap: TP%s FLR%s", Flag(v.TransactionsPendingCapable), Flag(v.FLRCapable)),
			fmt.Sprintf("AFCtrl: FLR%s", Flag(v.InitiateFLR)),
			fmt.Sprintf("AFStatus: TP%s", Flag(v.TransactionsPending)),
		}
	case capability.EnhancedAllocation:
		return describeEnhancedAllocation(v)
	case capability.FlatteningPortalBridge:
		return "Flattening Portal Bridge", []string{
			fmt.Sprintf("FPBCap: RIDDecode%s MemLowDecode%s MemHighDecode%s",
				Flag(v.RIDDecodeSupported), Flag(v.MemLowDecodeSupported), Flag(v.MemHighDecodeSupported)),
			fmt.Sprintf("RIDVectorCtrl: %08x %08x", v.RIDVectorControl1, v.RIDVectorControl2),
			fmt.Sprintf("MemLowVectorCtrl: %08x", v.MemLowVectorControl),
			fmt.Sprintf("MemHighVectorCtrl: %08x %08x", v.MemHighVectorControl1, v.MemHighVectorControl2),
		}
	default:
		return fmt.Sprintf("%s <?>", k.ID()), nil
	}
}

func describePowerManagement(v capability.PowerManagement) (string, []string) {
	c := v.Capabilities
	pme := c.PMESupport
	ctl := v.Control
	return fmt.Sprintf("Power Management version %d", c.Version), []string{
		fmt.Sprintf("Flags: PMEClk%s DSI%s D1%s D2%s AuxCurrent=%dmA PME(D0%s,D1%s,D2%s,D3hot%s,D3cold%s)",
			Flag(c.PMEClock), Flag(c.DeviceSpecificInitialized), Flag(c.D1Support), Flag(c.D2Support),
			c.AuxCurrent.MilliAmps(),
			Flag(pme.D0), Flag(pme.D1), Flag(pme.D2), Flag(pme.D3Hot), Flag(pme.D3Cold)),
		fmt.Sprintf("Status: %s NoSoftRst%s PME-Enable%s DSel=%d DScale=%d PME%s",
			ctl.PowerState, Flag(ctl.NoSoftReset), Flag(ctl.PMEEnabled),
			ctl.DataSelect, ctl.DataScale, Flag(ctl.PMEStatus)),
	}
}

func describeMSI(v capability.MSI) (string, []string) {
	c := v.Control
	summary := fmt.Sprintf("MSI: Enable%s Count=%d/%d Maskable%s 64bit%s",
		Flag(c.Enable), c.MultipleMessageEnable.Vectors(), c.MultipleMessageCapable.Vectors(),
		Flag(c.PerVectorMasking), Flag(c.Address64))

	var details []string
	if c.Address64 {
		details = append(details, fmt.Sprintf("Address: %016x  Data: %04x", v.Address, v.Data))
	} else {
		details = append(details, fmt.Sprintf("Address: %08x  Data: %04x", v.Address, v.Data))
	}
	if v.Mask != nil && v.Pending != nil {
		details = append(details, fmt.Sprintf("Masking: %08x  Pending: %08x", *v.Mask, *v.Pending))
	}
	return summary, details
}

func describePCIXStatus(s capability.PCIXStatus) string {
	return fmt.Sprintf("Status: Dev=%02x:%02x.%d 64bit%s 133MHz%s",
		s.Bus(), s.Device(), s.Function(), Flag(s.Is64Bit()), Flag(s.Is133MHz()))
}

func describeVendorSpecific(v capability.VendorSpecific) (string, []string) {
	if vio := v.Virtio; vio != nil {
		detail := fmt.Sprintf("BAR=%d offset=%08x size=%08x", vio.BAR, vio.Offset, vio.Length)
		if vio.ConfigType == capability.VirtioNotifyConfig {
			detail += fmt.Sprintf(" multiplier=%08x", vio.NotifyOffsetMultiplier)
		}
		return "Vendor Specific Information: VirtIO: " + vio.ConfigType.String(), []string{detail}
	}

	var details []string
	if len(v.Data) > 0 {
		details = append(details, "Data: "+hexBytes(v.Data))
	}
	return fmt.Sprintf("Vendor Specific Information: Len=%02x <?>", v.Length), details
}

func describePCIExpress(v capability.PCIExpress) (string, []string) {
	summary := fmt.Sprintf("Express (v%d) %s, MSI %02x", v.Version, v.PortType, v.InterruptMessageNumber)
	details := []string{
		fmt.Sprintf("DevCap: MaxPayload %d bytes, FLReset%s",
			v.DeviceCapabilities.MaxPayloadSize(), Flag(v.DeviceCapabilities.FunctionLevelReset())),
		fmt.Sprintf("DevCtl: %04x DevSta: %04x", v.DeviceControl, v.DeviceStatus),
	}
	if l := v.Link; l != nil {
		details = append(details,
			fmt.Sprintf("LnkCap: Port #%d, Speed %s, Width x%d",
				l.PortNumber(), capability.SpeedString(l.MaxSpeed()), l.MaxWidth()),
			fmt.Sprintf("LnkSta: Speed %s, Width x%d",
				capability.SpeedString(l.Speed()), l.Width()),
		)
	}
	return summary, details
}

func describeEnhancedAllocation(v capability.EnhancedAllocation) (string, []string) {
	var details []string
	if b := v.Bridge; b != nil {
		details = append(details, fmt.Sprintf("Fixed Secondary Bus=%d", b.Secondary),
			fmt.Sprintf("Fixed Subordinate Bus=%d", b.Subordinate))
	}
	for i, e := range v.Entries {
		details = append(details,
			fmt.Sprintf("Entry %d: Enable%s Writable%s EntrySize=%d BEI=%d",
				i, Flag(e.Enabled), Flag(e.Writable), e.Size, e.BEI),
			fmt.Sprintf("  Properties=%02x/%02x Base=%x MaxOffset=%x",
				e.PrimaryProperties, e.SecondaryProperties, e.Base, e.MaxOffset),
		)
	}
	return fmt.Sprintf("Enhanced Allocation (EA): NumEntries=%d", len(v.Entries)), details
}

func hexBytes(b []byte) string {
	parts := make([]string, len(b))
	for i, x := range b {
		parts[i] = fmt.Sprintf("%02x", x)
	}
	return strings.Join(parts, " ")
}
