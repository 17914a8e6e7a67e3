package inspect

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/siderolabs/go-pcidb/pkg/pcidb"

	"github.com/pcicap/pcicap-go/pkg/capability"
)

// Short names accepted wherever a capability is selected by name, in
// addition to the full names returned by capability.ID.String.
var capabilityAliases = map[string]capability.ID{
	"null":    capability.IDNull,
	"pm":      capability.IDPowerManagement,
	"agp":     capability.IDAGP,
	"vpd":     capability.IDVitalProductData,
	"slotid":  capability.IDSlotIdentification,
	"msi":     capability.IDMSI,
	"hotswap": capability.IDCompactPCIHotSwap,
	"pcix":    capability.IDPCIX,
	"ht":      capability.IDHyperTransport,
	"vendor":  capability.IDVendorSpecific,
	"vndr":    capability.IDVendorSpecific,
	"debug":   capability.IDDebugPort,
	"ccrc":    capability.IDCompactPCIResourceControl,
	"hotplug": capability.IDPCIHotPlug,
	"ssvid":   capability.IDBridgeSubsystemVendorID,
	"agp8x":   capability.IDAGP8x,
	"secure":  capability.IDSecureDevice,
	"pcie":    capability.IDPCIExpress,
	"exp":     capability.IDPCIExpress,
	"msix":    capability.IDMSIX,
	"sata":    capability.IDSATA,
	"af":      capability.IDAdvancedFeatures,
	"ea":      capability.IDEnhancedAllocation,
	"fpb":     capability.IDFlatteningPortalBridge,
	"flatten": capability.IDFlatteningPortalBridge,
	"express": capability.IDPCIExpress,
	"power":   capability.IDPowerManagement,
	"virtio":  capability.IDVendorSpecific,
}

// normalizeName folds case and drops separators so that "MSI-X",
// "msi_x" and "msix" compare equal.
func normalizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(name)))
}

// ResolveCapabilityName resolves a capability name to its ID
// (case-insensitive). Full names ("Power Management"), short aliases
// ("pm", "msix") and numeric IDs ("0x05", "#05", "5") are accepted.
func ResolveCapabilityName(name string) (capability.ID, bool) {
	n := normalizeName(name)
	if n == "" {
		return 0, false
	}

	if id, ok := capabilityAliases[n]; ok {
		return id, true
	}
	for id := range capability.IDFlatteningPortalBridge + 1 {
		if normalizeName(id.String()) == n {
			return id, true
		}
	}

	if hex, ok := strings.CutPrefix(n, "#"); ok {
		v, err := strconv.ParseUint(hex, 16, 8)
		if err != nil {
			return 0, false
		}
		return capability.ID(v), true
	}
	if v, err := parseUint8(n); err == nil {
		return capability.ID(v), true
	}
	return 0, false
}

// CapabilityName returns the display name for a capability ID. Reserved
// identifiers are shown as "#xx".
func CapabilityName(id capability.ID) string {
	if !id.Known() {
		return fmt.Sprintf("#%02x", uint8(id))
	}
	return id.String()
}

// CapabilityAliases returns the accepted short names, sorted. Used for
// completion in the interactive shell.
func CapabilityAliases() []string {
	names := make([]string, 0, len(capabilityAliases))
	for k := range capabilityAliases {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// VendorName returns the vendor name from the PCI ID database, or the
// ID in hex if unknown.
func VendorName(vendorID uint16) string {
	if name, ok := pcidb.LookupVendor(vendorID); ok {
		return name
	}
	return fmt.Sprintf("%04x", vendorID)
}

// DeviceName returns "<vendor> <product>" from the PCI ID database. The
// product falls back to "Device xxxx" when the database lacks it.
func DeviceName(vendorID, deviceID uint16) string {
	product, ok := pcidb.LookupProduct(vendorID, deviceID)
	if !ok {
		product = fmt.Sprintf("Device %04x", deviceID)
	}
	return VendorName(vendorID) + " " + product
}
