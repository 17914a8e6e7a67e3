package inspect_test

import (
	"sort"
	"strings"
	"testing"

	"github.com/pcicap/pcicap-go/pkg/capability"
	"github.com/pcicap/pcicap-go/pkg/inspect"
)

func TestResolveCapabilityName(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantID    capability.ID
		wantFound bool
	}{
		{"full name", "Power Management", capability.IDPowerManagement, true},
		{"full name case-insensitive", "pci express", capability.IDPCIExpress, true},
		{"full name with hyphen", "MSI-X", capability.IDMSIX, true},
		{"alias", "pm", capability.IDPowerManagement, true},
		{"alias upper case", "MSIX", capability.IDMSIX, true},
		{"alias pcie", "pcie", capability.IDPCIExpress, true},
		{"alias ea", "ea", capability.IDEnhancedAllocation, true},
		{"alias fpb", "fpb", capability.IDFlatteningPortalBridge, true},
		{"hex ID", "0x05", capability.IDMSI, true},
		{"lspci reserved notation", "#20", capability.ID(0x20), true},
		{"decimal ID", "16", capability.IDPCIExpress, true},
		{"surrounding space", "  vpd ", capability.IDVitalProductData, true},
		{"unknown name", "bogus", 0, false},
		{"empty", "", 0, false},
		{"bad hex", "#zz", 0, false},
		{"out of range", "0x100", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, found := inspect.ResolveCapabilityName(tt.input)
			if found != tt.wantFound {
				t.Errorf("ResolveCapabilityName(%q) found = %v, want %v", tt.input, found, tt.wantFound)
			}
			if id != tt.wantID {
				t.Errorf("ResolveCapabilityName(%q) = %02x, want %02x", tt.input, uint8(id), uint8(tt.wantID))
			}
		})
	}
}

func TestResolveEveryCapabilityName(t *testing.T) {
	for id := range capability.IDFlatteningPortalBridge + 1 {
		got, ok := inspect.ResolveCapabilityName(id.String())
		if !ok || got != id {
			t.Errorf("ResolveCapabilityName(%q) = %02x, %v; want %02x", id.String(), uint8(got), ok, uint8(id))
		}
	}
}

func TestCapabilityName(t *testing.T) {
	if got := inspect.CapabilityName(capability.IDMSI); got != "MSI" {
		t.Errorf("CapabilityName(05) = %q, want %q", got, "MSI")
	}
	if got := inspect.CapabilityName(capability.ID(0x42)); got != "#42" {
		t.Errorf("CapabilityName(42) = %q, want %q", got, "#42")
	}
}

func TestCapabilityAliases(t *testing.T) {
	aliases := inspect.CapabilityAliases()
	if !sort.StringsAreSorted(aliases) {
		t.Errorf("aliases are not sorted: %v", aliases)
	}
	for _, a := range aliases {
		if _, ok := inspect.ResolveCapabilityName(a); !ok {
			t.Errorf("alias %q does not resolve", a)
		}
	}
}

func TestVendorName(t *testing.T) {
	if got := inspect.VendorName(0x8086); !strings.Contains(got, "Intel") {
		t.Errorf("VendorName(8086) = %q, want Intel", got)
	}
}

func TestDeviceName(t *testing.T) {
	got := inspect.DeviceName(0x8086, 0xfffe)
	if !strings.HasPrefix(got, inspect.VendorName(0x8086)+" ") {
		t.Errorf("DeviceName = %q, want vendor prefix", got)
	}
	if !strings.HasSuffix(got, "Device fffe") {
		t.Errorf("DeviceName = %q, want fallback product", got)
	}
}
