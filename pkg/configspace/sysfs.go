package configspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultSysfsRoot is where Linux exposes PCI functions.
const DefaultSysfsRoot = "/sys/bus/pci/devices"

// ErrInvalidAddress is returned for addresses that are not of the form
// dddd:bb:ss.f.
var ErrInvalidAddress = errors.New("invalid PCI address")

// Address is a PCI function address.
type Address struct {
	Domain   uint16
	Bus      uint8
	Slot     uint8
	Function uint8
}

// ParseAddress parses "dddd:bb:ss.f" or the short form "bb:ss.f", which
// implies domain 0.
func ParseAddress(s string) (Address, error) {
	var a Address
	n, err := fmt.Sscanf(s, "%04x:%02x:%02x.%1x", &a.Domain, &a.Bus, &a.Slot, &a.Function)
	if err != nil || n != 4 {
		a = Address{}
		n, err = fmt.Sscanf(s, "%02x:%02x.%1x", &a.Bus, &a.Slot, &a.Function)
		if err != nil || n != 3 {
			return Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
		}
	}
	if a.Slot > 0x1f || a.Function > 7 {
		return Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	// Sscanf stops at the last verb and ignores what follows.
	if !strings.EqualFold(s, a.String()) && !strings.EqualFold(s, a.short()) {
		return Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return a, nil
}

// short formats a in the domain-less lspci form.
func (a Address) short() string {
	return fmt.Sprintf("%02x:%02x.%01x", a.Bus, a.Slot, a.Function)
}

func (a Address) String() string {
	return fmt.Sprintf("%04x:%02x:%02x.%01x", a.Domain, a.Bus, a.Slot, a.Function)
}

// ReadDevice reads <root>/<addr>/config. Unprivileged readers only see the
// first 64 bytes, which still yields a valid but capability-less Space
// when the kernel reports the list as absent.
func ReadDevice(root, addr string) (*Space, error) {
	a, err := ParseAddress(addr)
	if err != nil {
		return nil, err
	}
	if root == "" {
		root = DefaultSysfsRoot
	}

	path := filepath.Join(root, a.String(), "config")
	s, err := ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("device %s: %w", a, err)
	}
	s.Address = a.String()
	return s, nil
}

// ListDevices returns the addresses of the functions under root in
// ascending order. Entries that are not PCI addresses are skipped.
func ListDevices(root string) ([]string, error) {
	if root == "" {
		root = DefaultSysfsRoot
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var addrs []string
	for _, e := range entries {
		a, err := ParseAddress(e.Name())
		if err != nil {
			continue
		}
		addrs = append(addrs, a.String())
	}
	sort.Strings(addrs)
	return addrs, nil
}
