package inspect

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pcicap/pcicap-go/pkg/capability"
	"github.com/pcicap/pcicap-go/pkg/configspace"
	"github.com/pcicap/pcicap-go/pkg/header"
)

// Inspector errors.
var (
	ErrCapabilityNotFound = errors.New("capability not found")
	ErrDeviceMismatch     = errors.New("path names a different device")
)

// Inspector decodes and selects capabilities of one configuration space.
type Inspector struct {
	space *configspace.Space
}

// NewInspector creates a new Inspector for the given configuration space.
func NewInspector(space *configspace.Space) *Inspector {
	return &Inspector{space: space}
}

// Space returns the underlying configuration space.
func (i *Inspector) Space() *configspace.Space {
	return i.space
}

// DeviceTree represents the decoded device for display.
type DeviceTree struct {
	Address string
	Header  *header.Header

	// Results holds every capability and error in walk order.
	Results []capability.Result
}

// Capabilities returns the successfully decoded capabilities.
func (t *DeviceTree) Capabilities() []capability.Capability {
	var caps []capability.Capability
	for _, r := range t.Results {
		if r.Err == nil {
			caps = append(caps, r.Capability)
		}
	}
	return caps
}

// Errors returns the errors encountered during the walk.
func (t *DeviceTree) Errors() []error {
	var errs []error
	for _, r := range t.Results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errs
}

// InspectDevice decodes the header and walks the capabilities list.
func (i *Inspector) InspectDevice() (*DeviceTree, error) {
	h, err := i.space.Header()
	if err != nil {
		return nil, err
	}
	w, err := i.space.Capabilities()
	if err != nil {
		return nil, err
	}

	tree := &DeviceTree{
		Address: i.space.Address,
		Header:  h,
	}
	for c, err := range w.All() {
		tree.Results = append(tree.Results, capability.Result{Capability: c, Err: err})
	}
	return tree, nil
}

// Select returns the results of tree that path selects. Errors recorded
// at a selected offset or against a selected ID are included.
func (i *Inspector) Select(tree *DeviceTree, path *Path) ([]capability.Result, error) {
	if path.Device != "" && tree.Address != "" && !sameDevice(path.Device, tree.Address) {
		return nil, fmt.Errorf("%w: %s", ErrDeviceMismatch, path.Device)
	}
	if path.IsPartial {
		return tree.Results, nil
	}

	var selected []capability.Result
	for _, r := range tree.Results {
		if r.Err != nil {
			if path.MatchesError(r.Err) {
				selected = append(selected, r)
			}
			continue
		}
		if path.Matches(r.Capability) {
			selected = append(selected, r)
		}
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrCapabilityNotFound, path.Raw)
	}
	return selected, nil
}

// sameDevice compares addresses after normalizing them to the domain form.
func sameDevice(a, b string) bool {
	pa, err := configspace.ParseAddress(a)
	if err != nil {
		return strings.EqualFold(a, b)
	}
	pb, err := configspace.ParseAddress(b)
	if err != nil {
		return strings.EqualFold(a, b)
	}
	return pa == pb
}

// FormatDeviceTree formats the device tree for display.
func (i *Inspector) FormatDeviceTree(tree *DeviceTree, formatter *Formatter) string {
	if formatter == nil {
		formatter = NewFormatter()
	}
	return formatter.FormatTree(tree)
}
