package inspect

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pcicap/pcicap-go/pkg/capability"
	"github.com/pcicap/pcicap-go/pkg/header"
)

// Formatter formats inspection output.
type Formatter struct {
	// Verbose includes register details below each capability
	Verbose bool

	// ShowIDs includes numeric capability IDs alongside names
	ShowIDs bool

	// Names resolves vendor and device names from the PCI ID database
	Names bool

	// IndentWidth is the number of spaces per indent level
	IndentWidth int
}

// NewFormatter creates a new Formatter with default settings.
func NewFormatter() *Formatter {
	return &Formatter{
		Verbose:     true,
		ShowIDs:     false,
		Names:       false,
		IndentWidth: 2,
	}
}

// Indent returns the content with indentation.
func (f *Formatter) Indent(depth int, content string) string {
	width := f.IndentWidth
	if width == 0 {
		width = 2
	}
	indent := strings.Repeat(" ", depth*width)
	return indent + content
}

// Summary returns the one-line description of a decoded capability,
// e.g. "MSI: Enable+ Count=1/1 Maskable- 64bit-".
func Summary(k capability.Kind) string {
	s, _ := Describe(k)
	return s
}

// FormatCapability formats one decoded capability in lspci notation:
//
//	Capabilities: [80] MSI: Enable+ Count=1/1 Maskable- 64bit-
//
// Register details follow on indented lines when Verbose is set.
func (f *Formatter) FormatCapability(c capability.Capability) string {
	summary, details := Describe(c.Kind)

	var sb strings.Builder
	if f.ShowIDs {
		sb.WriteString(fmt.Sprintf("Capabilities: [%02x] (%02x) %s", c.Offset, uint8(c.ID()), summary))
	} else {
		sb.WriteString(fmt.Sprintf("Capabilities: [%02x] %s", c.Offset, summary))
	}
	if f.Verbose {
		for _, d := range details {
			sb.WriteString("\n")
			sb.WriteString(f.Indent(1, d))
		}
	}
	return sb.String()
}

// FormatError formats an error produced while walking the list. Chain
// errors are shown as a broken list, record errors against the
// capability that failed:
//
//	Capabilities: [ff] <chain broken: capability header is not available>
//	Capabilities: [f8] MSI: <MSI 64-bit per-vector masking data read error (22 bytes)>
func (f *Formatter) FormatError(err error) string {
	var ce *capability.Error
	if !errors.As(err, &ce) {
		return fmt.Sprintf("Capabilities: <%v>", err)
	}
	if ce.Structural() {
		return fmt.Sprintf("Capabilities: [%02x] <chain broken: %v>", ce.Offset, ce.Err)
	}
	if f.ShowIDs {
		return fmt.Sprintf("Capabilities: [%02x] (%02x) %s: <%v>", ce.Offset, uint8(ce.ID), ce.ID, ce.Err)
	}
	return fmt.Sprintf("Capabilities: [%02x] %s: <%v>", ce.Offset, ce.ID, ce.Err)
}

// FormatResults formats a collected walk, one capability or error per
// entry, each line indented to depth.
func (f *Formatter) FormatResults(results []capability.Result, depth int) string {
	if len(results) == 0 {
		return f.Indent(depth, "Capabilities: <none>") + "\n"
	}

	var sb strings.Builder
	for _, r := range results {
		var text string
		if r.Err != nil {
			text = f.FormatError(r.Err)
		} else {
			text = f.FormatCapability(r.Capability)
		}
		for line := range strings.SplitSeq(text, "\n") {
			sb.WriteString(f.Indent(depth, line))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// FormatHeader formats the device line in lspci -n notation:
//
//	00:1f.2 0106: 8086:2822 (rev 02) (prog-if 01)
//
// With Names set the vendor and device names are resolved and the IDs
// follow in brackets.
func (f *Formatter) FormatHeader(address string, h *header.Header) string {
	var sb strings.Builder
	if address != "" {
		sb.WriteString(address)
		sb.WriteString(" ")
	}
	sb.WriteString(fmt.Sprintf("%02x%02x: ", h.ClassCode.Base, h.ClassCode.Sub))
	if f.Names {
		sb.WriteString(fmt.Sprintf("%s [%s]", DeviceName(h.VendorID, h.DeviceID), h))
	} else {
		sb.WriteString(h.String())
	}
	if h.Revision != 0 {
		sb.WriteString(fmt.Sprintf(" (rev %02x)", h.Revision))
	}
	if h.ClassCode.Interface != 0 {
		sb.WriteString(fmt.Sprintf(" (prog-if %02x)", h.ClassCode.Interface))
	}
	if f.Verbose {
		sb.WriteString("\n")
		sb.WriteString(f.Indent(1, fmt.Sprintf("Header: %s MultiFunction%s CapList%s",
			h.Type, Flag(h.MultiFunction), Flag(h.HasCapabilities()))))
	}
	return sb.String()
}

// FormatTree formats a device header followed by its capabilities.
func (f *Formatter) FormatTree(tree *DeviceTree) string {
	var sb strings.Builder
	sb.WriteString(f.FormatHeader(tree.Address, tree.Header))
	sb.WriteString("\n")
	sb.WriteString(f.FormatResults(tree.Results, 1))
	return sb.String()
}
