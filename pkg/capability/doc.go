// Package capability walks and decodes the PCI capabilities list.
//
// Each capability is a record in the device-dependent region of
// configuration space (offsets 0x40 through 0xFF) made of an 8-bit
// identifier assigned by the PCI-SIG, an 8-bit pointer to the next record,
// and an identifier-specific payload. The first record is located by the
// Capabilities Pointer register of the configuration header; a next
// pointer of zero ends the list.
//
// # Walking
//
// A Walker follows the list over a byte slice holding the device-dependent
// region, starting at the pointer taken from a Context:
//
//	w := capability.NewWalker(ddr, capability.ContextFromHeader(hdr))
//	for c, err := range w.All() {
//	    if err != nil {
//	        // record or chain error, see Error
//	        continue
//	    }
//	    fmt.Printf("[%02x] %s\n", c.Offset, c.Kind.ID())
//	}
//
// The bytes are treated as untrusted. Every read is bounds-checked and
// every walk is finite: a pointer below 0x40, a record whose two header
// bytes are not present, or a pointer to an offset that was already
// visited ends the walk after reporting the error. A record whose payload
// cannot be decoded is reported on its own and the walk continues with
// the next pointer that record carries.
//
// # Kinds
//
// Kind is a closed set with one type per recognized identifier (00h
// through 15h) plus Reserved, which carries identifiers this package does
// not know. PCI-X (07h) has two layouts and is decoded as PCIX or
// PCIXBridge depending on the header type. Vendor Specific (09h) and
// Enhanced Allocation (14h) consult the Context for the vendor ID and
// header type respectively.
package capability
