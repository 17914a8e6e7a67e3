package capability

import "fmt"

// SATA is the Serial ATA Data/Index Configuration capability (12h).
type SATA struct {
	Major uint8
	Minor uint8

	BarLocation SATABarLocation

	// BarOffset is the offset of the Index-Data pair in dwords.
	BarOffset uint32
}

// SATABarLocation says where the Index-Data pair registers live.
type SATABarLocation uint8

// SATABarInConfigSpace places the registers right after the capability.
const SATABarInConfigSpace SATABarLocation = 0xf

// BAR returns the base address register number 0-5, or false when the
// registers are not in a BAR.
func (l SATABarLocation) BAR() (int, bool) {
	if l >= 0x4 && l <= 0x9 {
		return int(l) - 4, true
	}
	return 0, false
}

// String returns "BARn", "ConfigSpace", or "Reserved(n)".
func (l SATABarLocation) String() string {
	if n, ok := l.BAR(); ok {
		return fmt.Sprintf("BAR%d", n)
	}
	if l == SATABarInConfigSpace {
		return "ConfigSpace"
	}
	return fmt.Sprintf("Reserved(%d)", uint8(l))
}

// AdvancedFeatures is the Advanced Features capability (13h) of
// conventional PCI functions.
type AdvancedFeatures struct {
	Length uint8

	TransactionsPendingCapable bool
	FLRCapable                 bool

	// InitiateFLR is the Control register bit; it always reads zero.
	InitiateFLR bool

	TransactionsPending bool
}

func (SATA) ID() ID             { return IDSATA }
func (AdvancedFeatures) ID() ID { return IDAdvancedFeatures }

func (SATA) kind()             {}
func (AdvancedFeatures) kind() {}

func decodeSATA(data []byte) (Kind, error) {
	if err := need("SATA", data, 6); err != nil {
		return nil, err
	}
	bar := u32(data, 2)
	return SATA{
		Major:       data[0] >> 4,
		Minor:       data[0] & 0xf,
		BarLocation: SATABarLocation(bar & 0xf),
		BarOffset:   (bar >> 4) & 0xfffff,
	}, nil
}

func decodeAdvancedFeatures(data []byte) (Kind, error) {
	if err := need("Advanced Features", data, 4); err != nil {
		return nil, err
	}
	return AdvancedFeatures{
		Length:                     data[0],
		TransactionsPendingCapable: bit(data[1], 0),
		FLRCapable:                 bit(data[1], 1),
		InitiateFLR:                bit(data[2], 0),
		TransactionsPending:        bit(data[3], 0),
	}, nil
}
