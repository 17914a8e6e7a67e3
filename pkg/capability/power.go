package capability

// PowerManagement is the PCI Power Management Interface capability (01h).
type PowerManagement struct {
	Capabilities PowerCapabilities
	Control      PowerControl
	Bridge       PowerBridgeSupport

	// Data is the optional power consumption/dissipation register selected
	// by Control.DataSelect.
	Data uint8
}

// PowerCapabilities is the Power Management Capabilities register (PMC).
type PowerCapabilities struct {
	// Version of the power management interface specification.
	Version uint8

	PMEClock                  bool
	ImmediateReadinessOnD0    bool
	DeviceSpecificInitialized bool
	AuxCurrent                AuxCurrent
	D1Support                 bool
	D2Support                 bool
	PMESupport                PMESupport
}

// AuxCurrent encodes the 3.3Vaux current requirement.
type AuxCurrent uint8

var auxCurrentMilliAmps = [8]int{0, 55, 100, 160, 220, 270, 320, 375}

// MilliAmps returns the maximum auxiliary current. Zero means the function
// is self-powered.
func (a AuxCurrent) MilliAmps() int {
	return auxCurrentMilliAmps[a&7]
}

// PMESupport lists the power states from which PME# can be asserted.
type PMESupport struct {
	D0     bool
	D1     bool
	D2     bool
	D3Hot  bool
	D3Cold bool
}

// PowerState is a device power state.
type PowerState uint8

const (
	PowerStateD0 PowerState = iota
	PowerStateD1
	PowerStateD2
	PowerStateD3Hot
)

// String returns the power state name.
func (s PowerState) String() string {
	switch s {
	case PowerStateD0:
		return "D0"
	case PowerStateD1:
		return "D1"
	case PowerStateD2:
		return "D2"
	default:
		return "D3hot"
	}
}

// PowerControl is the Power Management Control/Status register (PMCSR).
type PowerControl struct {
	PowerState  PowerState
	NoSoftReset bool
	PMEEnabled  bool
	DataSelect  uint8
	DataScale   uint8
	PMEStatus   bool
}

// PowerBridgeSupport is the PMCSR bridge support extension.
type PowerBridgeSupport struct {
	B2B3        bool
	BPCCEnabled bool
}

func (PowerManagement) ID() ID { return IDPowerManagement }
func (PowerManagement) kind()  {}

func decodePowerManagement(data []byte) (Kind, error) {
	if err := need("Power Management", data, 6); err != nil {
		return nil, err
	}

	pmc := u16(data, 0)
	pmcsr := u16(data, 2)
	bse := data[4]

	return PowerManagement{
		Capabilities: PowerCapabilities{
			Version:                   uint8(pmc & 0x7),
			PMEClock:                  bit(pmc, 3),
			ImmediateReadinessOnD0:    bit(pmc, 4),
			DeviceSpecificInitialized: bit(pmc, 5),
			AuxCurrent:                AuxCurrent((pmc >> 6) & 0x7),
			D1Support:                 bit(pmc, 9),
			D2Support:                 bit(pmc, 10),
			PMESupport: PMESupport{
				D0:     bit(pmc, 11),
				D1:     bit(pmc, 12),
				D2:     bit(pmc, 13),
				D3Hot:  bit(pmc, 14),
				D3Cold: bit(pmc, 15),
			},
		},
		Control: PowerControl{
			PowerState:  PowerState(pmcsr & 0x3),
			NoSoftReset: bit(pmcsr, 3),
			PMEEnabled:  bit(pmcsr, 8),
			DataSelect:  uint8((pmcsr >> 9) & 0xf),
			DataScale:   uint8((pmcsr >> 13) & 0x3),
			PMEStatus:   bit(pmcsr, 15),
		},
		Bridge: PowerBridgeSupport{
			B2B3:        bit(bse, 6),
			BPCCEnabled: bit(bse, 7),
		},
		Data: data[5],
	}, nil
}
