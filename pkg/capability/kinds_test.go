package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcicap/pcicap-go/pkg/header"
)

func ptr32(v uint32) *uint32 { return &v }

func TestDecodeKinds(t *testing.T) {
	bridge := Context{HeaderType: header.TypeBridge}
	virtio := Context{VendorID: VendorIDVirtio, DeviceID: 0x1041}

	tests := []struct {
		name    string
		id      ID
		ctx     Context
		payload []byte
		want    Kind
	}{
		{
			name: "null",
			id:   IDNull,
			want: Null{},
		},
		{
			name:    "reserved",
			id:      0x7f,
			payload: []byte{0x01, 0x02},
			want:    Reserved{Raw: 0x7f},
		},
		{
			name: "compactpci hot swap",
			id:   IDCompactPCIHotSwap,
			want: CompactPCIHotSwap{},
		},
		{
			name: "secure device",
			id:   IDSecureDevice,
			want: SecureDevice{},
		},
		{
			name:    "power management",
			id:      IDPowerManagement,
			payload: []byte{0x43, 0xfe, 0x03, 0x81, 0xc0, 0x12},
			want: PowerManagement{
				Capabilities: PowerCapabilities{
					Version:    3,
					AuxCurrent: 1,
					D1Support:  true,
					D2Support:  true,
					PMESupport: PMESupport{D0: true, D1: true, D2: true, D3Hot: true, D3Cold: true},
				},
				Control: PowerControl{
					PowerState: PowerStateD3Hot,
					PMEEnabled: true,
					PMEStatus:  true,
				},
				Bridge: PowerBridgeSupport{B2B3: true, BPCCEnabled: true},
				Data:   0x12,
			},
		},
		{
			name:    "agp",
			id:      IDAGP,
			payload: []byte{0x30, 0x00, 0x17, 0x02, 0x00, 0x1f, 0x00, 0x00, 0x00, 0x00},
			want:    AGP{Major: 3, Minor: 0, Status: 0x1f000217},
		},
		{
			name:    "vital product data",
			id:      IDVitalProductData,
			payload: []byte{0x04, 0x80, 0x78, 0x56, 0x34, 0x12},
			want:    VitalProductData{Address: 4, Flag: true, Data: 0x12345678},
		},
		{
			name:    "slot identification",
			id:      IDSlotIdentification,
			payload: []byte{0x23, 0x07},
			want:    SlotIdentification{SlotsProvided: 3, FirstInChassis: true, Chassis: 7},
		},
		{
			name: "msi 64-bit per-vector masking",
			id:   IDMSI,
			payload: []byte{
				0x83, 0x01,
				0x00, 0x10, 0xe0, 0xfe, 0x01, 0x00, 0x00, 0x00,
				0x21, 0x43, 0x00, 0x00,
				0x03, 0x00, 0x00, 0x00,
				0x01, 0x00, 0x00, 0x00,
			},
			want: MSI{
				Control: MSIControl{
					Enable:                 true,
					MultipleMessageCapable: 1,
					Address64:              true,
					PerVectorMasking:       true,
				},
				Address: 0x1fee01000,
				Data:    0x4321,
				Mask:    ptr32(3),
				Pending: ptr32(1),
			},
		},
		{
			name:    "pci-x",
			id:      IDPCIX,
			payload: []byte{0x08, 0x00, 0x08, 0x02, 0x03, 0x00},
			want:    PCIX{Command: 0x0008, Status: 0x00030208},
		},
		{
			name:    "hypertransport interface type",
			id:      IDHyperTransport,
			payload: []byte{0x00, 0x3f},
			want:    HyperTransport{Type: HTHostSecondary, Command: 0x3f00},
		},
		{
			name:    "hypertransport msi mapping",
			id:      IDHyperTransport,
			payload: []byte{0x01, 0xa8},
			want:    HyperTransport{Type: HTMSIMapping, Command: 0xa801},
		},
		{
			name:    "vendor specific",
			id:      IDVendorSpecific,
			payload: []byte{0x05, 0xaa, 0xbb, 0xcc, 0xdd},
			want:    VendorSpecific{Length: 5, Data: []byte{0xaa, 0xbb}},
		},
		{
			name: "virtio notify",
			id:   IDVendorSpecific,
			ctx:  virtio,
			payload: []byte{
				0x14, 0x02, 0x04, 0x00, 0x00, 0x00,
				0x00, 0x30, 0x00, 0x00,
				0x00, 0x10, 0x00, 0x00,
				0x04, 0x00, 0x00, 0x00,
				0xff, 0xff,
			},
			want: VendorSpecific{
				Length: 0x14,
				Data: []byte{
					0x02, 0x04, 0x00, 0x00, 0x00,
					0x00, 0x30, 0x00, 0x00,
					0x00, 0x10, 0x00, 0x00,
					0x04, 0x00, 0x00, 0x00,
				},
				Virtio: &VirtioCapability{
					ConfigType:             VirtioNotifyConfig,
					BAR:                    4,
					Offset:                 0x3000,
					Length:                 0x1000,
					NotifyOffsetMultiplier: 4,
				},
			},
		},
		{
			name:    "debug port",
			id:      IDDebugPort,
			payload: []byte{0x80, 0x20},
			want:    DebugPort{BAR: 1, Offset: 0x80},
		},
		{
			name:    "bridge subsystem vendor id",
			id:      IDBridgeSubsystemVendorID,
			payload: []byte{0x00, 0x00, 0x86, 0x80, 0x34, 0x12},
			want:    BridgeSubsystemVendorID{SubsystemVendorID: 0x8086, SubsystemID: 0x1234},
		},
		{
			name:    "pci express root complex integrated endpoint",
			id:      IDPCIExpress,
			payload: []byte{0x92, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
			want: PCIExpress{
				Version:  2,
				PortType: PortTypeRootComplexEndpoint,
			},
		},
		{
			name:    "msi-x",
			id:      IDMSIX,
			payload: []byte{0x3f, 0x80, 0x00, 0x20, 0x00, 0x00, 0x03, 0x30, 0x00, 0x00},
			want: MSIX{
				Enable:    true,
				TableSize: 64,
				Table:     MSIXRegion{BIR: 0, Offset: 0x2000},
				PBA:       MSIXRegion{BIR: 3, Offset: 0x3000},
			},
		},
		{
			name:    "sata",
			id:      IDSATA,
			payload: []byte{0x10, 0x00, 0x48, 0x00, 0x00, 0x00},
			want:    SATA{Major: 1, BarLocation: 8, BarOffset: 4},
		},
		{
			name:    "advanced features",
			id:      IDAdvancedFeatures,
			payload: []byte{0x06, 0x03, 0x00, 0x01},
			want: AdvancedFeatures{
				Length:                     6,
				TransactionsPendingCapable: true,
				FLRCapable:                 true,
				TransactionsPending:        true,
			},
		},
		{
			name: "enhanced allocation",
			id:   IDEnhancedAllocation,
			payload: []byte{
				0x01, 0x00,
				0x02, 0x00, 0x00, 0x80,
				0x00, 0x00, 0x00, 0xe0,
				0xfc, 0xff, 0x0f, 0x00,
			},
			want: EnhancedAllocation{
				Entries: []EAEntry{{
					Size:      2,
					Enabled:   true,
					Base:      0xe0000000,
					MaxOffset: 0x000fffff,
				}},
			},
		},
		{
			name: "enhanced allocation 64-bit entry",
			id:   IDEnhancedAllocation,
			payload: []byte{
				0x01, 0x00,
				0x14, 0x03, 0x00, 0xc0,
				0x02, 0x00, 0x00, 0xe0,
				0xfe, 0xff, 0xff, 0xff,
				0x01, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00,
			},
			want: EnhancedAllocation{
				Entries: []EAEntry{{
					Size:              4,
					BEI:               1,
					PrimaryProperties: 3,
					Writable:          true,
					Enabled:           true,
					Base:              0x1e0000000,
					MaxOffset:         0xffffffff,
				}},
			},
		},
		{
			name:    "enhanced allocation bridge",
			id:      IDEnhancedAllocation,
			ctx:     bridge,
			payload: []byte{0x00, 0x00, 0x02, 0x05, 0x00, 0x00},
			want: EnhancedAllocation{
				Bridge:  &EABusNumbers{Secondary: 2, Subordinate: 5},
				Entries: []EAEntry{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decode(uint8(tt.id), tt.payload, tt.ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.ID(), got.ID())
		})
	}
}

func TestDecodeKindErrors(t *testing.T) {
	bridge := Context{HeaderType: header.TypeBridge}
	virtio := Context{VendorID: VendorIDVirtio}

	tests := []struct {
		name    string
		id      ID
		ctx     Context
		payload []byte
		short   string // layout name for payload errors, empty for malformed
		size    int
	}{
		{name: "power management", id: IDPowerManagement, payload: make([]byte, 4), short: "Power Management", size: 6},
		{name: "msi 32-bit", id: IDMSI, payload: make([]byte, 8), short: "MSI 32-bit", size: 10},
		{name: "msi 64-bit", id: IDMSI, payload: []byte{0x80, 0x00, 0, 0, 0, 0, 0, 0, 0, 0}, short: "MSI 64-bit", size: 14},
		{name: "msi 32-bit masking", id: IDMSI, payload: []byte{0x00, 0x01, 0, 0, 0, 0, 0, 0, 0, 0}, short: "MSI 32-bit per-vector masking", size: 18},
		{name: "pci-x", id: IDPCIX, payload: make([]byte, 5), short: "PCI-X", size: 6},
		{name: "pci-x bridge", id: IDPCIX, ctx: bridge, payload: make([]byte, 6), short: "PCI-X Bridge", size: 14},
		{name: "pci express", id: IDPCIExpress, payload: make([]byte, 9), short: "PCI Express", size: 10},
		{name: "pci express link", id: IDPCIExpress, payload: []byte{0x02, 0x00, 0, 0, 0, 0, 0, 0, 0, 0}, short: "PCI Express Link", size: 18},
		{name: "msi-x", id: IDMSIX, payload: make([]byte, 9), short: "MSI-X", size: 10},
		{name: "sata", id: IDSATA, payload: make([]byte, 2), short: "SATA", size: 6},
		{name: "enhanced allocation bridge", id: IDEnhancedAllocation, ctx: bridge, payload: make([]byte, 2), short: "Enhanced Allocation Bridge", size: 6},
		{name: "flattening portal bridge", id: IDFlatteningPortalBridge, payload: make([]byte, 33), short: "Flattening Portal Bridge", size: 34},

		{name: "pci express reserved port type", id: IDPCIExpress, payload: []byte{0x32, 0x00, 0, 0, 0, 0, 0, 0, 0, 0}},
		{name: "hypertransport unknown type", id: IDHyperTransport, payload: []byte{0x00, 0xf8}},
		{name: "vendor specific length too small", id: IDVendorSpecific, payload: []byte{0x02, 0x00}},
		{name: "vendor specific length too large", id: IDVendorSpecific, payload: []byte{0xff, 0x00, 0x00}},
		{name: "virtio length too small", id: IDVendorSpecific, ctx: virtio, payload: []byte{0x04, 0x01}},
		{name: "virtio notify too small", id: IDVendorSpecific, ctx: virtio, payload: append([]byte{0x10, 0x02}, make([]byte, 14)...)},
		{name: "enhanced allocation entry size", id: IDEnhancedAllocation, payload: []byte{0x01, 0x00, 0x01, 0x00, 0x00, 0x80, 0, 0, 0, 0}},
		{name: "enhanced allocation entry truncated", id: IDEnhancedAllocation, payload: []byte{0x01, 0x00, 0x02, 0x00, 0x00, 0x80, 0, 0, 0, 0}},
		{name: "enhanced allocation 64-bit needs dwords", id: IDEnhancedAllocation, payload: []byte{0x01, 0x00, 0x02, 0x00, 0x00, 0x80, 0x02, 0, 0, 0, 0, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decode(uint8(tt.id), tt.payload, tt.ctx)
			require.Error(t, err)
			assert.Nil(t, got)

			if tt.short == "" {
				assert.ErrorIs(t, err, ErrMalformed)
				assert.NotErrorIs(t, err, ErrPayloadTooShort)
				return
			}

			assert.ErrorIs(t, err, ErrPayloadTooShort)
			var derr *DataError
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, tt.short, derr.Name)
			assert.Equal(t, tt.size, derr.Size)
		})
	}
}

func TestDecodeNeverFailsOnReserved(t *testing.T) {
	for id := 0x16; id <= 0xff; id++ {
		got, err := decode(uint8(id), nil, Context{})
		require.NoError(t, err)
		assert.Equal(t, Reserved{Raw: uint8(id)}, got)
	}
}

func TestPCIExpressLink(t *testing.T) {
	payload := []byte{
		0x02, 0x00,
		0x22, 0x80, 0x00, 0x10,
		0x00, 0x00, 0x00, 0x00,
		0x43, 0x08, 0x00, 0x05,
		0x00, 0x00, 0x43, 0x10,
	}
	k, err := decode(uint8(IDPCIExpress), payload, Context{})
	require.NoError(t, err)

	pe := k.(PCIExpress)
	assert.Equal(t, PortTypeEndpoint, pe.PortType)
	assert.Equal(t, 512, pe.DeviceCapabilities.MaxPayloadSize())
	assert.True(t, pe.DeviceCapabilities.FunctionLevelReset())

	require.NotNil(t, pe.Link)
	assert.Equal(t, uint8(3), pe.Link.MaxSpeed())
	assert.Equal(t, uint8(4), pe.Link.MaxWidth())
	assert.Equal(t, uint8(5), pe.Link.PortNumber())
	assert.Equal(t, uint8(3), pe.Link.Speed())
	assert.Equal(t, uint8(4), pe.Link.Width())
	assert.Equal(t, "8GT/s", SpeedString(pe.Link.Speed()))
}

func TestFieldHelpers(t *testing.T) {
	assert.Equal(t, 55, AuxCurrent(1).MilliAmps())
	assert.Equal(t, 375, AuxCurrent(7).MilliAmps())
	assert.Equal(t, "D3hot", PowerStateD3Hot.String())
	assert.Equal(t, 8, MultipleMessage(3).Vectors())
	assert.Equal(t, 32, AGP{Status: 0x1f000000}.RequestQueueDepth())

	assert.Equal(t, "BAR0", SATABarLocation(4).String())
	assert.Equal(t, "ConfigSpace", SATABarInConfigSpace.String())
	assert.Equal(t, "Reserved(2)", SATABarLocation(2).String())

	assert.Equal(t, "Root Port", PortTypeRootPort.String())
	assert.False(t, PortType(3).Valid())
	assert.Equal(t, "MSI Mapping", HTMSIMapping.String())
	assert.Equal(t, "Notify", VirtioNotifyConfig.String())

	assert.Equal(t, 4, PCIXCommand(0x30).MaxOutstandingSplit())
}
