package configspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcicap/pcicap-go/pkg/capability"
	"github.com/pcicap/pcicap-go/pkg/header"
)

func readTestData(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func TestNew(t *testing.T) {
	_, err := New("", make([]byte, 0x3f))
	assert.ErrorIs(t, err, ErrShortSpace)

	s, err := New("0000:00:00.0", make([]byte, 4096))
	require.NoError(t, err)
	assert.Equal(t, Size, s.Len())
	assert.Len(t, s.DeviceDependent(), 0xc0)

	s, err = New("", make([]byte, header.Size))
	require.NoError(t, err)
	assert.Empty(t, s.DeviceDependent())
}

func TestNewCopiesInput(t *testing.T) {
	data := make([]byte, Size)
	s, err := New("", data)
	require.NoError(t, err)

	data[0] = 0xff
	assert.Equal(t, byte(0), s.Bytes()[0])
}

func TestReadFileAndCapabilities(t *testing.T) {
	s, err := ReadFile(filepath.Join("testdata", "ahci.bin"))
	require.NoError(t, err)

	h, err := s.Header()
	require.NoError(t, err)
	assert.Equal(t, "8086:2822", h.String())
	assert.Equal(t, "010601", h.ClassCode.String())
	assert.Equal(t, uint8(0x80), h.CapabilitiesPointer)

	w, err := s.Capabilities()
	require.NoError(t, err)

	var offsets []uint8
	for c, err := range w.All() {
		require.NoError(t, err)
		offsets = append(offsets, c.Offset)
	}
	assert.Equal(t, []uint8{0x80, 0x70, 0xa8}, offsets)
}

func TestCapabilitiesListAbsent(t *testing.T) {
	data := readTestData(t, "ahci.bin")
	data[0x06] &^= 0x10 // clear Status.CapabilitiesList

	s, err := New("", data)
	require.NoError(t, err)

	w, err := s.Capabilities()
	require.NoError(t, err)
	assert.Empty(t, collect(w))
}

func collect(w *capability.Walker) []capability.Capability {
	var caps []capability.Capability
	for c := range w.All() {
		caps = append(caps, c)
	}
	return caps
}

func TestParseHexDump(t *testing.T) {
	s, err := ReadHexDump(strings.NewReader(string(readTestData(t, "ahci.txt"))))
	require.NoError(t, err)
	assert.Equal(t, "0000:00:1f.2", s.Address)
	assert.Equal(t, readTestData(t, "ahci.bin"), s.Bytes())
}

func TestParseHexDumpFirstFunctionOnly(t *testing.T) {
	dump := "00: 86 80 82 28\n04: 00 00 00 00\n\n00: ff ff ff ff\n"
	data, err := ParseHexDump(strings.NewReader(dump))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x86, 0x80, 0x82, 0x28}, data[:4])
	assert.Len(t, data, 8)
}

func TestParseHexDumpErrors(t *testing.T) {
	tests := []struct {
		name string
		dump string
	}{
		{"empty", ""},
		{"title only", "00:1f.2 SATA controller\n"},
		{"gap", "00: 00 00\n10: 00 00\n"},
		{"out of order", "00: 00 00 00 00\n00: 00 00\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHexDump(strings.NewReader(tt.dump))
			assert.ErrorIs(t, err, ErrHexDump)
		})
	}
}

func TestWriteHexDump(t *testing.T) {
	s, err := New("0000:00:1f.2", readTestData(t, "ahci.bin"))
	require.NoError(t, err)

	var buf strings.Builder
	require.NoError(t, WriteHexDump(&buf, s))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 1+Size/16)
	assert.Equal(t, "0000:00:1f.2", lines[0])
	assert.Equal(t, "f0:", lines[len(lines)-1][:3])

	back, err := ReadHexDump(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, s.Address, back.Address)
	assert.Equal(t, s.Bytes(), back.Bytes())
}

func TestWriteHexDumpPartialRow(t *testing.T) {
	s, err := New("", make([]byte, 0x48))
	require.NoError(t, err)

	var buf strings.Builder
	require.NoError(t, WriteHexDump(&buf, s))
	assert.True(t, strings.HasPrefix(buf.String(), "00: 00 00"))
	assert.True(t, strings.HasSuffix(buf.String(), "\n40: 00 00 00 00 00 00 00 00\n"))
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"0000:00:1f.2", "0000:00:1f.2", true},
		{"00:1f.2", "0000:00:1f.2", true},
		{"0001:3b:00.1", "0001:3b:00.1", true},
		{"0000:00:20.0", "", false},
		{"0000:00:1f.8", "", false},
		{"0000:00:1F.2", "0000:00:1f.2", true},
		{"0000:00:1f.2.bak", "", false},
		{"0000:00:1f.2x", "", false},
		{"00:1f.2-old", "", false},
		{"0:0:1f.2", "", false},
		{"config", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			a, err := ParseAddress(tt.in)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrInvalidAddress)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.String())
		})
	}
}

func newSysfs(t *testing.T, devices map[string][]byte) string {
	t.Helper()
	root := t.TempDir()
	for addr, data := range devices {
		dir := filepath.Join(root, addr)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config"), data, 0o644))
	}
	return root
}

func TestReadDevice(t *testing.T) {
	root := newSysfs(t, map[string][]byte{
		"0000:00:1f.2": readTestData(t, "ahci.bin"),
	})

	s, err := ReadDevice(root, "00:1f.2")
	require.NoError(t, err)
	assert.Equal(t, "0000:00:1f.2", s.Address)
	assert.Equal(t, Size, s.Len())

	_, err = ReadDevice(root, "0000:00:02.0")
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = ReadDevice(root, "bogus")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestReadDeviceUnprivileged(t *testing.T) {
	root := newSysfs(t, map[string][]byte{
		"0000:00:1f.2": readTestData(t, "ahci.bin")[:header.Size],
	})

	s, err := ReadDevice(root, "0000:00:1f.2")
	require.NoError(t, err)
	assert.Empty(t, s.DeviceDependent())

	// The header still points at 0x80, which is now past the buffer.
	w, err := s.Capabilities()
	require.NoError(t, err)

	var errs []error
	for _, err := range w.All() {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], capability.ErrTruncatedHeader)
}

func TestListDevices(t *testing.T) {
	root := newSysfs(t, map[string][]byte{
		"0000:3b:00.0": make([]byte, Size),
		"0000:00:1f.2": make([]byte, Size),
		"0000:00:00.0": make([]byte, Size),
	})
	require.NoError(t, os.WriteFile(filepath.Join(root, "README"), nil, 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "0000:00:1f.2.bak"), 0o755))

	addrs, err := ListDevices(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"0000:00:00.0", "0000:00:1f.2", "0000:3b:00.0"}, addrs)

	_, err = ListDevices(filepath.Join(root, "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
