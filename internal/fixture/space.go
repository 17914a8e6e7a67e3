package fixture

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/pcicap/pcicap-go/pkg/configspace"
)

// Bytes builds the configuration space image: the dump (or 256 zero
// bytes), then the header fields, then the writes.
func (f *Fixture) Bytes() ([]byte, error) {
	data := make([]byte, configspace.Size)
	if f.Dump != "" {
		dump, err := configspace.ParseHexDump(strings.NewReader(f.Dump))
		if err != nil {
			return nil, fmt.Errorf("fixture %s: dump: %w", f.ID, err)
		}
		data = dump
	}

	if h := f.Header; h != nil {
		if len(data) < 0x40 {
			return nil, fmt.Errorf("fixture %s: dump shorter than header", f.ID)
		}
		binary.LittleEndian.PutUint16(data[0x00:], h.Vendor)
		binary.LittleEndian.PutUint16(data[0x02:], h.Device)
		binary.LittleEndian.PutUint16(data[0x04:], h.Command)
		binary.LittleEndian.PutUint16(data[0x06:], h.Status)
		data[0x08] = h.Revision
		data[0x09] = uint8(h.Class)
		data[0x0a] = uint8(h.Class >> 8)
		data[0x0b] = uint8(h.Class >> 16)
		data[0x0e] = h.Type
		data[0x34] = h.Pointer
	}

	for i, w := range f.Writes {
		b, err := parseOctets(w.Bytes)
		if err != nil {
			return nil, fmt.Errorf("fixture %s: writes[%d]: %w", f.ID, i, err)
		}
		if int(w.Offset)+len(b) > len(data) {
			return nil, fmt.Errorf("fixture %s: writes[%d]: %d bytes at %02x overflow %d-byte space",
				f.ID, i, len(b), w.Offset, len(data))
		}
		copy(data[w.Offset:], b)
	}

	return data, nil
}

// Space builds the configuration space of the fixture.
func (f *Fixture) Space() (*configspace.Space, error) {
	data, err := f.Bytes()
	if err != nil {
		return nil, err
	}
	return configspace.New(f.Address, data)
}

func parseOctets(s string) ([]byte, error) {
	fields := strings.Fields(s)
	out := make([]byte, 0, len(fields))
	for _, field := range fields {
		v, err := strconv.ParseUint(field, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid octet %q", field)
		}
		out = append(out, byte(v))
	}
	return out, nil
}
