// Package configspace acquires raw PCI configuration space and hands the
// device-dependent region to the capability walker.
package configspace

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pcicap/pcicap-go/pkg/capability"
	"github.com/pcicap/pcicap-go/pkg/header"
)

// Size is the length of conventional configuration space.
const Size = capability.ExtendedOffset

// ErrShortSpace is returned when fewer bytes than the configuration
// header are available.
var ErrShortSpace = errors.New("configuration space shorter than header")

// Space is a snapshot of one function's configuration space.
type Space struct {
	// Address identifies the function, e.g. "0000:00:1f.2". It may be
	// empty for spaces read from dumps.
	Address string

	data []byte
}

// New returns a Space over a copy of data. Bytes past 0xFF are dropped.
func New(address string, data []byte) (*Space, error) {
	if len(data) < header.Size {
		return nil, fmt.Errorf("%w: %d bytes", ErrShortSpace, len(data))
	}
	if len(data) > Size {
		data = data[:Size]
	}
	return &Space{
		Address: address,
		data:    append([]byte(nil), data...),
	}, nil
}

// ReadFile reads a binary configuration space image, such as a copy of a
// sysfs config file.
func ReadFile(path string) (*Space, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, Size))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return New("", data)
}

// Bytes returns the raw configuration space. The slice must not be
// modified.
func (s *Space) Bytes() []byte {
	return s.data
}

// Len returns the number of bytes captured.
func (s *Space) Len() int {
	return len(s.data)
}

// Header parses the configuration header.
func (s *Space) Header() (*header.Header, error) {
	return header.Parse(s.data)
}

// DeviceDependent returns the bytes from offset 0x40 to the end of the
// captured space, at most up to 0xFF.
func (s *Space) DeviceDependent() []byte {
	return s.data[capability.DeviceDependentOffset:]
}

// Capabilities returns a walker over the capabilities list. It returns a
// walker that yields nothing when the Status register says the list is
// not implemented.
func (s *Space) Capabilities() (*capability.Walker, error) {
	h, err := s.Header()
	if err != nil {
		return nil, err
	}
	ctx := capability.ContextFromHeader(h)
	if !h.HasCapabilities() {
		ctx.Pointer = 0
	}
	return capability.NewWalker(s.DeviceDependent(), ctx), nil
}
