package log

import (
	"io"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Filter specifies criteria for filtering trace events.
// Empty/nil fields match all events for that criterion.
type Filter struct {
	// ScanID filters by exact scan ID match.
	ScanID string

	// Device filters by exact function address.
	Device string

	// Category filters by event category.
	Category *Category

	// VendorID filters by vendor ID.
	VendorID *uint16

	// CapabilityID filters capability and record error events by
	// capability identifier. Other categories never match.
	CapabilityID *uint8

	// Scope filters error events by scope. Other categories never match.
	Scope *ErrorScope

	// TimeStart filters events at or after this time.
	TimeStart *time.Time

	// TimeEnd filters events before this time.
	TimeEnd *time.Time
}

// Matches returns true if the event matches all filter criteria.
func (f *Filter) Matches(event Event) bool {
	if f.ScanID != "" && event.ScanID != f.ScanID {
		return false
	}
	if f.Device != "" && event.Device != f.Device {
		return false
	}
	if f.Category != nil && event.Category != *f.Category {
		return false
	}
	if f.VendorID != nil && event.VendorID != *f.VendorID {
		return false
	}
	if f.CapabilityID != nil && !matchesCapabilityID(event, *f.CapabilityID) {
		return false
	}
	if f.Scope != nil && (event.Error == nil || event.Error.Scope != *f.Scope) {
		return false
	}
	if f.TimeStart != nil && event.Timestamp.Before(*f.TimeStart) {
		return false
	}
	if f.TimeEnd != nil && !event.Timestamp.Before(*f.TimeEnd) {
		return false
	}
	return true
}

func matchesCapabilityID(event Event, id uint8) bool {
	switch {
	case event.Capability != nil:
		return event.Capability.ID == id
	case event.Error != nil && event.Error.CapabilityID != nil:
		return *event.Error.CapabilityID == id
	default:
		return false
	}
}

// Reader reads trace events from a CBOR stream.
// It provides an iterator interface for streaming large files.
type Reader struct {
	closer  io.Closer
	decoder *cbor.Decoder
	filter  Filter
}

// NewReader creates a Reader that reads all events from the specified trace file.
func NewReader(path string) (*Reader, error) {
	return NewFilteredReader(path, Filter{})
}

// NewFilteredReader creates a Reader that reads events matching the filter.
// A path of "-" reads from standard input.
func NewFilteredReader(path string, filter Filter) (*Reader, error) {
	if path == "-" {
		return NewStreamReader(os.Stdin, filter), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{
		closer:  f,
		decoder: newTraceDecoder(f),
		filter:  filter,
	}, nil
}

// NewStreamReader creates a Reader over r. Close does not close r.
func NewStreamReader(r io.Reader, filter Filter) *Reader {
	return &Reader{
		decoder: newTraceDecoder(r),
		filter:  filter,
	}
}

// Next returns the next event that matches the filter.
// Returns io.EOF when no more events are available.
func (r *Reader) Next() (Event, error) {
	for {
		var event Event
		if err := r.decoder.Decode(&event); err != nil {
			if err == io.EOF {
				return Event{}, io.EOF
			}
			return Event{}, err
		}

		if r.filter.Matches(event) {
			return event, nil
		}
		// Event doesn't match filter, continue to next
	}
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
