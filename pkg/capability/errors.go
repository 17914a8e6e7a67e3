package capability

import (
	"errors"
	"fmt"
)

// Chain errors. Each one ends the walk.
var (
	// ErrInvalidPointer indicates a pointer below the device-dependent region.
	ErrInvalidPointer = errors.New("capability pointer precedes device-dependent region")

	// ErrTruncatedHeader indicates fewer than two bytes remain at the pointer.
	ErrTruncatedHeader = errors.New("capability header is not available")

	// ErrCycle indicates a pointer to an offset that was already visited.
	ErrCycle = errors.New("capability list revisits an offset")
)

// Record errors. The walk continues past them.
var (
	// ErrPayloadTooShort indicates a recognized capability whose payload is
	// shorter than its layout requires.
	ErrPayloadTooShort = errors.New("capability payload too short")

	// ErrMalformed indicates a recognized capability with inconsistent fields.
	ErrMalformed = errors.New("malformed capability")
)

// Error is a failure tied to a position in the capabilities list.
type Error struct {
	// Offset is the pointer that was being followed.
	Offset uint8

	// ID is the identifier read at Offset. It is zero for chain errors,
	// where no identifier could be read.
	ID ID

	// Err is the cause: one of the chain sentinels, a *DataError or a
	// *DecodeError.
	Err error
}

func (e *Error) Error() string {
	if e.Structural() {
		return fmt.Sprintf("[%02x] %v", e.Offset, e.Err)
	}
	return fmt.Sprintf("[%02x] %s: %v", e.Offset, e.ID, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Structural reports whether the error concerns the list itself rather
// than one record's payload. Structural errors end the walk.
func (e *Error) Structural() bool {
	return errors.Is(e.Err, ErrInvalidPointer) ||
		errors.Is(e.Err, ErrTruncatedHeader) ||
		errors.Is(e.Err, ErrCycle)
}

// DataError reports a payload shorter than the layout being decoded.
type DataError struct {
	// Name is the layout that was attempted, e.g. "MSI 64-bit".
	Name string

	// Size is the minimum payload length in bytes for that layout.
	Size int
}

func (e *DataError) Error() string {
	return fmt.Sprintf("%s data read error (%d bytes)", e.Name, e.Size)
}

// Is matches ErrPayloadTooShort.
func (e *DataError) Is(target error) bool {
	return target == ErrPayloadTooShort
}

// DecodeError reports a recognized capability whose fields contradict
// each other or the bytes actually present.
type DecodeError struct {
	// Name is the capability or layout being decoded.
	Name string

	// Reason describes the inconsistency.
	Reason string
}

func (e *DecodeError) Error() string {
	return e.Name + ": " + e.Reason
}

// Is matches ErrMalformed.
func (e *DecodeError) Is(target error) bool {
	return target == ErrMalformed
}

func malformed(name, format string, args ...any) *DecodeError {
	return &DecodeError{Name: name, Reason: fmt.Sprintf(format, args...)}
}

// need returns a *DataError when data is shorter than size.
func need(name string, data []byte, size int) error {
	if len(data) < size {
		return &DataError{Name: name, Size: size}
	}
	return nil
}
