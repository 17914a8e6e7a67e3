package capability

import (
	"io"
	"iter"
)

// Walker follows a capabilities list over the device-dependent region.
//
// A Walker is a sequential cursor and must not be used from more than one
// goroutine. It borrows data for its lifetime and never writes to it.
type Walker struct {
	data    []byte
	ctx     Context
	pointer uint8
	done    bool
	visited [256]bool
}

// NewWalker returns a Walker over data, which holds configuration space
// starting at DeviceDependentOffset. Offsets are translated by subtracting
// DeviceDependentOffset, so data[0] is offset 0x40.
func NewWalker(data []byte, ctx Context) *Walker {
	return &Walker{
		data:    data,
		ctx:     ctx,
		pointer: ctx.Pointer,
	}
}

// Next returns the next capability in list order.
//
// A non-nil error other than io.EOF is an *Error describing the record at
// the current pointer. If the error is structural, the following call
// returns io.EOF; otherwise the walk has already moved on to the record's
// next pointer and Next can be called again. io.EOF is returned once the
// list is exhausted.
func (w *Walker) Next() (Capability, error) {
	if w.done || w.pointer == 0 {
		w.done = true
		return Capability{}, io.EOF
	}

	ptr := w.pointer
	if w.visited[ptr] {
		return Capability{}, w.stop(ptr, ErrCycle)
	}
	w.visited[ptr] = true

	id, next, payload, err := readRecord(w.data, ptr)
	if err != nil {
		return Capability{}, w.stop(ptr, err)
	}

	// The list continues from this record regardless of whether its
	// payload decodes.
	w.pointer = next

	kind, err := decode(id, payload, w.ctx)
	if err != nil {
		return Capability{}, &Error{Offset: ptr, ID: ID(id), Err: err}
	}
	return Capability{Offset: ptr, Kind: kind}, nil
}

// stop ends the walk and reports a chain error at ptr.
func (w *Walker) stop(ptr uint8, err error) error {
	w.done = true
	w.pointer = 0
	return &Error{Offset: ptr, Err: err}
}

// All returns the remaining items as a single-use sequence. Iteration ends
// when the list is exhausted or the consumer stops early.
func (w *Walker) All() iter.Seq2[Capability, error] {
	return func(yield func(Capability, error) bool) {
		for {
			c, err := w.Next()
			if err == io.EOF {
				return
			}
			if !yield(c, err) {
				return
			}
		}
	}
}

// Result is one item of a collected walk: either a Capability or an error.
type Result struct {
	Capability Capability
	Err        error
}

// Walk decodes the whole list and returns every item in order.
func Walk(data []byte, ctx Context) []Result {
	var results []Result
	for c, err := range NewWalker(data, ctx).All() {
		results = append(results, Result{Capability: c, Err: err})
	}
	return results
}

// readRecord locates the record at ptr. The payload is every byte after
// the two header bytes up to the end of data; it is not interpreted here.
func readRecord(data []byte, ptr uint8) (id, next uint8, payload []byte, err error) {
	if int(ptr) < DeviceDependentOffset {
		return 0, 0, nil, ErrInvalidPointer
	}
	idx := int(ptr) - DeviceDependentOffset
	if idx+HeaderSize > len(data) {
		return 0, 0, nil, ErrTruncatedHeader
	}
	return data[idx], data[idx+1], data[idx+HeaderSize:], nil
}
