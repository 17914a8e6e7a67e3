package fixture

import (
	"errors"
	"fmt"

	"github.com/pcicap/pcicap-go/pkg/capability"
	"github.com/pcicap/pcicap-go/pkg/inspect"
)

var expectedErrors = map[string]error{
	"invalid_pointer":   capability.ErrInvalidPointer,
	"truncated_header":  capability.ErrTruncatedHeader,
	"cycle":             capability.ErrCycle,
	"payload_too_short": capability.ErrPayloadTooShort,
	"malformed":         capability.ErrMalformed,
}

// Walk builds the fixture's space and walks its capabilities list.
func (f *Fixture) Walk() ([]capability.Result, error) {
	space, err := f.Space()
	if err != nil {
		return nil, err
	}
	w, err := space.Capabilities()
	if err != nil {
		return nil, err
	}

	var results []capability.Result
	for c, err := range w.All() {
		results = append(results, capability.Result{Capability: c, Err: err})
	}
	return results, nil
}

// Verify compares walk results against the expectations and returns one
// joined error describing every mismatch, or nil.
func (f *Fixture) Verify(results []capability.Result) error {
	var errs []error
	if len(results) != len(f.Expect) {
		errs = append(errs, fmt.Errorf("got %d items, want %d", len(results), len(f.Expect)))
	}

	for i := range min(len(results), len(f.Expect)) {
		if err := f.Expect[i].check(results[i]); err != nil {
			errs = append(errs, fmt.Errorf("item %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func (e Expectation) check(r capability.Result) error {
	var wantID capability.ID
	if e.Capability != "" {
		wantID, _ = inspect.ResolveCapabilityName(e.Capability)
	}

	if e.Error != "" {
		var ce *capability.Error
		if !errors.As(r.Err, &ce) {
			return fmt.Errorf("got %v, want error %s at %02x", describe(r), e.Error, e.Offset)
		}
		if ce.Offset != e.Offset {
			return fmt.Errorf("error offset %02x, want %02x", ce.Offset, e.Offset)
		}
		if !errors.Is(ce, expectedErrors[e.Error]) {
			return fmt.Errorf("error %v, want %s", ce.Err, e.Error)
		}
		if e.Capability != "" && ce.ID != wantID {
			return fmt.Errorf("error ID %02x, want %02x", uint8(ce.ID), uint8(wantID))
		}
		return nil
	}

	if r.Err != nil {
		return fmt.Errorf("unexpected error %v", r.Err)
	}
	c := r.Capability
	if c.Offset != e.Offset {
		return fmt.Errorf("offset %02x, want %02x", c.Offset, e.Offset)
	}
	if c.ID() != wantID {
		return fmt.Errorf("ID %02x at %02x, want %02x", uint8(c.ID()), c.Offset, uint8(wantID))
	}
	if e.Summary != "" {
		if got := inspect.Summary(c.Kind); got != e.Summary {
			return fmt.Errorf("summary %q, want %q", got, e.Summary)
		}
	}
	return nil
}

func describe(r capability.Result) string {
	if r.Err != nil {
		return r.Err.Error()
	}
	return fmt.Sprintf("[%02x] %s", r.Capability.Offset, r.Capability.ID())
}
