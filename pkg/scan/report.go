package scan

import (
	"time"

	"github.com/pcicap/pcicap-go/pkg/inspect"
)

// DeviceReport is the outcome of decoding one device.
type DeviceReport struct {
	Address string

	// Tree holds the header and walk results. It is nil when Err is set.
	Tree *inspect.DeviceTree

	// Err is a device-level failure: the configuration space could not
	// be read or its header could not be parsed.
	Err error

	Duration time.Duration
}

// Capabilities returns the number of successfully decoded capabilities.
func (d *DeviceReport) Capabilities() int {
	if d.Tree == nil {
		return 0
	}
	return len(d.Tree.Capabilities())
}

// RecordErrors returns the number of records that failed to decode.
func (d *DeviceReport) RecordErrors() int {
	n := 0
	for _, err := range d.errors() {
		if !isChainError(err) {
			n++
		}
	}
	return n
}

// ChainError returns the error that ended the walk early, or nil.
func (d *DeviceReport) ChainError() error {
	for _, err := range d.errors() {
		if isChainError(err) {
			return err
		}
	}
	return nil
}

func (d *DeviceReport) errors() []error {
	if d.Tree == nil {
		return nil
	}
	return d.Tree.Errors()
}

// Report is the outcome of one scan.
type Report struct {
	ScanID  string
	Devices []DeviceReport

	Duration time.Duration
}

// Totals sums the per-device counts of a report.
type Totals struct {
	Devices      int
	Capabilities int
	RecordErrors int
	ChainErrors  int
	DeviceErrors int
}

// Totals returns the summed counts over all devices.
func (r *Report) Totals() Totals {
	t := Totals{Devices: len(r.Devices)}
	for i := range r.Devices {
		d := &r.Devices[i]
		if d.Err != nil {
			t.DeviceErrors++
			continue
		}
		t.Capabilities += d.Capabilities()
		t.RecordErrors += d.RecordErrors()
		if d.ChainError() != nil {
			t.ChainErrors++
		}
	}
	return t
}

// Device returns the report for an address, or nil.
func (r *Report) Device(address string) *DeviceReport {
	for i := range r.Devices {
		if r.Devices[i].Address == address {
			return &r.Devices[i]
		}
	}
	return nil
}
