package scan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pcicap/pcicap-go/pkg/configspace"
	"github.com/pcicap/pcicap-go/pkg/inspect"
	"github.com/pcicap/pcicap-go/pkg/log"
)

// Scanner decodes the capability lists of PCI functions.
// It is safe for concurrent use.
type Scanner struct {
	config Config
	trace  log.Logger
	logger *slog.Logger

	// Test hooks.
	timeNow func() time.Time
	newID   func() string
}

// NewScanner creates a Scanner after validating config.
func NewScanner(config Config) (*Scanner, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scanner{
		config:  config,
		trace:   log.OrNoop(config.Trace),
		logger:  logger,
		timeNow: time.Now,
		newID:   func() string { return uuid.New().String() },
	}, nil
}

// ScanSpace decodes one configuration space that is already in memory.
func (s *Scanner) ScanSpace(space *configspace.Space) *Report {
	start := s.timeNow()
	scanID := s.newID()

	d := s.scanSpace(scanID, space)
	return &Report{
		ScanID:   scanID,
		Devices:  []DeviceReport{d},
		Duration: s.timeNow().Sub(start),
	}
}

// ScanDevice reads and decodes the function at addr under Config.Root.
// A read failure is recorded in the report and also returned.
func (s *Scanner) ScanDevice(ctx context.Context, addr string) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a, err := configspace.ParseAddress(addr)
	if err != nil {
		return nil, err
	}

	start := s.timeNow()
	scanID := s.newID()

	d := s.readAndScan(scanID, a.String())
	return &Report{
		ScanID:   scanID,
		Devices:  []DeviceReport{d},
		Duration: s.timeNow().Sub(start),
	}, d.Err
}

// ScanAll decodes every function under Config.Root, up to
// Config.Concurrency at a time. Devices are reported in address order.
// Per-device failures are recorded in the report; the returned error is
// non-nil only when the device list cannot be read or ctx is cancelled.
func (s *Scanner) ScanAll(ctx context.Context) (*Report, error) {
	addrs, err := configspace.ListDevices(s.config.Root)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}

	start := s.timeNow()
	scanID := s.newID()
	s.logger.Info("scan started", "scan_id", scanID, "root", s.config.Root, "devices", len(addrs))

	devices := make([]DeviceReport, len(addrs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Concurrency)
	for i, addr := range addrs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				devices[i] = DeviceReport{Address: addr, Err: err}
				return err
			}
			devices[i] = s.readAndScan(scanID, addr)
			return nil
		})
	}
	err = g.Wait()

	report := &Report{
		ScanID:   scanID,
		Devices:  devices,
		Duration: s.timeNow().Sub(start),
	}
	if err != nil {
		return report, err
	}

	t := report.Totals()
	s.logger.Info("scan finished", "scan_id", scanID,
		"devices", t.Devices,
		"capabilities", t.Capabilities,
		"record_errors", t.RecordErrors,
		"chain_errors", t.ChainErrors,
		"device_errors", t.DeviceErrors,
		"duration", report.Duration)
	return report, nil
}

func (s *Scanner) readAndScan(scanID, addr string) DeviceReport {
	start := s.timeNow()
	space, err := configspace.ReadDevice(s.config.Root, addr)
	if err != nil {
		s.logger.Warn("device read failed", "device", addr, "error", err)
		s.emitDeviceError(scanID, addr, err)
		d := DeviceReport{Address: addr, Err: err, Duration: s.timeNow().Sub(start)}
		s.emitSummary(scanID, addr, nil, &d)
		return d
	}
	return s.scanSpace(scanID, space)
}

// scanSpace decodes one device and traces every step.
func (s *Scanner) scanSpace(scanID string, space *configspace.Space) DeviceReport {
	start := s.timeNow()
	addr := space.Address

	tree, err := inspect.NewInspector(space).InspectDevice()
	if err != nil {
		s.logger.Warn("device header invalid", "device", addr, "error", err)
		s.emitDeviceError(scanID, addr, err)
		d := DeviceReport{Address: addr, Err: err, Duration: s.timeNow().Sub(start)}
		s.emitSummary(scanID, addr, nil, &d)
		return d
	}

	s.emitHeader(scanID, addr, tree.Header)
	for _, r := range tree.Results {
		if r.Err != nil {
			s.emitWalkError(scanID, addr, tree.Header, r.Err)
			continue
		}
		s.emitCapability(scanID, addr, tree.Header, r.Capability)
	}

	d := DeviceReport{Address: addr, Tree: tree, Duration: s.timeNow().Sub(start)}
	if chainErr := d.ChainError(); chainErr != nil {
		s.logger.Warn("capability list broken", "device", addr, "error", chainErr)
	}
	s.logger.Debug("device scanned", "device", addr,
		"capabilities", d.Capabilities(),
		"record_errors", d.RecordErrors())
	s.emitSummary(scanID, addr, tree.Header, &d)
	return d
}
