package scan

import (
	"errors"

	"github.com/pcicap/pcicap-go/pkg/capability"
	"github.com/pcicap/pcicap-go/pkg/header"
	"github.com/pcicap/pcicap-go/pkg/inspect"
	"github.com/pcicap/pcicap-go/pkg/log"
)

func isChainError(err error) bool {
	var ce *capability.Error
	return errors.As(err, &ce) && ce.Structural()
}

// event returns an event stamped with the scan and device identity.
func (s *Scanner) event(scanID, addr string, h *header.Header, category log.Category) log.Event {
	e := log.Event{
		Timestamp: s.timeNow(),
		ScanID:    scanID,
		Device:    addr,
		Category:  category,
	}
	if h != nil {
		e.VendorID = h.VendorID
		e.DeviceID = h.DeviceID
	}
	return e
}

func (s *Scanner) emitHeader(scanID, addr string, h *header.Header) {
	e := s.event(scanID, addr, h, log.CategoryHeader)
	e.Header = &log.HeaderEvent{
		HeaderType:          h.Type.String(),
		ClassCode:           h.ClassCode.String(),
		Revision:            h.Revision,
		CapabilitiesPointer: h.CapabilitiesPointer,
		HasCapabilities:     h.HasCapabilities(),
	}
	s.trace.Log(e)
}

func (s *Scanner) emitCapability(scanID, addr string, h *header.Header, c capability.Capability) {
	e := s.event(scanID, addr, h, log.CategoryCapability)
	e.Capability = &log.CapabilityEvent{
		Offset: c.Offset,
		ID:     uint8(c.ID()),
		Name:   inspect.CapabilityName(c.ID()),
		Detail: inspect.Summary(c.Kind),
	}
	s.trace.Log(e)
}

func (s *Scanner) emitWalkError(scanID, addr string, h *header.Header, err error) {
	e := s.event(scanID, addr, h, log.CategoryError)

	var ce *capability.Error
	if !errors.As(err, &ce) {
		e.Error = &log.ErrorEventData{Scope: log.ErrorScopeDevice, Message: err.Error()}
		s.trace.Log(e)
		return
	}

	offset := ce.Offset
	data := &log.ErrorEventData{
		Scope:   log.ErrorScopeRecord,
		Message: ce.Err.Error(),
		Offset:  &offset,
	}
	if ce.Structural() {
		data.Scope = log.ErrorScopeChain
	} else {
		id := uint8(ce.ID)
		data.CapabilityID = &id
		data.Context = inspect.CapabilityName(ce.ID)
	}
	e.Error = data
	s.trace.Log(e)
}

func (s *Scanner) emitDeviceError(scanID, addr string, err error) {
	e := s.event(scanID, addr, nil, log.CategoryError)
	e.Error = &log.ErrorEventData{
		Scope:   log.ErrorScopeDevice,
		Message: err.Error(),
	}
	s.trace.Log(e)
}

func (s *Scanner) emitSummary(scanID, addr string, h *header.Header, d *DeviceReport) {
	e := s.event(scanID, addr, h, log.CategorySummary)
	e.Summary = &log.SummaryEvent{
		Capabilities: d.Capabilities(),
		RecordErrors: d.RecordErrors(),
		ChainError:   d.ChainError() != nil,
		Duration:     d.Duration,
	}
	s.trace.Log(e)
}
