package log

import (
	"context"
	"fmt"
	"log/slog"
)

// SlogAdapter writes trace events to an slog.Logger.
// Useful for development when you want to see decode progress in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger. Errors are logged at Warn
// level, everything else at Debug.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("scan_id", event.ScanID),
		slog.String("category", event.Category.String()),
	}

	if event.Device != "" {
		attrs = append(attrs, slog.String("device", event.Device))
	}
	if event.VendorID != 0 || event.DeviceID != 0 {
		attrs = append(attrs, slog.String("id", fmt.Sprintf("%04x:%04x", event.VendorID, event.DeviceID)))
	}

	level := slog.LevelDebug
	switch {
	case event.Header != nil:
		attrs = append(attrs,
			slog.String("header_type", event.Header.HeaderType),
			slog.String("class", event.Header.ClassCode),
			slog.Bool("has_caps", event.Header.HasCapabilities),
		)
		if event.Header.CapabilitiesPointer != 0 {
			attrs = append(attrs, slog.String("cap_ptr", hexByte(event.Header.CapabilitiesPointer)))
		}
	case event.Capability != nil:
		attrs = append(attrs,
			slog.String("offset", hexByte(event.Capability.Offset)),
			slog.String("cap_id", hexByte(event.Capability.ID)),
			slog.String("name", event.Capability.Name),
		)
		if event.Capability.Detail != "" {
			attrs = append(attrs, slog.String("detail", event.Capability.Detail))
		}
	case event.Error != nil:
		level = slog.LevelWarn
		attrs = append(attrs,
			slog.String("error_scope", event.Error.Scope.String()),
			slog.String("error_msg", event.Error.Message),
		)
		if event.Error.Offset != nil {
			attrs = append(attrs, slog.String("offset", hexByte(*event.Error.Offset)))
		}
		if event.Error.CapabilityID != nil {
			attrs = append(attrs, slog.String("cap_id", hexByte(*event.Error.CapabilityID)))
		}
		if event.Error.Context != "" {
			attrs = append(attrs, slog.String("error_context", event.Error.Context))
		}
	case event.Summary != nil:
		attrs = append(attrs,
			slog.Int("capabilities", event.Summary.Capabilities),
			slog.Int("record_errors", event.Summary.RecordErrors),
			slog.Bool("chain_error", event.Summary.ChainError),
			slog.Duration("duration", event.Summary.Duration),
		)
	}

	a.logger.LogAttrs(context.Background(), level, "capscan", attrs...)
}

func hexByte(b uint8) string {
	return fmt.Sprintf("%02x", b)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
