package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pcicap/pcicap-go/pkg/log"
)

// RunExport exports the trace file to the specified format.
func RunExport(path, format, output string) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	// Determine output writer
	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "jsonl":
		return exportJSONL(reader, w)
	case "csv":
		return exportCSV(reader, w)
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return nil
}

var csvHeader = []string{"timestamp", "scan_id", "device", "category", "vendor_id", "device_id", "offset", "capability_id", "name", "detail"}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := cw.Write(csvRow(event)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// csvRow flattens an event. Offset, capability_id, name and detail are
// filled according to the payload kind.
func csvRow(event log.Event) []string {
	var offset, capID, name, detail string
	switch {
	case event.Header != nil:
		name = event.Header.HeaderType
		detail = event.Header.ClassCode
		if event.Header.HasCapabilities {
			offset = hex8(event.Header.CapabilitiesPointer)
		}
	case event.Capability != nil:
		offset = hex8(event.Capability.Offset)
		capID = hex8(event.Capability.ID)
		name = event.Capability.Name
		detail = event.Capability.Detail
	case event.Error != nil:
		if event.Error.Offset != nil {
			offset = hex8(*event.Error.Offset)
		}
		if event.Error.CapabilityID != nil {
			capID = hex8(*event.Error.CapabilityID)
		}
		name = event.Error.Scope.String()
		detail = event.Error.Message
	case event.Summary != nil:
		detail = fmt.Sprintf("capabilities=%d record_errors=%d chain_error=%t",
			event.Summary.Capabilities, event.Summary.RecordErrors, event.Summary.ChainError)
	}

	var vendor, device string
	if event.VendorID != 0 || event.DeviceID != 0 {
		vendor = fmt.Sprintf("%04x", event.VendorID)
		device = fmt.Sprintf("%04x", event.DeviceID)
	}

	return []string{
		event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
		event.ScanID,
		event.Device,
		event.Category.String(),
		vendor,
		device,
		offset,
		capID,
		name,
		detail,
	}
}

func hex8(v uint8) string {
	return fmt.Sprintf("%02x", v)
}
