package log

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
)

func encodeEvent(t *testing.T, event Event) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := newTraceEncoder(&buf).Encode(event); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	return buf.Bytes()
}

func decodeEvent(t *testing.T, data []byte) Event {
	t.Helper()
	var event Event
	if err := newTraceDecoder(bytes.NewReader(data)).Decode(&event); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	return event
}

func TestEventCBORRoundTrip(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 123456789, time.UTC)
	original := Event{
		Timestamp: ts,
		ScanID:    "abc12345-def6-7890-abcd-ef1234567890",
		Device:    "0000:00:1f.2",
		Category:  CategoryHeader,
		VendorID:  0x8086,
		DeviceID:  0x2822,
	}

	data := encodeEvent(t, original)

	decoded := decodeEvent(t, data)

	if !decoded.Timestamp.Equal(original.Timestamp) {
		t.Errorf("Timestamp: got %v, want %v", decoded.Timestamp, original.Timestamp)
	}
	if decoded.ScanID != original.ScanID {
		t.Errorf("ScanID: got %q, want %q", decoded.ScanID, original.ScanID)
	}
	if decoded.Device != original.Device {
		t.Errorf("Device: got %q, want %q", decoded.Device, original.Device)
	}
	if decoded.Category != original.Category {
		t.Errorf("Category: got %v, want %v", decoded.Category, original.Category)
	}
	if decoded.VendorID != original.VendorID || decoded.DeviceID != original.DeviceID {
		t.Errorf("IDs: got %04x:%04x, want %04x:%04x",
			decoded.VendorID, decoded.DeviceID, original.VendorID, original.DeviceID)
	}
}

func TestHeaderEventCBORRoundTrip(t *testing.T) {
	original := Event{
		Timestamp: time.Now(),
		Category:  CategoryHeader,
		Header: &HeaderEvent{
			HeaderType:          "Bridge",
			ClassCode:           "060400",
			Revision:            0x10,
			CapabilitiesPointer: 0x40,
			HasCapabilities:     true,
		},
	}

	data := encodeEvent(t, original)
	decoded := decodeEvent(t, data)

	if decoded.Header == nil {
		t.Fatal("Header is nil")
	}
	if *decoded.Header != *original.Header {
		t.Errorf("Header: got %+v, want %+v", *decoded.Header, *original.Header)
	}
	if decoded.Capability != nil || decoded.Error != nil || decoded.Summary != nil {
		t.Error("unexpected payload set after decode")
	}
}

func TestCapabilityEventCBORRoundTrip(t *testing.T) {
	original := Event{
		Timestamp: time.Now(),
		Category:  CategoryCapability,
		Capability: &CapabilityEvent{
			Offset: 0x80,
			ID:     0x05,
			Name:   "MSI",
			Detail: "Enable+ Count=1/1 Maskable- 64bit-",
		},
	}

	data := encodeEvent(t, original)
	decoded := decodeEvent(t, data)

	if decoded.Capability == nil {
		t.Fatal("Capability is nil")
	}
	if *decoded.Capability != *original.Capability {
		t.Errorf("Capability: got %+v, want %+v", *decoded.Capability, *original.Capability)
	}
}

func TestErrorEventCBORRoundTrip(t *testing.T) {
	offset := uint8(0xf8)
	id := uint8(0x05)
	original := Event{
		Timestamp: time.Now(),
		Category:  CategoryError,
		Error: &ErrorEventData{
			Scope:        ErrorScopeRecord,
			Message:      "MSI 64-bit data read error (14 bytes)",
			Offset:       &offset,
			CapabilityID: &id,
			Context:      "decode",
		},
	}

	data := encodeEvent(t, original)
	decoded := decodeEvent(t, data)

	e := decoded.Error
	if e == nil {
		t.Fatal("Error is nil")
	}
	if e.Scope != ErrorScopeRecord {
		t.Errorf("Scope: got %v, want RECORD", e.Scope)
	}
	if e.Message != original.Error.Message {
		t.Errorf("Message: got %q, want %q", e.Message, original.Error.Message)
	}
	if e.Offset == nil || *e.Offset != offset {
		t.Errorf("Offset: got %v, want %02x", e.Offset, offset)
	}
	if e.CapabilityID == nil || *e.CapabilityID != id {
		t.Errorf("CapabilityID: got %v, want %02x", e.CapabilityID, id)
	}
	if e.Context != "decode" {
		t.Errorf("Context: got %q, want %q", e.Context, "decode")
	}
}

func TestErrorEventCBORRoundTrip_DeviceScope(t *testing.T) {
	original := Event{
		Timestamp: time.Now(),
		Category:  CategoryError,
		Error: &ErrorEventData{
			Scope:   ErrorScopeDevice,
			Message: "permission denied",
		},
	}

	data := encodeEvent(t, original)
	decoded := decodeEvent(t, data)

	if decoded.Error.Offset != nil {
		t.Errorf("Offset: got %v, want nil", *decoded.Error.Offset)
	}
	if decoded.Error.CapabilityID != nil {
		t.Errorf("CapabilityID: got %v, want nil", *decoded.Error.CapabilityID)
	}
}

func TestSummaryEventCBORRoundTrip(t *testing.T) {
	original := Event{
		Timestamp: time.Now(),
		Category:  CategorySummary,
		Summary: &SummaryEvent{
			Capabilities: 3,
			RecordErrors: 1,
			ChainError:   true,
			Duration:     1500 * time.Microsecond,
		},
	}

	data := encodeEvent(t, original)
	decoded := decodeEvent(t, data)

	if decoded.Summary == nil {
		t.Fatal("Summary is nil")
	}
	if *decoded.Summary != *original.Summary {
		t.Errorf("Summary: got %+v, want %+v", *decoded.Summary, *original.Summary)
	}
}

func TestEventCBORUsesIntegerKeys(t *testing.T) {
	event := Event{
		Timestamp: time.Now(),
		ScanID:    "scan-123",
		Device:    "0000:00:1f.2",
		Category:  CategoryCapability,
	}

	data := encodeEvent(t, event)

	// Decode to generic map and verify keys are integers
	var rawMap map[uint64]any
	if err := traceDecMode.Unmarshal(data, &rawMap); err != nil {
		t.Fatalf("failed to decode as map: %v", err)
	}

	for _, key := range []uint64{1, 2, 3, 4} {
		if _, ok := rawMap[key]; !ok {
			t.Errorf("expected integer key %d not found in encoded data", key)
		}
	}

	// Zero IDs and nil payloads are omitted
	for _, key := range []uint64{5, 6, 10, 11, 12, 13} {
		if _, ok := rawMap[key]; ok {
			t.Errorf("key %d should be omitted", key)
		}
	}

	// Verify no string keys
	var stringMap map[string]any
	if err := traceDecMode.Unmarshal(data, &stringMap); err == nil && len(stringMap) > 0 {
		t.Error("encoded data contains string keys, expected integer keys only")
	}
}

func TestTraceEncodingIsDeterministic(t *testing.T) {
	offset := uint8(0xf8)
	event := Event{
		Timestamp: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
		ScanID:    "scan-1",
		Device:    "0000:00:03.0",
		Category:  CategoryError,
		VendorID:  0x1af4,
		DeviceID:  0x1041,
		Error: &ErrorEventData{
			Scope:   ErrorScopeChain,
			Message: "capability header is not available",
			Offset:  &offset,
		},
	}

	first := encodeEvent(t, event)
	for range 5 {
		if got := encodeEvent(t, event); !bytes.Equal(got, first) {
			t.Fatalf("encoding changed between runs:\n%x\n%x", first, got)
		}
	}

	// Definite-length map header: 0xa0 | pair count.
	if first[0]&0xe0 != 0xa0 || first[0] == 0xbf {
		t.Errorf("event should be a definite-length map, got leading byte %02x", first[0])
	}
}

func TestTraceDecoderRejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		// {2: "a", 2: "b"}
		{"duplicate key", []byte{0xa2, 0x02, 0x61, 0x61, 0x02, 0x61, 0x62}},
		// indefinite-length {2: "a"}
		{"indefinite length", []byte{0xbf, 0x02, 0x61, 0x61, 0xff}},
		// {2: <text "\xff">}
		{"invalid utf-8", []byte{0xa1, 0x02, 0x61, 0xff}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var event Event
			err := newTraceDecoder(bytes.NewReader(tt.data)).Decode(&event)
			if err == nil {
				t.Fatalf("expected an error, decoded %+v", event)
			}
		})
	}
}

func TestReaderStopsAtDuplicateKey(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(encodeEvent(t, Event{Timestamp: time.Now(), ScanID: "scan-1", Category: CategoryHeader}))
	buf.Write([]byte{0xa2, 0x02, 0x61, 0x61, 0x02, 0x61, 0x62})

	reader := NewStreamReader(&buf, Filter{})
	if _, err := reader.Next(); err != nil {
		t.Fatalf("first event: %v", err)
	}

	_, err := reader.Next()
	var dupErr *cbor.DupMapKeyError
	if !errors.As(err, &dupErr) {
		t.Fatalf("expected *cbor.DupMapKeyError, got %v", err)
	}
}
