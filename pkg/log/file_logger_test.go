package log

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func decodeAll(t *testing.T, data []byte) []Event {
	t.Helper()
	decoder := newTraceDecoder(bytes.NewReader(data))
	var events []Event
	for {
		var event Event
		if err := decoder.Decode(&event); err != nil {
			break
		}
		events = append(events, event)
	}
	return events
}

func TestFileLoggerCreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.ptrace")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	defer logger.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("trace file was not created")
	}
}

func TestFileLoggerWritesCBOR(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.ptrace")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	event := Event{
		Timestamp: time.Now(),
		ScanID:    "scan-123",
		Device:    "0000:00:1f.2",
		Category:  CategoryCapability,
		Capability: &CapabilityEvent{
			Offset: 0x70,
			ID:     0x01,
			Name:   "Power Management",
		},
	}

	logger.Log(event)
	logger.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read trace file: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("trace file is empty")
	}

	decoded := decodeEvent(t, data)

	if decoded.ScanID != event.ScanID {
		t.Errorf("ScanID: got %q, want %q", decoded.ScanID, event.ScanID)
	}
	if decoded.Capability == nil {
		t.Error("Capability is nil")
	} else if decoded.Capability.Offset != 0x70 {
		t.Errorf("Capability.Offset: got %02x, want 70", decoded.Capability.Offset)
	}
}

func TestFileLoggerAppends(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.ptrace")

	for _, scanID := range []string{"scan-1", "scan-2"} {
		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("NewFileLogger failed: %v", err)
		}
		logger.Log(Event{Timestamp: time.Now(), ScanID: scanID, Category: CategoryHeader})
		logger.Close()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read trace file: %v", err)
	}

	events := decodeAll(t, data)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].ScanID != "scan-1" {
		t.Errorf("first event ScanID: got %q, want %q", events[0].ScanID, "scan-1")
	}
	if events[1].ScanID != "scan-2" {
		t.Errorf("second event ScanID: got %q, want %q", events[1].ScanID, "scan-2")
	}
}

func TestFileLoggerThreadSafe(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStreamLogger(&buf)

	const numGoroutines = 10
	const eventsPerGoroutine = 100

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := range numGoroutines {
		go func(id int) {
			defer wg.Done()
			for range eventsPerGoroutine {
				logger.Log(Event{
					Timestamp: time.Now(),
					ScanID:    "scan",
					Device:    fmt.Sprintf("0000:00:%02x.0", id),
					Category:  CategoryCapability,
				})
			}
		}(i)
	}

	wg.Wait()
	logger.Close()

	count := len(decodeAll(t, buf.Bytes()))
	if want := numGoroutines * eventsPerGoroutine; count != want {
		t.Errorf("event count: got %d, want %d", count, want)
	}
}

func TestFileLoggerClose(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStreamLogger(&buf)

	logger.Log(Event{Timestamp: time.Now(), ScanID: "scan-1"})

	if err := logger.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}

	// Logging after close is ignored
	size := buf.Len()
	logger.Log(Event{Timestamp: time.Now(), ScanID: "scan-2"})
	if buf.Len() != size {
		t.Error("event written after Close")
	}
}

type failingWriter struct{}

var errWrite = errors.New("disk full")

func (failingWriter) Write([]byte) (int, error) { return 0, errWrite }

func TestFileLoggerRecordsFirstError(t *testing.T) {
	logger := NewStreamLogger(failingWriter{})

	logger.Log(Event{Timestamp: time.Now()})
	logger.Log(Event{Timestamp: time.Now()})

	if !errors.Is(logger.Err(), errWrite) {
		t.Errorf("Err: got %v, want %v", logger.Err(), errWrite)
	}
}

func TestFileLoggerInterfaceSatisfaction(t *testing.T) {
	// Compile-time check that FileLogger satisfies Logger interface
	var _ Logger = (*FileLogger)(nil)
}
