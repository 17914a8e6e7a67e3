package log

import (
	"io"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// FileLogger writes trace events as a CBOR stream.
// It is safe for concurrent use from multiple goroutines.
type FileLogger struct {
	closer  io.Closer
	encoder *cbor.Encoder
	mu      sync.Mutex
	closed  bool
	err     error
}

// NewFileLogger creates a new FileLogger that writes to the specified path.
// If the file exists, new events are appended. The file is created with
// permissions 0644 if it doesn't exist.
func NewFileLogger(path string) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &FileLogger{
		closer:  f,
		encoder: newTraceEncoder(f),
	}, nil
}

// NewStreamLogger creates a FileLogger that writes to w. Close does not
// close w.
func NewStreamLogger(w io.Writer) *FileLogger {
	return &FileLogger{encoder: newTraceEncoder(w)}
}

// Log writes an event to the stream.
// This method is safe for concurrent use.
func (l *FileLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}

	// Tracing must not disrupt the scan; the first failure is kept for Err.
	if err := l.encoder.Encode(event); err != nil && l.err == nil {
		l.err = err
	}
}

// Err returns the first encoding or write error, if any.
func (l *FileLogger) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Close closes the log file.
// It is safe to call Close multiple times.
// After Close is called, subsequent Log calls are silently ignored.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}

	l.closed = true
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// Compile-time interface satisfaction check.
var _ Logger = (*FileLogger)(nil)
