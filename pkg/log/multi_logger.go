package log

// MultiLogger sends events to multiple loggers.
// Useful when you want both console output (via SlogAdapter)
// and file output (via FileLogger) simultaneously.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger creates a MultiLogger that sends events to all provided
// loggers. Nil entries are skipped.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	m := &MultiLogger{}
	for _, l := range loggers {
		if l != nil {
			m.loggers = append(m.loggers, l)
		}
	}
	return m
}

// Log sends the event to all configured loggers.
func (m *MultiLogger) Log(event Event) {
	for _, l := range m.loggers {
		l.Log(event)
	}
}

// Len returns the number of loggers events are sent to.
func (m *MultiLogger) Len() int {
	return len(m.loggers)
}

// FilteredLogger forwards only the events matching a Filter.
type FilteredLogger struct {
	next   Logger
	filter Filter
}

// NewFilteredLogger creates a logger that passes events matching filter to next.
func NewFilteredLogger(next Logger, filter Filter) *FilteredLogger {
	return &FilteredLogger{next: next, filter: filter}
}

// Log forwards the event if it matches.
func (f *FilteredLogger) Log(event Event) {
	if f.filter.Matches(event) {
		f.next.Log(event)
	}
}

// Compile-time interface satisfaction checks.
var (
	_ Logger = (*MultiLogger)(nil)
	_ Logger = (*FilteredLogger)(nil)
)
