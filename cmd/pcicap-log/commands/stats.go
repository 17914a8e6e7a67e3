package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/pcicap/pcicap-go/pkg/log"
)

// Stats holds aggregate statistics about a trace file.
type Stats struct {
	TotalEvents      int
	EventsByCategory map[log.Category]int
	ErrorsByScope    map[log.ErrorScope]int
	Capabilities     map[string]int
	Scans            map[string]*ScanStats
	Devices          map[string]struct{}
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// ScanStats holds statistics for a single scan run.
type ScanStats struct {
	FirstSeen    time.Time
	LastSeen     time.Time
	Events       int
	Devices      int
	ChainErrors  int
	RecordErrors int
	ScanTime     time.Duration
}

func newStats() *Stats {
	return &Stats{
		EventsByCategory: make(map[log.Category]int),
		ErrorsByScope:    make(map[log.ErrorScope]int),
		Capabilities:     make(map[string]int),
		Scans:            make(map[string]*ScanStats),
		Devices:          make(map[string]struct{}),
	}
}

// add folds one event into the statistics.
func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByCategory[event.Category]++

	// Track time range
	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	if event.Device != "" {
		s.Devices[event.Device] = struct{}{}
	}

	scan, ok := s.Scans[event.ScanID]
	if !ok {
		scan = &ScanStats{
			FirstSeen: event.Timestamp,
			LastSeen:  event.Timestamp,
		}
		s.Scans[event.ScanID] = scan
	}
	scan.Events++
	if event.Timestamp.After(scan.LastSeen) {
		scan.LastSeen = event.Timestamp
	}

	switch {
	case event.Capability != nil:
		s.Capabilities[event.Capability.Name]++
	case event.Error != nil:
		s.ErrorsByScope[event.Error.Scope]++
	case event.Summary != nil:
		scan.Devices++
		scan.RecordErrors += event.Summary.RecordErrors
		scan.ScanTime += event.Summary.Duration
		if event.Summary.ChainError {
			scan.ChainErrors++
		}
	}
}

// RunStats analyzes the trace file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	stats := newStats()
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}

	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== PCI Capability Trace Statistics ===")
	fmt.Fprintln(w)

	// Time range
	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintf(w, "Devices:      %d\n", len(stats.Devices))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryHeader, log.CategoryCapability, log.CategoryError, log.CategorySummary} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	if len(stats.Capabilities) > 0 {
		fmt.Fprintln(w, "Capabilities:")
		names := make([]string, 0, len(stats.Capabilities))
		for name := range stats.Capabilities {
			names = append(names, name)
		}
		// Most frequent first, then by name
		sort.Slice(names, func(i, j int) bool {
			ci, cj := stats.Capabilities[names[i]], stats.Capabilities[names[j]]
			if ci != cj {
				return ci > cj
			}
			return names[i] < names[j]
		})
		for _, name := range names {
			fmt.Fprintf(w, "  %-32s %d\n", name+":", stats.Capabilities[name])
		}
		fmt.Fprintln(w)
	}

	// Scans
	fmt.Fprintf(w, "Scans: %d\n", len(stats.Scans))
	if len(stats.Scans) > 0 {
		type scanInfo struct {
			id    string
			stats *ScanStats
		}
		scans := make([]scanInfo, 0, len(stats.Scans))
		for id, ss := range stats.Scans {
			scans = append(scans, scanInfo{id, ss})
		}
		sort.Slice(scans, func(i, j int) bool {
			return scans[i].stats.FirstSeen.Before(scans[j].stats.FirstSeen)
		})

		fmt.Fprintln(w)
		for _, s := range scans {
			duration := s.stats.LastSeen.Sub(s.stats.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  [%s] %d events, %d devices, duration %s\n",
				shortenScanID(s.id), s.stats.Events, s.stats.Devices, duration)
			if s.stats.ChainErrors > 0 || s.stats.RecordErrors > 0 {
				fmt.Fprintf(w, "             Broken lists: %d  Bad records: %d\n",
					s.stats.ChainErrors, s.stats.RecordErrors)
			}
		}
	}

	// Errors
	var errorCount int
	for _, n := range stats.ErrorsByScope {
		errorCount += n
	}
	if errorCount > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", errorCount)
		for _, scope := range []log.ErrorScope{log.ErrorScopeDevice, log.ErrorScopeChain, log.ErrorScopeRecord} {
			if count := stats.ErrorsByScope[scope]; count > 0 {
				fmt.Fprintf(w, "  %-12s %d\n", scope.String()+":", count)
			}
		}
	}
}
