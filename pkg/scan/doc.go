// Package scan decodes the capability lists of many PCI functions.
//
// A Scanner reads each function's configuration space, walks its
// capabilities with its own Walker and emits one trace event per header,
// capability and error, followed by a per-device summary. Devices are
// decoded in parallel, bounded by Config.Concurrency; a failure on one
// device never affects another.
//
//	scanner, err := scan.NewScanner(scan.Config{
//	    Root:        "/sys/bus/pci/devices",
//	    Concurrency: 4,
//	    Trace:       log.NewSlogAdapter(slog.Default()),
//	})
//	report, err := scanner.ScanAll(ctx)
package scan
