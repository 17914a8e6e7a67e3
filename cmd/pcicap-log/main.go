// Command pcicap-log is a tool for viewing and analyzing capability scan
// trace files.
//
// Trace files are written by "pcicap scan -trace <file>". A path of "-"
// reads the trace from standard input.
//
// Usage:
//
//	pcicap-log <command> [flags] <file.pctrace>
//
// Commands:
//
//	view     View trace file in human-readable format
//	export   Export trace file to JSON or CSV format
//	filter   Filter trace file and write to new file
//	stats    Show statistics about the trace file
//
// Examples:
//
//	# View all events
//	pcicap-log view scan.pctrace
//
//	# View only broken capability lists
//	pcicap-log view -scope chain scan.pctrace
//
//	# Export to CSV
//	pcicap-log export -format csv -o scan.csv scan.pctrace
//
//	# Keep the MSI-X events of Intel devices
//	pcicap-log filter -vendor 8086 -cap msix -o intel.pctrace scan.pctrace
//
//	# Show statistics
//	pcicap-log stats scan.pctrace
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pcicap/pcicap-go/cmd/pcicap-log/commands"
)

const usage = `pcicap-log - PCI Capability Trace Analyzer

Usage:
  pcicap-log <command> [flags] <file.pctrace>

Commands:
  view     View trace file in human-readable format
  export   Export trace file to JSON or CSV format
  filter   Filter trace file and write to new file
  stats    Show statistics about the trace file

Use "pcicap-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

// requirePath returns the trace file argument or exits with usage.
func requirePath(fs *flag.FlagSet) string {
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: trace file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `pcicap-log view - View trace file in human-readable format

Usage:
  pcicap-log view [flags] <file.pctrace>

Flags:
`)
		fs.PrintDefaults()
	}

	device := fs.String("device", "", "Filter by device address (0000:00:1f.2)")
	category := fs.String("category", "", "Filter by category (header, capability, error, summary)")
	scope := fs.String("scope", "", "Filter errors by scope (device, chain, record)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	filter := commands.ViewFilter{Device: *device}

	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			fail(err)
		}
		filter.Category = &c
	}

	if *scope != "" {
		s, err := commands.ParseScopeFlag(*scope)
		if err != nil {
			fail(err)
		}
		filter.Scope = &s
	}

	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fail(err)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `pcicap-log export - Export trace file to JSON or CSV format

Usage:
  pcicap-log export [flags] <file.pctrace>

Flags:
`)
		fs.PrintDefaults()
	}

	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if err := commands.RunExport(path, *format, *output); err != nil {
		fail(err)
	}
}

func runFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `pcicap-log filter - Filter trace file and write to new file

Usage:
  pcicap-log filter [flags] <file.pctrace>

Flags:
`)
		fs.PrintDefaults()
	}

	output := fs.String("o", "", "Output file (required)")
	scanID := fs.String("scan-id", "", "Filter by scan ID")
	device := fs.String("device", "", "Filter by device address")
	vendor := fs.String("vendor", "", "Filter by vendor ID (hex)")
	capID := fs.String("cap", "", "Filter by capability (name, alias, or ID)")
	timeStart := fs.String("time-start", "", "Filter by start time (RFC3339)")
	timeEnd := fs.String("time-end", "", "Filter by end time (RFC3339)")
	category := fs.String("category", "", "Filter by category (header, capability, error, summary)")
	scope := fs.String("scope", "", "Filter errors by scope (device, chain, record)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	opts := commands.FilterOptions{
		Output:     *output,
		ScanID:     *scanID,
		Device:     *device,
		Vendor:     *vendor,
		Capability: *capID,
		TimeStart:  *timeStart,
		TimeEnd:    *timeEnd,
		Category:   *category,
		Scope:      *scope,
	}

	count, err := commands.RunFilter(path, opts)
	if err != nil {
		fail(err)
	}
	fmt.Printf("Filtered %d events to %s\n", count, *output)
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `pcicap-log stats - Show statistics about the trace file

Usage:
  pcicap-log stats <file.pctrace>
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fail(err)
	}
}
