// Command pcicap decodes the PCI capabilities lists of the functions in a
// system, or of configuration space images and `lspci -x` dumps.
//
// Usage:
//
//	pcicap <command> [flags] [args]
//
// Commands:
//
//	scan     Decode every function under the sysfs root (or the given ones)
//	decode   Decode a configuration space image or hex dump
//	shell    Browse devices interactively
//
// Flags shared by all commands:
//
//	-config string       Configuration file (.yaml, .yml or .toml)
//	-root string         Directory with one entry per PCI function
//	-concurrency int     Devices decoded in parallel
//	-trace string        Write the scan trace to this file
//	-log-level string    Log level: debug, info, warn, error (default "info")
//	-v                   Print register details
//	-ids                 Print numeric capability IDs
//	-names               Resolve vendor and device names
//
// Examples:
//
//	# Decode all functions, with register details
//	pcicap scan -v
//
//	# Decode one function and keep a trace for pcicap-log
//	pcicap scan -trace scan.pctrace 0000:00:1f.2
//
//	# Decode the MSI-X capability of a saved lspci dump
//	lspci -xxx -s 00:03.0 | pcicap decode -select msix -
//
//	# Browse a copy of sysfs
//	pcicap shell -root ./testdata/sys
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pcicap/pcicap-go/cmd/pcicap/interactive"
	"github.com/pcicap/pcicap-go/pkg/inspect"
	"github.com/pcicap/pcicap-go/pkg/log"
	"github.com/pcicap/pcicap-go/pkg/scan"
)

const usage = `pcicap - PCI Capabilities Decoder

Usage:
  pcicap <command> [flags] [args]

Commands:
  scan     Decode every function under the sysfs root (or the given ones)
  decode   Decode a configuration space image or hex dump
  shell    Browse devices interactively

Use "pcicap <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "scan":
		err = runScan(args)
	case "decode":
		err = runDecode(args)
	case "shell":
		err = runShell(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds what every command builds from the configuration.
type app struct {
	config    Config
	logger    *slog.Logger
	trace     log.Logger
	formatter *inspect.Formatter

	traceFile *log.FileLogger
}

// newApp sets up logging and tracing for cfg. Trace events go to the
// trace file when one is configured, and to the operational logger at
// debug level.
func newApp(cfg Config, stderr io.Writer) (*app, error) {
	a := &app{
		config: cfg,
		logger: newLogger(cfg, stderr),
		formatter: &inspect.Formatter{
			Verbose:     cfg.Verbose,
			ShowIDs:     cfg.ShowIDs,
			Names:       cfg.Names,
			IndentWidth: 2,
		},
	}

	var traces []log.Logger
	if cfg.TraceFile != "" {
		fl, err := log.NewFileLogger(cfg.TraceFile)
		if err != nil {
			return nil, fmt.Errorf("open trace file: %w", err)
		}
		a.traceFile = fl
		traces = append(traces, fl)
	}
	if a.logger.Enabled(context.Background(), slog.LevelDebug) {
		traces = append(traces, log.NewSlogAdapter(a.logger))
	}
	if m := log.NewMultiLogger(traces...); m.Len() > 0 {
		a.trace = m
	}

	return a, nil
}

// scanner creates a Scanner for the configured root.
func (a *app) scanner() (*scan.Scanner, error) {
	return scan.NewScanner(scan.Config{
		Root:        a.config.SysfsRoot,
		Concurrency: a.config.Concurrency,
		Trace:       a.trace,
		Logger:      a.logger,
	})
}

// close flushes the trace file and reports the first write failure.
func (a *app) close() error {
	if a.traceFile == nil {
		return nil
	}
	werr := a.traceFile.Err()
	cerr := a.traceFile.Close()
	if werr != nil {
		return fmt.Errorf("write trace: %w", werr)
	}
	return cerr
}

// setup parses args with the shared flags plus whatever extra registers,
// and returns the app for the resulting configuration.
func setup(name, synopsis string, args []string, extra func(fs *flag.FlagSet)) (*app, *flag.FlagSet, error) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s\n\nFlags:\n", synopsis)
		fs.PrintDefaults()
	}

	var flags configFlags
	flags.register(fs)
	if extra != nil {
		extra(fs)
	}

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	cfg, err := flags.resolve(fs)
	if err != nil {
		return nil, nil, err
	}

	a, err := newApp(cfg, os.Stderr)
	if err != nil {
		return nil, nil, err
	}
	return a, fs, nil
}

func runScan(args []string) (err error) {
	a, fs, err := setup("scan", `pcicap scan - Decode the capabilities lists of PCI functions

Usage:
  pcicap scan [flags] [address...]`, args, nil)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.close())
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := a.scanner()
	if err != nil {
		return err
	}

	var report *scan.Report
	if fs.NArg() == 0 {
		report, err = s.ScanAll(ctx)
	} else {
		report, err = scanAddresses(ctx, s, fs.Args())
	}
	if err != nil {
		return err
	}

	writeReport(os.Stdout, report, a.formatter)
	if a.config.Verbose {
		writeTotals(os.Stdout, report)
	}
	if t := report.Totals(); t.DeviceErrors > 0 {
		return fmt.Errorf("%d of %d devices could not be decoded", t.DeviceErrors, t.Devices)
	}
	return nil
}

// scanAddresses scans each address in turn, merging the per-device
// reports. Read failures are kept in the report; invalid addresses and
// cancellation end the scan.
func scanAddresses(ctx context.Context, s *scan.Scanner, addrs []string) (*scan.Report, error) {
	merged := &scan.Report{}
	for _, addr := range addrs {
		r, err := s.ScanDevice(ctx, addr)
		if r == nil {
			return nil, err
		}
		if merged.ScanID == "" {
			merged.ScanID = r.ScanID
		}
		merged.Devices = append(merged.Devices, r.Devices...)
		merged.Duration += r.Duration
	}
	return merged, nil
}

func runDecode(args []string) (err error) {
	var format, selector string
	a, fs, err := setup("decode", `pcicap decode - Decode a configuration space image or hex dump

Usage:
  pcicap decode [flags] <file|->`, args, func(fs *flag.FlagSet) {
		fs.StringVar(&format, "format", "auto", "Input format: auto, hex, binary")
		fs.StringVar(&selector, "select", "", "Only print capabilities matching a path (msix, @70, 0000:00:03.0/pm)")
	})
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.close())
	}()

	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("one input file required")
	}

	space, err := loadSpace(fs.Arg(0), format)
	if err != nil {
		return err
	}

	s, err := a.scanner()
	if err != nil {
		return err
	}
	report := s.ScanSpace(space)
	d := &report.Devices[0]
	if d.Err != nil {
		return d.Err
	}

	if selector == "" {
		writeReport(os.Stdout, report, a.formatter)
		return nil
	}

	path, err := inspect.ParsePath(selector)
	if err != nil {
		return err
	}
	results, err := inspect.NewInspector(space).Select(d.Tree, path)
	if err != nil {
		return err
	}
	fmt.Fprint(os.Stdout, a.formatter.FormatResults(results, 0))
	return nil
}

func runShell(args []string) (err error) {
	a, _, err := setup("shell", `pcicap shell - Browse devices interactively

Usage:
  pcicap shell [flags]`, args, nil)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.close())
	}()

	s, err := a.scanner()
	if err != nil {
		return err
	}

	sh, err := interactive.New(interactive.Config{
		Root:      a.config.SysfsRoot,
		Scanner:   s,
		Formatter: a.formatter,
	})
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer cancel()

	sh.Run(ctx, cancel)
	return nil
}
