package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"
	"unicode/utf8"

	"github.com/pcicap/pcicap-go/pkg/configspace"
	"github.com/pcicap/pcicap-go/pkg/inspect"
	"github.com/pcicap/pcicap-go/pkg/scan"
)

// writeReport prints every device of report, separated by blank lines.
// Devices that could not be read are shown with their error.
func writeReport(w io.Writer, report *scan.Report, f *inspect.Formatter) {
	for i, d := range report.Devices {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if d.Err != nil {
			address := d.Address
			if address == "" {
				address = "-"
			}
			fmt.Fprintf(w, "%s: <%v>\n", address, d.Err)
			continue
		}
		fmt.Fprint(w, f.FormatTree(d.Tree))
	}
}

// writeTotals prints the counts of report.
func writeTotals(w io.Writer, report *scan.Report) {
	t := report.Totals()
	fmt.Fprintf(w, "\nScan %s: %d devices, %d capabilities, %d bad records, %d broken lists, %d unreadable (%s)\n",
		report.ScanID, t.Devices, t.Capabilities, t.RecordErrors, t.ChainErrors, t.DeviceErrors,
		report.Duration.Round(time.Microsecond))
}

// loadSpace reads a configuration space from path ("-" for standard
// input). Format "auto" treats printable text as an lspci hex dump and
// anything else as a binary image.
func loadSpace(path, format string) (*configspace.Space, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	switch format {
	case "auto":
		if isText(data) {
			return configspace.ReadHexDump(bytes.NewReader(data))
		}
		return configspace.New("", data)
	case "hex":
		return configspace.ReadHexDump(bytes.NewReader(data))
	case "binary", "bin":
		return configspace.New("", data)
	default:
		return nil, fmt.Errorf("unknown format %q (supported: auto, hex, binary)", format)
	}
}

// isText reports whether data looks like a text dump rather than a raw
// configuration space image.
func isText(data []byte) bool {
	if !utf8.Valid(data) {
		return false
	}
	for _, b := range data {
		if b < 0x20 && b != '\n' && b != '\r' && b != '\t' {
			return false
		}
	}
	return len(data) > 0
}
