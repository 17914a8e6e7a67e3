package configspace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// ErrHexDump is returned for dumps that cannot be turned into a
// contiguous byte image.
var ErrHexDump = errors.New("invalid hex dump")

// dumpLine matches one row of `lspci -x` output: "40: 00 80 00 80 ...".
var dumpLine = regexp.MustCompile(`^([0-9a-fA-F]{2,3}):((?:\s+[0-9a-fA-F]{2})+)\s*$`)

// ParseHexDump reads the configuration space of the first function in
// `lspci -x`, `-xxx` or `-xxxx` output. Device title lines are skipped;
// rows must be contiguous from offset 0. Parsing stops at the first
// blank line after data, so only one function is returned.
func ParseHexDump(r io.Reader) ([]byte, error) {
	_, data, err := parseDump(r)
	return data, err
}

// ReadHexDump parses a dump and wraps it in a Space. The address is taken
// from the device title line when one precedes the data.
func ReadHexDump(r io.Reader) (*Space, error) {
	addr, data, err := parseDump(r)
	if err != nil {
		return nil, err
	}
	return New(addr, data)
}

func parseDump(r io.Reader) (addr string, data []byte, err error) {
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			if len(data) > 0 {
				break
			}
			continue
		}

		m := dumpLine.FindStringSubmatch(text)
		if m == nil {
			if len(data) > 0 {
				break
			}
			if a, err := ParseAddress(strings.Fields(text)[0]); err == nil {
				addr = a.String()
			}
			continue
		}

		offset, err := strconv.ParseUint(m[1], 16, 16)
		if err != nil {
			return "", nil, fmt.Errorf("%w: line %d: %v", ErrHexDump, line, err)
		}
		if int(offset) != len(data) {
			return "", nil, fmt.Errorf("%w: line %d: offset %02x, expected %02x", ErrHexDump, line, offset, len(data))
		}

		for _, tok := range strings.Fields(m[2]) {
			b, err := strconv.ParseUint(tok, 16, 8)
			if err != nil {
				return "", nil, fmt.Errorf("%w: line %d: %v", ErrHexDump, line, err)
			}
			data = append(data, byte(b))
		}
	}
	if err := sc.Err(); err != nil {
		return "", nil, err
	}
	if len(data) == 0 {
		return "", nil, fmt.Errorf("%w: no data rows", ErrHexDump)
	}
	return addr, data, nil
}

// WriteHexDump writes s in `lspci -x` notation, preceded by the address
// as a title line when one is known. ParseHexDump reads the output back.
func WriteHexDump(w io.Writer, s *Space) error {
	bw := bufio.NewWriter(w)
	if s.Address != "" {
		fmt.Fprintln(bw, s.Address)
	}
	for row := 0; row < len(s.data); row += 16 {
		fmt.Fprintf(bw, "%02x:", row)
		for _, b := range s.data[row:min(row+16, len(s.data))] {
			fmt.Fprintf(bw, " %02x", b)
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
