// Package interactive provides the interactive command-line interface
// of pcicap.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/pcicap/pcicap-go/pkg/configspace"
	"github.com/pcicap/pcicap-go/pkg/inspect"
	"github.com/pcicap/pcicap-go/pkg/scan"
)

const defaultPrompt = "pcicap> "

// Config configures a Shell.
type Config struct {
	// Root is the directory with one entry per PCI function.
	Root string

	// Scanner runs the scan command. Its root should match Root.
	Scanner *scan.Scanner

	// Formatter renders capabilities. Nil uses inspect.NewFormatter().
	Formatter *inspect.Formatter
}

// Shell handles the interactive mode of pcicap.
type Shell struct {
	config    Config
	formatter *inspect.Formatter
	rl        *readline.Instance
	out       io.Writer

	// Selected device
	inspector *inspect.Inspector
	tree      *inspect.DeviceTree
}

// New creates a Shell reading commands from the terminal.
func New(cfg Config) (*Shell, error) {
	s := newShell(cfg, nil)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          defaultPrompt,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    s.completer(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	s.rl = rl
	s.out = rl.Stdout()
	return s, nil
}

// newShell creates a Shell without a terminal, writing to out.
func newShell(cfg Config, out io.Writer) *Shell {
	formatter := cfg.Formatter
	if formatter == nil {
		formatter = inspect.NewFormatter()
	}
	return &Shell{
		config:    cfg,
		formatter: formatter,
		out:       out,
	}
}

func (s *Shell) completer() readline.AutoCompleter {
	devices := readline.PcItemDynamic(func(string) []string {
		addrs, _ := configspace.ListDevices(s.config.Root)
		return addrs
	})
	capabilities := readline.PcItemDynamic(func(string) []string {
		return inspect.CapabilityAliases()
	})
	onOff := []readline.PrefixCompleterInterface{readline.PcItem("on"), readline.PcItem("off")}

	return readline.NewPrefixCompleter(
		readline.PcItem("help"),
		readline.PcItem("devices"),
		readline.PcItem("select", devices),
		readline.PcItem("show", capabilities),
		readline.PcItem("hexdump"),
		readline.PcItem("scan"),
		readline.PcItem("verbose", onOff...),
		readline.PcItem("ids", onOff...),
		readline.PcItem("quit"),
	)
}

// Run starts the interactive command loop.
func (s *Shell) Run(ctx context.Context, cancel context.CancelFunc) {
	defer s.rl.Close()

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.out, "Exiting...")
			cancel()
			return
		}

		if !s.Execute(ctx, line) {
			cancel()
			return
		}
	}
}

// Execute runs one command line. It returns false when the shell should
// exit.
func (s *Shell) Execute(ctx context.Context, line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return true
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		s.printHelp()

	case "devices", "ls":
		s.cmdDevices()

	case "select", "cd":
		s.cmdSelect(args)

	case "show", "inspect", "i":
		s.cmdShow(args)

	case "hexdump", "x":
		s.cmdHexdump()

	case "scan":
		s.cmdScan(ctx)

	case "verbose":
		s.cmdToggle("verbose", &s.formatter.Verbose, args)

	case "ids":
		s.cmdToggle("ids", &s.formatter.ShowIDs, args)

	case "quit", "exit", "q":
		fmt.Fprintln(s.out, "Exiting...")
		return false

	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return true
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `
PCI Capability Commands:
  Devices:
    devices            - List functions with vendor and device IDs
    select <address>   - Select a function (e.g. 0000:00:1f.2)
    scan               - Decode every function and print totals

  Selected device:
    show [path]        - Show capabilities (all, or msix, @70, #10, ...)
    hexdump            - Print the configuration space in lspci -x form

  Display:
    verbose [on|off]   - Toggle register details
    ids [on|off]       - Toggle numeric capability IDs

  Other:
    help               - Show this help
    quit               - Exit`)
}

// cmdDevices lists the functions under the root.
func (s *Shell) cmdDevices() {
	addrs, err := configspace.ListDevices(s.config.Root)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	if len(addrs) == 0 {
		fmt.Fprintf(s.out, "No devices under %s\n", s.config.Root)
		return
	}

	for _, addr := range addrs {
		marker := " "
		if s.tree != nil && s.tree.Address == addr {
			marker = "*"
		}
		space, err := configspace.ReadDevice(s.config.Root, addr)
		if err != nil {
			fmt.Fprintf(s.out, "%s %s <%v>\n", marker, addr, err)
			continue
		}
		h, err := space.Header()
		if err != nil {
			fmt.Fprintf(s.out, "%s %s <%v>\n", marker, addr, err)
			continue
		}
		fmt.Fprintf(s.out, "%s %s %04x:%04x %s\n", marker, addr, h.VendorID, h.DeviceID,
			inspect.DeviceName(h.VendorID, h.DeviceID))
	}
}

// load reads and decodes the function at addr.
func (s *Shell) load(addr string) (*inspect.Inspector, *inspect.DeviceTree, error) {
	a, err := configspace.ParseAddress(addr)
	if err != nil {
		return nil, nil, err
	}
	space, err := configspace.ReadDevice(s.config.Root, a.String())
	if err != nil {
		return nil, nil, err
	}
	in := inspect.NewInspector(space)
	tree, err := in.InspectDevice()
	if err != nil {
		return nil, nil, err
	}
	return in, tree, nil
}

// cmdSelect makes a function the current device.
func (s *Shell) cmdSelect(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "Usage: select <address>")
		fmt.Fprintln(s.out, "  Example: select 0000:00:1f.2")
		return
	}

	in, tree, err := s.load(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	s.inspector = in
	s.tree = tree

	if s.rl != nil {
		s.rl.SetPrompt(fmt.Sprintf("pcicap %s> ", tree.Address))
	}
	fmt.Fprintln(s.out, s.formatter.FormatHeader(tree.Address, tree.Header))
}

// cmdShow prints the capabilities of the selected device, or those a path
// selects. A path naming another device shows that device without
// selecting it.
func (s *Shell) cmdShow(args []string) {
	if len(args) == 0 {
		if s.tree == nil {
			fmt.Fprintln(s.out, "No device selected (use 'select <address>')")
			return
		}
		fmt.Fprint(s.out, s.formatter.FormatTree(s.tree))
		return
	}

	path, err := inspect.ParsePath(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Invalid path: %v\n", err)
		return
	}

	in, tree := s.inspector, s.tree
	if path.Device != "" && (tree == nil || !strings.EqualFold(path.Device, tree.Address)) {
		in, tree, err = s.load(path.Device)
		if err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
			return
		}
	}
	if tree == nil {
		fmt.Fprintln(s.out, "No device selected (use 'select <address>')")
		return
	}

	results, err := in.Select(tree, path)
	if err != nil {
		if errors.Is(err, inspect.ErrCapabilityNotFound) {
			fmt.Fprintf(s.out, "No capability matches %s\n", path)
			return
		}
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprint(s.out, s.formatter.FormatResults(results, 0))
}

// cmdHexdump prints the selected configuration space.
func (s *Shell) cmdHexdump() {
	if s.inspector == nil {
		fmt.Fprintln(s.out, "No device selected (use 'select <address>')")
		return
	}
	if err := configspace.WriteHexDump(s.out, s.inspector.Space()); err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
	}
}

// cmdScan decodes every function and prints the totals.
func (s *Shell) cmdScan(ctx context.Context) {
	if s.config.Scanner == nil {
		fmt.Fprintln(s.out, "Scanning is not available")
		return
	}

	report, err := s.config.Scanner.ScanAll(ctx)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}

	for _, d := range report.Devices {
		switch {
		case d.Err != nil:
			fmt.Fprintf(s.out, "  %s <%v>\n", d.Address, d.Err)
		case d.ChainError() != nil:
			fmt.Fprintf(s.out, "  %s %d capabilities, list broken\n", d.Address, d.Capabilities())
		default:
			fmt.Fprintf(s.out, "  %s %d capabilities\n", d.Address, d.Capabilities())
		}
	}

	t := report.Totals()
	fmt.Fprintf(s.out, "%d devices, %d capabilities, %d bad records, %d broken lists, %d unreadable\n",
		t.Devices, t.Capabilities, t.RecordErrors, t.ChainErrors, t.DeviceErrors)
}

// cmdToggle flips or sets a display option.
func (s *Shell) cmdToggle(name string, value *bool, args []string) {
	switch {
	case len(args) == 0:
		*value = !*value
	case strings.EqualFold(args[0], "on"):
		*value = true
	case strings.EqualFold(args[0], "off"):
		*value = false
	default:
		fmt.Fprintf(s.out, "Usage: %s [on|off]\n", name)
		return
	}
	state := "off"
	if *value {
		state = "on"
	}
	fmt.Fprintf(s.out, "%s %s\n", name, state)
}
