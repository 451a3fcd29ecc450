package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/1broseidon/deskgrid/internal/desktopdir"
	"github.com/1broseidon/deskgrid/internal/ipc"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "monitors":
		os.Exit(runMonitors(os.Args[2:]))
	case "layout":
		os.Exit(runLayout(os.Args[2:]))
	case "zoom":
		os.Exit(runZoom(os.Args[2:]))
	case "refresh":
		os.Exit(runSimple("refresh", "Repair overlapping or off-screen icons and commit every position.", os.Args[2:], func(c *ipc.Client) error {
			return c.Refresh()
		}))
	case "rescan":
		os.Exit(runRescan(os.Args[2:]))
	case "reload":
		os.Exit(runSimple("reload", "Ask the daemon to re-read its configuration.", os.Args[2:], func(c *ipc.Client) error {
			return c.Reload()
		}))
	case "move":
		os.Exit(runMove(os.Args[2:]))
	case "where":
		os.Exit(runWhere(os.Args[2:]))
	case "at":
		os.Exit(runAt(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "tui":
		os.Exit(runTUI(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: deskgrid <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the desktop layout daemon (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "  monitors            List screens and the margins in effect")
	fmt.Fprintln(w, "  layout              Show icon positions per screen")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  zoom <level>        Set zoom (small|normal|large|huge|in|out)")
	fmt.Fprintln(w, "  move <item> <screen> <column> <row>")
	fmt.Fprintln(w, "                      Move an icon to a grid cell")
	fmt.Fprintln(w, "  where <item>        Show the cell and drawn rectangle of an icon")
	fmt.Fprintln(w, "  at <screen> <column> <row>")
	fmt.Fprintln(w, "                      Show the icon on a grid cell")
	fmt.Fprintln(w, "  refresh             Repair and commit the layout")
	fmt.Fprintln(w, "  rescan              Re-read the desktop directory")
	fmt.Fprintln(w, "  reload              Reload daemon configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config init         Write a default configuration file")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  tui                 Open interactive layout viewer")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'deskgrid <command> --help' for command-specific options.")
}

// parseNoArgs parses a flag set that accepts no positional arguments. It
// returns -1 to continue, or the exit code.
func parseNoArgs(fs *flag.FlagSet, name string, args []string) int {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "%s takes no arguments\n", name)
		fs.Usage()
		return 2
	}
	return -1
}

func newFlagSet(name, usage, description string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: "+usage)
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, description)
		hasFlags := false
		fs.VisitAll(func(*flag.Flag) { hasFlags = true })
		if hasFlags {
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Flags:")
			fs.PrintDefaults()
		}
	}
	return fs
}

func runSimple(name, description string, args []string, fn func(*ipc.Client) error) int {
	fs := newFlagSet(name, "deskgrid "+name, description)
	if code := parseNoArgs(fs, name, args); code >= 0 {
		return code
	}
	if err := fn(ipc.NewClient()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runStatus(args []string) int {
	fs := newFlagSet("status", "deskgrid status", "Show daemon status via IPC.")
	if code := parseNoArgs(fs, "status", args); code >= 0 {
		return code
	}

	client := ipc.NewClient()
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("daemon_running: %v\n", status.DaemonRunning)
	fmt.Printf("zoom:           %s\n", status.Zoom)
	fmt.Printf("desktop_dir:    %s\n", status.DesktopDir)
	fmt.Printf("positions_file: %s\n", status.PositionsFile)
	fmt.Printf("screens:        %d\n", status.Screens)
	fmt.Printf("primary:        %s\n", status.Primary)
	fmt.Printf("items:          %d\n", status.Items)
	fmt.Printf("floating:       %d\n", status.Floating)
	fmt.Printf("uptime_seconds: %d\n", status.UptimeSeconds)
	return 0
}

func runMonitors(args []string) int {
	fs := newFlagSet("monitors", "deskgrid monitors [--json]", "List the screens the daemon lays icons out on.")
	jsonOut := fs.Bool("json", false, "Output as JSON")
	if code := parseNoArgs(fs, "monitors", args); code >= 0 {
		return code
	}

	data, err := ipc.NewClient().GetMonitors()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *jsonOut {
		return printJSON(data)
	}
	for _, m := range data.Monitors {
		if m.Disabled {
			fmt.Printf("%s: off\n", m.Name)
			continue
		}
		primary := ""
		if m.Primary {
			primary = " (primary)"
		}
		fmt.Printf("%s%s: %dx%d+%d+%d margins top=%d bottom=%d left=%d right=%d\n",
			m.Name, primary, m.Width, m.Height, m.X, m.Y,
			m.Margins.Top, m.Margins.Bottom, m.Margins.Left, m.Margins.Right)
	}
	return 0
}

func runLayout(args []string) int {
	fs := newFlagSet("layout", "deskgrid layout [--json]", "Show the grid of every screen and the icons placed on it.")
	jsonOut := fs.Bool("json", false, "Output the full layout as JSON")
	if code := parseNoArgs(fs, "layout", args); code >= 0 {
		return code
	}

	layout, err := ipc.NewClient().GetLayout()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *jsonOut {
		return printJSON(layout)
	}
	writeLayout(os.Stdout, layout)
	return 0
}

func writeLayout(w io.Writer, layout *ipc.LayoutData) {
	fmt.Fprintf(w, "zoom: %s (cell %dx%d)\n", layout.Zoom, layout.CellSize.Width, layout.CellSize.Height)
	for _, s := range layout.Screens {
		primary := ""
		if s.Primary {
			primary = " (primary)"
		}
		g := s.Geometry
		fmt.Fprintf(w, "%s%s: %dx%d+%d+%d grid %dx%d\n", s.Name, primary, g.Width, g.Height, g.X, g.Y, s.MaxColumn+1, s.MaxRow+1)
		for _, it := range s.Items {
			fmt.Fprintf(w, "  %-8s %s\n", it.Cell.String(), desktopdir.DisplayName(it.URI))
		}
	}
	if len(layout.Floating) > 0 {
		fmt.Fprintln(w, "floating:")
		for _, uri := range layout.Floating {
			fmt.Fprintf(w, "  %s\n", desktopdir.DisplayName(uri))
		}
	}
}

func runZoom(args []string) int {
	fs := newFlagSet("zoom", "deskgrid zoom <small|normal|large|huge|in|out>", "Change the icon zoom level.")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "zoom requires exactly one <level>")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	var zoom string
	var err error
	switch level := strings.ToLower(fs.Arg(0)); level {
	case "in", "+":
		zoom, err = client.ZoomIn()
	case "out", "-":
		zoom, err = client.ZoomOut()
	default:
		zoom, err = client.SetZoom(level)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("zoom: %s\n", zoom)
	return 0
}

func runRescan(args []string) int {
	fs := newFlagSet("rescan", "deskgrid rescan", "Re-read the desktop directory now.")
	if code := parseNoArgs(fs, "rescan", args); code >= 0 {
		return code
	}
	data, err := ipc.NewClient().Rescan()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("removed: %d\n", data.Removed)
	fmt.Printf("inserted: %d\n", data.Inserted)
	return 0
}

func runMove(args []string) int {
	fs := newFlagSet("move", "deskgrid move <item> <screen> <column> <row>",
		"Move a desktop icon (file name, path or file:// URI) to a free grid cell.")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	req, err := parseMoveArgs(fs.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return 2
	}

	moved, err := ipc.NewClient().MoveItem(req)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("%s -> %s %s at %d,%d\n", desktopdir.DisplayName(moved.URI), req.Screen, moved.Cell.String(), moved.Position.X, moved.Position.Y)
	return 0
}

func parseMoveArgs(args []string) (ipc.MoveItemPayload, error) {
	if len(args) != 4 {
		return ipc.MoveItemPayload{}, fmt.Errorf("move requires <item> <screen> <column> <row>")
	}
	col, row, err := parseCell(args[2], args[3])
	if err != nil {
		return ipc.MoveItemPayload{}, err
	}
	return ipc.MoveItemPayload{Item: args[0], Screen: args[1], Column: col, Row: row}, nil
}

func parseCell(colArg, rowArg string) (int, int, error) {
	col, err := strconv.Atoi(colArg)
	if err != nil || col < 0 {
		return 0, 0, fmt.Errorf("invalid column %q", colArg)
	}
	row, err := strconv.Atoi(rowArg)
	if err != nil || row < 0 {
		return 0, 0, fmt.Errorf("invalid row %q", rowArg)
	}
	return col, row, nil
}

func runWhere(args []string) int {
	fs := newFlagSet("where", "deskgrid where [--json] <item>",
		"Show where a desktop icon is drawn. A floating icon is placed first.")
	jsonOut := fs.Bool("json", false, "Output as JSON")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "where requires <item>")
		fs.Usage()
		return 2
	}

	pl, err := ipc.NewClient().PlaceItem(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *jsonOut {
		return printJSON(pl)
	}
	writePlacement(os.Stdout, pl)
	return 0
}

func writePlacement(w io.Writer, pl *ipc.PlacementData) {
	overlapped := ""
	if pl.Overlapped {
		overlapped = " (overlapped)"
	}
	fmt.Fprintf(w, "%s: %s %s rect %dx%d+%d+%d%s\n",
		desktopdir.DisplayName(pl.URI), pl.Screen, pl.Cell.String(),
		pl.Rect.Width, pl.Rect.Height, pl.Rect.X, pl.Rect.Y, overlapped)
}

func runAt(args []string) int {
	fs := newFlagSet("at", "deskgrid at <screen> <column> <row>",
		"Show which desktop icon is drawn over a grid cell.")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 3 {
		fmt.Fprintln(os.Stderr, "at requires <screen> <column> <row>")
		fs.Usage()
		return 2
	}
	col, row, err := parseCell(fs.Arg(1), fs.Arg(2))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	uri, err := ipc.NewClient().ItemAt(ipc.ItemAtPayload{Screen: fs.Arg(0), Column: col, Row: row})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if uri == "" {
		fmt.Println("(free)")
		return 0
	}
	fmt.Println(desktopdir.DisplayName(uri))
	return 0
}

func printJSON(v any) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
