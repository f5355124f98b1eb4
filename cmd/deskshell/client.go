package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/1broseidon/deskshell/internal/desktop"
	"github.com/1broseidon/deskshell/internal/ipc"
	"github.com/1broseidon/deskshell/internal/launcher"
)

const clientTimeout = 5 * time.Second

func newClient(addr string) (*ipc.Client, error) {
	if addr != "" {
		return ipc.NewClientWithAddr(addr), nil
	}
	return ipc.NewClient()
}

// clientFlags registers the flags every client command shares.
func clientFlags(fs *flag.FlagSet) *string {
	return fs.String("addr", "", "Server address (default: read from the runtime address file)")
}

func parseClientArgs(fs *flag.FlagSet, args []string) (int, bool) {
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0, false
		}
		return 2, false
	}
	return 0, true
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskshell status [--addr ADDR]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show server status via the HTTP API.")
	}
	addr := clientFlags(fs)
	if rc, ok := parseClientArgs(fs, args); !ok {
		return rc
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client, err := newClient(*addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	ctx, cancel := context.WithTimeout(context.Background(), clientTimeout)
	defer cancel()

	status, err := client.GetStatus(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	focused := "none"
	if status.FocusedWindow != nil {
		focused = status.FocusedWindow.String()
	}
	fmt.Printf("revision:       %d\n", status.Revision)
	fmt.Printf("window_count:   %d\n", status.WindowCount)
	fmt.Printf("focused_window: %s\n", focused)
	fmt.Printf("bus_sessions:   %d\n", status.Sessions)
	fmt.Printf("uptime_seconds: %d\n", status.UptimeSeconds)
	return 0
}

func runState(args []string) int {
	fs := flag.NewFlagSet("state", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskshell state [--addr ADDR] [--snapshot]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Print the live desktop state (or its persistable snapshot) as JSON.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	addr := clientFlags(fs)
	snapshot := fs.Bool("snapshot", false, "Print the snapshot form instead of the full state")
	if rc, ok := parseClientArgs(fs, args); !ok {
		return rc
	}

	client, err := newClient(*addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	ctx, cancel := context.WithTimeout(context.Background(), clientTimeout)
	defer cancel()

	var out any
	if *snapshot {
		out, err = client.Snapshot(ctx)
	} else {
		out, err = client.State(ctx)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := printJSON(os.Stdout, out); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runDispatch(args []string) int {
	fs := flag.NewFlagSet("dispatch", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskshell dispatch [--addr ADDR] <json|->")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Dispatch one action object or an array of actions. Use - to read stdin.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Example:")
		fmt.Fprintln(os.Stderr, `  deskshell dispatch '{"type":"open_window","request":{"app_id":"notepad"}}'`)
	}
	addr := clientFlags(fs)
	if rc, ok := parseClientArgs(fs, args); !ok {
		return rc
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "dispatch requires exactly one <json> argument")
		fs.Usage()
		return 2
	}

	body := []byte(fs.Arg(0))
	if fs.Arg(0) == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		body = data
	}

	client, err := newClient(*addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	ctx, cancel := context.WithTimeout(context.Background(), clientTimeout)
	defer cancel()

	status, err := client.DispatchRaw(ctx, body)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("revision: %d  windows: %d\n", status.Revision, status.WindowCount)
	return 0
}

func runOpen(args []string) int {
	fs := flag.NewFlagSet("open", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskshell open [--addr ADDR] <url>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Apply a deep link, e.g. /notes/hello or /?open=app:paint,notes:todo")
	}
	addr := clientFlags(fs)
	if rc, ok := parseClientArgs(fs, args); !ok {
		return rc
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "open requires <url>")
		fs.Usage()
		return 2
	}

	client, err := newClient(*addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	ctx, cancel := context.WithTimeout(context.Background(), clientTimeout)
	defer cancel()

	link, err := client.OpenDeepLink(ctx, fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	for _, t := range link.Open {
		if t.Kind == desktop.DeepLinkApp {
			fmt.Printf("opened %s:%s\n", t.Kind, t.App)
		} else {
			fmt.Printf("opened %s:%s\n", t.Kind, t.Slug)
		}
	}
	return 0
}

func runArrange(args []string) int {
	fs := flag.NewFlagSet("arrange", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskshell arrange [--addr ADDR] [--gap N]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Cascade every window inside the configured viewport.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	addr := clientFlags(fs)
	gapFlag := fs.Int("gap", -1, "Gap in pixels (default: arrange_gap from the server config)")
	if rc, ok := parseClientArgs(fs, args); !ok {
		return rc
	}

	var gap *int
	if *gapFlag >= 0 {
		gap = gapFlag
	}

	client, err := newClient(*addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	ctx, cancel := context.WithTimeout(context.Background(), clientTimeout)
	defer cancel()

	state, err := client.Arrange(ctx, gap)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	writeWindowTable(os.Stdout, state, 0)
	return 0
}

func runMenu(args []string) int {
	fs := flag.NewFlagSet("menu", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskshell menu [--addr ADDR] [--backend NAME] [--path PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show the start menu in rofi, fuzzel, wofi or dmenu. Picking a window")
		fmt.Fprintln(os.Stderr, "focuses it; picking a program opens it.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	addr := clientFlags(fs)
	backendName := fs.String("backend", "", "Picker to use (default: launcher_backend from config)")
	path := fs.String("path", "", "Config file path (default: ~/.config/deskshell/config.yaml)")
	if rc, ok := parseClientArgs(fs, args); !ok {
		return rc
	}

	name := *backendName
	if name == "" {
		res, _, err := loadConfig(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		name = res.Config.LauncherBackend
	}
	backend, err := launcher.NewBackend(name)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	client, err := newClient(*addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	msg, err := launcher.Run(ctx, backend, client)
	if errors.Is(err, launcher.ErrCancelled) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println(msg)
	return 0
}
