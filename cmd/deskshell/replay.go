package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/deskshell/internal/desktop"
	"github.com/1broseidon/deskshell/internal/effects"
	"github.com/1broseidon/deskshell/internal/host"
	"github.com/1broseidon/deskshell/internal/shell"
	"github.com/1broseidon/deskshell/internal/store"
)

func runReplay(args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskshell replay [--json] [--strict] <script.yaml|script.json>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Dispatch a scripted list of actions against a fresh desktop and print")
		fmt.Fprintln(os.Stderr, "the resulting windows. Nothing is persisted.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	jsonOut := fs.Bool("json", false, "Print the final state as JSON (default when stdout is not a terminal)")
	strict := fs.Bool("strict", false, "Stop at the first action that fails")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "replay requires <script>")
		fs.Usage()
		return 2
	}

	actions, err := readScript(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	state, failures := replay(context.Background(), actions, *strict)
	for _, f := range failures {
		fmt.Fprintln(os.Stderr, f)
	}

	width, tty := terminalWidth(stdout)
	if *jsonOut || !tty {
		if err := printJSON(stdout, state); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	} else {
		writeWindowTable(stdout, state, width)
	}

	if *strict && len(failures) > 0 {
		return 1
	}
	return 0
}

// readScript decodes a YAML or JSON list of tagged actions. YAML scripts are
// converted to JSON so both go through the same action codec.
func readScript(path string) ([]desktop.Action, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	actions, err := desktop.DecodeActions(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return actions, nil
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return []byte("[]"), nil
	}
	if _, ok := doc.([]any); !ok {
		return nil, errors.New("script must be a list of actions")
	}
	return json.Marshal(doc)
}

// replayFailure is one action that did not apply.
type replayFailure struct {
	Index int
	Err   error
}

func (f replayFailure) String() string {
	return fmt.Sprintf("action %d: %v", f.Index, f.Err)
}

// replay runs actions against an in-memory desktop. Failing actions leave the
// state unchanged and are reported; strict stops at the first one.
func replay(ctx context.Context, actions []desktop.Action, strict bool) (*desktop.DesktopState, []replayFailure) {
	sh := shell.New(shell.Options{
		Hosts: effects.Hosts{
			Persistence: store.NewMemory(),
			Audio:       &host.Audio{},
			URLs:        &host.URLOpener{},
			Focus:       &host.Focus{},
		},
	})

	var failures []replayFailure
	for i, action := range actions {
		if err := sh.Dispatch(ctx, action); err != nil {
			failures = append(failures, replayFailure{Index: i, Err: err})
			if strict {
				break
			}
		}
	}
	return sh.State(), failures
}

func terminalWidth(w io.Writer) (int, bool) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0, false
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0, true
	}
	return width, true
}

// writeWindowTable prints one line per window, topmost last. Titles are cut
// to fit width when it is known.
func writeWindowTable(w io.Writer, state *desktop.DesktopState, width int) {
	if state == nil || len(state.Windows) == 0 {
		fmt.Fprintln(w, "no windows")
		return
	}
	const header = "%-4s %-12s %-22s %-6s %-12s %s\n"
	fmt.Fprintf(w, header, "ID", "APP", "RECT", "Z", "STATE", "TITLE")
	for _, win := range state.Windows {
		status := "normal"
		switch {
		case win.Minimized:
			status = "minimized"
		case win.Maximized:
			status = "maximized"
		}
		if win.IsFocused {
			status += "*"
		}
		r := win.Rect
		rect := fmt.Sprintf("%dx%d+%d+%d", r.W, r.H, r.X, r.Y)
		line := fmt.Sprintf("%-4d %-12s %-22s %-6d %-12s %s", win.ID, win.AppID, rect, win.ZIndex, status, win.Title)
		if width > 0 && len(line) > width {
			line = line[:width]
		}
		fmt.Fprintln(w, line)
	}
	if state.StartMenuOpen {
		fmt.Fprintln(w, "start menu: open")
	}
}
