package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/1broseidon/deskshell/internal/config"
	"github.com/1broseidon/deskshell/internal/desktop"
	"github.com/1broseidon/deskshell/internal/store"
)

func printSnapshotUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  deskshell snapshot show [--path PATH] [--table]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Reads the configured storage backend directly; the server need not run.")
}

func runSnapshot(args []string, stdout io.Writer) int {
	if len(args) == 0 {
		printSnapshotUsage(os.Stderr)
		return 2
	}
	if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printSnapshotUsage(os.Stdout)
		return 0
	}
	if args[0] != "show" {
		fmt.Fprintf(os.Stderr, "Unknown snapshot command: %s\n\n", args[0])
		printSnapshotUsage(os.Stderr)
		return 2
	}

	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/deskshell/config.yaml)")
	table := fs.Bool("table", false, "Print a window table instead of JSON")
	if err := fs.Parse(args[1:]); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	res, _, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if res.Config.Storage.Backend == store.BackendMemory {
		fmt.Fprintln(os.Stderr, "storage backend is memory; nothing is saved between runs")
		return 1
	}

	snap, err := loadSnapshot(context.Background(), res.Config.Storage)
	if errors.Is(err, store.ErrNoSnapshot) {
		fmt.Fprintln(os.Stderr, "no saved snapshot")
		return 1
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *table {
		state := desktop.NewDesktopState()
		if _, err := desktop.Reduce(state, &desktop.InteractionState{}, desktop.HydrateSnapshot{Snapshot: *snap}); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		writeWindowTable(stdout, state, 0)
		return 0
	}
	if err := printJSON(stdout, snap); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func loadSnapshot(ctx context.Context, cfg config.StorageConfig) (*desktop.DesktopSnapshot, error) {
	st, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.Load(ctx)
}
