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

	"github.com/1broseidon/deskshell/internal/config"
	"github.com/1broseidon/deskshell/internal/effects"
	"github.com/1broseidon/deskshell/internal/host"
	"github.com/1broseidon/deskshell/internal/ipc"
	"github.com/1broseidon/deskshell/internal/logging"
	"github.com/1broseidon/deskshell/internal/runtimepath"
	"github.com/1broseidon/deskshell/internal/shell"
	"github.com/1broseidon/deskshell/internal/store"
	"github.com/1broseidon/deskshell/internal/tui"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "serve":
		os.Exit(runServe(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "state":
		os.Exit(runState(os.Args[2:]))
	case "dispatch":
		os.Exit(runDispatch(os.Args[2:]))
	case "open":
		os.Exit(runOpen(os.Args[2:]))
	case "arrange":
		os.Exit(runArrange(os.Args[2:]))
	case "replay":
		os.Exit(runReplay(os.Args[2:], os.Stdout))
	case "snapshot":
		os.Exit(runSnapshot(os.Args[2:], os.Stdout))
	case "config":
		os.Exit(runConfig(os.Args[2:], os.Stdout))
	case "menu":
		os.Exit(runMenu(os.Args[2:]))
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
	fmt.Fprintln(w, "Usage: deskshell <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve               Start the deskshell server (foreground)")
	fmt.Fprintln(w, "  status              Show server status")
	fmt.Fprintln(w, "  state               Print the current desktop state as JSON")
	fmt.Fprintln(w, "  dispatch            Send one or more encoded actions")
	fmt.Fprintln(w, "  open                Apply a deep link URL")
	fmt.Fprintln(w, "  arrange             Tile all visible windows in a grid")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  replay              Run a scripted action list offline")
	fmt.Fprintln(w, "  snapshot show       Print the last saved snapshot")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  menu                Show the start menu (rofi, fuzzel, wofi, dmenu)")
	fmt.Fprintln(w, "  tui                 Open the interactive taskbar")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'deskshell <command> --help' for command-specific options.")
}

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskshell serve [--listen ADDR] [--path PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Run the desktop shell and its HTTP API in the foreground.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	listen := fs.String("listen", "", "Listen address (default: http.listen from config)")
	path := fs.String("path", "", "Config file path (default: ~/.config/deskshell/config.yaml)")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "serve takes no arguments")
		fs.Usage()
		return 2
	}

	res, cfgPath, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	cfg := res.Config
	if *listen != "" {
		cfg.HTTP.Listen = *listen
	}

	logger, closer, err := logging.New(logging.Options{
		Level:     cfg.LogLevel,
		File:      cfg.Logging.File,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
		MaxFiles:  cfg.Logging.MaxFiles,
		JSON:      cfg.Logging.Format == "json",
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, cfgPath, logger); err != nil {
		logger.Error("server stopped", "error", err)
		return 1
	}
	return 0
}

// desktopApp is a running shell with its persistence and HTTP server.
type desktopApp struct {
	shell        *shell.Shell
	store        store.Store
	server       *ipc.Server
	checkpointer *shell.Checkpointer
}

// newDesktopApp builds the shell, opens persistence and restores the last
// session when configured to.
func newDesktopApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*desktopApp, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	st, err := openStore(cfg.Storage)
	if err != nil {
		return nil, err
	}

	theme, prefs := cfg.Theme, cfg.Preferences
	sh := shell.New(shell.Options{
		Hosts: effects.Hosts{
			Persistence: st,
			Audio:       &host.Audio{Logger: logger},
			URLs:        &host.URLOpener{Logger: logger, Command: cfg.OpenURLCommand},
			Focus:       &host.Focus{Logger: logger},
		},
		Logger:      logger,
		Theme:       &theme,
		Preferences: &prefs,
	})

	if cfg.RestoreSession {
		if _, err := sh.Hydrate(ctx, st); err != nil && !errors.Is(err, store.ErrNoSnapshot) {
			logger.Warn("failed to restore desktop session", "error", err)
		}
	}

	app := &desktopApp{
		shell:  sh,
		store:  st,
		server: ipc.NewServer(sh, cfg, logger),
	}
	if cfg.AutosaveInterval > 0 {
		app.checkpointer = shell.NewCheckpointer(shell.CheckpointConfig{
			Interval: cfg.AutosaveInterval,
			Logger:   logger,
		}, sh, st)
	}
	return app, nil
}

func (a *desktopApp) Close() error {
	return a.store.Close()
}

func serve(ctx context.Context, cfg *config.Config, cfgPath string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	app, err := newDesktopApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	if app.checkpointer != nil {
		go func() {
			defer close(done)
			app.checkpointer.Run(ctx)
		}()
	} else {
		close(done)
	}

	if cfgPath != "" {
		go func() {
			err := config.Watch(ctx, cfgPath, config.DefaultWatchDebounce, func(res *config.LoadResult) {
				app.server.UpdateConfig(res.Config)
				logger.Info("config reloaded", "path", cfgPath)
			}, func(err error) {
				logger.Warn("config reload failed", "error", err)
			})
			if err != nil && ctx.Err() == nil {
				logger.Warn("config watch stopped", "error", err)
			}
		}()
	}

	addrPath, err := runtimepath.AddrPath()
	if err != nil {
		return err
	}
	logger.Info("deskshell server started", "listen", cfg.HTTP.Listen, "storage", cfg.Storage.Backend)
	err = app.server.ListenAndServe(ctx, cfg.HTTP.Listen, addrPath)
	cancel()
	<-done
	logger.Info("deskshell server stopped")
	return err
}

// openStore resolves the default location for the backend when none is set.
func openStore(cfg config.StorageConfig) (store.Store, error) {
	path := cfg.Path
	if path == "" {
		var err error
		switch cfg.Backend {
		case store.BackendFile:
			path, err = runtimepath.SnapshotPath()
		case store.BackendSQLite, "":
			path, err = runtimepath.DatabasePath()
		}
		if err != nil {
			return nil, err
		}
	}
	return store.Open(cfg.Backend, path)
}

// loadConfig loads the config at path, or the default location when path is
// empty. It also returns the file that should be watched for changes.
func loadConfig(path string) (*config.LoadResult, string, error) {
	if path == "" {
		p, err := config.DefaultConfigPath()
		if err != nil {
			return nil, "", err
		}
		path = p
	}
	res, err := config.LoadFromPath(path)
	if err != nil {
		return nil, "", err
	}
	return res, path, nil
}

func runTUI(args []string) int {
	if len(args) > 0 && (args[0] == "help" || args[0] == "-h" || args[0] == "--help") {
		fmt.Fprintln(os.Stderr, "Usage: deskshell tui")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Interactive taskbar for a running deskshell server.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Keybindings:")
		fmt.Fprintln(os.Stderr, "  j/k, ↑/↓  Navigate windows")
		fmt.Fprintln(os.Stderr, "  Enter, f  Focus selected window")
		fmt.Fprintln(os.Stderr, "  m/x/r/c   Minimize, maximize, restore, close")
		fmt.Fprintln(os.Stderr, "  t         Taskbar click on selected window")
		fmt.Fprintln(os.Stderr, "  a         Arrange all windows")
		fmt.Fprintln(os.Stderr, "  H/J/K/L   Focus the nearest window left, down, up, right")
		fmt.Fprintln(os.Stderr, "  o         Open an application")
		fmt.Fprintln(os.Stderr, "  q         Quit")
		return 0
	}
	if len(args) != 0 {
		fmt.Fprintln(os.Stderr, "tui takes no arguments")
		return 2
	}

	client, err := ipc.NewClient()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := tui.Run(client); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
