// Package mcp exposes a running desktop to MCP clients. Every tool goes
// through the HTTP API, so the MCP process never owns desktop state.
package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/deskshell/internal/bus"
	"github.com/1broseidon/deskshell/internal/desktop"
	"github.com/1broseidon/deskshell/internal/ipc"
)

const (
	ServerName    = "deskshell"
	ServerVersion = "0.1.0"
)

// Desktop is the API surface the tools drive. *ipc.Client implements it.
type Desktop interface {
	State(ctx context.Context) (*desktop.DesktopState, error)
	Dispatch(ctx context.Context, actions ...desktop.Action) (*ipc.StatusData, error)
	DispatchRaw(ctx context.Context, actions []byte) (*ipc.StatusData, error)
	OpenDeepLink(ctx context.Context, rawURL string) (*desktop.DeepLinkState, error)
	Maximize(ctx context.Context, id desktop.WindowID) (*desktop.WindowRecord, error)
	Arrange(ctx context.Context, gap *int) (*desktop.DesktopState, error)
	Subscribe(ctx context.Context, id desktop.WindowID, topic string) error
	Publish(ctx context.Context, source desktop.WindowID, p ipc.PublishPayload) (*bus.PublishReport, error)
	Send(ctx context.Context, source desktop.WindowID, p ipc.PublishPayload) (*bus.Event, error)
	Inbox(ctx context.Context, id desktop.WindowID, drain bool) (*ipc.InboxData, error)
	Lifecycle(ctx context.Context, id desktop.WindowID) (bus.Lifecycle, error)
}

// Server is the MCP server for desktop control.
type Server struct {
	mcpServer *mcpsdk.Server
	desktop   Desktop
	logger    *slog.Logger
}

// NewServer creates a new MCP server backed by d.
func NewServer(d Desktop, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		desktop: d,
		logger:  logger,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// RunTransport serves on an arbitrary transport.
func (s *Server) RunTransport(ctx context.Context, t mcpsdk.Transport) error {
	return s.mcpServer.Run(ctx, t)
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List the open windows in stacking order (bottom first) with their geometry, focus and minimized/maximized state.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_apps",
		Description: "List the application kinds that open_window accepts.",
	}, s.handleListApps)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "open_window",
		Description: "Open a new window of the given app kind. The window is focused and placed on top. Returns the new window.",
	}, s.handleOpenWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "close_window",
		Description: "Close a window. Its event bus session and subscriptions go with it.",
	}, s.windowAction("close_window", func(id desktop.WindowID) desktop.Action { return desktop.CloseWindow{ID: id} }))

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "focus_window",
		Description: "Focus a window and raise it to the top. Focusing a minimized window restores it.",
	}, s.windowAction("focus_window", func(id desktop.WindowID) desktop.Action { return desktop.FocusWindow{ID: id} }))

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "minimize_window",
		Description: "Minimize a window. Focus moves to the topmost remaining visible window.",
	}, s.windowAction("minimize_window", func(id desktop.WindowID) desktop.Action { return desktop.MinimizeWindow{ID: id} }))

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "restore_window",
		Description: "Restore a maximized window to its previous geometry.",
	}, s.windowAction("restore_window", func(id desktop.WindowID) desktop.Action { return desktop.RestoreWindow{ID: id} }))

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "toggle_taskbar_window",
		Description: "Behave like clicking the window's taskbar button: restore when minimized, minimize when focused, focus otherwise.",
	}, s.windowAction("toggle_taskbar_window", func(id desktop.WindowID) desktop.Action { return desktop.ToggleTaskbarWindow{ID: id} }))

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "maximize_window",
		Description: "Maximize a window into the desktop viewport.",
	}, s.handleMaximizeWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "arrange_windows",
		Description: "Tile every visible window in a grid over the viewport.",
	}, s.handleArrangeWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "open_deep_link",
		Description: "Open the windows a router URL names, e.g. /notes/<slug>, /projects/<slug> or /?open=app:<app>,notes:<slug>.",
	}, s.handleOpenDeepLink)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "dispatch_action",
		Description: "Dispatch raw tagged desktop actions (one object or an array). Use for gestures and settings the other tools do not cover.",
	}, s.handleDispatchAction)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "subscribe",
		Description: "Subscribe a window to an event bus topic.",
	}, s.handleSubscribe)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "publish_event",
		Description: "Publish an event from a window to every subscriber of a topic, or to a single target window.",
	}, s.handlePublishEvent)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "read_inbox",
		Description: "Read the pending events of a window's inbox (optionally draining it) and its current lifecycle phase.",
	}, s.handleReadInbox)
}
