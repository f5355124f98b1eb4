package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/deskshell/internal/bus"
	"github.com/1broseidon/deskshell/internal/desktop"
	"github.com/1broseidon/deskshell/internal/ipc"
)

func windowInfo(w desktop.WindowRecord) WindowInfo {
	return WindowInfo{
		ID:        w.ID,
		AppID:     string(w.AppID),
		Title:     w.Title,
		X:         w.Rect.X,
		Y:         w.Rect.Y,
		Width:     w.Rect.W,
		Height:    w.Rect.H,
		ZIndex:    w.ZIndex,
		Focused:   w.IsFocused,
		Minimized: w.Minimized,
		Maximized: w.Maximized,
	}
}

func windowInfos(windows []desktop.WindowRecord) []WindowInfo {
	out := make([]WindowInfo, 0, len(windows))
	for _, w := range windows {
		out = append(out, windowInfo(w))
	}
	return out
}

func (s *Server) handleListWindows(ctx context.Context, _ *mcpsdk.CallToolRequest, _ ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	state, err := s.desktop.State(ctx)
	if err != nil {
		return nil, ListWindowsOutput{}, err
	}
	out := ListWindowsOutput{
		Windows:   windowInfos(state.Windows),
		StartMenu: state.StartMenuOpen,
		Theme:     state.Theme.Name,
	}
	if focused, ok := state.FocusedWindow(); ok {
		id := focused.ID
		out.Focused = &id
	}
	return nil, out, nil
}

func (s *Server) handleListApps(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListAppsInput) (*mcpsdk.CallToolResult, ListAppsOutput, error) {
	ids := desktop.AppIDs()
	out := ListAppsOutput{Apps: make([]AppInfo, 0, len(ids))}
	for _, id := range ids {
		info, _ := id.Info()
		out.Apps = append(out.Apps, AppInfo{
			ID:          string(id),
			Title:       info.Title,
			Resizable:   info.Flags.Resizable,
			Maximizable: info.Flags.Maximizable,
		})
	}
	return nil, out, nil
}

func (s *Server) handleOpenWindow(ctx context.Context, _ *mcpsdk.CallToolRequest, args OpenWindowInput) (*mcpsdk.CallToolResult, OpenWindowOutput, error) {
	app, err := desktop.ParseAppID(args.AppID)
	if err != nil {
		return nil, OpenWindowOutput{}, fmt.Errorf("%w; available: %v", err, desktop.AppIDs())
	}
	req := desktop.NewOpenWindowRequest(app)
	if title := strings.TrimSpace(args.Title); title != "" {
		req.Title = &title
	}
	if key := strings.TrimSpace(args.PersistKey); key != "" {
		req.PersistKey = &key
	}
	if params := strings.TrimSpace(args.LaunchParams); params != "" {
		if !json.Valid([]byte(params)) {
			return nil, OpenWindowOutput{}, fmt.Errorf("launch_params is not valid JSON")
		}
		req.LaunchParams = json.RawMessage(params)
	}

	if _, err := s.desktop.Dispatch(ctx, desktop.OpenWindow{Request: req}); err != nil {
		return nil, OpenWindowOutput{}, err
	}

	// The new window is the focused one: open always focuses.
	state, err := s.desktop.State(ctx)
	if err != nil {
		return nil, OpenWindowOutput{}, err
	}
	focused, ok := state.FocusedWindow()
	if !ok {
		return nil, OpenWindowOutput{}, fmt.Errorf("opened window is not focused")
	}
	s.logger.Info("mcp opened window", "app", app, "id", focused.ID)
	return nil, OpenWindowOutput{Window: windowInfo(focused)}, nil
}

type windowHandler func(context.Context, *mcpsdk.CallToolRequest, WindowInput) (*mcpsdk.CallToolResult, WindowActionOutput, error)

// windowAction builds a handler that dispatches one per-window action.
func (s *Server) windowAction(name string, build func(desktop.WindowID) desktop.Action) windowHandler {
	return func(ctx context.Context, _ *mcpsdk.CallToolRequest, args WindowInput) (*mcpsdk.CallToolResult, WindowActionOutput, error) {
		status, err := s.desktop.Dispatch(ctx, build(args.ID))
		if err != nil {
			s.logger.Warn("mcp window action failed", "tool", name, "id", args.ID, "error", err)
			return nil, WindowActionOutput{}, err
		}
		out := WindowActionOutput{Revision: status.Revision, WindowCount: status.WindowCount}
		state, err := s.desktop.State(ctx)
		if err != nil {
			return nil, WindowActionOutput{}, err
		}
		if w, ok := state.Window(args.ID); ok {
			info := windowInfo(w)
			out.Window = &info
		}
		return nil, out, nil
	}
}

func (s *Server) handleMaximizeWindow(ctx context.Context, _ *mcpsdk.CallToolRequest, args WindowInput) (*mcpsdk.CallToolResult, WindowActionOutput, error) {
	rec, err := s.desktop.Maximize(ctx, args.ID)
	if err != nil {
		return nil, WindowActionOutput{}, err
	}
	state, err := s.desktop.State(ctx)
	if err != nil {
		return nil, WindowActionOutput{}, err
	}
	info := windowInfo(*rec)
	return nil, WindowActionOutput{WindowCount: len(state.Windows), Window: &info}, nil
}

func (s *Server) handleArrangeWindows(ctx context.Context, _ *mcpsdk.CallToolRequest, args ArrangeWindowsInput) (*mcpsdk.CallToolResult, ArrangeWindowsOutput, error) {
	if args.Gap != nil && *args.Gap < 0 {
		return nil, ArrangeWindowsOutput{}, fmt.Errorf("gap must be >= 0")
	}
	state, err := s.desktop.Arrange(ctx, args.Gap)
	if err != nil {
		return nil, ArrangeWindowsOutput{}, err
	}
	return nil, ArrangeWindowsOutput{Windows: windowInfos(state.Windows)}, nil
}

func (s *Server) handleOpenDeepLink(ctx context.Context, _ *mcpsdk.CallToolRequest, args OpenDeepLinkInput) (*mcpsdk.CallToolResult, OpenDeepLinkOutput, error) {
	if strings.TrimSpace(args.URL) == "" {
		return nil, OpenDeepLinkOutput{}, fmt.Errorf("url is required")
	}
	link, err := s.desktop.OpenDeepLink(ctx, args.URL)
	if err != nil {
		return nil, OpenDeepLinkOutput{}, err
	}
	state, err := s.desktop.State(ctx)
	if err != nil {
		return nil, OpenDeepLinkOutput{}, err
	}
	out := OpenDeepLinkOutput{Targets: make([]string, 0, len(link.Open)), Windows: len(state.Windows)}
	for _, t := range link.Open {
		value := t.Slug
		if t.Kind == desktop.DeepLinkApp {
			value = string(t.App)
		}
		out.Targets = append(out.Targets, string(t.Kind)+":"+value)
	}
	return nil, out, nil
}

func (s *Server) handleDispatchAction(ctx context.Context, _ *mcpsdk.CallToolRequest, args DispatchActionInput) (*mcpsdk.CallToolResult, WindowActionOutput, error) {
	body := strings.TrimSpace(args.Action)
	if body == "" {
		return nil, WindowActionOutput{}, fmt.Errorf("action is required")
	}
	status, err := s.desktop.DispatchRaw(ctx, []byte(body))
	if err != nil {
		return nil, WindowActionOutput{}, err
	}
	return nil, WindowActionOutput{Revision: status.Revision, WindowCount: status.WindowCount}, nil
}

func (s *Server) handleSubscribe(ctx context.Context, _ *mcpsdk.CallToolRequest, args SubscribeInput) (*mcpsdk.CallToolResult, SubscribeOutput, error) {
	if err := s.desktop.Subscribe(ctx, args.ID, args.Topic); err != nil {
		return nil, SubscribeOutput{}, err
	}
	return nil, SubscribeOutput{Subscribed: true}, nil
}

func (s *Server) handlePublishEvent(ctx context.Context, _ *mcpsdk.CallToolRequest, args PublishEventInput) (*mcpsdk.CallToolResult, PublishEventOutput, error) {
	if strings.TrimSpace(args.Topic) == "" {
		return nil, PublishEventOutput{}, fmt.Errorf("topic is required")
	}
	p := ipc.PublishPayload{
		Topic:         args.Topic,
		CorrelationID: args.CorrelationID,
		ReplyTo:       args.ReplyTo,
		Target:        args.Target,
	}
	if payload := strings.TrimSpace(args.Payload); payload != "" {
		if !json.Valid([]byte(payload)) {
			return nil, PublishEventOutput{}, fmt.Errorf("payload is not valid JSON")
		}
		p.Payload = json.RawMessage(payload)
	}

	if args.Target != nil {
		ev, err := s.desktop.Send(ctx, args.Source, p)
		if err != nil {
			return nil, PublishEventOutput{}, err
		}
		return nil, PublishEventOutput{
			EventID:       ev.ID,
			CorrelationID: ev.CorrelationID,
			Delivered:     []desktop.WindowID{ev.Target},
		}, nil
	}

	report, err := s.desktop.Publish(ctx, args.Source, p)
	if err != nil {
		return nil, PublishEventOutput{}, err
	}
	out := PublishEventOutput{
		EventID:       report.EventID,
		CorrelationID: report.CorrelationID,
		Delivered:     report.Delivered,
		Stale:         report.Stale,
	}
	if out.Delivered == nil {
		out.Delivered = []desktop.WindowID{}
	}
	return nil, out, nil
}

func (s *Server) handleReadInbox(ctx context.Context, _ *mcpsdk.CallToolRequest, args ReadInboxInput) (*mcpsdk.CallToolResult, ReadInboxOutput, error) {
	inbox, err := s.desktop.Inbox(ctx, args.ID, args.Drain)
	if err != nil {
		return nil, ReadInboxOutput{}, err
	}
	out := ReadInboxOutput{
		Events:  make([]EventInfo, 0, len(inbox.Events)),
		Dropped: inbox.Dropped,
	}
	for _, ev := range inbox.Events {
		out.Events = append(out.Events, eventInfo(ev))
	}
	if phase, err := s.desktop.Lifecycle(ctx, args.ID); err == nil {
		out.Lifecycle = string(phase)
	}
	return nil, out, nil
}

func eventInfo(ev bus.Event) EventInfo {
	return EventInfo{
		ID:            ev.ID,
		Source:        ev.Source,
		Topic:         ev.Topic,
		Payload:       string(ev.Payload),
		CorrelationID: ev.CorrelationID,
		ReplyTo:       ev.ReplyTo,
		Timestamp:     ev.Timestamp.Format(time.RFC3339Nano),
	}
}
