package mcp

import "github.com/1broseidon/deskshell/internal/desktop"

// WindowInput addresses a single window.
type WindowInput struct {
	ID desktop.WindowID `json:"id" jsonschema:"Window id as returned by list_windows or open_window"`
}

// WindowInfo describes one open window.
type WindowInfo struct {
	ID        desktop.WindowID `json:"id"`
	AppID     string           `json:"app_id"`
	Title     string           `json:"title"`
	X         int              `json:"x"`
	Y         int              `json:"y"`
	Width     int              `json:"width"`
	Height    int              `json:"height"`
	ZIndex    uint32           `json:"z_index"`
	Focused   bool             `json:"focused"`
	Minimized bool             `json:"minimized"`
	Maximized bool             `json:"maximized"`
}

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct{}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Windows   []WindowInfo      `json:"windows"`
	Focused   *desktop.WindowID `json:"focused,omitempty"`
	StartMenu bool              `json:"start_menu_open"`
	Theme     string            `json:"theme"`
}

// ListAppsInput is the input for the list_apps tool.
type ListAppsInput struct{}

// AppInfo describes one application kind.
type AppInfo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Resizable   bool   `json:"resizable"`
	Maximizable bool   `json:"maximizable"`
}

// ListAppsOutput is the output for the list_apps tool.
type ListAppsOutput struct {
	Apps []AppInfo `json:"apps"`
}

// OpenWindowInput is the input for the open_window tool.
type OpenWindowInput struct {
	AppID        string `json:"app_id" jsonschema:"Application kind to open (see list_apps)"`
	Title        string `json:"title,omitempty" jsonschema:"Optional title override"`
	PersistKey   string `json:"persist_key,omitempty" jsonschema:"Optional key identifying the document shown in the window"`
	LaunchParams string `json:"launch_params,omitempty" jsonschema:"Optional JSON object handed to the app on launch"`
}

// OpenWindowOutput is the output for the open_window tool.
type OpenWindowOutput struct {
	Window WindowInfo `json:"window"`
}

// WindowActionOutput is the output for tools that change one window.
type WindowActionOutput struct {
	Revision    uint64      `json:"revision"`
	WindowCount int         `json:"window_count"`
	Window      *WindowInfo `json:"window,omitempty"`
}

// ArrangeWindowsInput is the input for the arrange_windows tool.
type ArrangeWindowsInput struct {
	Gap *int `json:"gap,omitempty" jsonschema:"Gap between tiles in pixels (default: configured arrange_gap)"`
}

// ArrangeWindowsOutput is the output for the arrange_windows tool.
type ArrangeWindowsOutput struct {
	Windows []WindowInfo `json:"windows"`
}

// OpenDeepLinkInput is the input for the open_deep_link tool.
type OpenDeepLinkInput struct {
	URL string `json:"url" jsonschema:"Router URL such as /notes/hello or /?open=app:paint,notes:todo"`
}

// OpenDeepLinkOutput is the output for the open_deep_link tool.
type OpenDeepLinkOutput struct {
	Targets []string `json:"targets"`
	Windows int      `json:"window_count"`
}

// DispatchActionInput is the input for the dispatch_action tool.
type DispatchActionInput struct {
	Action string `json:"action" jsonschema:"One tagged action object or a JSON array of them, e.g. {\"type\":\"focus_window\",\"id\":1}"`
}

// PublishEventInput is the input for the publish_event tool.
type PublishEventInput struct {
	Source        desktop.WindowID  `json:"source" jsonschema:"Window publishing the event"`
	Topic         string            `json:"topic" jsonschema:"Topic name"`
	Payload       string            `json:"payload,omitempty" jsonschema:"Optional JSON payload"`
	CorrelationID string            `json:"correlation_id,omitempty" jsonschema:"Correlation id (generated when empty)"`
	ReplyTo       *desktop.WindowID `json:"reply_to,omitempty" jsonschema:"Window that should receive replies"`
	Target        *desktop.WindowID `json:"target,omitempty" jsonschema:"Send to this window only instead of the topic subscribers"`
}

// PublishEventOutput is the output for the publish_event tool.
type PublishEventOutput struct {
	EventID       string             `json:"event_id"`
	CorrelationID string             `json:"correlation_id"`
	Delivered     []desktop.WindowID `json:"delivered"`
	Stale         []desktop.WindowID `json:"stale,omitempty"`
}

// SubscribeInput is the input for the subscribe tool.
type SubscribeInput struct {
	ID    desktop.WindowID `json:"id" jsonschema:"Subscribing window"`
	Topic string           `json:"topic" jsonschema:"Topic name"`
}

// SubscribeOutput is the output for the subscribe tool.
type SubscribeOutput struct {
	Subscribed bool `json:"subscribed"`
}

// ReadInboxInput is the input for the read_inbox tool.
type ReadInboxInput struct {
	ID    desktop.WindowID `json:"id" jsonschema:"Window whose inbox to read"`
	Drain bool             `json:"drain,omitempty" jsonschema:"When true, remove the returned events from the inbox"`
}

// EventInfo is one inbox event.
type EventInfo struct {
	ID            string            `json:"id"`
	Source        desktop.WindowID  `json:"source"`
	Topic         string            `json:"topic"`
	Payload       string            `json:"payload,omitempty"`
	CorrelationID string            `json:"correlation_id"`
	ReplyTo       *desktop.WindowID `json:"reply_to,omitempty"`
	Timestamp     string            `json:"timestamp"`
}

// ReadInboxOutput is the output for the read_inbox tool.
type ReadInboxOutput struct {
	Events    []EventInfo `json:"events"`
	Dropped   uint64      `json:"dropped"`
	Lifecycle string      `json:"lifecycle,omitempty"`
}
