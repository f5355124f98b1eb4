package desktop

import (
	"encoding/json"

	"github.com/1broseidon/deskshell/internal/geometry"
)

// Action is an input to Reduce. The set of actions is closed; every concrete
// type below is handled by the reducer.
type Action interface {
	actionType() string
}

// ActionType returns the wire name of an action ("open_window", ...).
func ActionType(a Action) string {
	return a.actionType()
}

// OpenWindow opens a window for Request.AppID. An AppID outside the app
// table opens nothing and yields no effects and no error; DecodeAction
// rejects such ids, and the shell logs them.
type OpenWindow struct {
	Request OpenWindowRequest `json:"request"`
}

type CloseWindow struct {
	ID WindowID `json:"id"`
}

type FocusWindow struct {
	ID WindowID `json:"id"`
}

type MinimizeWindow struct {
	ID WindowID `json:"id"`
}

// MaximizeWindow fills Viewport with the window.
type MaximizeWindow struct {
	ID       WindowID      `json:"id"`
	Viewport geometry.Rect `json:"viewport"`
}

type RestoreWindow struct {
	ID WindowID `json:"id"`
}

// ToggleTaskbarWindow is what clicking a taskbar button does: restore a
// minimized window, minimize the focused one, focus anything else.
type ToggleTaskbarWindow struct {
	ID WindowID `json:"id"`
}

type ToggleStartMenu struct{}

type CloseStartMenu struct{}

type BeginMove struct {
	ID      WindowID       `json:"id"`
	Pointer geometry.Point `json:"pointer"`
}

type UpdateMove struct {
	Pointer geometry.Point `json:"pointer"`
}

type EndMove struct{}

type BeginResize struct {
	ID      WindowID       `json:"id"`
	Edge    geometry.Edge  `json:"edge"`
	Pointer geometry.Point `json:"pointer"`
}

type UpdateResize struct {
	Pointer geometry.Point `json:"pointer"`
}

type EndResize struct{}

type SetThemeName struct {
	Name string `json:"name"`
}

type SetWallpaper struct {
	Wallpaper string `json:"wallpaper"`
}

type SetReducedMotion struct {
	Enabled bool `json:"enabled"`
}

type SetPreferences struct {
	Preferences Preferences `json:"preferences"`
}

type PushTerminalHistory struct {
	Command string `json:"command"`
}

type ClearTerminalHistory struct{}

type SetAppState struct {
	ID    WindowID        `json:"id"`
	State json.RawMessage `json:"state"`
}

type SetExplorerPath struct {
	Path string `json:"path"`
}

type SetNotepadSlug struct {
	Slug string `json:"slug"`
}

type HydrateSnapshot struct {
	Snapshot DesktopSnapshot `json:"snapshot"`
}

type ApplyDeepLink struct {
	Link DeepLinkState `json:"link"`
}

type OpenExternalURL struct {
	URL string `json:"url"`
}

// ArrangeWindows tiles every non-minimized window in a grid inside Viewport.
type ArrangeWindows struct {
	Viewport geometry.Rect `json:"viewport"`
	Gap      int           `json:"gap"`
}

type BeginDesktopSelection struct {
	Pointer geometry.Point `json:"pointer"`
}

type EndDesktopSelection struct{}

func (OpenWindow) actionType() string            { return "open_window" }
func (CloseWindow) actionType() string           { return "close_window" }
func (FocusWindow) actionType() string           { return "focus_window" }
func (MinimizeWindow) actionType() string        { return "minimize_window" }
func (MaximizeWindow) actionType() string        { return "maximize_window" }
func (RestoreWindow) actionType() string         { return "restore_window" }
func (ToggleTaskbarWindow) actionType() string   { return "toggle_taskbar_window" }
func (ToggleStartMenu) actionType() string       { return "toggle_start_menu" }
func (CloseStartMenu) actionType() string        { return "close_start_menu" }
func (BeginMove) actionType() string             { return "begin_move" }
func (UpdateMove) actionType() string            { return "update_move" }
func (EndMove) actionType() string               { return "end_move" }
func (BeginResize) actionType() string           { return "begin_resize" }
func (UpdateResize) actionType() string          { return "update_resize" }
func (EndResize) actionType() string             { return "end_resize" }
func (SetThemeName) actionType() string          { return "set_theme_name" }
func (SetWallpaper) actionType() string          { return "set_wallpaper" }
func (SetReducedMotion) actionType() string      { return "set_reduced_motion" }
func (SetPreferences) actionType() string        { return "set_preferences" }
func (PushTerminalHistory) actionType() string   { return "push_terminal_history" }
func (ClearTerminalHistory) actionType() string  { return "clear_terminal_history" }
func (SetAppState) actionType() string           { return "set_app_state" }
func (SetExplorerPath) actionType() string       { return "set_explorer_path" }
func (SetNotepadSlug) actionType() string        { return "set_notepad_slug" }
func (HydrateSnapshot) actionType() string       { return "hydrate_snapshot" }
func (ApplyDeepLink) actionType() string         { return "apply_deep_link" }
func (OpenExternalURL) actionType() string       { return "open_external_url" }
func (ArrangeWindows) actionType() string        { return "arrange_windows" }
func (BeginDesktopSelection) actionType() string { return "begin_desktop_selection" }
func (EndDesktopSelection) actionType() string   { return "end_desktop_selection" }
