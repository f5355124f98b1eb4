// Package desktop is the window-manager state machine of the shell: the
// window collection, focus and stacking order, transient gesture state, and
// the reducer that turns actions into state changes plus effect tokens.
//
// Nothing in this package performs I/O. Reduce mutates the state it is given
// and returns the effects the caller must carry out.
package desktop

import "github.com/1broseidon/deskshell/internal/geometry"

// MaxTerminalHistory bounds DesktopState.TerminalHistory.
const MaxTerminalHistory = 100

// DefaultMaxRestoreWindows is the restore limit used when none is configured.
const DefaultMaxRestoreWindows = 12

// Theme holds the shell-wide appearance settings.
type Theme struct {
	Name          string `json:"name" yaml:"name"`
	Wallpaper     string `json:"wallpaper" yaml:"wallpaper"`
	ReducedMotion bool   `json:"reduced_motion" yaml:"reduced_motion"`
}

// DefaultTheme returns the out-of-the-box theme.
func DefaultTheme() Theme {
	return Theme{Name: "classic", Wallpaper: "teal"}
}

// Preferences holds user-controlled shell behavior.
type Preferences struct {
	AudioEnabled           bool `json:"audio_enabled" yaml:"audio_enabled"`
	TerminalHistoryEnabled bool `json:"terminal_history_enabled" yaml:"terminal_history_enabled"`
	MaxRestoreWindows      int  `json:"max_restore_windows" yaml:"max_restore_windows"`
}

// DefaultPreferences returns the out-of-the-box preferences.
func DefaultPreferences() Preferences {
	return Preferences{
		AudioEnabled:           true,
		TerminalHistoryEnabled: true,
		MaxRestoreWindows:      DefaultMaxRestoreWindows,
	}
}

// DesktopState is the authoritative model of the shell. Windows is kept in
// stacking order: index 0 is the bottom window, the last index is topmost.
type DesktopState struct {
	NextWindowID     WindowID       `json:"next_window_id"`
	Windows          []WindowRecord `json:"windows"`
	StartMenuOpen    bool           `json:"start_menu_open"`
	ActiveModal      *WindowID      `json:"active_modal,omitempty"`
	Theme            Theme          `json:"theme"`
	Preferences      Preferences    `json:"preferences"`
	LastExplorerPath *string        `json:"last_explorer_path"`
	LastNotepadSlug  *string        `json:"last_notepad_slug"`
	TerminalHistory  []string       `json:"terminal_history"`
}

// NewDesktopState returns an empty desktop with default theme and preferences.
func NewDesktopState() *DesktopState {
	return &DesktopState{
		NextWindowID:    1,
		Windows:         []WindowRecord{},
		Theme:           DefaultTheme(),
		Preferences:     DefaultPreferences(),
		TerminalHistory: []string{},
	}
}

// indexOf returns the stack position of id, or -1.
func (s *DesktopState) indexOf(id WindowID) int {
	for i := range s.Windows {
		if s.Windows[i].ID == id {
			return i
		}
	}
	return -1
}

// Window returns a copy of the window with the given id.
func (s *DesktopState) Window(id WindowID) (WindowRecord, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return WindowRecord{}, false
	}
	return s.Windows[i].Clone(), true
}

// FocusedWindow returns the focused window, if any.
func (s *DesktopState) FocusedWindow() (WindowRecord, bool) {
	for _, w := range s.Windows {
		if w.IsFocused {
			return w.Clone(), true
		}
	}
	return WindowRecord{}, false
}

// WindowIDs returns the ids of all windows in stacking order.
func (s *DesktopState) WindowIDs() []WindowID {
	ids := make([]WindowID, len(s.Windows))
	for i, w := range s.Windows {
		ids[i] = w.ID
	}
	return ids
}

// NeighborWindow returns the visible window nearest to id in dir, wrapping
// around the desktop when nothing lies that way. Minimized windows are
// skipped. It reports false when id is unknown or no other window is visible.
func (s *DesktopState) NeighborWindow(id WindowID, dir geometry.Direction) (WindowID, bool) {
	var ids []WindowID
	var rects []geometry.Rect
	current := -1
	for _, w := range s.Windows {
		if w.Minimized && w.ID != id {
			continue
		}
		if w.ID == id {
			current = len(ids)
		}
		ids = append(ids, w.ID)
		rects = append(rects, w.Rect)
	}
	if current < 0 || len(ids) < 2 {
		return 0, false
	}
	next := geometry.Nearest(rects, current, dir)
	if next == current {
		return 0, false
	}
	return ids[next], true
}

// Clone returns a deep copy safe to hand to readers outside the dispatch path.
func (s *DesktopState) Clone() *DesktopState {
	out := *s
	out.Windows = make([]WindowRecord, len(s.Windows))
	for i, w := range s.Windows {
		out.Windows[i] = w.Clone()
	}
	out.ActiveModal = cloneID(s.ActiveModal)
	out.LastExplorerPath = cloneString(s.LastExplorerPath)
	out.LastNotepadSlug = cloneString(s.LastNotepadSlug)
	out.TerminalHistory = append([]string{}, s.TerminalHistory...)
	return &out
}

func cloneID(id *WindowID) *WindowID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
