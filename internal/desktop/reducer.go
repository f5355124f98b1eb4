package desktop

import (
	"strings"

	"github.com/1broseidon/deskshell/internal/geometry"
)

// Reduce applies action to state and interaction and returns the effects the
// caller must perform, in the order they were generated.
//
// An action addressing a window that is not open fails with a
// *WindowNotFoundError before anything is mutated. Every successful action is
// followed by a normalization pass that restores the stacking and focus
// invariants.
func Reduce(state *DesktopState, in *InteractionState, action Action) ([]Effect, error) {
	effects, err := reduce(state, in, action)
	if err != nil {
		return nil, err
	}
	normalize(state)
	return effects, nil
}

func reduce(s *DesktopState, in *InteractionState, action Action) ([]Effect, error) {
	switch a := action.(type) {
	case OpenWindow:
		return s.openWindow(a.Request), nil

	case CloseWindow:
		i := s.indexOf(a.ID)
		if i < 0 {
			return nil, notFound(a.ID)
		}
		s.Windows = append(s.Windows[:i], s.Windows[i+1:]...)
		if s.ActiveModal != nil && *s.ActiveModal == a.ID {
			s.ActiveModal = nil
		}
		in.forget(a.ID)
		return []Effect{PersistLayout{}}, nil

	case FocusWindow:
		i := s.indexOf(a.ID)
		if i < 0 {
			return nil, notFound(a.ID)
		}
		s.focus(i)
		s.StartMenuOpen = false
		return []Effect{FocusWindowInput{ID: a.ID}}, nil

	case MinimizeWindow:
		i := s.indexOf(a.ID)
		if i < 0 {
			return nil, notFound(a.ID)
		}
		w := &s.Windows[i]
		if !w.Flags.Minimizable {
			return nil, nil
		}
		w.Minimized = true
		w.IsFocused = false
		return []Effect{PersistLayout{}}, nil

	case MaximizeWindow:
		i := s.indexOf(a.ID)
		if i < 0 {
			return nil, notFound(a.ID)
		}
		w := &s.Windows[i]
		if !w.Flags.Maximizable {
			return nil, nil
		}
		if !w.Maximized || w.RestoreRect == nil {
			prev := w.Rect
			w.RestoreRect = &prev
		}
		w.Rect = a.Viewport.Clamped()
		w.Maximized = true
		w.Minimized = false
		s.focus(i)
		return []Effect{PersistLayout{}}, nil

	case RestoreWindow:
		i := s.indexOf(a.ID)
		if i < 0 {
			return nil, notFound(a.ID)
		}
		w := &s.Windows[i]
		if w.Maximized {
			if w.RestoreRect != nil {
				w.Rect = *w.RestoreRect
			}
			w.RestoreRect = nil
			w.Maximized = false
		}
		w.Minimized = false
		s.focus(i)
		return []Effect{PersistLayout{}}, nil

	case ToggleTaskbarWindow:
		i := s.indexOf(a.ID)
		if i < 0 {
			return nil, notFound(a.ID)
		}
		w := s.Windows[i]
		switch {
		case w.Minimized:
			return reduce(s, in, RestoreWindow{ID: a.ID})
		case w.IsFocused:
			return reduce(s, in, MinimizeWindow{ID: a.ID})
		default:
			return reduce(s, in, FocusWindow{ID: a.ID})
		}

	case ToggleStartMenu:
		s.StartMenuOpen = !s.StartMenuOpen
		return nil, nil

	case CloseStartMenu:
		s.StartMenuOpen = false
		return nil, nil

	case BeginMove:
		i := s.indexOf(a.ID)
		if i < 0 {
			return nil, notFound(a.ID)
		}
		in.Dragging = &DragSession{
			WindowID:     a.ID,
			PointerStart: a.Pointer,
			RectStart:    s.Windows[i].Rect,
		}
		s.focus(i)
		return nil, nil

	case UpdateMove:
		drag := in.Dragging
		if drag == nil {
			return nil, nil
		}
		i := s.indexOf(drag.WindowID)
		if i < 0 || s.Windows[i].Maximized {
			return nil, nil
		}
		dx, dy := drag.PointerStart.Delta(a.Pointer)
		s.Windows[i].Rect = drag.RectStart.Offset(dx, dy)
		return nil, nil

	case EndMove:
		in.Dragging = nil
		return []Effect{PersistLayout{}}, nil

	case BeginResize:
		i := s.indexOf(a.ID)
		if i < 0 {
			return nil, notFound(a.ID)
		}
		in.Resizing = &ResizeSession{
			WindowID:     a.ID,
			Edge:         a.Edge,
			PointerStart: a.Pointer,
			RectStart:    s.Windows[i].Rect,
		}
		s.focus(i)
		return nil, nil

	case UpdateResize:
		rs := in.Resizing
		if rs == nil {
			return nil, nil
		}
		i := s.indexOf(rs.WindowID)
		if i < 0 {
			return nil, nil
		}
		w := &s.Windows[i]
		if w.Maximized || !w.Flags.Resizable {
			return nil, nil
		}
		dx, dy := rs.PointerStart.Delta(a.Pointer)
		w.Rect = geometry.ResizeRect(rs.RectStart, rs.Edge, dx, dy).Clamped()
		return nil, nil

	case EndResize:
		in.Resizing = nil
		return []Effect{PersistLayout{}}, nil

	case SetThemeName:
		s.Theme.Name = a.Name
		return []Effect{PersistTheme{}}, nil

	case SetWallpaper:
		s.Theme.Wallpaper = a.Wallpaper
		return []Effect{PersistTheme{}}, nil

	case SetReducedMotion:
		s.Theme.ReducedMotion = a.Enabled
		return []Effect{PersistTheme{}}, nil

	case SetPreferences:
		prefs := a.Preferences
		if prefs.MaxRestoreWindows < 0 {
			prefs.MaxRestoreWindows = 0
		}
		s.Preferences = prefs
		return []Effect{PersistTheme{}}, nil

	case PushTerminalHistory:
		if !s.Preferences.TerminalHistoryEnabled || strings.TrimSpace(a.Command) == "" {
			return nil, nil
		}
		s.TerminalHistory = append(s.TerminalHistory, a.Command)
		if n := len(s.TerminalHistory); n > MaxTerminalHistory {
			s.TerminalHistory = append([]string{}, s.TerminalHistory[n-MaxTerminalHistory:]...)
		}
		return []Effect{PersistTerminalHistory{}}, nil

	case ClearTerminalHistory:
		s.TerminalHistory = []string{}
		return []Effect{PersistTerminalHistory{}}, nil

	case SetAppState:
		i := s.indexOf(a.ID)
		if i < 0 {
			return nil, notFound(a.ID)
		}
		s.Windows[i].AppState = cloneRaw(a.State)
		return []Effect{PersistLayout{}}, nil

	case SetExplorerPath:
		s.LastExplorerPath = &a.Path
		return []Effect{PersistLayout{}}, nil

	case SetNotepadSlug:
		s.LastNotepadSlug = &a.Slug
		return []Effect{PersistLayout{}}, nil

	case HydrateSnapshot:
		s.hydrate(a.Snapshot)
		in.Reset()
		return nil, nil

	case ApplyDeepLink:
		return []Effect{ParseAndOpenDeepLink{Link: a.Link}}, nil

	case OpenExternalURL:
		if strings.TrimSpace(a.URL) == "" {
			return nil, nil
		}
		return []Effect{OpenExternalURLEffect{URL: a.URL}}, nil

	case ArrangeWindows:
		return s.arrange(a.Viewport, a.Gap), nil

	case BeginDesktopSelection:
		origin := a.Pointer
		in.DesktopSelectionOrigin = &origin
		s.StartMenuOpen = false
		return nil, nil

	case EndDesktopSelection:
		in.DesktopSelectionOrigin = nil
		return nil, nil
	}
	return nil, nil
}

func (s *DesktopState) openWindow(req OpenWindowRequest) []Effect {
	info, ok := req.AppID.Info()
	if !ok {
		return nil
	}

	if s.NextWindowID == 0 {
		s.NextWindowID = 1
	}
	id := s.NextWindowID
	s.NextWindowID++

	s.Windows = append(s.Windows, req.newRecord(id))
	s.focus(len(s.Windows) - 1)
	s.StartMenuOpen = false
	if req.Flags != nil && req.Flags.ModalParent != nil {
		modal := id
		s.ActiveModal = &modal
	}

	effects := []Effect{PersistLayout{}, FocusWindowInput{ID: id}}
	if s.Preferences.AudioEnabled && info.OpenSound != "" {
		effects = append(effects, PlaySound{Tag: info.OpenSound})
	}
	return effects
}

// focus raises the window at index i to the top of the stack, makes it the
// only focused window and un-minimizes it.
func (s *DesktopState) focus(i int) {
	w := s.Windows[i]
	s.Windows = append(s.Windows[:i], s.Windows[i+1:]...)
	for j := range s.Windows {
		s.Windows[j].IsFocused = false
	}
	w.IsFocused = true
	w.Minimized = false
	s.Windows = append(s.Windows, w)
}

func (s *DesktopState) arrange(viewport geometry.Rect, gap int) []Effect {
	var visible []int
	for i, w := range s.Windows {
		if !w.Minimized {
			visible = append(visible, i)
		}
	}
	positions, err := geometry.CalculatePositions(len(visible), viewport, gap)
	if err != nil || len(positions) == 0 {
		return nil
	}
	for n, i := range visible {
		w := &s.Windows[i]
		w.Maximized = false
		w.RestoreRect = nil
		w.Rect = positions[n]
	}
	return []Effect{PersistLayout{}}
}
