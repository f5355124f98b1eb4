package desktop

// normalize restores the whole-stack invariants after a reduction:
//   - z-index is 1-based and dense in stacking order
//   - minimized windows are never focused
//   - at most one window is focused (the first one found wins)
//   - when nothing is focused, the topmost non-minimized window is
//
// It also repairs state that no action produces but a malformed snapshot
// could: a maximized window without a restore rect, a next id that does not
// exceed every open id, and an active modal that is no longer open.
func normalize(s *DesktopState) {
	focused := false
	var maxID WindowID
	for i := range s.Windows {
		w := &s.Windows[i]
		w.ZIndex = uint32(i + 1)
		if w.Minimized {
			w.IsFocused = false
		}
		if w.IsFocused {
			if focused {
				w.IsFocused = false
			} else {
				focused = true
			}
		}
		if w.Maximized && w.RestoreRect == nil {
			r := w.Rect
			w.RestoreRect = &r
		}
		if w.ID > maxID {
			maxID = w.ID
		}
	}

	if !focused {
		for i := len(s.Windows) - 1; i >= 0; i-- {
			if !s.Windows[i].Minimized {
				s.Windows[i].IsFocused = true
				break
			}
		}
	}

	if s.NextWindowID <= maxID {
		s.NextWindowID = maxID + 1
	}
	if s.ActiveModal != nil && s.indexOf(*s.ActiveModal) < 0 {
		s.ActiveModal = nil
	}
	if s.Windows == nil {
		s.Windows = []WindowRecord{}
	}
	if s.TerminalHistory == nil {
		s.TerminalHistory = []string{}
	}
}
