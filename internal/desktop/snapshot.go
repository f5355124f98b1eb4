package desktop

// SchemaVersion is the current DesktopSnapshot format. Bump it on any breaking
// field change and teach the store's migration about the old version.
const SchemaVersion = 1

// DesktopSnapshot is the persisted projection of DesktopState.
type DesktopSnapshot struct {
	SchemaVersion    int            `json:"schema_version"`
	Theme            Theme          `json:"theme"`
	Preferences      Preferences    `json:"preferences"`
	Windows          []WindowRecord `json:"windows"`
	LastExplorerPath *string        `json:"last_explorer_path"`
	LastNotepadSlug  *string        `json:"last_notepad_slug"`
	TerminalHistory  []string       `json:"terminal_history"`

	// ThemeMissing and PreferencesMissing are set by a store when nothing was
	// saved for that part; the field then holds defaults, not user choices.
	ThemeMissing       bool `json:"-"`
	PreferencesMissing bool `json:"-"`
}

// Snapshot projects the state into its persisted form.
func (s *DesktopState) Snapshot() DesktopSnapshot {
	c := s.Clone()
	return DesktopSnapshot{
		SchemaVersion:    SchemaVersion,
		Theme:            c.Theme,
		Preferences:      c.Preferences,
		Windows:          c.Windows,
		LastExplorerPath: c.LastExplorerPath,
		LastNotepadSlug:  c.LastNotepadSlug,
		TerminalHistory:  c.TerminalHistory,
	}
}

// hydrate replaces s with the snapshot contents. A window whose id repeats
// an earlier one is dropped. The window list is then cut to the snapshot's
// MaxRestoreWindows and NextWindowID continues after the highest surviving
// id.
func (s *DesktopState) hydrate(snap DesktopSnapshot) {
	limit := snap.Preferences.MaxRestoreWindows
	if limit < 0 {
		limit = 0
	}

	windows := make([]WindowRecord, 0, min(len(snap.Windows), limit))
	seen := make(map[WindowID]struct{}, len(snap.Windows))
	for _, w := range snap.Windows {
		if len(windows) >= limit {
			break
		}
		if _, dup := seen[w.ID]; dup {
			continue
		}
		seen[w.ID] = struct{}{}
		windows = append(windows, w.Clone())
	}

	var maxID WindowID
	for _, w := range windows {
		if w.ID > maxID {
			maxID = w.ID
		}
	}

	history := append([]string{}, snap.TerminalHistory...)
	if len(history) > MaxTerminalHistory {
		history = history[len(history)-MaxTerminalHistory:]
	}

	*s = DesktopState{
		NextWindowID:     maxID + 1,
		Windows:          windows,
		Theme:            snap.Theme,
		Preferences:      snap.Preferences,
		LastExplorerPath: cloneString(snap.LastExplorerPath),
		LastNotepadSlug:  cloneString(snap.LastNotepadSlug),
		TerminalHistory:  history,
	}
}
