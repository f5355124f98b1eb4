package store

import (
	"context"
	"sync"

	"github.com/1broseidon/deskshell/internal/desktop"
)

// Memory keeps the snapshot in process. It backs tests and ephemeral runs.
type Memory struct {
	mu    sync.Mutex
	doc        desktop.DesktopSnapshot
	saved      bool
	themeSaved bool
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{doc: emptyDocument()}
}

func emptyDocument() desktop.DesktopSnapshot {
	return desktop.DesktopSnapshot{
		SchemaVersion:   desktop.SchemaVersion,
		Theme:           desktop.DefaultTheme(),
		Preferences:     desktop.DefaultPreferences(),
		Windows:         []desktop.WindowRecord{},
		TerminalHistory: []string{},
	}
}

func (m *Memory) SaveLayout(_ context.Context, snap desktop.DesktopSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	applyLayout(&m.doc, snap)
	m.saved = true
	return nil
}

func (m *Memory) SaveTheme(_ context.Context, theme desktop.Theme, prefs desktop.Preferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc.Theme = theme
	m.doc.Preferences = prefs
	m.saved = true
	m.themeSaved = true
	return nil
}

func (m *Memory) SaveTerminalHistory(_ context.Context, history []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc.TerminalHistory = append([]string{}, history...)
	m.saved = true
	return nil
}

func (m *Memory) Load(context.Context) (*desktop.DesktopSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.saved {
		return nil, ErrNoSnapshot
	}
	snap := cloneSnapshot(m.doc)
	snap.ThemeMissing = !m.themeSaved
	snap.PreferencesMissing = !m.themeSaved
	return &snap, nil
}

func (m *Memory) Close() error { return nil }

// applyLayout copies the layout part of snap into doc.
func applyLayout(doc *desktop.DesktopSnapshot, snap desktop.DesktopSnapshot) {
	doc.SchemaVersion = desktop.SchemaVersion
	doc.Windows = make([]desktop.WindowRecord, len(snap.Windows))
	for i, w := range snap.Windows {
		doc.Windows[i] = w.Clone()
	}
	doc.LastExplorerPath = cloneString(snap.LastExplorerPath)
	doc.LastNotepadSlug = cloneString(snap.LastNotepadSlug)
}

func cloneSnapshot(s desktop.DesktopSnapshot) desktop.DesktopSnapshot {
	out := s
	applyLayout(&out, s)
	out.TerminalHistory = append([]string{}, s.TerminalHistory...)
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
