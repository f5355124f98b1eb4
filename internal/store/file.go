package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/1broseidon/deskshell/internal/desktop"
)

// FileStore keeps the snapshot in one JSON file. Every save rewrites the
// whole document.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store writing to path. The parent directory is
// created on first save.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("file store path is required")
	}
	return &FileStore{path: path}, nil
}

// Path returns the snapshot file location.
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) SaveLayout(_ context.Context, snap desktop.DesktopSnapshot) error {
	windows := snap.Windows
	if windows == nil {
		windows = []desktop.WindowRecord{}
	}
	return f.update(map[string]any{
		"windows":            windows,
		"last_explorer_path": snap.LastExplorerPath,
		"last_notepad_slug":  snap.LastNotepadSlug,
	})
}

func (f *FileStore) SaveTheme(_ context.Context, theme desktop.Theme, prefs desktop.Preferences) error {
	return f.update(map[string]any{
		"theme":       theme,
		"preferences": prefs,
	})
}

func (f *FileStore) SaveTerminalHistory(_ context.Context, history []string) error {
	if history == nil {
		history = []string{}
	}
	return f.update(map[string]any{"terminal_history": history})
}

func (f *FileStore) Load(context.Context) (*desktop.DesktopSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read()
}

func (f *FileStore) Close() error { return nil }

func (f *FileStore) read() (*desktop.DesktopSnapshot, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("failed to read snapshot %q: %w", f.path, err)
	}
	snap, err := Migrate(data)
	if err != nil {
		return nil, fmt.Errorf("snapshot %q: %w", f.path, err)
	}
	return snap, nil
}

// update rewrites the document with fields replaced. Fields never saved stay
// absent from the file, so Load can tell them apart from saved defaults.
func (f *FileStore) update(fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc := map[string]json.RawMessage{}
	data, err := os.ReadFile(f.path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return fmt.Errorf("failed to read snapshot %q: %w", f.path, err)
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("snapshot %q: failed to parse snapshot: %w", f.path, err)
		}
	}

	fields["schema_version"] = desktop.SchemaVersion
	for key, value := range fields {
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", key, err)
		}
		doc[key] = raw
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	data, err = json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	// Write beside the target and rename so a crash never leaves half a file.
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write snapshot %q: %w", f.path, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to replace snapshot %q: %w", f.path, err)
	}
	return nil
}
