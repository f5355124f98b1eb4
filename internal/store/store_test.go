package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/1broseidon/deskshell/internal/desktop"
	"github.com/1broseidon/deskshell/internal/geometry"
)

func sampleSnapshot() desktop.DesktopSnapshot {
	s := desktop.NewDesktopState()
	in := &desktop.InteractionState{}
	for _, app := range []desktop.AppID{desktop.AppExplorer, desktop.AppNotepad} {
		desktop.Reduce(s, in, desktop.OpenWindow{Request: desktop.NewOpenWindowRequest(app)})
	}
	desktop.Reduce(s, in, desktop.MaximizeWindow{ID: 1, Viewport: geometry.Rect{W: 1024, H: 768}})
	desktop.Reduce(s, in, desktop.SetExplorerPath{Path: "C:/Projects"})
	return s.Snapshot()
}

func backends(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	file, err := NewFileStore(filepath.Join(t.TempDir(), "state", "desktop.json"))
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	return map[string]Store{
		BackendSQLite: sqlite,
		BackendFile:   file,
		BackendMemory: NewMemory(),
	}
}

func TestStores_LoadBeforeSave(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := st.Load(context.Background()); !errors.Is(err, ErrNoSnapshot) {
				t.Fatalf("expected ErrNoSnapshot, got %v", err)
			}
		})
	}
}

func TestStores_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	snap := sampleSnapshot()

	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := st.SaveLayout(ctx, snap); err != nil {
				t.Fatalf("save layout: %v", err)
			}
			theme := desktop.Theme{Name: "night", Wallpaper: "stars", ReducedMotion: true}
			prefs := desktop.Preferences{AudioEnabled: false, TerminalHistoryEnabled: true, MaxRestoreWindows: 4}
			if err := st.SaveTheme(ctx, theme, prefs); err != nil {
				t.Fatalf("save theme: %v", err)
			}
			if err := st.SaveTerminalHistory(ctx, []string{"dir", "ver"}); err != nil {
				t.Fatalf("save history: %v", err)
			}

			got, err := st.Load(ctx)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if got.SchemaVersion != desktop.SchemaVersion {
				t.Fatalf("expected schema %d, got %d", desktop.SchemaVersion, got.SchemaVersion)
			}
			if len(got.Windows) != 2 {
				t.Fatalf("expected 2 windows, got %d", len(got.Windows))
			}
			var maximized desktop.WindowRecord
			for _, w := range got.Windows {
				if w.ID == 1 {
					maximized = w
				}
			}
			if !maximized.Maximized || maximized.RestoreRect == nil || *maximized.RestoreRect != (geometry.Rect{X: 40, Y: 48, W: 420, H: 300}) {
				t.Fatalf("expected restore rect preserved, got %+v", maximized)
			}
			if got.Theme != theme || got.Preferences != prefs {
				t.Fatalf("unexpected theme/prefs %+v %+v", got.Theme, got.Preferences)
			}
			if got.LastExplorerPath == nil || *got.LastExplorerPath != "C:/Projects" || got.LastNotepadSlug != nil {
				t.Fatalf("unexpected last-visited fields %v %v", got.LastExplorerPath, got.LastNotepadSlug)
			}
			if len(got.TerminalHistory) != 2 || got.TerminalHistory[1] != "ver" {
				t.Fatalf("unexpected history %v", got.TerminalHistory)
			}

			// Saving the layout again overwrites rather than appends.
			snap.Windows = snap.Windows[:1]
			if err := st.SaveLayout(ctx, snap); err != nil {
				t.Fatalf("save layout again: %v", err)
			}
			got, _ = st.Load(ctx)
			if len(got.Windows) != 1 || got.Theme != theme {
				t.Fatalf("expected single window and untouched theme, got %d windows, theme %+v", len(got.Windows), got.Theme)
			}
			snap = sampleSnapshot()
		})
	}
}

func TestStores_ThemeOnlyUsesDefaults(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			theme := desktop.Theme{Name: "contrast"}
			if err := st.SaveTheme(ctx, theme, desktop.DefaultPreferences()); err != nil {
				t.Fatalf("save theme: %v", err)
			}
			got, err := st.Load(ctx)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if len(got.Windows) != 0 || got.Theme.Name != "contrast" {
				t.Fatalf("unexpected snapshot %+v", got)
			}
			if got.Windows == nil || got.TerminalHistory == nil {
				t.Fatalf("expected empty slices, not nil")
			}
		})
	}
}

func TestStores_LayoutOnlyFlagsMissingTheme(t *testing.T) {
	ctx := context.Background()
	snap := sampleSnapshot()
	snap.Preferences = desktop.Preferences{AudioEnabled: false, TerminalHistoryEnabled: false, MaxRestoreWindows: 2}

	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := st.SaveLayout(ctx, snap); err != nil {
				t.Fatalf("save layout: %v", err)
			}
			got, err := st.Load(ctx)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if !got.ThemeMissing || !got.PreferencesMissing {
				t.Fatalf("expected theme and preferences flagged missing, got %v %v", got.ThemeMissing, got.PreferencesMissing)
			}
			if len(got.Windows) != 2 {
				t.Fatalf("expected layout loaded, got %d windows", len(got.Windows))
			}

			if err := st.SaveTheme(ctx, snap.Theme, snap.Preferences); err != nil {
				t.Fatalf("save theme: %v", err)
			}
			got, err = st.Load(ctx)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if got.ThemeMissing || got.PreferencesMissing {
				t.Fatalf("expected saved theme and preferences, got missing flags %v %v", got.ThemeMissing, got.PreferencesMissing)
			}
			if got.Preferences != snap.Preferences {
				t.Fatalf("expected saved preferences %+v, got %+v", snap.Preferences, got.Preferences)
			}
		})
	}
}

func TestMigrate_VersionZero(t *testing.T) {
	data := []byte(`{
		"theme": {"name": "retro", "wallpaper": "clouds"},
		"windows": [{"id": 4, "app_id": "notepad", "rect": {"x": 1, "y": 2, "w": 300, "h": 200}}]
	}`)
	snap, err := Migrate(data)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if snap.SchemaVersion != desktop.SchemaVersion {
		t.Fatalf("expected upgraded schema version, got %d", snap.SchemaVersion)
	}
	if snap.Preferences != desktop.DefaultPreferences() {
		t.Fatalf("expected default preferences, got %+v", snap.Preferences)
	}
	if snap.Theme.Name != "retro" || len(snap.Windows) != 1 || snap.Windows[0].ID != 4 {
		t.Fatalf("unexpected migrated snapshot %+v", snap)
	}
	if snap.TerminalHistory == nil {
		t.Fatalf("expected empty history slice")
	}
}

func TestMigrate_PartialPreferencesKeepDefaults(t *testing.T) {
	snap, err := Migrate([]byte(`{"schema_version": 1, "preferences": {"audio_enabled": false}}`))
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if snap.Preferences.AudioEnabled || snap.Preferences.MaxRestoreWindows != desktop.DefaultMaxRestoreWindows {
		t.Fatalf("unexpected preferences %+v", snap.Preferences)
	}
}

func TestMigrate_Errors(t *testing.T) {
	if _, err := Migrate([]byte(`{"schema_version": 99}`)); !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}
	if _, err := Migrate([]byte(`not json`)); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestSQLite_LegacyRowsAreMigrated(t *testing.T) {
	st, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer st.Close()

	_, err = st.DB.Exec(`INSERT INTO layout (id, schema_version, windows, updated_at) VALUES (1, 0, '[]', 0)`)
	if err != nil {
		t.Fatalf("insert layout: %v", err)
	}
	_, err = st.DB.Exec(`INSERT INTO theme (id, theme, preferences, updated_at) VALUES (1, '{"name":"old"}', NULL, 0)`)
	if err != nil {
		t.Fatalf("insert theme: %v", err)
	}

	snap, err := st.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap.SchemaVersion != desktop.SchemaVersion || snap.Preferences != desktop.DefaultPreferences() {
		t.Fatalf("expected migrated snapshot, got %+v", snap)
	}
	if snap.ThemeMissing || !snap.PreferencesMissing {
		t.Fatalf("expected only preferences flagged missing, got %v %v", snap.ThemeMissing, snap.PreferencesMissing)
	}
}

func TestSQLite_CreatesTables(t *testing.T) {
	st, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer st.Close()

	for _, table := range []string{"layout", "theme", "terminal_history"} {
		var count int
		st.DB.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		if count != 1 {
			t.Fatalf("table %s not created", table)
		}
	}
}

func TestFileStore_WritesIndentedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "desktop.json")
	st, _ := NewFileStore(path)
	if err := st.SaveTerminalHistory(context.Background(), []string{"cls"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(data) == 0 || data[0] != '{' || data[1] != '\n' {
		t.Fatalf("expected indented JSON document, got %q", data)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("expected temp file renamed away")
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "desktop.json")
	if err := os.WriteFile(path, []byte("{"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	st, _ := NewFileStore(path)
	if _, err := st.Load(context.Background()); err == nil || errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("expected parse error, got %v", err)
	}
	if err := st.SaveTheme(context.Background(), desktop.DefaultTheme(), desktop.DefaultPreferences()); err == nil {
		t.Fatalf("expected save over corrupt file to fail")
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		backend string
		path    string
		wantErr bool
	}{
		{BackendSQLite, filepath.Join(dir, "db", "desktop.db"), false},
		{BackendFile, filepath.Join(dir, "desktop.json"), false},
		{BackendMemory, "", false},
		{"", ":memory:", false},
		{"redis", "", true},
		{BackendFile, "", true},
	}
	for _, tt := range tests {
		st, err := Open(tt.backend, tt.path)
		if (err != nil) != tt.wantErr {
			t.Fatalf("Open(%q, %q): err=%v wantErr=%v", tt.backend, tt.path, err, tt.wantErr)
		}
		if st != nil {
			st.Close()
		}
	}
}
