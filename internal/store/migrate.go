package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/1broseidon/deskshell/internal/desktop"
)

// ErrUnsupportedVersion is returned for snapshots written by a newer build.
var ErrUnsupportedVersion = errors.New("unsupported snapshot schema version")

// Migrate decodes a persisted snapshot of any known schema version and
// upgrades it to desktop.SchemaVersion.
//
// Version 0 snapshots predate the schema_version field and the preferences
// block; missing preferences and theme fields take their defaults, and a
// block missing entirely is flagged on the snapshot so the caller can keep
// its own values. Anything
// else an old snapshot gets wrong (a maximized window without restore_rect)
// is repaired by the reducer when the snapshot is hydrated.
func Migrate(data []byte) (*desktop.DesktopSnapshot, error) {
	var header struct {
		SchemaVersion *int            `json:"schema_version"`
		Theme         json.RawMessage `json:"theme"`
		Preferences   json.RawMessage `json:"preferences"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	version := 0
	if header.SchemaVersion != nil {
		version = *header.SchemaVersion
	}
	if version < 0 || version > desktop.SchemaVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	snap := desktop.DesktopSnapshot{
		Theme:       desktop.DefaultTheme(),
		Preferences: desktop.DefaultPreferences(),
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot (schema %d): %w", version, err)
	}

	snap.SchemaVersion = desktop.SchemaVersion
	snap.ThemeMissing = isAbsent(header.Theme)
	snap.PreferencesMissing = isAbsent(header.Preferences)
	if snap.Windows == nil {
		snap.Windows = []desktop.WindowRecord{}
	}
	if snap.TerminalHistory == nil {
		snap.TerminalHistory = []string{}
	}
	return &snap, nil
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
