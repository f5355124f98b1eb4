package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/1broseidon/deskshell/internal/desktop"
)

// Schema holds one row per table, keyed by id = 1.
const Schema = `
CREATE TABLE IF NOT EXISTS layout (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	schema_version INTEGER NOT NULL,
	windows TEXT NOT NULL,
	last_explorer_path TEXT,
	last_notepad_slug TEXT,
	updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS theme (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	theme TEXT NOT NULL,
	preferences TEXT,
	updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS terminal_history (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	commands TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// SQLiteStore persists the desktop in a SQLite database.
type SQLiteStore struct {
	DB *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies the
// schema. ":memory:" opens a private in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite store path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// Each connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=10000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &SQLiteStore{DB: db}
	if err := s.Init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Init creates the tables if they do not exist.
func (s *SQLiteStore) Init() error {
	if _, err := s.DB.Exec(Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.DB.Close()
}

func (s *SQLiteStore) SaveLayout(ctx context.Context, snap desktop.DesktopSnapshot) error {
	windows := snap.Windows
	if windows == nil {
		windows = []desktop.WindowRecord{}
	}
	data, err := json.Marshal(windows)
	if err != nil {
		return fmt.Errorf("failed to encode windows: %w", err)
	}
	return s.tx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO layout (id, schema_version, windows, last_explorer_path, last_notepad_slug, updated_at)
			VALUES (1, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				schema_version = excluded.schema_version,
				windows = excluded.windows,
				last_explorer_path = excluded.last_explorer_path,
				last_notepad_slug = excluded.last_notepad_slug,
				updated_at = excluded.updated_at`,
			desktop.SchemaVersion, string(data),
			nullString(snap.LastExplorerPath), nullString(snap.LastNotepadSlug),
			time.Now().UnixMilli())
		return err
	})
}

func (s *SQLiteStore) SaveTheme(ctx context.Context, theme desktop.Theme, prefs desktop.Preferences) error {
	themeJSON, err := json.Marshal(theme)
	if err != nil {
		return fmt.Errorf("failed to encode theme: %w", err)
	}
	prefsJSON, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	return s.tx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO theme (id, theme, preferences, updated_at)
			VALUES (1, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				theme = excluded.theme,
				preferences = excluded.preferences,
				updated_at = excluded.updated_at`,
			string(themeJSON), string(prefsJSON), time.Now().UnixMilli())
		return err
	})
}

func (s *SQLiteStore) SaveTerminalHistory(ctx context.Context, history []string) error {
	if history == nil {
		history = []string{}
	}
	data, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to encode terminal history: %w", err)
	}
	return s.tx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO terminal_history (id, commands, updated_at)
			VALUES (1, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				commands = excluded.commands,
				updated_at = excluded.updated_at`,
			string(data), time.Now().UnixMilli())
		return err
	})
}

// Load reassembles the snapshot from the three tables and runs it through
// Migrate, so rows written by older builds come back upgraded.
func (s *SQLiteStore) Load(ctx context.Context) (*desktop.DesktopSnapshot, error) {
	doc := map[string]any{}
	found := false

	var (
		version      int
		windows      string
		explorerPath sql.NullString
		notepadSlug  sql.NullString
	)
	err := s.DB.QueryRowContext(ctx,
		`SELECT schema_version, windows, last_explorer_path, last_notepad_slug FROM layout WHERE id = 1`,
	).Scan(&version, &windows, &explorerPath, &notepadSlug)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		doc["schema_version"] = desktop.SchemaVersion
	case err != nil:
		return nil, fmt.Errorf("failed to load layout: %w", err)
	default:
		found = true
		doc["schema_version"] = version
		doc["windows"] = json.RawMessage(windows)
		if explorerPath.Valid {
			doc["last_explorer_path"] = explorerPath.String
		}
		if notepadSlug.Valid {
			doc["last_notepad_slug"] = notepadSlug.String
		}
	}

	var theme string
	var prefs sql.NullString
	err = s.DB.QueryRowContext(ctx, `SELECT theme, preferences FROM theme WHERE id = 1`).Scan(&theme, &prefs)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("failed to load theme: %w", err)
	default:
		found = true
		doc["theme"] = json.RawMessage(theme)
		if prefs.Valid {
			doc["preferences"] = json.RawMessage(prefs.String)
		}
	}

	var commands string
	err = s.DB.QueryRowContext(ctx, `SELECT commands FROM terminal_history WHERE id = 1`).Scan(&commands)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("failed to load terminal history: %w", err)
	default:
		found = true
		doc["terminal_history"] = json.RawMessage(commands)
	}

	if !found {
		return nil, ErrNoSnapshot
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble snapshot: %w", err)
	}
	return Migrate(data)
}

// tx runs fn in a transaction, rolling back on error.
func (s *SQLiteStore) tx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
