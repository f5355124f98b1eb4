package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/1broseidon/deskshell/internal/desktop"
	"github.com/1broseidon/deskshell/internal/geometry"
)

// LoggingConfig configures where the server log goes.
type LoggingConfig struct {
	// File is the log file path. Empty logs to stderr.
	File string `yaml:"file,omitempty"`
	// MaxSizeMB is the maximum log file size before rotation (default: 10)
	MaxSizeMB int `yaml:"max_size_mb,omitempty"`
	// MaxFiles is the number of rotated files to keep (default: 3)
	MaxFiles int `yaml:"max_files,omitempty"`
	// Format is "text" (default) or "json".
	Format string `yaml:"format,omitempty"`
}

// Viewport is the desktop area windows are maximized into and arranged in.
type Viewport struct {
	Width  int `yaml:"w"`
	Height int `yaml:"h"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	// Backend is one of: sqlite, file, memory.
	Backend string `yaml:"backend"`
	// Path overrides the backend's default location under the XDG state dir.
	Path string `yaml:"path,omitempty"`
}

// HTTPConfig configures the HTTP API.
type HTTPConfig struct {
	Listen string `yaml:"listen"`
}

// Config is the effective deskshell configuration.
type Config struct {
	LogLevel    string              `yaml:"log_level"`
	Logging     LoggingConfig       `yaml:"logging"`
	Viewport    Viewport            `yaml:"viewport"`
	ArrangeGap  int                 `yaml:"arrange_gap"`
	Storage     StorageConfig       `yaml:"storage"`
	HTTP        HTTPConfig          `yaml:"http"`
	Theme       desktop.Theme       `yaml:"theme"`
	Preferences desktop.Preferences `yaml:"preferences"`
	// RestoreSession hydrates the last saved desktop on startup.
	RestoreSession bool `yaml:"restore_session"`
	// AutosaveInterval is how often the full desktop is checkpointed. Zero
	// disables checkpoints; persistence effects still save on every change.
	AutosaveInterval time.Duration `yaml:"autosave_interval"`
	// OpenURLCommand runs with the URL appended for OpenExternalURL effects.
	// Empty only logs the request.
	OpenURLCommand []string `yaml:"open_url_command,omitempty"`
	// LauncherBackend picks the menu program for the start menu: auto, rofi,
	// fuzzel, wofi or dmenu.
	LauncherBackend string `yaml:"launcher_backend"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Logging: LoggingConfig{
			MaxSizeMB: 10,
			MaxFiles:  3,
			Format:    "text",
		},
		Viewport:         Viewport{Width: 1280, Height: 720},
		ArrangeGap:       8,
		Storage:          StorageConfig{Backend: "sqlite"},
		HTTP:             HTTPConfig{Listen: "127.0.0.1:7420"},
		Theme:            desktop.DefaultTheme(),
		Preferences:      desktop.DefaultPreferences(),
		RestoreSession:   true,
		AutosaveInterval: 30 * time.Second,
		LauncherBackend:  "auto",
	}
}

// ViewportRect returns the viewport as a rectangle at the origin.
func (c *Config) ViewportRect() geometry.Rect {
	return geometry.Rect{W: c.Viewport.Width, H: c.Viewport.Height}
}

// Validate checks the configuration and returns a *ValidationError naming the
// offending key.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warn, error")}
	}
	if c.Logging.MaxSizeMB < 0 {
		return &ValidationError{Path: "logging.max_size_mb", Err: fmt.Errorf("max_size_mb must be >= 0")}
	}
	if c.Logging.MaxFiles < 0 {
		return &ValidationError{Path: "logging.max_files", Err: fmt.Errorf("max_files must be >= 0")}
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return &ValidationError{Path: "logging.format", Err: fmt.Errorf("format must be one of: text, json")}
	}
	if c.Viewport.Width <= 0 {
		return &ValidationError{Path: "viewport.w", Err: fmt.Errorf("viewport width must be > 0")}
	}
	if c.Viewport.Height <= 0 {
		return &ValidationError{Path: "viewport.h", Err: fmt.Errorf("viewport height must be > 0")}
	}
	if c.ArrangeGap < 0 {
		return &ValidationError{Path: "arrange_gap", Err: fmt.Errorf("arrange_gap must be >= 0")}
	}
	switch c.Storage.Backend {
	case "sqlite", "file", "memory":
	default:
		return &ValidationError{Path: "storage.backend", Err: fmt.Errorf("backend must be one of: sqlite, file, memory")}
	}
	if strings.TrimSpace(c.HTTP.Listen) == "" {
		return &ValidationError{Path: "http.listen", Err: fmt.Errorf("listen address is required")}
	}
	if strings.TrimSpace(c.Theme.Name) == "" {
		return &ValidationError{Path: "theme.name", Err: fmt.Errorf("theme name is required")}
	}
	if c.Preferences.MaxRestoreWindows < 0 {
		return &ValidationError{Path: "preferences.max_restore_windows", Err: fmt.Errorf("max_restore_windows must be >= 0")}
	}
	if c.AutosaveInterval < 0 {
		return &ValidationError{Path: "autosave_interval", Err: fmt.Errorf("autosave_interval must be >= 0")}
	}
	switch c.LauncherBackend {
	case "auto", "rofi", "fuzzel", "wofi", "dmenu":
	default:
		return &ValidationError{Path: "launcher_backend", Err: fmt.Errorf("launcher_backend must be one of: auto, rofi, fuzzel, wofi, dmenu")}
	}
	for i, arg := range c.OpenURLCommand {
		if strings.TrimSpace(arg) == "" {
			return &ValidationError{Path: "open_url_command", Err: fmt.Errorf("argument %d is empty", i)}
		}
	}
	return nil
}

// ValidationError reports an invalid config key, with its file position when
// the value came from a file.
type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
