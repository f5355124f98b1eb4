package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

// The Raw types mirror Config with pointer fields so a file only overrides
// the keys it sets.

type RawLoggingConfig struct {
	File      *string `yaml:"file"`
	MaxSizeMB *int    `yaml:"max_size_mb"`
	MaxFiles  *int    `yaml:"max_files"`
	Format    *string `yaml:"format"`
}

type RawViewport struct {
	Width  *int `yaml:"w"`
	Height *int `yaml:"h"`
}

type RawStorageConfig struct {
	Backend *string `yaml:"backend"`
	Path    *string `yaml:"path"`
}

type RawHTTPConfig struct {
	Listen *string `yaml:"listen"`
}

type RawTheme struct {
	Name          *string `yaml:"name"`
	Wallpaper     *string `yaml:"wallpaper"`
	ReducedMotion *bool   `yaml:"reduced_motion"`
}

type RawPreferences struct {
	AudioEnabled           *bool `yaml:"audio_enabled"`
	TerminalHistoryEnabled *bool `yaml:"terminal_history_enabled"`
	MaxRestoreWindows      *int  `yaml:"max_restore_windows"`
}

type RawConfig struct {
	Include IncludeList `yaml:"include"`

	LogLevel         *string           `yaml:"log_level"`
	Logging          *RawLoggingConfig `yaml:"logging"`
	Viewport         *RawViewport      `yaml:"viewport"`
	ArrangeGap       *int              `yaml:"arrange_gap"`
	Storage          *RawStorageConfig `yaml:"storage"`
	HTTP             *RawHTTPConfig    `yaml:"http"`
	Theme            *RawTheme         `yaml:"theme"`
	Preferences      *RawPreferences   `yaml:"preferences"`
	RestoreSession   *bool             `yaml:"restore_session"`
	AutosaveInterval *time.Duration    `yaml:"autosave_interval"`
	OpenURLCommand   *[]string         `yaml:"open_url_command"`
	LauncherBackend  *string           `yaml:"launcher_backend"`
}

// merge returns r with every key set in other overriding it.
func (r RawConfig) merge(other RawConfig) RawConfig {
	out := r
	out.Include = nil

	setString(&out.LogLevel, other.LogLevel)
	setInt(&out.ArrangeGap, other.ArrangeGap)
	setBool(&out.RestoreSession, other.RestoreSession)
	setString(&out.LauncherBackend, other.LauncherBackend)
	if other.AutosaveInterval != nil {
		v := *other.AutosaveInterval
		out.AutosaveInterval = &v
	}
	if other.OpenURLCommand != nil {
		v := append([]string{}, (*other.OpenURLCommand)...)
		out.OpenURLCommand = &v
	}

	if other.Logging != nil {
		l := RawLoggingConfig{}
		if out.Logging != nil {
			l = *out.Logging
		}
		setString(&l.File, other.Logging.File)
		setInt(&l.MaxSizeMB, other.Logging.MaxSizeMB)
		setInt(&l.MaxFiles, other.Logging.MaxFiles)
		setString(&l.Format, other.Logging.Format)
		out.Logging = &l
	}
	if other.Viewport != nil {
		v := RawViewport{}
		if out.Viewport != nil {
			v = *out.Viewport
		}
		setInt(&v.Width, other.Viewport.Width)
		setInt(&v.Height, other.Viewport.Height)
		out.Viewport = &v
	}
	if other.Storage != nil {
		s := RawStorageConfig{}
		if out.Storage != nil {
			s = *out.Storage
		}
		setString(&s.Backend, other.Storage.Backend)
		setString(&s.Path, other.Storage.Path)
		out.Storage = &s
	}
	if other.HTTP != nil {
		h := RawHTTPConfig{}
		if out.HTTP != nil {
			h = *out.HTTP
		}
		setString(&h.Listen, other.HTTP.Listen)
		out.HTTP = &h
	}
	if other.Theme != nil {
		t := RawTheme{}
		if out.Theme != nil {
			t = *out.Theme
		}
		setString(&t.Name, other.Theme.Name)
		setString(&t.Wallpaper, other.Theme.Wallpaper)
		setBool(&t.ReducedMotion, other.Theme.ReducedMotion)
		out.Theme = &t
	}
	if other.Preferences != nil {
		p := RawPreferences{}
		if out.Preferences != nil {
			p = *out.Preferences
		}
		setBool(&p.AudioEnabled, other.Preferences.AudioEnabled)
		setBool(&p.TerminalHistoryEnabled, other.Preferences.TerminalHistoryEnabled)
		setInt(&p.MaxRestoreWindows, other.Preferences.MaxRestoreWindows)
		out.Preferences = &p
	}
	return out
}

// BuildEffectiveConfig applies raw over DefaultConfig.
func BuildEffectiveConfig(raw RawConfig) *Config {
	cfg := DefaultConfig()

	applyString(&cfg.LogLevel, raw.LogLevel)
	applyInt(&cfg.ArrangeGap, raw.ArrangeGap)
	applyBool(&cfg.RestoreSession, raw.RestoreSession)
	applyString(&cfg.LauncherBackend, raw.LauncherBackend)
	if raw.AutosaveInterval != nil {
		cfg.AutosaveInterval = *raw.AutosaveInterval
	}
	if raw.OpenURLCommand != nil {
		cfg.OpenURLCommand = append([]string{}, (*raw.OpenURLCommand)...)
	}
	if l := raw.Logging; l != nil {
		applyString(&cfg.Logging.File, l.File)
		applyInt(&cfg.Logging.MaxSizeMB, l.MaxSizeMB)
		applyInt(&cfg.Logging.MaxFiles, l.MaxFiles)
		applyString(&cfg.Logging.Format, l.Format)
	}
	if v := raw.Viewport; v != nil {
		applyInt(&cfg.Viewport.Width, v.Width)
		applyInt(&cfg.Viewport.Height, v.Height)
	}
	if s := raw.Storage; s != nil {
		applyString(&cfg.Storage.Backend, s.Backend)
		applyString(&cfg.Storage.Path, s.Path)
	}
	if h := raw.HTTP; h != nil {
		applyString(&cfg.HTTP.Listen, h.Listen)
	}
	if t := raw.Theme; t != nil {
		applyString(&cfg.Theme.Name, t.Name)
		applyString(&cfg.Theme.Wallpaper, t.Wallpaper)
		applyBool(&cfg.Theme.ReducedMotion, t.ReducedMotion)
	}
	if p := raw.Preferences; p != nil {
		applyBool(&cfg.Preferences.AudioEnabled, p.AudioEnabled)
		applyBool(&cfg.Preferences.TerminalHistoryEnabled, p.TerminalHistoryEnabled)
		applyInt(&cfg.Preferences.MaxRestoreWindows, p.MaxRestoreWindows)
	}
	return cfg
}

func setString(dst **string, src *string) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

func setInt(dst **int, src *int) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

func setBool(dst **bool, src *bool) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func applyInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func applyBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
