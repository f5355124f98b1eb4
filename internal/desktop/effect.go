package desktop

import "fmt"

// Effect is an inert description of a side effect the reducer wants
// performed. The reducer only returns effects; an effect runner executes them.
type Effect interface {
	effectKind() string
}

// EffectKind returns the stable name of an effect, used for logging.
func EffectKind(e Effect) string {
	return e.effectKind()
}

// PersistLayout asks the runner to save the window layout snapshot.
type PersistLayout struct{}

// PersistTheme asks the runner to save theme and preferences.
type PersistTheme struct{}

// PersistTerminalHistory asks the runner to save the terminal history.
type PersistTerminalHistory struct{}

// FocusWindowInput asks the host to move keyboard focus into a window.
type FocusWindowInput struct {
	ID WindowID
}

// ParseAndOpenDeepLink asks the runner to resolve a deep link and dispatch
// an OpenWindow for each target.
type ParseAndOpenDeepLink struct {
	Link DeepLinkState
}

// OpenExternalURLEffect asks the host to open a URL outside the shell.
type OpenExternalURLEffect struct {
	URL string
}

// PlaySound asks the host to play a sound by tag.
type PlaySound struct {
	Tag string
}

func (PersistLayout) effectKind() string          { return "persist_layout" }
func (PersistTheme) effectKind() string           { return "persist_theme" }
func (PersistTerminalHistory) effectKind() string { return "persist_terminal_history" }
func (FocusWindowInput) effectKind() string       { return "focus_window_input" }
func (ParseAndOpenDeepLink) effectKind() string   { return "parse_and_open_deep_link" }
func (OpenExternalURLEffect) effectKind() string  { return "open_external_url" }
func (PlaySound) effectKind() string              { return "play_sound" }

func (e FocusWindowInput) String() string { return fmt.Sprintf("focus_window_input(%d)", e.ID) }
func (e PlaySound) String() string        { return fmt.Sprintf("play_sound(%s)", e.Tag) }
