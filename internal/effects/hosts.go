package effects

import (
	"context"

	"github.com/1broseidon/deskshell/internal/desktop"
)

// Persistence stores the parts of the desktop that survive a restart.
type Persistence interface {
	SaveLayout(ctx context.Context, snap desktop.DesktopSnapshot) error
	SaveTheme(ctx context.Context, theme desktop.Theme, prefs desktop.Preferences) error
	SaveTerminalHistory(ctx context.Context, history []string) error
}

// Audio plays short UI sounds by tag.
type Audio interface {
	Play(ctx context.Context, tag string) error
}

// URLOpener opens a URL outside the shell.
type URLOpener interface {
	OpenURL(ctx context.Context, url string) error
}

// InputFocuser moves keyboard focus into a window's primary input.
type InputFocuser interface {
	FocusInput(ctx context.Context, id desktop.WindowID) error
}

// Hosts bundles the collaborators a Runner calls. Nil members are skipped.
type Hosts struct {
	Persistence Persistence
	Audio       Audio
	URLs        URLOpener
	Focus       InputFocuser
}
