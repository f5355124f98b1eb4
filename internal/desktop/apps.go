package desktop

import (
	"fmt"
	"sort"
	"strings"
)

// AppID identifies one of the shell's built-in application kinds.
type AppID string

const (
	AppExplorer    AppID = "explorer"
	AppNotepad     AppID = "notepad"
	AppPaint       AppID = "paint"
	AppTerminal    AppID = "terminal"
	AppDialup      AppID = "dialup"
	AppMinesweeper AppID = "minesweeper"
	AppSettings    AppID = "settings"
	AppBrowser     AppID = "browser"
)

// Size is a default window size in pixels.
type Size struct {
	W int
	H int
}

// AppInfo is the static description of an application kind.
type AppInfo struct {
	Title       string
	Icon        string
	DefaultSize Size
	// OpenSound is the sound tag played when a window of this kind opens
	// with audio enabled. Empty means silent.
	OpenSound string
	Flags     WindowFlags
}

var defaultFlags = WindowFlags{Resizable: true, Minimizable: true, Maximizable: true}

// apps is the closed table of application kinds. Anything not listed here
// cannot be opened.
var apps = map[AppID]AppInfo{
	AppExplorer: {
		Title:       "My Computer",
		Icon:        "explorer",
		DefaultSize: Size{W: 420, H: 300},
		Flags:       defaultFlags,
	},
	AppNotepad: {
		Title:       "Notepad",
		Icon:        "notepad",
		DefaultSize: Size{W: 420, H: 300},
		Flags:       defaultFlags,
	},
	AppPaint: {
		Title:       "Paint",
		Icon:        "paint",
		DefaultSize: Size{W: 560, H: 420},
		Flags:       defaultFlags,
	},
	AppTerminal: {
		Title:       "Command Prompt",
		Icon:        "terminal",
		DefaultSize: Size{W: 520, H: 320},
		Flags:       defaultFlags,
	},
	AppDialup: {
		Title:       "Dial-Up Connection",
		Icon:        "dialup",
		DefaultSize: Size{W: 360, H: 220},
		OpenSound:   "dialup",
		Flags:       WindowFlags{Minimizable: true},
	},
	AppMinesweeper: {
		Title:       "Minesweeper",
		Icon:        "minesweeper",
		DefaultSize: Size{W: 260, H: 320},
		OpenSound:   "chime",
		Flags:       WindowFlags{Minimizable: true},
	},
	AppSettings: {
		Title:       "Display Properties",
		Icon:        "settings",
		DefaultSize: Size{W: 400, H: 440},
		Flags:       WindowFlags{Minimizable: true},
	},
	AppBrowser: {
		Title:       "Internet Explorer",
		Icon:        "browser",
		DefaultSize: Size{W: 640, H: 480},
		Flags:       defaultFlags,
	},
}

// Info returns the static description of an app kind.
func (a AppID) Info() (AppInfo, bool) {
	info, ok := apps[a]
	return info, ok
}

// Valid reports whether a is one of the known app kinds.
func (a AppID) Valid() bool {
	_, ok := apps[a]
	return ok
}

// ParseAppID converts a case-insensitive app name into an AppID.
func ParseAppID(s string) (AppID, error) {
	id := AppID(strings.ToLower(strings.TrimSpace(s)))
	if !id.Valid() {
		return "", fmt.Errorf("unknown app %q", s)
	}
	return id, nil
}

// AppIDs returns every known app kind in sorted order.
func AppIDs() []AppID {
	out := make([]AppID, 0, len(apps))
	for id := range apps {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
