package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/1broseidon/deskshell/internal/desktop"
)

// windowItem implements list.Item for one open window.
type windowItem struct {
	rec desktop.WindowRecord
}

func (i windowItem) Title() string {
	prefix := "  "
	if i.rec.IsFocused {
		prefix = "* "
	}
	return fmt.Sprintf("%s#%d %s", prefix, i.rec.ID, i.rec.Title)
}

func (i windowItem) Description() string {
	state := "normal"
	switch {
	case i.rec.Minimized:
		state = "minimized"
	case i.rec.Maximized:
		state = "maximized"
	}
	r := i.rec.Rect
	return fmt.Sprintf("%s  %dx%d at %d,%d  %s", i.rec.AppID, r.W, r.H, r.X, r.Y, state)
}

func (i windowItem) FilterValue() string { return i.rec.Title }

// buildItems lists windows topmost first, the way a task switcher shows them.
func buildItems(state *desktop.DesktopState) []list.Item {
	if state == nil {
		return nil
	}
	items := make([]list.Item, 0, len(state.Windows))
	for i := len(state.Windows) - 1; i >= 0; i-- {
		items = append(items, windowItem{rec: state.Windows[i]})
	}
	return items
}
