package launcher

import (
	"context"
	"fmt"
	"strings"

	"github.com/1broseidon/deskshell/internal/desktop"
	"github.com/1broseidon/deskshell/internal/ipc"
)

const (
	valueWindow  = "window:"
	valueApp     = "app:"
	valueArrange = "arrange"
	valueClose   = "close-all"
)

// Client is the API surface the start menu needs. *ipc.Client implements it.
type Client interface {
	State(ctx context.Context) (*desktop.DesktopState, error)
	Dispatch(ctx context.Context, actions ...desktop.Action) (*ipc.StatusData, error)
	Arrange(ctx context.Context, gap *int) (*desktop.DesktopState, error)
}

// StartMenu lists the open windows topmost first, every program, and the
// desktop-wide commands. The focused window is marked active.
func StartMenu(state *desktop.DesktopState) []Item {
	var items []Item
	if state != nil && len(state.Windows) > 0 {
		items = append(items, Item{Label: "Windows", IsHeader: true})
		for i := len(state.Windows) - 1; i >= 0; i-- {
			w := state.Windows[i]
			label := fmt.Sprintf("%s  #%d", w.Title, w.ID)
			if w.Minimized {
				label += "  (minimized)"
			}
			items = append(items, Item{
				Label:    label,
				Value:    valueWindow + w.ID.String(),
				Icon:     w.IconID,
				Meta:     string(w.AppID),
				IsActive: w.IsFocused,
			})
		}
	}

	items = append(items, Item{Label: "Programs", IsHeader: true})
	for _, id := range desktop.AppIDs() {
		info, _ := id.Info()
		items = append(items, Item{
			Label: info.Title,
			Value: valueApp + string(id),
			Icon:  info.Icon,
			Meta:  string(id),
		})
	}

	items = append(items, Item{Label: "Desktop", IsHeader: true})
	items = append(items, Item{Label: "Arrange windows", Value: valueArrange, Icon: "view-grid"})
	if state != nil && len(state.Windows) > 0 {
		items = append(items, Item{Label: "Close all windows", Value: valueClose, Icon: "window-close"})
	}
	return items
}

// Apply performs the command a start menu row stands for and returns a short
// description of what happened.
func Apply(ctx context.Context, client Client, state *desktop.DesktopState, value string) (string, error) {
	switch {
	case strings.HasPrefix(value, valueWindow):
		id, err := desktop.ParseWindowID(strings.TrimPrefix(value, valueWindow))
		if err != nil {
			return "", err
		}
		if _, err := client.Dispatch(ctx, desktop.FocusWindow{ID: id}); err != nil {
			return "", err
		}
		return "focused window " + id.String(), nil

	case strings.HasPrefix(value, valueApp):
		app, err := desktop.ParseAppID(strings.TrimPrefix(value, valueApp))
		if err != nil {
			return "", err
		}
		if _, err := client.Dispatch(ctx, desktop.OpenWindow{Request: desktop.NewOpenWindowRequest(app)}); err != nil {
			return "", err
		}
		return "opened " + string(app), nil

	case value == valueArrange:
		if _, err := client.Arrange(ctx, nil); err != nil {
			return "", err
		}
		return "arranged windows", nil

	case value == valueClose:
		if state == nil || len(state.Windows) == 0 {
			return "no windows to close", nil
		}
		// Topmost first so modal children close before their parents.
		ids := state.WindowIDs()
		actions := make([]desktop.Action, 0, len(ids))
		for i := len(ids) - 1; i >= 0; i-- {
			actions = append(actions, desktop.CloseWindow{ID: ids[i]})
		}
		if _, err := client.Dispatch(ctx, actions...); err != nil {
			return "", err
		}
		return fmt.Sprintf("closed %d windows", len(actions)), nil
	}
	return "", fmt.Errorf("unknown start menu entry %q", value)
}

// Run shows the start menu once and applies the choice.
func Run(ctx context.Context, backend Backend, client Client) (string, error) {
	state, err := client.State(ctx)
	if err != nil {
		return "", err
	}
	item, err := backend.Show(ctx, "Start", StartMenu(state))
	if err != nil {
		return "", err
	}
	return Apply(ctx, client, state, item.Value)
}
