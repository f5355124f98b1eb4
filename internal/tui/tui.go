// Package tui is an interactive taskbar for a running desktop: it lists the
// open windows and drives them through the HTTP API.
package tui

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/1broseidon/deskshell/internal/desktop"
	"github.com/1broseidon/deskshell/internal/ipc"
)

// Client is the API surface the taskbar uses. *ipc.Client implements it.
type Client interface {
	State(ctx context.Context) (*desktop.DesktopState, error)
	Dispatch(ctx context.Context, actions ...desktop.Action) (*ipc.StatusData, error)
	Maximize(ctx context.Context, id desktop.WindowID) (*desktop.WindowRecord, error)
	Arrange(ctx context.Context, gap *int) (*desktop.DesktopState, error)
}

// Run starts the taskbar and blocks until the user quits.
func Run(client Client) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tui requires an interactive terminal (stdin/stdout must be TTYs)")
	}
	p := tea.NewProgram(newModel(client), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
