package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/deskshell/internal/desktop"
	"github.com/1broseidon/deskshell/internal/geometry"
)

const (
	refreshInterval = time.Second
	requestTimeout  = 3 * time.Second
)

// stateMsg carries a freshly fetched desktop state.
type stateMsg struct {
	state *desktop.DesktopState
	err   error
}

// tickMsg triggers a periodic refresh.
type tickMsg struct{}

// actionDoneMsg is sent after an API call completes.
type actionDoneMsg struct {
	text string
	err  error
}

// clearStatusMsg clears the status message after a delay.
type clearStatusMsg struct{}

// model is the root bubbletea model for the taskbar.
type model struct {
	client Client
	list   list.Model

	state     *desktop.DesktopState
	connected bool

	// Open-app form
	form    *huh.Form
	pickApp string

	statusText string

	width  int
	height int
}

func newModel(client Client) model {
	delegate := list.NewDefaultDelegate()
	delegate.SetSpacing(0)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Windows"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	return model{client: client, list: l}
}

func (m model) fetchState() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		state, err := client.State(ctx)
		return stateMsg{state: state, err: err}
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

// run wraps an API call in a command that reports its outcome.
func (m model) run(text string, call func(ctx context.Context, c Client) error) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return actionDoneMsg{text: text, err: call(ctx, client)}
	}
}

func (m model) dispatch(text string, action desktop.Action) tea.Cmd {
	return m.run(text, func(ctx context.Context, c Client) error {
		_, err := c.Dispatch(ctx, action)
		return err
	})
}

func (m model) selected() (desktop.WindowRecord, bool) {
	item, ok := m.list.SelectedItem().(windowItem)
	if !ok {
		return desktop.WindowRecord{}, false
	}
	return item.rec, true
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return tea.Batch(m.fetchState(), tick())
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateListSize()
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.fetchState(), tick())

	case stateMsg:
		if msg.err != nil {
			m.connected = false
			return m, nil
		}
		m.connected = true
		m.state = msg.state
		m.list.SetItems(buildItems(msg.state))
		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			m.statusText = "error: " + msg.err.Error()
		} else {
			m.statusText = msg.text
		}
		return m, tea.Batch(m.fetchState(), tea.Tick(3*time.Second, func(time.Time) tea.Msg {
			return clearStatusMsg{}
		}))

	case clearStatusMsg:
		m.statusText = ""
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "o":
			m.startOpenForm()
			return m, m.form.Init()
		case "a":
			return m, m.run("arranged windows", func(ctx context.Context, c Client) error {
				_, err := c.Arrange(ctx, nil)
				return err
			})
		}
		if rec, ok := m.selected(); ok {
			if cmd := m.windowKey(msg.String(), rec); cmd != nil {
				return m, cmd
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// windowKey maps a key on the selected window to its API call.
func (m model) windowKey(key string, rec desktop.WindowRecord) tea.Cmd {
	id := rec.ID
	switch key {
	case "enter", "f":
		return m.dispatch(fmt.Sprintf("focused #%d", id), desktop.FocusWindow{ID: id})
	case "m":
		return m.dispatch(fmt.Sprintf("minimized #%d", id), desktop.MinimizeWindow{ID: id})
	case "t":
		return m.dispatch(fmt.Sprintf("toggled #%d", id), desktop.ToggleTaskbarWindow{ID: id})
	case "r":
		return m.dispatch(fmt.Sprintf("restored #%d", id), desktop.RestoreWindow{ID: id})
	case "c":
		return m.dispatch(fmt.Sprintf("closed #%d", id), desktop.CloseWindow{ID: id})
	case "x":
		return m.run(fmt.Sprintf("maximized #%d", id), func(ctx context.Context, c Client) error {
			_, err := c.Maximize(ctx, id)
			return err
		})
	}
	if dir, ok := neighborKeys[key]; ok && m.state != nil {
		next, found := m.state.NeighborWindow(id, dir)
		if !found {
			return nil
		}
		return m.dispatch(fmt.Sprintf("focused #%d (%s)", next, dir), desktop.FocusWindow{ID: next})
	}
	return nil
}

// neighborKeys focus the nearest window on screen in a direction.
var neighborKeys = map[string]geometry.Direction{
	"shift+up":    geometry.DirUp,
	"shift+down":  geometry.DirDown,
	"shift+left":  geometry.DirLeft,
	"shift+right": geometry.DirRight,
	"K":           geometry.DirUp,
	"J":           geometry.DirDown,
	"H":           geometry.DirLeft,
	"L":           geometry.DirRight,
}

func (m *model) startOpenForm() {
	ids := desktop.AppIDs()
	opts := make([]huh.Option[string], 0, len(ids))
	for _, id := range ids {
		info, _ := id.Info()
		opts = append(opts, huh.NewOption(info.Title, string(id)))
	}
	m.pickApp = ""
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("app").
				Title("Open Window").
				Description("Application to launch").
				Options(opts...).
				Value(&m.pickApp),
		),
	)
}

func (m model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			m.form = nil
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateListSize()
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		app := desktop.AppID(m.form.GetString("app"))
		m.form = nil
		if !app.Valid() {
			return m, nil
		}
		return m, m.dispatch("opened "+string(app), desktop.OpenWindow{Request: desktop.NewOpenWindowRequest(app)})
	}
	if m.form.State == huh.StateAborted {
		m.form = nil
		return m, nil
	}
	return m, cmd
}

func (m *model) updateListSize() {
	// Reserve status bar and help bar.
	h := m.height - 2
	if h < 1 {
		h = 1
	}
	m.list.SetSize(m.width, h)
}

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	windows, theme := 0, ""
	if m.state != nil {
		windows = len(m.state.Windows)
		theme = m.state.Theme.Name
	}
	statusBar := renderStatusBar(m.connected, windows, theme, m.width)
	helpBar := renderHelpBar(m.width, m.statusText)

	content := m.list.View()
	if m.form != nil {
		content = lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		statusBar,
		content,
		helpBar,
	)
}
