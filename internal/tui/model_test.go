package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/1broseidon/deskshell/internal/desktop"
	"github.com/1broseidon/deskshell/internal/geometry"
	"github.com/1broseidon/deskshell/internal/ipc"
)

type fakeClient struct {
	state      *desktop.DesktopState
	dispatched []desktop.Action
	maximized  []desktop.WindowID
	arranged   int
	err        error
}

func (f *fakeClient) State(context.Context) (*desktop.DesktopState, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.state, nil
}

func (f *fakeClient) Dispatch(_ context.Context, actions ...desktop.Action) (*ipc.StatusData, error) {
	f.dispatched = append(f.dispatched, actions...)
	return &ipc.StatusData{}, f.err
}

func (f *fakeClient) Maximize(_ context.Context, id desktop.WindowID) (*desktop.WindowRecord, error) {
	f.maximized = append(f.maximized, id)
	return &desktop.WindowRecord{ID: id}, f.err
}

func (f *fakeClient) Arrange(context.Context, *int) (*desktop.DesktopState, error) {
	f.arranged++
	return f.state, f.err
}

func testState() *desktop.DesktopState {
	return &desktop.DesktopState{
		NextWindowID: 3,
		Windows: []desktop.WindowRecord{
			{ID: 1, AppID: desktop.AppExplorer, Title: "My Computer"},
			{ID: 2, AppID: desktop.AppNotepad, Title: "Notepad", IsFocused: true},
		},
		Theme: desktop.DefaultTheme(),
	}
}

func loaded(t *testing.T, client *fakeClient) model {
	t.Helper()
	m := newModel(client)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	next, _ = next.(model).Update(stateMsg{state: client.state})
	return next.(model)
}

func TestBuildItems_TopmostFirst(t *testing.T) {
	items := buildItems(testState())
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	first := items[0].(windowItem)
	if first.rec.ID != 2 {
		t.Fatalf("expected topmost window first, got #%d", first.rec.ID)
	}
	if !strings.HasPrefix(first.Title(), "* ") {
		t.Fatalf("expected focus marker, got %q", first.Title())
	}
	if got := items[1].(windowItem).Description(); !strings.Contains(got, "explorer") {
		t.Fatalf("expected app id in description, got %q", got)
	}
	if buildItems(nil) != nil {
		t.Fatalf("expected nil items for nil state")
	}
}

func TestWindowItem_DescriptionStates(t *testing.T) {
	tests := []struct {
		rec  desktop.WindowRecord
		want string
	}{
		{desktop.WindowRecord{Minimized: true}, "minimized"},
		{desktop.WindowRecord{Maximized: true}, "maximized"},
		{desktop.WindowRecord{}, "normal"},
	}
	for _, tt := range tests {
		if got := (windowItem{rec: tt.rec}).Description(); !strings.HasSuffix(got, tt.want) {
			t.Errorf("Description() = %q, want suffix %q", got, tt.want)
		}
	}
}

func TestUpdate_KeysDispatchForSelectedWindow(t *testing.T) {
	tests := []struct {
		key  string
		want desktop.Action
	}{
		{"m", desktop.MinimizeWindow{ID: 2}},
		{"enter", desktop.FocusWindow{ID: 2}},
		{"c", desktop.CloseWindow{ID: 2}},
		{"r", desktop.RestoreWindow{ID: 2}},
		{"t", desktop.ToggleTaskbarWindow{ID: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			client := &fakeClient{state: testState()}
			m := loaded(t, client)

			key := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(tt.key)}
			if tt.key == "enter" {
				key = tea.KeyMsg{Type: tea.KeyEnter}
			}
			_, cmd := m.Update(key)
			if cmd == nil {
				t.Fatalf("expected a command for %q", tt.key)
			}
			msg := cmd()
			done, ok := msg.(actionDoneMsg)
			if !ok {
				t.Fatalf("expected actionDoneMsg, got %T", msg)
			}
			if done.err != nil {
				t.Fatalf("unexpected error: %v", done.err)
			}
			if len(client.dispatched) != 1 || client.dispatched[0] != tt.want {
				t.Fatalf("expected %#v dispatched, got %#v", tt.want, client.dispatched)
			}
		})
	}
}

func TestUpdate_MaximizeAndArrange(t *testing.T) {
	client := &fakeClient{state: testState()}
	m := loaded(t, client)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	cmd()
	if len(client.maximized) != 1 || client.maximized[0] != 2 {
		t.Fatalf("expected maximize of #2, got %v", client.maximized)
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	cmd()
	if client.arranged != 1 {
		t.Fatalf("expected one arrange call, got %d", client.arranged)
	}
}

func TestUpdate_ActionErrorShowsInStatus(t *testing.T) {
	client := &fakeClient{state: testState()}
	m := loaded(t, client)

	next, _ := m.Update(actionDoneMsg{err: errors.New("window 9 not found")})
	view := next.(model).View()
	if !strings.Contains(view, "window 9 not found") {
		t.Fatalf("expected error in view, got:\n%s", view)
	}

	next, _ = next.(model).Update(clearStatusMsg{})
	if next.(model).statusText != "" {
		t.Fatalf("expected status cleared")
	}
}

func TestUpdate_DisconnectedState(t *testing.T) {
	client := &fakeClient{err: errors.New("connection refused")}
	m := newModel(client)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	next, _ = next.(model).Update(next.(model).fetchState()())
	if next.(model).connected {
		t.Fatalf("expected disconnected")
	}
	if !strings.Contains(next.(model).View(), "server not running") {
		t.Fatalf("expected disconnected status bar")
	}
}

func TestUpdate_OpenFormEscCancels(t *testing.T) {
	client := &fakeClient{state: testState()}
	m := loaded(t, client)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("o")})
	if next.(model).form == nil {
		t.Fatalf("expected open form")
	}
	next, _ = next.(model).Update(tea.KeyMsg{Type: tea.KeyEsc})
	if next.(model).form != nil {
		t.Fatalf("expected esc to close the form")
	}
	if len(client.dispatched) != 0 {
		t.Fatalf("expected nothing dispatched, got %v", client.dispatched)
	}
}

func TestUpdate_Quit(t *testing.T) {
	m := newModel(&fakeClient{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestUpdate_DirectionalFocus(t *testing.T) {
	state := testState()
	state.Windows[0].Rect = geometry.Rect{X: 0, Y: 0, W: 200, H: 200}
	state.Windows[1].Rect = geometry.Rect{X: 400, Y: 0, W: 200, H: 200}
	client := &fakeClient{state: state}
	m := loaded(t, client)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("H")})
	if cmd == nil {
		t.Fatal("expected a command for H")
	}
	if done, ok := cmd().(actionDoneMsg); !ok || done.err != nil {
		t.Fatalf("expected successful actionDoneMsg, got %#v", done)
	}
	if len(client.dispatched) != 1 || client.dispatched[0] != (desktop.FocusWindow{ID: 1}) {
		t.Fatalf("expected focus #1, got %#v", client.dispatched)
	}
}
