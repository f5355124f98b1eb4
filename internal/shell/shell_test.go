package shell

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/1broseidon/deskshell/internal/bus"
	"github.com/1broseidon/deskshell/internal/desktop"
	"github.com/1broseidon/deskshell/internal/effects"
)

type memoryPersistence struct {
	mu       sync.Mutex
	layout   *desktop.DesktopSnapshot
	theme    desktop.Theme
	history  []string
	saves    int
	failNext bool
}

func (m *memoryPersistence) SaveLayout(_ context.Context, snap desktop.DesktopSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		m.failNext = false
		return errors.New("disk full")
	}
	m.layout = &snap
	m.saves++
	return nil
}

func (m *memoryPersistence) SaveTheme(_ context.Context, theme desktop.Theme, _ desktop.Preferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.theme = theme
	return nil
}

func (m *memoryPersistence) SaveTerminalHistory(_ context.Context, history []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = history
	return nil
}

func (m *memoryPersistence) Load(context.Context) (*desktop.DesktopSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.layout, nil
}

type focusRecorder struct{ ids []desktop.WindowID }

func (f *focusRecorder) FocusInput(_ context.Context, id desktop.WindowID) error {
	f.ids = append(f.ids, id)
	return nil
}

func newTestShell() (*Shell, *memoryPersistence, *focusRecorder) {
	store := &memoryPersistence{}
	focus := &focusRecorder{}
	sh := New(Options{Hosts: effects.Hosts{Persistence: store, Focus: focus}})
	return sh, store, focus
}

func openApp(t *testing.T, sh *Shell, app desktop.AppID) desktop.WindowID {
	t.Helper()
	id := sh.State().NextWindowID
	if err := sh.Dispatch(context.Background(), desktop.OpenWindow{Request: desktop.NewOpenWindowRequest(app)}); err != nil {
		t.Fatalf("open %s: %v", app, err)
	}
	return id
}

func TestDispatch_ExplorerNotepadScenario(t *testing.T) {
	sh, store, focus := newTestShell()
	explorer := openApp(t, sh, desktop.AppExplorer)
	notepad := openApp(t, sh, desktop.AppNotepad)

	state := sh.State()
	e, _ := state.Window(explorer)
	n, _ := state.Window(notepad)
	if !n.IsFocused || e.IsFocused || n.ZIndex <= e.ZIndex {
		t.Fatalf("expected notepad focused on top, got explorer=%+v notepad=%+v", e, n)
	}
	if len(focus.ids) != 2 || focus.ids[1] != notepad {
		t.Fatalf("expected input focus calls for both windows, got %v", focus.ids)
	}
	if store.layout == nil || len(store.layout.Windows) != 2 {
		t.Fatalf("expected layout persisted with 2 windows")
	}
}

func TestDispatch_WindowNotFound(t *testing.T) {
	sh, store, _ := newTestShell()
	openApp(t, sh, desktop.AppExplorer)
	saves := store.saves
	rev := sh.Revision()

	err := sh.Dispatch(context.Background(), desktop.CloseWindow{ID: 99})
	if !errors.Is(err, desktop.ErrWindowNotFound) {
		t.Fatalf("expected ErrWindowNotFound, got %v", err)
	}
	if store.saves != saves || sh.Revision() != rev {
		t.Fatalf("expected failed action to have no effects")
	}
	if len(sh.State().Windows) != 1 {
		t.Fatalf("expected state unchanged")
	}
}

func TestDispatch_SyncsBusSessions(t *testing.T) {
	sh, _, _ := newTestShell()
	a := openApp(t, sh, desktop.AppExplorer)
	b := openApp(t, sh, desktop.AppNotepad)

	if phase, ok := sh.Lifecycle(b); !ok || phase != bus.LifecycleFocused {
		t.Fatalf("expected window %d focused lifecycle, got %q", b, phase)
	}
	if phase, _ := sh.Lifecycle(a); phase != bus.LifecycleBackground {
		t.Fatalf("expected window %d background lifecycle, got %q", a, phase)
	}

	if err := sh.Subscribe(a, "theme"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := sh.Subscribe(b, "theme"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := sh.Dispatch(context.Background(), desktop.CloseWindow{ID: b}); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, ok := sh.Lifecycle(b); ok {
		t.Fatalf("expected session of closed window removed")
	}

	report := sh.Publish(0, "theme", json.RawMessage(`{"name":"night"}`), "", nil)
	if len(report.Delivered) != 1 || report.Delivered[0] != a {
		t.Fatalf("expected delivery to open window only, got %+v", report)
	}
	events, err := sh.Drain(a)
	if err != nil || len(events) != 1 {
		t.Fatalf("expected one event for window %d, got %v (%v)", a, events, err)
	}
	if _, err := sh.Drain(b); !errors.Is(err, bus.ErrNoSession) {
		t.Fatalf("expected ErrNoSession for closed window, got %v", err)
	}
}

func TestOpenDeepLink(t *testing.T) {
	sh, store, _ := newTestShell()
	link, err := sh.OpenDeepLink(context.Background(), "/notes/todo?open=project:site")
	if err != nil {
		t.Fatalf("deep link: %v", err)
	}
	if len(link.Open) != 2 {
		t.Fatalf("expected 2 targets, got %+v", link.Open)
	}

	state := sh.State()
	if len(state.Windows) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(state.Windows))
	}
	if *state.Windows[0].PersistKey != "notes:todo" || *state.Windows[1].PersistKey != "projects:site" {
		t.Fatalf("unexpected persist keys")
	}
	if store.layout == nil || len(store.layout.Windows) != 2 {
		t.Fatalf("expected layout saved after deep link opens")
	}

	if _, err := sh.OpenDeepLink(context.Background(), "/?open=bogus:1"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestHydrate(t *testing.T) {
	sh, store, _ := newTestShell()
	openApp(t, sh, desktop.AppExplorer)
	openApp(t, sh, desktop.AppPaint)

	restored := New(Options{})
	found, err := restored.Hydrate(context.Background(), store)
	if err != nil || !found {
		t.Fatalf("expected snapshot restored, found=%v err=%v", found, err)
	}
	state := restored.State()
	if len(state.Windows) != 2 || state.NextWindowID != 3 {
		t.Fatalf("unexpected restored state: %d windows, next %d", len(state.Windows), state.NextWindowID)
	}
	if phase, ok := restored.Lifecycle(2); !ok || phase != bus.LifecycleFocused {
		t.Fatalf("expected bus synced after hydrate, got %q", phase)
	}

	empty := New(Options{})
	found, err = empty.Hydrate(context.Background(), &memoryPersistence{})
	if err != nil || found {
		t.Fatalf("expected nothing to restore, found=%v err=%v", found, err)
	}
}

func TestDispatchAll_StopsAtFailure(t *testing.T) {
	sh, _, _ := newTestShell()
	err := sh.DispatchAll(context.Background(), []desktop.Action{
		desktop.OpenWindow{Request: desktop.NewOpenWindowRequest(desktop.AppTerminal)},
		desktop.FocusWindow{ID: 5},
		desktop.OpenWindow{Request: desktop.NewOpenWindowRequest(desktop.AppPaint)},
	})
	if !errors.Is(err, desktop.ErrWindowNotFound) {
		t.Fatalf("expected ErrWindowNotFound, got %v", err)
	}
	if len(sh.State().Windows) != 1 {
		t.Fatalf("expected actions after the failure skipped")
	}
}

func TestState_ReturnsCopy(t *testing.T) {
	sh, _, _ := newTestShell()
	openApp(t, sh, desktop.AppExplorer)
	st := sh.State()
	st.Windows[0].Title = "changed"
	if w, _ := sh.State().Window(1); w.Title == "changed" {
		t.Fatalf("expected State to return a copy")
	}
}

func TestInteraction_TracksGestures(t *testing.T) {
	sh, _, _ := newTestShell()
	id := openApp(t, sh, desktop.AppExplorer)
	if err := sh.Dispatch(context.Background(), desktop.BeginMove{ID: id}); err != nil {
		t.Fatalf("begin move: %v", err)
	}
	if in := sh.Interaction(); in.Dragging == nil || in.Dragging.WindowID != id {
		t.Fatalf("expected drag session for window %d", id)
	}
}

func TestConcurrentDispatch(t *testing.T) {
	sh, _, _ := newTestShell()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_ = sh.Dispatch(context.Background(), desktop.OpenWindow{Request: desktop.NewOpenWindowRequest(desktop.AppNotepad)})
			}
		}()
	}
	wg.Wait()

	state := sh.State()
	if len(state.Windows) != 80 || state.NextWindowID != 81 {
		t.Fatalf("expected 80 windows, got %d (next %d)", len(state.Windows), state.NextWindowID)
	}
}

func TestCheckpointer(t *testing.T) {
	sh, _, _ := newTestShell()
	target := &memoryPersistence{}
	cp := NewCheckpointer(CheckpointConfig{}, sh, target)

	openApp(t, sh, desktop.AppExplorer)
	if !cp.Checkpoint(context.Background()) {
		t.Fatalf("expected checkpoint after change")
	}
	if cp.Checkpoint(context.Background()) {
		t.Fatalf("expected no checkpoint without changes")
	}

	openApp(t, sh, desktop.AppPaint)
	target.failNext = true
	if cp.Checkpoint(context.Background()) {
		t.Fatalf("expected failed checkpoint to report false")
	}
	if !cp.Checkpoint(context.Background()) {
		t.Fatalf("expected retry after failure")
	}
	if len(target.layout.Windows) != 2 {
		t.Fatalf("expected latest layout checkpointed, got %d windows", len(target.layout.Windows))
	}
}

func TestCheckpointer_RunFlushesOnCancel(t *testing.T) {
	sh, _, _ := newTestShell()
	target := &memoryPersistence{}
	cp := NewCheckpointer(CheckpointConfig{Interval: 1 << 40}, sh, target)
	openApp(t, sh, desktop.AppExplorer)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		cp.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	if target.layout == nil {
		t.Fatalf("expected final checkpoint on shutdown")
	}
}

type fixedLoader struct{ snap *desktop.DesktopSnapshot }

func (l fixedLoader) Load(context.Context) (*desktop.DesktopSnapshot, error) { return l.snap, nil }

func threeWindowSnapshot() *desktop.DesktopSnapshot {
	src := New(Options{})
	for _, app := range []desktop.AppID{desktop.AppExplorer, desktop.AppNotepad, desktop.AppPaint} {
		src.Dispatch(context.Background(), desktop.OpenWindow{Request: desktop.NewOpenWindowRequest(app)})
	}
	snap := src.Snapshot()
	return &snap
}

func TestHydrate_KeepsConfiguredThemeWhenNoneSaved(t *testing.T) {
	theme := desktop.Theme{Name: "night", Wallpaper: "stars"}
	prefs := desktop.Preferences{AudioEnabled: false, TerminalHistoryEnabled: false, MaxRestoreWindows: 2}
	sh := New(Options{Theme: &theme, Preferences: &prefs})

	snap := threeWindowSnapshot()
	snap.ThemeMissing = true
	snap.PreferencesMissing = true
	if _, err := sh.Hydrate(context.Background(), fixedLoader{snap}); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	state := sh.State()
	if state.Theme != theme || state.Preferences != prefs {
		t.Fatalf("expected configured theme and preferences kept, got %+v %+v", state.Theme, state.Preferences)
	}
	if len(state.Windows) != 2 {
		t.Fatalf("expected configured restore limit applied, got %d windows", len(state.Windows))
	}

	saved := threeWindowSnapshot()
	saved.Preferences.MaxRestoreWindows = 3
	if _, err := sh.Hydrate(context.Background(), fixedLoader{saved}); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if got := sh.State().Preferences; got != saved.Preferences {
		t.Fatalf("expected saved preferences to win, got %+v", got)
	}
}

func TestHydrate_ResetsBusSessionsForReusedIDs(t *testing.T) {
	sh, _, _ := newTestShell()
	id := openApp(t, sh, desktop.AppTerminal)
	if err := sh.Subscribe(id, "chat"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	sh.Publish(0, "chat", json.RawMessage(`"hello"`), "", nil)

	snap := threeWindowSnapshot()
	if _, err := sh.Hydrate(context.Background(), fixedLoader{snap}); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	events, _, err := sh.Inbox(id, false)
	if err != nil {
		t.Fatalf("expected a session for restored window %d: %v", id, err)
	}
	if len(events) != 0 {
		t.Fatalf("expected a fresh inbox for restored window %d, got %v", id, events)
	}
	if report := sh.Publish(0, "chat", json.RawMessage(`"again"`), "", nil); len(report.Delivered) != 0 {
		t.Fatalf("expected old subscriptions dropped, delivered to %v", report.Delivered)
	}
}

func TestDispatch_LogsUnknownApp(t *testing.T) {
	var buf bytes.Buffer
	sh := New(Options{Logger: slog.New(slog.NewTextHandler(&buf, nil))})
	err := sh.Dispatch(context.Background(), desktop.OpenWindow{Request: desktop.NewOpenWindowRequest(desktop.AppID("solitaire"))})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(sh.State().Windows) != 0 {
		t.Fatalf("expected no window for unknown app")
	}
	if !strings.Contains(buf.String(), "unknown app") || !strings.Contains(buf.String(), "solitaire") {
		t.Fatalf("expected a warning naming the app, got %q", buf.String())
	}
}

// layoutLog records every layout save. hook runs once, inside the next
// SaveLayout, without holding the log's own lock.
type layoutLog struct {
	mu      sync.Mutex
	layouts []desktop.DesktopSnapshot
	hook    func()
}

func (l *layoutLog) SaveLayout(_ context.Context, snap desktop.DesktopSnapshot) error {
	l.mu.Lock()
	hook := l.hook
	l.hook = nil
	l.mu.Unlock()
	if hook != nil {
		hook()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.layouts = append(l.layouts, snap)
	return nil
}

func (l *layoutLog) SaveTheme(context.Context, desktop.Theme, desktop.Preferences) error { return nil }

func (l *layoutLog) SaveTerminalHistory(context.Context, []string) error { return nil }

func TestCheckpoint_DoesNotOverwriteNewerLayout(t *testing.T) {
	log := &layoutLog{}
	sh := New(Options{Hosts: effects.Hosts{Persistence: log}})
	openApp(t, sh, desktop.AppExplorer)
	cp := NewCheckpointer(CheckpointConfig{}, sh, log)

	done := make(chan struct{})
	log.mu.Lock()
	log.hook = func() {
		go func() {
			defer close(done)
			sh.Dispatch(context.Background(), desktop.OpenWindow{Request: desktop.NewOpenWindowRequest(desktop.AppPaint)})
		}()
		select {
		case <-done:
		case <-time.After(50 * time.Millisecond):
		}
	}
	log.mu.Unlock()

	if !cp.Checkpoint(context.Background()) {
		t.Fatalf("expected checkpoint to save")
	}
	<-done

	log.mu.Lock()
	last := log.layouts[len(log.layouts)-1]
	log.mu.Unlock()
	if len(last.Windows) != 2 {
		t.Fatalf("expected the newer layout saved last, got %d windows", len(last.Windows))
	}
	if !cp.Checkpoint(context.Background()) {
		t.Fatalf("expected the concurrent change to be checkpointed next")
	}
}
