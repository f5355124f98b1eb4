package effects

import (
	"context"
	"errors"
	"testing"

	"github.com/1broseidon/deskshell/internal/desktop"
)

type recordingHosts struct {
	calls   []string
	layouts []desktop.DesktopSnapshot
	failOn  string
}

func (h *recordingHosts) record(call string) error {
	h.calls = append(h.calls, call)
	if call == h.failOn {
		return errors.New("host unavailable")
	}
	return nil
}

func (h *recordingHosts) SaveLayout(_ context.Context, snap desktop.DesktopSnapshot) error {
	h.layouts = append(h.layouts, snap)
	return h.record("layout")
}

func (h *recordingHosts) SaveTheme(context.Context, desktop.Theme, desktop.Preferences) error {
	return h.record("theme")
}

func (h *recordingHosts) SaveTerminalHistory(context.Context, []string) error {
	return h.record("history")
}

func (h *recordingHosts) Play(_ context.Context, tag string) error {
	return h.record("sound:" + tag)
}

func (h *recordingHosts) OpenURL(_ context.Context, url string) error {
	return h.record("url:" + url)
}

func (h *recordingHosts) FocusInput(_ context.Context, id desktop.WindowID) error {
	return h.record("focus:" + id.String())
}

func newRecordingRunner() (*Runner, *recordingHosts) {
	h := &recordingHosts{}
	return NewRunner(Hosts{Persistence: h, Audio: h, URLs: h, Focus: h}, nil), h
}

func TestOutbox_DrainSwapsQueue(t *testing.T) {
	var out Outbox
	out.Push(desktop.PersistLayout{}, desktop.PersistTheme{})

	batch := out.Drain()
	if len(batch) != 2 || out.Len() != 0 {
		t.Fatalf("expected 2 drained and empty outbox, got %d drained, %d left", len(batch), out.Len())
	}

	out.Push(desktop.PlaySound{Tag: "chime"})
	if len(batch) != 2 {
		t.Fatalf("push after drain modified the drained batch")
	}
	if out.Len() != 1 {
		t.Fatalf("expected new effect in next cycle, got %d", out.Len())
	}
}

func TestRunner_PerformsInOrder(t *testing.T) {
	r, h := newRecordingRunner()
	state := desktop.NewDesktopState()

	var out Outbox
	out.Push(
		desktop.PersistLayout{},
		desktop.FocusWindowInput{ID: 3},
		desktop.PlaySound{Tag: "dialup"},
		desktop.OpenExternalURLEffect{URL: "https://example.com"},
		desktop.PersistTheme{},
		desktop.PersistTerminalHistory{},
	)
	stats := r.Run(context.Background(), &out, state, nil)

	want := []string{"layout", "focus:3", "sound:dialup", "url:https://example.com", "theme", "history"}
	if len(h.calls) != len(want) {
		t.Fatalf("expected calls %v, got %v", want, h.calls)
	}
	for i := range want {
		if h.calls[i] != want[i] {
			t.Fatalf("call %d: expected %s, got %s", i, want[i], h.calls[i])
		}
	}
	if stats.Cycles != 1 || stats.Performed != 6 || stats.Failed != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestRunner_CoalescesPersistWithinBatch(t *testing.T) {
	r, h := newRecordingRunner()
	var out Outbox
	out.Push(desktop.PersistLayout{}, desktop.PersistLayout{}, desktop.PersistLayout{})
	r.Run(context.Background(), &out, desktop.NewDesktopState(), nil)
	if len(h.layouts) != 1 {
		t.Fatalf("expected one layout save, got %d", len(h.layouts))
	}
}

func TestRunner_HostFailureDoesNotAbort(t *testing.T) {
	r, h := newRecordingRunner()
	h.failOn = "layout"

	var out Outbox
	out.Push(desktop.PersistLayout{}, desktop.PlaySound{Tag: "chime"})
	stats := r.Run(context.Background(), &out, desktop.NewDesktopState(), nil)

	if stats.Failed != 1 || stats.Performed != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if h.calls[len(h.calls)-1] != "sound:chime" {
		t.Fatalf("expected sound after failed save, got %v", h.calls)
	}
}

func TestRunner_NilHostsAreSkipped(t *testing.T) {
	r := NewRunner(Hosts{}, nil)
	var out Outbox
	out.Push(desktop.PersistLayout{}, desktop.PlaySound{Tag: "chime"}, desktop.FocusWindowInput{ID: 1})
	stats := r.Run(context.Background(), &out, desktop.NewDesktopState(), nil)
	if stats.Failed != 0 || out.Len() != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestRunner_DeepLinkReentersReducer(t *testing.T) {
	r, h := newRecordingRunner()
	state := desktop.NewDesktopState()
	in := &desktop.InteractionState{}

	dispatch := func(a desktop.Action) ([]desktop.Effect, error) {
		return desktop.Reduce(state, in, a)
	}
	effects, err := desktop.Reduce(state, in, desktop.ApplyDeepLink{Link: desktop.DeepLinkState{
		Open: []desktop.DeepLinkTarget{desktop.NotesTarget("todo"), desktop.AppTarget(desktop.AppPaint)},
	}})
	if err != nil {
		t.Fatalf("reduce: %v", err)
	}

	var out Outbox
	out.Push(effects...)
	stats := r.Run(context.Background(), &out, state, dispatch)

	if len(state.Windows) != 2 {
		t.Fatalf("expected 2 windows opened, got %d", len(state.Windows))
	}
	if stats.Cycles != 2 {
		t.Fatalf("expected open effects drained in a second cycle, got %d cycles", stats.Cycles)
	}
	// Both opens emit PersistLayout; the second cycle saves once, after both.
	if len(h.layouts) != 1 || len(h.layouts[0].Windows) != 2 {
		t.Fatalf("expected a single layout save with 2 windows, got %d saves", len(h.layouts))
	}
}

func TestRunner_DrainLimit(t *testing.T) {
	r, _ := newRecordingRunner()
	link := desktop.DeepLinkState{Open: []desktop.DeepLinkTarget{desktop.AppTarget(desktop.AppNotepad)}}

	calls := 0
	dispatch := func(desktop.Action) ([]desktop.Effect, error) {
		calls++
		// Every resolution asks for another one.
		return []desktop.Effect{desktop.ParseAndOpenDeepLink{Link: link}}, nil
	}

	var out Outbox
	out.Push(desktop.ParseAndOpenDeepLink{Link: link})
	stats := r.Run(context.Background(), &out, desktop.NewDesktopState(), dispatch)

	if stats.Cycles != MaxDrainCycles {
		t.Fatalf("expected %d cycles, got %d", MaxDrainCycles, stats.Cycles)
	}
	if calls != MaxDrainCycles {
		t.Fatalf("expected %d dispatches, got %d", MaxDrainCycles, calls)
	}
	if stats.Discarded != 1 || out.Len() != 0 {
		t.Fatalf("expected remaining effect discarded, got %+v (outbox %d)", stats, out.Len())
	}
}

func TestRunner_DeepLinkDispatchErrorIsLogged(t *testing.T) {
	r, _ := newRecordingRunner()
	dispatch := func(desktop.Action) ([]desktop.Effect, error) {
		return nil, errors.New("boom")
	}
	var out Outbox
	out.Push(desktop.ParseAndOpenDeepLink{Link: desktop.DeepLinkState{
		Open: []desktop.DeepLinkTarget{desktop.AppTarget(desktop.AppPaint)},
	}})
	stats := r.Run(context.Background(), &out, desktop.NewDesktopState(), dispatch)
	if stats.Failed != 0 || stats.Performed != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}
