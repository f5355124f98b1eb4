// Package shell owns the desktop state and is the single path through which
// it changes. Dispatch runs the reducer, performs the resulting effects and
// keeps the event bus in step with the open windows.
package shell

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/1broseidon/deskshell/internal/bus"
	"github.com/1broseidon/deskshell/internal/desktop"
	"github.com/1broseidon/deskshell/internal/effects"
)

// SnapshotLoader reads the last persisted snapshot. It returns (nil, nil)
// when nothing has been saved yet.
type SnapshotLoader interface {
	Load(ctx context.Context) (*desktop.DesktopSnapshot, error)
}

// Options configures a Shell.
type Options struct {
	Hosts       effects.Hosts
	Logger      *slog.Logger
	Theme       *desktop.Theme
	Preferences *desktop.Preferences
}

// Shell serializes every mutation of one desktop.
type Shell struct {
	mu       sync.Mutex
	state    *desktop.DesktopState
	in       desktop.InteractionState
	outbox   effects.Outbox
	runner   *effects.Runner
	bus      *bus.Bus
	logger   *slog.Logger
	revision uint64
}

// New creates a shell with an empty desktop.
func New(opts Options) *Shell {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	state := desktop.NewDesktopState()
	if opts.Theme != nil {
		state.Theme = *opts.Theme
	}
	if opts.Preferences != nil {
		state.Preferences = *opts.Preferences
	}
	return &Shell{
		state:  state,
		runner: effects.NewRunner(opts.Hosts, logger),
		bus:    bus.New(),
		logger: logger,
	}
}

// Dispatch applies action and performs every effect it causes, including the
// windows a deep link opens. A WindowNotFound failure is logged and returned;
// the state is unchanged in that case.
func (s *Shell) Dispatch(ctx context.Context, action desktop.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	produced, err := s.reduceLocked(action)
	if err != nil {
		return err
	}
	s.outbox.Push(produced...)
	stats := s.runner.Run(ctx, &s.outbox, s.state, s.reduceLocked)

	s.logger.Debug("dispatched action",
		"action", desktop.ActionType(action),
		"windows", len(s.state.Windows),
		"effects", stats.Performed,
		"failed_effects", stats.Failed)
	return nil
}

// reduceLocked runs one reduction and syncs the bus. s.mu must be held.
func (s *Shell) reduceLocked(action desktop.Action) ([]desktop.Effect, error) {
	produced, err := desktop.Reduce(s.state, &s.in, action)
	if err != nil {
		if errors.Is(err, desktop.ErrWindowNotFound) {
			s.logger.Warn("dropping action",
				"action", desktop.ActionType(action),
				"error", err)
		}
		return nil, err
	}
	s.revision++

	switch a := action.(type) {
	case desktop.HydrateSnapshot:
		// Restored ids may collide with live ones; those are new windows.
		s.bus.SyncWindows(nil)
	case desktop.OpenWindow:
		if !a.Request.AppID.Valid() {
			s.logger.Warn("ignoring open of unknown app", "app_id", string(a.Request.AppID))
		}
	}

	report := s.bus.SyncWindows(s.state.WindowIDs())
	if report.Changed() {
		s.logger.Debug("bus sessions synced",
			"created", report.Created,
			"removed", report.Removed)
	}
	s.bus.SyncLifecycle(s.state.Windows)
	return produced, nil
}

// DispatchAll applies actions in order and stops at the first failure.
func (s *Shell) DispatchAll(ctx context.Context, actions []desktop.Action) error {
	for i, a := range actions {
		if err := s.Dispatch(ctx, a); err != nil {
			return fmt.Errorf("action %d (%s): %w", i, desktop.ActionType(a), err)
		}
	}
	return nil
}

// OpenDeepLink parses a router URL and dispatches it.
func (s *Shell) OpenDeepLink(ctx context.Context, rawURL string) (desktop.DeepLinkState, error) {
	link, err := desktop.ParseDeepLink(rawURL)
	if err != nil {
		return desktop.DeepLinkState{}, err
	}
	return link, s.Dispatch(ctx, desktop.ApplyDeepLink{Link: link})
}

// Hydrate loads the persisted snapshot and replaces the desktop with it. It
// reports whether a snapshot was found. A theme or preferences block the
// store never saved keeps the shell's current value.
func (s *Shell) Hydrate(ctx context.Context, loader SnapshotLoader) (bool, error) {
	snap, err := loader.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if snap == nil {
		return false, nil
	}

	restore := *snap
	s.mu.Lock()
	if restore.ThemeMissing {
		restore.Theme = s.state.Theme
	}
	if restore.PreferencesMissing {
		restore.Preferences = s.state.Preferences
	}
	s.mu.Unlock()

	if err := s.Dispatch(ctx, desktop.HydrateSnapshot{Snapshot: restore}); err != nil {
		return false, err
	}
	s.logger.Info("restored desktop session", "windows", len(snap.Windows))
	return true, nil
}

// State returns a copy of the current desktop.
func (s *Shell) State() *desktop.DesktopState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Interaction returns a copy of the in-flight gesture state.
func (s *Shell) Interaction() desktop.InteractionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := desktop.InteractionState{}
	if s.in.Dragging != nil {
		d := *s.in.Dragging
		out.Dragging = &d
	}
	if s.in.Resizing != nil {
		r := *s.in.Resizing
		out.Resizing = &r
	}
	if s.in.DesktopSelectionOrigin != nil {
		p := *s.in.DesktopSelectionOrigin
		out.DesktopSelectionOrigin = &p
	}
	return out
}

// Snapshot returns the persisted projection of the current desktop.
func (s *Shell) Snapshot() desktop.DesktopSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Snapshot()
}

// Revision increases on every successful reduction.
func (s *Shell) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// saveSince calls save with the current snapshot when the revision moved
// past since. It holds the dispatch lock throughout, so persistence effects
// of a concurrent Dispatch land after it and are never overwritten by an
// older snapshot. It returns the revision that was saved.
func (s *Shell) saveSince(ctx context.Context, since uint64, save func(context.Context, desktop.DesktopSnapshot) error) (uint64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revision == since {
		return since, false, nil
	}
	if err := save(ctx, s.state.Snapshot()); err != nil {
		return since, false, err
	}
	return s.revision, true, nil
}

// Subscribe subscribes a window to a bus topic.
func (s *Shell) Subscribe(id desktop.WindowID, topic string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bus.Subscribe(id, topic)
}

// Unsubscribe removes a window from a bus topic.
func (s *Shell) Unsubscribe(id desktop.WindowID, topic string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bus.Unsubscribe(id, topic)
}

// Publish publishes an event from source to every subscriber of topic.
func (s *Shell) Publish(source desktop.WindowID, topic string, payload json.RawMessage, correlationID string, replyTo *desktop.WindowID) bus.PublishReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	report := s.bus.Publish(source, topic, payload, correlationID, replyTo)
	if len(report.Stale) > 0 {
		s.logger.Debug("pruned stale subscribers", "topic", topic, "stale", report.Stale)
	}
	return report
}

// Send delivers an event directly to target.
func (s *Shell) Send(source, target desktop.WindowID, topic string, payload json.RawMessage, correlationID string, replyTo *desktop.WindowID) (bus.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bus.Send(source, target, topic, payload, correlationID, replyTo)
}

// Drain consumes a window's inbox.
func (s *Shell) Drain(id desktop.WindowID) ([]bus.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bus.Drain(id)
}

// Inbox returns a window's pending events and its drop count. With consume
// set the events are removed.
func (s *Shell) Inbox(id desktop.WindowID, consume bool) ([]bus.Event, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.bus.Session(id)
	if !ok {
		return nil, 0, fmt.Errorf("window %d: %w", id, bus.ErrNoSession)
	}
	var (
		events []bus.Event
		err    error
	)
	if consume {
		events, err = s.bus.Drain(id)
	} else {
		events, err = s.bus.Inbox(id)
	}
	if err != nil {
		return nil, 0, err
	}
	return events, session.Dropped(), nil
}

// Sessions returns the number of live bus sessions.
func (s *Shell) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bus.Sessions())
}

// Lifecycle returns the lifecycle phase last published to a window.
func (s *Shell) Lifecycle(id desktop.WindowID) (bus.Lifecycle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.bus.Session(id)
	if !ok {
		return "", false
	}
	phase, _ := session.Lifecycle.Get()
	return phase, true
}
