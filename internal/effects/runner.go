package effects

import (
	"context"
	"log/slog"

	"github.com/1broseidon/deskshell/internal/desktop"
)

// MaxDrainCycles bounds how many times one Run drains the outbox. Each deep
// link resolution adds a cycle; a chain longer than this is cut off.
const MaxDrainCycles = 16

// DispatchFunc re-enters the reducer for an action produced while handling an
// effect. It returns the effects of that reduction.
type DispatchFunc func(desktop.Action) ([]desktop.Effect, error)

// RunStats summarizes one Run.
type RunStats struct {
	Cycles    int
	Performed int
	Failed    int
	Discarded int
}

// Runner performs effects against the host collaborators.
type Runner struct {
	hosts  Hosts
	logger *slog.Logger
}

// NewRunner creates a runner. A nil logger discards output.
func NewRunner(hosts Hosts, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{hosts: hosts, logger: logger}
}

// Run drains out until it is empty or MaxDrainCycles batches have been
// processed. state is read when persistence effects execute, so it must be
// the live state owned by the caller's dispatch path. dispatch is called for
// every window a deep link resolves to; the effects it returns are queued for
// the next cycle.
//
// Host failures are logged and never abort the run.
func (r *Runner) Run(ctx context.Context, out *Outbox, state *desktop.DesktopState, dispatch DispatchFunc) RunStats {
	var stats RunStats
	for out.Len() > 0 {
		if stats.Cycles >= MaxDrainCycles {
			dropped := out.Drain()
			stats.Discarded += len(dropped)
			r.logger.Warn("effect drain limit reached, discarding effects",
				"limit", MaxDrainCycles,
				"discarded", len(dropped))
			break
		}
		stats.Cycles++

		batch := out.Drain()
		persisted := make(map[string]bool)
		for _, effect := range batch {
			kind := desktop.EffectKind(effect)
			if isPersist(effect) {
				// One save per batch is enough; it reads the current state.
				if persisted[kind] {
					continue
				}
				persisted[kind] = true
			}

			if err := r.perform(ctx, effect, state, out, dispatch); err != nil {
				stats.Failed++
				r.logger.Warn("effect failed", "effect", kind, "error", err)
				continue
			}
			stats.Performed++
		}
	}
	return stats
}

func isPersist(e desktop.Effect) bool {
	switch e.(type) {
	case desktop.PersistLayout, desktop.PersistTheme, desktop.PersistTerminalHistory:
		return true
	}
	return false
}

func (r *Runner) perform(ctx context.Context, effect desktop.Effect, state *desktop.DesktopState, out *Outbox, dispatch DispatchFunc) error {
	switch e := effect.(type) {
	case desktop.PersistLayout:
		if r.hosts.Persistence == nil {
			return nil
		}
		return r.hosts.Persistence.SaveLayout(ctx, state.Snapshot())

	case desktop.PersistTheme:
		if r.hosts.Persistence == nil {
			return nil
		}
		return r.hosts.Persistence.SaveTheme(ctx, state.Theme, state.Preferences)

	case desktop.PersistTerminalHistory:
		if r.hosts.Persistence == nil {
			return nil
		}
		history := append([]string{}, state.TerminalHistory...)
		return r.hosts.Persistence.SaveTerminalHistory(ctx, history)

	case desktop.FocusWindowInput:
		if r.hosts.Focus == nil {
			return nil
		}
		return r.hosts.Focus.FocusInput(ctx, e.ID)

	case desktop.PlaySound:
		if r.hosts.Audio == nil {
			return nil
		}
		return r.hosts.Audio.Play(ctx, e.Tag)

	case desktop.OpenExternalURLEffect:
		if r.hosts.URLs == nil {
			return nil
		}
		return r.hosts.URLs.OpenURL(ctx, e.URL)

	case desktop.ParseAndOpenDeepLink:
		if dispatch == nil {
			return nil
		}
		for _, req := range desktop.ResolveDeepLink(e.Link) {
			produced, err := dispatch(desktop.OpenWindow{Request: req})
			if err != nil {
				r.logger.Warn("deep link target failed to open",
					"app_id", req.AppID,
					"error", err)
				continue
			}
			out.Push(produced...)
		}
		return nil
	}

	r.logger.Debug("ignoring unknown effect", "effect", desktop.EffectKind(effect))
	return nil
}
