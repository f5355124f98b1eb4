package shell

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/1broseidon/deskshell/internal/desktop"
	"github.com/1broseidon/deskshell/internal/effects"
)

// CheckpointConfig holds configuration for the checkpointer.
type CheckpointConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Checkpointer periodically writes the whole desktop to persistence when it
// changed since the last checkpoint. It repairs saves that failed during
// effect execution, which are only logged.
type Checkpointer struct {
	interval time.Duration
	shell    *Shell
	store    effects.Persistence
	logger   *slog.Logger
	saved    uint64
}

// NewCheckpointer creates a checkpointer for sh.
func NewCheckpointer(cfg CheckpointConfig, sh *Shell, store effects.Persistence) *Checkpointer {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Checkpointer{
		interval: interval,
		shell:    sh,
		store:    store,
		logger:   logger,
	}
}

// Run checkpoints on every tick until ctx is cancelled, then writes a final
// checkpoint with a fresh context.
func (c *Checkpointer) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.logger.Info("checkpointer started", "interval", c.interval)

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			c.Checkpoint(flushCtx)
			cancel()
			c.logger.Info("checkpointer stopped")
			return
		case <-ticker.C:
			c.Checkpoint(ctx)
		}
	}
}

// Checkpoint saves the desktop if its revision moved. It reports whether a
// complete save happened.
func (c *Checkpointer) Checkpoint(ctx context.Context) bool {
	var windows int
	rev, saved, err := c.shell.saveSince(ctx, c.saved, func(ctx context.Context, snap desktop.DesktopSnapshot) error {
		windows = len(snap.Windows)
		if err := c.store.SaveLayout(ctx, snap); err != nil {
			return fmt.Errorf("failed to save layout: %w", err)
		}
		if err := c.store.SaveTheme(ctx, snap.Theme, snap.Preferences); err != nil {
			return fmt.Errorf("failed to save theme: %w", err)
		}
		if err := c.store.SaveTerminalHistory(ctx, snap.TerminalHistory); err != nil {
			return fmt.Errorf("failed to save terminal history: %w", err)
		}
		return nil
	})
	if err != nil {
		c.logger.Warn("checkpoint failed", "error", err)
		return false
	}
	if !saved {
		return false
	}

	c.saved = rev
	c.logger.Debug("checkpoint written", "revision", rev, "windows", windows)
	return true
}
