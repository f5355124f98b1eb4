// Package host provides the non-persistence collaborators the effect runner
// calls: sounds, external URLs and input focus. The browser front end does
// the real work for sounds and focus; on the server these adapters record
// and log what was requested.
package host

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os/exec"
	"strings"
	"sync"

	"github.com/1broseidon/deskshell/internal/desktop"
)

// Audio logs sound requests and keeps the last one.
type Audio struct {
	Logger *slog.Logger

	mu   sync.Mutex
	last string
}

func (a *Audio) Play(_ context.Context, tag string) error {
	if tag == "" {
		return fmt.Errorf("sound tag is required")
	}
	a.mu.Lock()
	a.last = tag
	a.mu.Unlock()
	logger(a.Logger).Debug("play sound", "tag", tag)
	return nil
}

// Last returns the most recent sound tag.
func (a *Audio) Last() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

// DefaultSchemes are the URL schemes URLOpener accepts when none are set.
var DefaultSchemes = []string{"http", "https", "mailto"}

// URLOpener validates external URLs and optionally hands them to a command
// such as xdg-open.
type URLOpener struct {
	Logger  *slog.Logger
	Schemes []string
	// Command is run with the URL appended. Empty means log only.
	Command []string
}

func (o *URLOpener) OpenURL(ctx context.Context, raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", raw, err)
	}
	schemes := o.Schemes
	if len(schemes) == 0 {
		schemes = DefaultSchemes
	}
	if !allowed(schemes, u.Scheme) {
		return fmt.Errorf("url scheme %q not allowed", u.Scheme)
	}

	log := logger(o.Logger)
	if len(o.Command) == 0 {
		log.Info("open external url", "url", u.String())
		return nil
	}

	args := append(append([]string{}, o.Command[1:]...), u.String())
	cmd := exec.CommandContext(ctx, o.Command[0], args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s failed: %w: %s", o.Command[0], err, strings.TrimSpace(string(out)))
	}
	log.Info("opened external url", "url", u.String(), "command", o.Command[0])
	return nil
}

func allowed(schemes []string, scheme string) bool {
	for _, s := range schemes {
		if strings.EqualFold(s, scheme) {
			return true
		}
	}
	return false
}

// Focus records which window last asked for input focus.
type Focus struct {
	Logger *slog.Logger

	mu   sync.Mutex
	last desktop.WindowID
}

func (f *Focus) FocusInput(_ context.Context, id desktop.WindowID) error {
	f.mu.Lock()
	f.last = id
	f.mu.Unlock()
	logger(f.Logger).Debug("focus window input", "window_id", id)
	return nil
}

// Last returns the window that most recently received input focus, or 0.
func (f *Focus) Last() desktop.WindowID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
