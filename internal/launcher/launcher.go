// Package launcher shows the start menu through an external dmenu-style
// picker (rofi, fuzzel, wofi or dmenu) and applies the choice to a running
// desktop.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrCancelled is returned when the user closes the picker without choosing.
var ErrCancelled = errors.New("launcher cancelled")

// Item is one row of the picker.
type Item struct {
	Label string
	// Value identifies the row to the caller; it is never shown.
	Value    string
	Icon     string
	Meta     string
	IsHeader bool
	IsActive bool
}

// Backend shows items and returns the chosen one.
type Backend interface {
	Show(ctx context.Context, prompt string, items []Item) (Item, error)
}

// BackendNames lists the supported pickers in detection order.
var BackendNames = []string{"rofi", "fuzzel", "wofi", "dmenu"}

var lookPath = exec.LookPath

// DetectBackend returns the first picker found in PATH.
func DetectBackend() (string, error) {
	for _, name := range BackendNames {
		if _, err := lookPath(name); err == nil {
			return name, nil
		}
	}
	return "", fmt.Errorf("no launcher backend found in PATH (looked for: %s)", strings.Join(BackendNames, ", "))
}

// NewBackend creates the picker called name, or detects one for "auto".
func NewBackend(name string) (Backend, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "auto" {
		detected, err := DetectBackend()
		if err != nil {
			return nil, err
		}
		name = detected
	}
	kind, ok := backendKinds[name]
	if !ok {
		return nil, fmt.Errorf("unknown launcher backend: %q (expected: auto, %s)", name, strings.Join(BackendNames, ", "))
	}
	if _, err := lookPath(name); err != nil {
		return nil, fmt.Errorf("launcher backend %q not found in PATH", name)
	}
	return newDmenuBackend(kind), nil
}
