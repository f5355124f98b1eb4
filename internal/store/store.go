// Package store persists the desktop between runs. Backends save the layout,
// the theme and the terminal history separately, as the shell's persistence
// effects request, and reassemble a snapshot on Load.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/1broseidon/deskshell/internal/desktop"
	"github.com/1broseidon/deskshell/internal/effects"
)

// ErrNoSnapshot is returned by Load when nothing has been saved yet.
var ErrNoSnapshot = errors.New("no saved desktop snapshot")

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Store is a persistence backend.
type Store interface {
	effects.Persistence
	Load(ctx context.Context) (*desktop.DesktopSnapshot, error)
	Close() error
}

// Open returns the backend named by backend, storing data at path. path is
// ignored by the memory backend.
func Open(backend, path string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case BackendSQLite, "":
		s, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendFile:
		f, err := NewFileStore(path)
		if err != nil {
			return nil, err
		}
		return f, nil
	case BackendMemory:
		return NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", backend)
}
