// Package runtimepath resolves where deskshell keeps its files, following the
// XDG base directory layout.
package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const appName = "deskshell"

// Reload re-reads the XDG environment variables. Call it after changing them,
// as tests do with t.Setenv.
func Reload() {
	xdg.Reload()
}

// ConfigPath returns the user config file path, creating its directory.
func ConfigPath() (string, error) {
	path, err := xdg.ConfigFile(filepath.Join(appName, "config.yaml"))
	if err != nil {
		return "", fmt.Errorf("failed to resolve config path: %w", err)
	}
	return path, nil
}

// StateFile returns a path under the deskshell state directory, creating the
// directory.
func StateFile(name string) (string, error) {
	path, err := xdg.StateFile(filepath.Join(appName, name))
	if err != nil {
		return "", fmt.Errorf("failed to resolve state path %q: %w", name, err)
	}
	return path, nil
}

// DatabasePath returns the default SQLite database location.
func DatabasePath() (string, error) {
	return StateFile("desktop.db")
}

// SnapshotPath returns the default JSON snapshot location.
func SnapshotPath() (string, error) {
	return StateFile("desktop.json")
}

// LogPath returns the default log file location.
func LogPath() (string, error) {
	return StateFile("deskshell.log")
}

// Dir returns the runtime directory for files that only live while a server
// runs. Priority:
// 1) XDG_RUNTIME_DIR (if set)
// 2) /run/user/<uid> (if present)
// 3) /tmp/deskshell-runtime-<uid> (created)
func Dir() (string, error) {
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return runtimeDir, nil
	}

	uid := os.Getuid()
	runUserDir := fmt.Sprintf("/run/user/%d", uid)
	if info, err := os.Stat(runUserDir); err == nil && info.IsDir() {
		return runUserDir, nil
	}

	tmpDir := fmt.Sprintf("/tmp/%s-runtime-%d", appName, uid)
	if err := os.MkdirAll(tmpDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create runtime dir: %w", err)
	}
	return tmpDir, nil
}

// AddrPath returns the file where a running server records its HTTP address.
func AddrPath() (string, error) {
	runtimeDir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(runtimeDir, appName+".addr"), nil
}
