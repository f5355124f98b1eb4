package logging

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseLevel(%q) err=%v wantErr=%v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(Options{Level: "warn", Stderr: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer closer.Close()

	logger.Info("hidden")
	logger.Warn("dropping action", "action", "close_window")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected info filtered, got %q", out)
	}
	if !strings.Contains(out, "action=close_window") {
		t.Fatalf("expected text handler output, got %q", out)
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New(Options{JSON: true, Stderr: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("hello", "windows", 2)
	if !strings.HasPrefix(buf.String(), "{") || !strings.Contains(buf.String(), `"windows":2`) {
		t.Fatalf("expected JSON line, got %q", buf.String())
	}
}

func TestNew_BadLevel(t *testing.T) {
	if _, _, err := New(Options{Level: "loud"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestRotatingFile_Rotates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "deskshell.log")
	rf, err := OpenRotatingFile(path, 1, 2)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rf.Close()
	// Shrink the threshold so the test writes little.
	rf.maxBytes = 16

	for i := 0; i < 4; i++ {
		if _, err := fmt.Fprintf(rf, "entry-%02d-xxxxxxxxxx\n", i); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	current, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read current: %v", err)
	}
	if !strings.Contains(string(current), "entry-03") {
		t.Fatalf("expected newest entry in current file, got %q", current)
	}
	first, _ := os.ReadFile(path + ".1")
	if !strings.Contains(string(first), "entry-02") {
		t.Fatalf("expected previous entry in .1, got %q", first)
	}
	second, _ := os.ReadFile(path + ".2")
	if !strings.Contains(string(second), "entry-01") {
		t.Fatalf("expected older entry in .2, got %q", second)
	}
	if _, err := os.Stat(path + ".3"); !os.IsNotExist(err) {
		t.Fatalf("expected at most 2 rotated files")
	}
}

func TestRotatingFile_WriteAfterClose(t *testing.T) {
	rf, err := OpenRotatingFile(filepath.Join(t.TempDir(), "x.log"), 1, 1)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	rf.Close()
	if _, err := rf.Write([]byte("x")); err == nil {
		t.Fatalf("expected error writing to closed file")
	}
}
