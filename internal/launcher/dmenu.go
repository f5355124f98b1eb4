package launcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"os/exec"
	"strconv"
	"strings"
)

type backendKind int

const (
	kindRofi backendKind = iota
	kindFuzzel
	kindWofi
	kindDmenu
)

var backendKinds = map[string]backendKind{
	"rofi":   kindRofi,
	"fuzzel": kindFuzzel,
	"wofi":   kindWofi,
	"dmenu":  kindDmenu,
}

// runFunc runs a picker with input on stdin and returns its trimmed stdout.
type runFunc func(ctx context.Context, name string, args []string, input string) (string, error)

// dmenuBackend drives any picker that reads rows on stdin and prints the
// choice on stdout.
type dmenuBackend struct {
	command string
	kind    backendKind
	run     runFunc
}

func newDmenuBackend(kind backendKind) *dmenuBackend {
	b := &dmenuBackend{kind: kind, run: execRun}
	for name, k := range backendKinds {
		if k == kind {
			b.command = name
		}
	}
	return b
}

// indexOutput reports whether the picker prints the row index rather than
// the row text.
func (b *dmenuBackend) indexOutput() bool {
	return b.kind == kindRofi || b.kind == kindFuzzel
}

func (b *dmenuBackend) Show(ctx context.Context, prompt string, items []Item) (Item, error) {
	if len(items) == 0 {
		return Item{}, fmt.Errorf("launcher: no items to show")
	}
	rows := make([]Item, len(items))
	copy(rows, items)

	input, active := b.formatInput(rows)
	out, err := b.run(ctx, b.command, b.buildArgs(prompt, active), input)
	if err != nil {
		return Item{}, err
	}
	if out == "" {
		return Item{}, ErrCancelled
	}
	item, err := b.parseSelection(out, rows)
	if err != nil {
		return Item{}, err
	}
	if item.IsHeader {
		return Item{}, ErrCancelled
	}
	return item, nil
}

func (b *dmenuBackend) buildArgs(prompt string, active int) []string {
	var args []string
	switch b.kind {
	case kindRofi:
		args = []string{"-dmenu", "-i", "-format", "i", "-no-custom", "-markup-rows", "-show-icons"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}
		if active >= 0 {
			args = append(args, "-a", strconv.Itoa(active), "-selected-row", strconv.Itoa(active))
		}
	case kindFuzzel:
		args = []string{"--dmenu", "--index"}
		if prompt != "" {
			args = append(args, "--prompt", prompt+" ")
		}
	case kindWofi:
		args = []string{"--dmenu", "--insensitive"}
		if prompt != "" {
			args = append(args, "--prompt", prompt)
		}
	case kindDmenu:
		args = []string{"-i"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}
	}
	return args
}

// formatInput renders one line per row and returns the first active row, or
// -1. Text-matching pickers get duplicate labels numbered so every row stays
// distinguishable.
func (b *dmenuBackend) formatInput(rows []Item) (string, int) {
	if !b.indexOutput() {
		seen := make(map[string]int)
		for i := range rows {
			key := sanitizeLabel(rows[i].Label)
			if count := seen[key]; count > 0 {
				rows[i].Label = fmt.Sprintf("%s (%d)", key, count+1)
			}
			seen[key]++
		}
	}

	active := -1
	lines := make([]string, 0, len(rows))
	for i, row := range rows {
		lines = append(lines, b.formatRow(row))
		if row.IsActive && !row.IsHeader && active == -1 {
			active = i
		}
	}
	return strings.Join(lines, "\n"), active
}

func (b *dmenuBackend) formatRow(row Item) string {
	label := sanitizeLabel(row.Label)
	if b.kind != kindRofi {
		return label
	}
	label = html.EscapeString(label)
	if row.IsHeader {
		label = "<b>" + label + "</b>"
	}

	// rofi row properties: one NUL, then key/value pairs split by \x1f.
	var attrs []string
	if row.IsHeader {
		attrs = append(attrs, "nonselectable", "true")
	}
	if row.Icon != "" {
		attrs = append(attrs, "icon", sanitizeField(row.Icon))
	}
	if row.Meta != "" {
		attrs = append(attrs, "meta", sanitizeField(row.Meta))
	}
	if len(attrs) == 0 {
		return label
	}
	return label + "\x00" + strings.Join(attrs, "\x1f")
}

func (b *dmenuBackend) parseSelection(out string, rows []Item) (Item, error) {
	if b.indexOutput() {
		if idx, err := strconv.Atoi(out); err == nil {
			if idx < 0 || idx >= len(rows) {
				return Item{}, fmt.Errorf("launcher: index %d out of range", idx)
			}
			return rows[idx], nil
		}
	}
	for _, row := range rows {
		if sanitizeLabel(row.Label) == out {
			return row, nil
		}
	}
	return Item{}, fmt.Errorf("launcher: unknown selection %q", out)
}

func execRun(ctx context.Context, name string, args []string, input string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = strings.NewReader(input)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	selection := strings.TrimSpace(string(out))
	if err == nil {
		return selection, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// 1 is "nothing chosen" for every supported picker, 130 is Ctrl+C.
		switch exitErr.ExitCode() {
		case 1, 130:
			if selection == "" {
				return "", ErrCancelled
			}
		}
	}
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		return "", fmt.Errorf("%s failed: %s", name, msg)
	}
	return "", fmt.Errorf("%s failed: %w", name, err)
}

func sanitizeLabel(label string) string {
	label = strings.ReplaceAll(label, "\r", " ")
	label = strings.ReplaceAll(label, "\n", " ")
	return strings.TrimSpace(label)
}

func sanitizeField(value string) string {
	value = strings.NewReplacer("\x00", " ", "\x1f", " ").Replace(value)
	return sanitizeLabel(value)
}
