package host

import (
	"context"
	"os/exec"
	"testing"
)

func TestURLOpener_Schemes(t *testing.T) {
	o := &URLOpener{}
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://example.com/docs", false},
		{"mailto:someone@example.com", false},
		{"file:///etc/passwd", true},
		{"javascript:alert(1)", true},
		{"::not a url", true},
	}
	for _, tt := range tests {
		err := o.OpenURL(context.Background(), tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("OpenURL(%q): err=%v wantErr=%v", tt.url, err, tt.wantErr)
		}
	}

	custom := &URLOpener{Schemes: []string{"gopher"}}
	if err := custom.OpenURL(context.Background(), "gopher://example.com"); err != nil {
		t.Fatalf("expected custom scheme allowed: %v", err)
	}
	if err := custom.OpenURL(context.Background(), "https://example.com"); err == nil {
		t.Fatalf("expected https rejected by custom scheme list")
	}
}

func TestURLOpener_RunsCommand(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true not available")
	}
	o := &URLOpener{Command: []string{"true"}}
	if err := o.OpenURL(context.Background(), "https://example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false not available")
	}
	failing := &URLOpener{Command: []string{"false"}}
	if err := failing.OpenURL(context.Background(), "https://example.com"); err == nil {
		t.Fatalf("expected command failure to be reported")
	}
}

func TestAudioAndFocusRecordLast(t *testing.T) {
	a := &Audio{}
	if err := a.Play(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty tag")
	}
	_ = a.Play(context.Background(), "chime")
	if a.Last() != "chime" {
		t.Fatalf("expected last sound chime, got %q", a.Last())
	}

	f := &Focus{}
	_ = f.FocusInput(context.Background(), 7)
	if f.Last() != 7 {
		t.Fatalf("expected last focus 7, got %d", f.Last())
	}
}
