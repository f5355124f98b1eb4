package desktop

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/1broseidon/deskshell/internal/geometry"
)

func TestDecodeAction(t *testing.T) {
	a, err := DecodeAction([]byte(`{"type":"begin_resize","id":3,"edge":"se","pointer":{"x":10,"y":4}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	br, ok := a.(BeginResize)
	if !ok {
		t.Fatalf("expected BeginResize, got %T", a)
	}
	if br.ID != 3 || br.Edge != geometry.EdgeSouthEast || br.Pointer != (geometry.Point{X: 10, Y: 4}) {
		t.Fatalf("unexpected decoded action %+v", br)
	}

	a, err = DecodeAction([]byte(`{"type":"open_window","request":{"app_id":"notepad","title":"todo.txt"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ow := a.(OpenWindow)
	if ow.Request.AppID != AppNotepad || ow.Request.Title == nil || *ow.Request.Title != "todo.txt" {
		t.Fatalf("unexpected open request %+v", ow.Request)
	}
}

func TestDecodeAction_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"not json", `nope`, "failed to parse action"},
		{"missing type", `{"id":1}`, "type is required"},
		{"unknown type", `{"type":"shutdown"}`, "unknown action type"},
		{"bad field", `{"type":"close_window","id":"one"}`, "close_window"},
		{"unknown app", `{"type":"open_window","request":{"app_id":"solitaire"}}`, "unknown app"},
		{"bad edge", `{"type":"begin_resize","id":1,"edge":"up"}`, "begin_resize"},
		{"bad link kind", `{"type":"apply_deep_link","link":{"open":[{"kind":"music"}]}}`, "unknown target kind"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeAction([]byte(tt.data))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestEncodeAction_DecodesBack(t *testing.T) {
	actions := []Action{
		ToggleStartMenu{},
		CloseWindow{ID: 7},
		MaximizeWindow{ID: 2, Viewport: geometry.Rect{W: 800, H: 600}},
		SetAppState{ID: 1, State: json.RawMessage(`{"text":"hello"}`)},
		ApplyDeepLink{Link: DeepLinkState{Open: []DeepLinkTarget{NotesTarget("todo")}}},
	}
	for _, a := range actions {
		data, err := EncodeAction(a)
		if err != nil {
			t.Fatalf("%s: encode: %v", ActionType(a), err)
		}
		if !strings.HasPrefix(string(data), `{"type":"`+ActionType(a)+`"`) {
			t.Fatalf("%s: missing type tag in %s", ActionType(a), data)
		}
		back, err := DecodeAction(data)
		if err != nil {
			t.Fatalf("%s: decode %s: %v", ActionType(a), data, err)
		}
		if ActionType(back) != ActionType(a) {
			t.Fatalf("expected %s, got %s", ActionType(a), ActionType(back))
		}
	}
}

func TestDecodeActions(t *testing.T) {
	actions, err := DecodeActions([]byte(`[
		{"type":"open_window","request":{"app_id":"explorer"}},
		{"type":"toggle_taskbar_window","id":1}
	]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(actions) != 2 {
		t.Fatalf("expected 2 actions, got %d", len(actions))
	}

	_, err = DecodeActions([]byte(`[{"type":"end_move"},{"type":"warp"}]`))
	if err == nil || !strings.Contains(err.Error(), "action 1") {
		t.Fatalf("expected indexed error, got %v", err)
	}
}
