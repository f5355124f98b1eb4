package desktop

import (
	"testing"
)

func TestResolveDeepLink(t *testing.T) {
	link := DeepLinkState{Open: []DeepLinkTarget{
		AppTarget(AppPaint),
		NotesTarget("todo"),
		ProjectTarget("site"),
		AppTarget("solitaire"),
		NotesTarget(""),
	}}

	reqs := ResolveDeepLink(link)
	if len(reqs) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(reqs))
	}
	if reqs[0].AppID != AppPaint || reqs[0].PersistKey != nil {
		t.Fatalf("unexpected app request %+v", reqs[0])
	}
	if reqs[1].AppID != AppNotepad || reqs[1].PersistKey == nil || *reqs[1].PersistKey != "notes:todo" {
		t.Fatalf("unexpected notes request %+v", reqs[1])
	}
	if string(reqs[1].LaunchParams) != `{"slug":"todo"}` {
		t.Fatalf("unexpected notes launch params %s", reqs[1].LaunchParams)
	}
	if reqs[2].AppID != AppExplorer || *reqs[2].PersistKey != "projects:site" {
		t.Fatalf("unexpected project request %+v", reqs[2])
	}
}

func TestParseDeepLink(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []DeepLinkTarget
	}{
		{
			name: "query targets",
			raw:  "/?open=app:paint,notes:todo&open=project:site",
			want: []DeepLinkTarget{AppTarget(AppPaint), NotesTarget("todo"), ProjectTarget("site")},
		},
		{
			name: "notes path",
			raw:  "https://desk.example/notes/groceries",
			want: []DeepLinkTarget{NotesTarget("groceries")},
		},
		{
			name: "projects path with extra target",
			raw:  "/projects/site?open=APP:Terminal",
			want: []DeepLinkTarget{ProjectTarget("site"), AppTarget(AppTerminal)},
		},
		{
			name: "plural project kind",
			raw:  "/?open=projects:blog",
			want: []DeepLinkTarget{ProjectTarget("blog")},
		},
		{
			name: "empty",
			raw:  "/",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link, err := ParseDeepLink(tt.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(link.Open) != len(tt.want) {
				t.Fatalf("expected %d targets, got %+v", len(tt.want), link.Open)
			}
			for i := range tt.want {
				if link.Open[i] != tt.want[i] {
					t.Fatalf("target %d: expected %+v, got %+v", i, tt.want[i], link.Open[i])
				}
			}
		})
	}
}

func TestParseDeepLink_Errors(t *testing.T) {
	for _, raw := range []string{
		"/?open=app:solitaire",
		"/?open=notes",
		"/?open=music:song",
		"/?open=notes:",
	} {
		if _, err := ParseDeepLink(raw); err == nil {
			t.Errorf("expected error for %q", raw)
		}
	}
}

func TestDeepLinkOpensResolvedWindows(t *testing.T) {
	s, in := newTestDesktop()
	link, err := ParseDeepLink("/notes/todo?open=app:paint")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for _, req := range ResolveDeepLink(link) {
		mustReduce(t, s, in, OpenWindow{Request: req})
	}
	if len(s.Windows) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(s.Windows))
	}
	notes := window(t, s, 1)
	if notes.AppID != AppNotepad || notes.PersistKey == nil || *notes.PersistKey != "notes:todo" {
		t.Fatalf("unexpected notes window %+v", notes)
	}
	if focused, _ := s.FocusedWindow(); focused.AppID != AppPaint {
		t.Fatalf("expected last opened window focused, got %s", focused.AppID)
	}
}
