package desktop

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// DeepLinkKind distinguishes deep-link targets.
type DeepLinkKind string

const (
	DeepLinkApp     DeepLinkKind = "app"
	DeepLinkNotes   DeepLinkKind = "notes"
	DeepLinkProject DeepLinkKind = "project"
)

// DeepLinkTarget is one thing a deep link asks to open. App is set for
// DeepLinkApp targets, Slug for notes and projects.
type DeepLinkTarget struct {
	Kind DeepLinkKind `json:"kind"`
	App  AppID        `json:"app,omitempty"`
	Slug string       `json:"slug,omitempty"`
}

// DeepLinkState is what the router hands the shell.
type DeepLinkState struct {
	Open []DeepLinkTarget `json:"open"`
}

func AppTarget(app AppID) DeepLinkTarget {
	return DeepLinkTarget{Kind: DeepLinkApp, App: app}
}

func NotesTarget(slug string) DeepLinkTarget {
	return DeepLinkTarget{Kind: DeepLinkNotes, Slug: slug}
}

func ProjectTarget(slug string) DeepLinkTarget {
	return DeepLinkTarget{Kind: DeepLinkProject, Slug: slug}
}

// ResolveDeepLink maps every target to the window request that shows it.
// Targets that cannot be opened (unknown app, empty slug) are skipped.
func ResolveDeepLink(link DeepLinkState) []OpenWindowRequest {
	out := make([]OpenWindowRequest, 0, len(link.Open))
	for _, target := range link.Open {
		if req, ok := target.request(); ok {
			out = append(out, req)
		}
	}
	return out
}

func (t DeepLinkTarget) request() (OpenWindowRequest, bool) {
	switch t.Kind {
	case DeepLinkApp:
		if !t.App.Valid() {
			return OpenWindowRequest{}, false
		}
		return NewOpenWindowRequest(t.App), true
	case DeepLinkNotes:
		if t.Slug == "" {
			return OpenWindowRequest{}, false
		}
		return NewOpenWindowRequest(AppNotepad).
			WithPersistKey("notes:" + t.Slug).
			WithLaunchParams(slugParams(t.Slug)), true
	case DeepLinkProject:
		if t.Slug == "" {
			return OpenWindowRequest{}, false
		}
		return NewOpenWindowRequest(AppExplorer).
			WithPersistKey("projects:" + t.Slug).
			WithLaunchParams(slugParams(t.Slug)), true
	}
	return OpenWindowRequest{}, false
}

func slugParams(slug string) json.RawMessage {
	data, _ := json.Marshal(map[string]string{"slug": slug})
	return data
}

// ParseDeepLink reads the router's URL form. Targets come from every "open"
// query parameter as comma-separated "kind:value" pairs, for example
// "/?open=app:paint,notes:todo&open=project:site". Paths of the form
// "/notes/<slug>" and "/projects/<slug>" add a target too.
func ParseDeepLink(raw string) (DeepLinkState, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return DeepLinkState{}, fmt.Errorf("parse deep link: %w", err)
	}

	var link DeepLinkState
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) == 2 && segments[1] != "" {
		switch segments[0] {
		case "notes":
			link.Open = append(link.Open, NotesTarget(segments[1]))
		case "projects":
			link.Open = append(link.Open, ProjectTarget(segments[1]))
		}
	}

	for _, value := range u.Query()["open"] {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			target, err := parseTarget(part)
			if err != nil {
				return DeepLinkState{}, err
			}
			link.Open = append(link.Open, target)
		}
	}
	return link, nil
}

func parseTarget(s string) (DeepLinkTarget, error) {
	kind, value, ok := strings.Cut(s, ":")
	if !ok || value == "" {
		return DeepLinkTarget{}, fmt.Errorf("invalid deep link target %q", s)
	}
	switch DeepLinkKind(strings.ToLower(kind)) {
	case DeepLinkApp:
		app, err := ParseAppID(value)
		if err != nil {
			return DeepLinkTarget{}, err
		}
		return AppTarget(app), nil
	case DeepLinkNotes:
		return NotesTarget(value), nil
	case DeepLinkProject, "projects":
		return ProjectTarget(value), nil
	}
	return DeepLinkTarget{}, fmt.Errorf("unknown deep link kind %q", kind)
}
