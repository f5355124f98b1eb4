package desktop

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Actions travel as JSON objects tagged with their type:
//
//	{"type": "open_window", "request": {"app_id": "notepad"}}
//	{"type": "begin_resize", "id": 3, "edge": "se", "pointer": {"x": 10, "y": 4}}

type actionDecoder func([]byte) (Action, error)

func decodeAs[T Action](data []byte) (Action, error) {
	var a T
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	return a, nil
}

var actionDecoders = map[string]actionDecoder{
	"open_window":             decodeAs[OpenWindow],
	"close_window":            decodeAs[CloseWindow],
	"focus_window":            decodeAs[FocusWindow],
	"minimize_window":         decodeAs[MinimizeWindow],
	"maximize_window":         decodeAs[MaximizeWindow],
	"restore_window":          decodeAs[RestoreWindow],
	"toggle_taskbar_window":   decodeAs[ToggleTaskbarWindow],
	"toggle_start_menu":       decodeAs[ToggleStartMenu],
	"close_start_menu":        decodeAs[CloseStartMenu],
	"begin_move":              decodeAs[BeginMove],
	"update_move":             decodeAs[UpdateMove],
	"end_move":                decodeAs[EndMove],
	"begin_resize":            decodeAs[BeginResize],
	"update_resize":           decodeAs[UpdateResize],
	"end_resize":              decodeAs[EndResize],
	"set_theme_name":          decodeAs[SetThemeName],
	"set_wallpaper":           decodeAs[SetWallpaper],
	"set_reduced_motion":      decodeAs[SetReducedMotion],
	"set_preferences":         decodeAs[SetPreferences],
	"push_terminal_history":   decodeAs[PushTerminalHistory],
	"clear_terminal_history":  decodeAs[ClearTerminalHistory],
	"set_app_state":           decodeAs[SetAppState],
	"set_explorer_path":       decodeAs[SetExplorerPath],
	"set_notepad_slug":        decodeAs[SetNotepadSlug],
	"hydrate_snapshot":        decodeAs[HydrateSnapshot],
	"apply_deep_link":         decodeAs[ApplyDeepLink],
	"open_external_url":       decodeAs[OpenExternalURL],
	"arrange_windows":         decodeAs[ArrangeWindows],
	"begin_desktop_selection": decodeAs[BeginDesktopSelection],
	"end_desktop_selection":   decodeAs[EndDesktopSelection],
}

// DecodeAction parses one tagged action.
func DecodeAction(data []byte) (Action, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse action: %w", err)
	}
	if envelope.Type == "" {
		return nil, fmt.Errorf("action type is required")
	}
	decode, ok := actionDecoders[envelope.Type]
	if !ok {
		return nil, fmt.Errorf("unknown action type %q", envelope.Type)
	}
	action, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s action: %w", envelope.Type, err)
	}
	if err := validateAction(action); err != nil {
		return nil, err
	}
	return action, nil
}

// DecodeActions parses a JSON array of tagged actions.
func DecodeActions(data []byte) ([]Action, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse action list: %w", err)
	}
	actions := make([]Action, 0, len(raw))
	for i, item := range raw {
		a, err := DecodeAction(item)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		actions = append(actions, a)
	}
	return actions, nil
}

// EncodeAction renders an action in the tagged form DecodeAction reads.
func EncodeAction(a Action) ([]byte, error) {
	body, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s action: %w", a.actionType(), err)
	}
	tag, _ := json.Marshal(a.actionType())

	var buf bytes.Buffer
	buf.WriteString(`{"type":`)
	buf.Write(tag)
	if inner := bytes.TrimSpace(body[1 : len(body)-1]); len(inner) > 0 {
		buf.WriteByte(',')
		buf.Write(inner)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func validateAction(a Action) error {
	switch v := a.(type) {
	case OpenWindow:
		if !v.Request.AppID.Valid() {
			return fmt.Errorf("open_window: unknown app %q", v.Request.AppID)
		}
	case ApplyDeepLink:
		for _, t := range v.Link.Open {
			switch t.Kind {
			case DeepLinkApp, DeepLinkNotes, DeepLinkProject:
			default:
				return fmt.Errorf("apply_deep_link: unknown target kind %q", t.Kind)
			}
		}
	}
	return nil
}
