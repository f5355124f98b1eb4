package desktop

import (
	"encoding/json"
	"strconv"

	"github.com/1broseidon/deskshell/internal/geometry"
)

// WindowID is the process-unique handle of an open window.
type WindowID uint64

func (id WindowID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseWindowID parses a decimal window id.
func ParseWindowID(s string) (WindowID, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return WindowID(n), nil
}

// WindowFlags gates which transitions the reducer allows for a window.
type WindowFlags struct {
	Resizable   bool      `json:"resizable"`
	Minimizable bool      `json:"minimizable"`
	Maximizable bool      `json:"maximizable"`
	ModalParent *WindowID `json:"modal_parent,omitempty"`
}

// WindowRecord is one open window. Records only live inside DesktopState.Windows.
type WindowRecord struct {
	ID           WindowID        `json:"id"`
	AppID        AppID           `json:"app_id"`
	Title        string          `json:"title"`
	IconID       string          `json:"icon_id"`
	Rect         geometry.Rect   `json:"rect"`
	RestoreRect  *geometry.Rect  `json:"restore_rect,omitempty"`
	ZIndex       uint32          `json:"z_index"`
	IsFocused    bool            `json:"is_focused"`
	Minimized    bool            `json:"minimized"`
	Maximized    bool            `json:"maximized"`
	Flags        WindowFlags     `json:"flags"`
	PersistKey   *string         `json:"persist_key,omitempty"`
	AppState     json.RawMessage `json:"app_state,omitempty"`
	LaunchParams json.RawMessage `json:"launch_params,omitempty"`
}

// Clone returns a deep copy of the record.
func (w WindowRecord) Clone() WindowRecord {
	out := w
	if w.RestoreRect != nil {
		r := *w.RestoreRect
		out.RestoreRect = &r
	}
	if w.Flags.ModalParent != nil {
		p := *w.Flags.ModalParent
		out.Flags.ModalParent = &p
	}
	if w.PersistKey != nil {
		k := *w.PersistKey
		out.PersistKey = &k
	}
	out.AppState = cloneRaw(w.AppState)
	out.LaunchParams = cloneRaw(w.LaunchParams)
	return out
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	return append(json.RawMessage(nil), raw...)
}

// OpenWindowRequest describes a window to create. Unset fields fall back to
// the app's defaults.
type OpenWindowRequest struct {
	AppID        AppID           `json:"app_id"`
	Title        *string         `json:"title,omitempty"`
	Icon         *string         `json:"icon,omitempty"`
	Rect         *geometry.Rect  `json:"rect,omitempty"`
	PersistKey   *string         `json:"persist_key,omitempty"`
	LaunchParams json.RawMessage `json:"launch_params,omitempty"`
	AppState     json.RawMessage `json:"app_state,omitempty"`
	Flags        *WindowFlags    `json:"flags,omitempty"`
}

// NewOpenWindowRequest starts a request for app with every override unset.
func NewOpenWindowRequest(app AppID) OpenWindowRequest {
	return OpenWindowRequest{AppID: app}
}

func (r OpenWindowRequest) WithTitle(title string) OpenWindowRequest {
	r.Title = &title
	return r
}

func (r OpenWindowRequest) WithIcon(icon string) OpenWindowRequest {
	r.Icon = &icon
	return r
}

func (r OpenWindowRequest) WithRect(rect geometry.Rect) OpenWindowRequest {
	r.Rect = &rect
	return r
}

func (r OpenWindowRequest) WithPersistKey(key string) OpenWindowRequest {
	r.PersistKey = &key
	return r
}

func (r OpenWindowRequest) WithLaunchParams(params json.RawMessage) OpenWindowRequest {
	r.LaunchParams = cloneRaw(params)
	return r
}

func (r OpenWindowRequest) WithAppState(state json.RawMessage) OpenWindowRequest {
	r.AppState = cloneRaw(state)
	return r
}

func (r OpenWindowRequest) WithFlags(flags WindowFlags) OpenWindowRequest {
	r.Flags = &flags
	return r
}

// newRecord materializes the request as a window with the given id.
func (r OpenWindowRequest) newRecord(id WindowID) WindowRecord {
	info, _ := r.AppID.Info()

	rec := WindowRecord{
		ID:           id,
		AppID:        r.AppID,
		Title:        info.Title,
		IconID:       info.Icon,
		Flags:        info.Flags,
		AppState:     cloneRaw(r.AppState),
		LaunchParams: cloneRaw(r.LaunchParams),
	}
	if r.Title != nil {
		rec.Title = *r.Title
	}
	if r.Icon != nil {
		rec.IconID = *r.Icon
	}
	if r.Flags != nil {
		rec.Flags = *r.Flags
		if r.Flags.ModalParent != nil {
			parent := *r.Flags.ModalParent
			rec.Flags.ModalParent = &parent
		}
	}
	if r.PersistKey != nil {
		key := *r.PersistKey
		rec.PersistKey = &key
	}
	if r.Rect != nil {
		rec.Rect = r.Rect.Clamped()
	} else {
		rec.Rect = geometry.Cascade(uint64(id), info.DefaultSize.W, info.DefaultSize.H)
	}
	return rec
}
