package desktop

import "github.com/1broseidon/deskshell/internal/geometry"

// DragSession is captured when a move gesture starts and consulted on every
// pointer delta until the gesture ends.
type DragSession struct {
	WindowID     WindowID       `json:"window_id"`
	PointerStart geometry.Point `json:"pointer_start"`
	RectStart    geometry.Rect  `json:"rect_start"`
}

// ResizeSession is the resize counterpart of DragSession.
type ResizeSession struct {
	WindowID     WindowID       `json:"window_id"`
	Edge         geometry.Edge  `json:"edge"`
	PointerStart geometry.Point `json:"pointer_start"`
	RectStart    geometry.Rect  `json:"rect_start"`
}

// InteractionState tracks in-flight pointer gestures. It is never persisted.
type InteractionState struct {
	Dragging               *DragSession    `json:"dragging,omitempty"`
	Resizing               *ResizeSession  `json:"resizing,omitempty"`
	DesktopSelectionOrigin *geometry.Point `json:"desktop_selection_origin,omitempty"`
}

// Reset drops every gesture session.
func (in *InteractionState) Reset() {
	in.Dragging = nil
	in.Resizing = nil
	in.DesktopSelectionOrigin = nil
}

// forget drops sessions that target a window that no longer exists.
func (in *InteractionState) forget(id WindowID) {
	if in.Dragging != nil && in.Dragging.WindowID == id {
		in.Dragging = nil
	}
	if in.Resizing != nil && in.Resizing.WindowID == id {
		in.Resizing = nil
	}
}
