package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/deskshell/internal/bus"
	"github.com/1broseidon/deskshell/internal/desktop"
)

// Response is the envelope every API endpoint answers with.
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData is returned by GET /api/status.
type StatusData struct {
	Revision      uint64            `json:"revision"`
	WindowCount   int               `json:"window_count"`
	FocusedWindow *desktop.WindowID `json:"focused_window,omitempty"`
	Sessions      int               `json:"sessions"`
	UptimeSeconds int64             `json:"uptime_seconds"`
}

// DeepLinkPayload is the body of POST /api/deeplink.
type DeepLinkPayload struct {
	URL string `json:"url"`
}

// SubscribePayload is the body of POST /api/windows/{id}/subscriptions.
type SubscribePayload struct {
	Topic string `json:"topic"`
}

// PublishPayload is the body of POST /api/windows/{id}/publish. The path id is
// the source window. A set Target sends to that window only.
type PublishPayload struct {
	Topic         string            `json:"topic"`
	Payload       json.RawMessage   `json:"payload,omitempty"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	ReplyTo       *desktop.WindowID `json:"reply_to,omitempty"`
	Target        *desktop.WindowID `json:"target,omitempty"`
}

// InboxData is returned by GET /api/windows/{id}/inbox.
type InboxData struct {
	Events  []bus.Event `json:"events"`
	Dropped uint64      `json:"dropped"`
}

// LifecycleData is returned by GET /api/windows/{id}/lifecycle.
type LifecycleData struct {
	Lifecycle bus.Lifecycle `json:"lifecycle"`
}

// ArrangePayload is the optional body of POST /api/arrange. Zero values fall
// back to the configured viewport and gap.
type ArrangePayload struct {
	Gap *int `json:"gap,omitempty"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
