package ipc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/1broseidon/deskshell/internal/bus"
	"github.com/1broseidon/deskshell/internal/desktop"
	"github.com/1broseidon/deskshell/internal/runtimepath"
)

// Client talks to a running deskshell server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the server recorded in the runtime address
// file.
func NewClient() (*Client, error) {
	path, err := runtimepath.AddrPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve address file: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w (is the server running?)", path, err)
	}
	return NewClientWithAddr(strings.TrimSpace(string(data))), nil
}

// NewClientWithAddr creates a client for host:port or a full base URL.
func NewClientWithAddr(addr string) *Client {
	base := strings.TrimRight(addr, "/")
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// sendRequest sends a request and decodes the envelope into out (if non-nil).
func (c *Client) sendRequest(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach server: %w (is the server running?)", err)
	}
	defer resp.Body.Close()

	var env Response
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to parse response (HTTP %d): %w", resp.StatusCode, err)
	}
	if env.Status == "ERROR" {
		return &APIError{StatusCode: resp.StatusCode, Message: env.Error}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to parse response data: %w", err)
		}
	}
	return nil
}

// APIError is an error answered by the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// NotFound reports whether the server could not resolve a window or session.
func (e *APIError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// GetStatus retrieves server status
func (c *Client) GetStatus(ctx context.Context) (*StatusData, error) {
	var status StatusData
	if err := c.sendRequest(ctx, http.MethodGet, "/api/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// State retrieves the full desktop state.
func (c *Client) State(ctx context.Context) (*desktop.DesktopState, error) {
	var state desktop.DesktopState
	if err := c.sendRequest(ctx, http.MethodGet, "/api/state", nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Snapshot retrieves the persistable projection of the desktop.
func (c *Client) Snapshot(ctx context.Context) (*desktop.DesktopSnapshot, error) {
	var snap desktop.DesktopSnapshot
	if err := c.sendRequest(ctx, http.MethodGet, "/api/snapshot", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// DispatchRaw sends one tagged action or a JSON array of them as-is.
func (c *Client) DispatchRaw(ctx context.Context, actions []byte) (*StatusData, error) {
	var status StatusData
	if err := c.sendRequest(ctx, http.MethodPost, "/api/actions", actions, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Dispatch encodes and sends actions in order.
func (c *Client) Dispatch(ctx context.Context, actions ...desktop.Action) (*StatusData, error) {
	parts := make([]json.RawMessage, 0, len(actions))
	for _, a := range actions {
		data, err := desktop.EncodeAction(a)
		if err != nil {
			return nil, err
		}
		parts = append(parts, data)
	}
	body, err := json.Marshal(parts)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal actions: %w", err)
	}
	return c.DispatchRaw(ctx, body)
}

// OpenDeepLink asks the server to open the windows a router URL names.
func (c *Client) OpenDeepLink(ctx context.Context, rawURL string) (*desktop.DeepLinkState, error) {
	var link desktop.DeepLinkState
	if err := c.sendRequest(ctx, http.MethodPost, "/api/deeplink", DeepLinkPayload{URL: rawURL}, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

// Arrange tiles the open windows. A nil gap uses the server's configured gap.
func (c *Client) Arrange(ctx context.Context, gap *int) (*desktop.DesktopState, error) {
	var state desktop.DesktopState
	if err := c.sendRequest(ctx, http.MethodPost, "/api/arrange", ArrangePayload{Gap: gap}, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Maximize maximizes a window into the server's viewport.
func (c *Client) Maximize(ctx context.Context, id desktop.WindowID) (*desktop.WindowRecord, error) {
	var rec desktop.WindowRecord
	if err := c.sendRequest(ctx, http.MethodPost, windowPath(id, "maximize"), nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Subscribe subscribes a window to a topic.
func (c *Client) Subscribe(ctx context.Context, id desktop.WindowID, topic string) error {
	return c.sendRequest(ctx, http.MethodPost, windowPath(id, "subscriptions"), SubscribePayload{Topic: topic}, nil)
}

// Unsubscribe removes a window from a topic.
func (c *Client) Unsubscribe(ctx context.Context, id desktop.WindowID, topic string) error {
	return c.sendRequest(ctx, http.MethodDelete, windowPath(id, "subscriptions/"+url.PathEscape(topic)), nil, nil)
}

// Publish fans an event out from source to the topic's subscribers.
func (c *Client) Publish(ctx context.Context, source desktop.WindowID, p PublishPayload) (*bus.PublishReport, error) {
	p.Target = nil
	var report bus.PublishReport
	if err := c.sendRequest(ctx, http.MethodPost, windowPath(source, "publish"), p, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Send delivers an event from source to p.Target only.
func (c *Client) Send(ctx context.Context, source desktop.WindowID, p PublishPayload) (*bus.Event, error) {
	if p.Target == nil {
		return nil, fmt.Errorf("send requires a target window")
	}
	var ev bus.Event
	if err := c.sendRequest(ctx, http.MethodPost, windowPath(source, "publish"), p, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// Inbox reads a window's inbox, consuming it when drain is set.
func (c *Client) Inbox(ctx context.Context, id desktop.WindowID, drain bool) (*InboxData, error) {
	path := windowPath(id, "inbox")
	if drain {
		path += "?drain=true"
	}
	var data InboxData
	if err := c.sendRequest(ctx, http.MethodGet, path, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Lifecycle returns the lifecycle phase of a window.
func (c *Client) Lifecycle(ctx context.Context, id desktop.WindowID) (bus.Lifecycle, error) {
	var data LifecycleData
	if err := c.sendRequest(ctx, http.MethodGet, windowPath(id, "lifecycle"), nil, &data); err != nil {
		return "", err
	}
	return data.Lifecycle, nil
}

// Ping checks if the server is responding
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.GetStatus(ctx)
	return err
}

func windowPath(id desktop.WindowID, suffix string) string {
	return "/api/windows/" + id.String() + "/" + suffix
}
