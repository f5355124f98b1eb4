// Package bus is the per-window event bus of the shell.
//
// Every open window owns a Session with a bounded inbox and a lifecycle
// signal. Windows subscribe to topics and publish events to each other. The
// shell calls SyncWindows after every dispatch so sessions exist exactly for
// the open windows.
//
// A Bus is not safe for concurrent use. The shell serializes all calls.
package bus

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/1broseidon/deskshell/internal/desktop"
)

// ErrNoSession is returned when a call names a window that has no session.
var ErrNoSession = errors.New("no bus session for window")

// Event is one message delivered to a window inbox.
type Event struct {
	ID            string            `json:"id"`
	Source        desktop.WindowID  `json:"source"`
	Target        desktop.WindowID  `json:"target"`
	Topic         string            `json:"topic"`
	Payload       json.RawMessage   `json:"payload,omitempty"`
	CorrelationID string            `json:"correlation_id"`
	ReplyTo       *desktop.WindowID `json:"reply_to,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
}

// PublishReport describes what one Publish call did.
type PublishReport struct {
	EventID       string             `json:"event_id"`
	CorrelationID string             `json:"correlation_id"`
	Delivered     []desktop.WindowID `json:"delivered"`
	Stale         []desktop.WindowID `json:"stale"`
}

// SyncReport lists the sessions SyncWindows created and removed.
type SyncReport struct {
	Created []desktop.WindowID
	Removed []desktop.WindowID
}

// Changed reports whether the sync altered the session set.
func (r SyncReport) Changed() bool {
	return len(r.Created) > 0 || len(r.Removed) > 0
}

// Bus holds the sessions and topic subscriptions.
type Bus struct {
	sessions map[desktop.WindowID]*Session
	topics   map[string]map[desktop.WindowID]struct{}
	now      func() time.Time
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{
		sessions: make(map[desktop.WindowID]*Session),
		topics:   make(map[string]map[desktop.WindowID]struct{}),
		now:      time.Now,
	}
}

// SetClock replaces the timestamp source. Intended for tests.
func (b *Bus) SetClock(now func() time.Time) {
	b.now = now
}

// SyncWindows makes the session set equal to ids. New ids get a session,
// sessions for ids not listed are removed, and subscriptions held by removed
// windows are stripped. Topics left without subscribers are deleted.
func (b *Bus) SyncWindows(ids []desktop.WindowID) SyncReport {
	var report SyncReport

	active := make(map[desktop.WindowID]struct{}, len(ids))
	for _, id := range ids {
		active[id] = struct{}{}
		if _, ok := b.sessions[id]; !ok {
			b.sessions[id] = newSession(id)
			report.Created = append(report.Created, id)
		}
	}

	for id := range b.sessions {
		if _, ok := active[id]; !ok {
			delete(b.sessions, id)
			report.Removed = append(report.Removed, id)
		}
	}

	for topic, subs := range b.topics {
		for id := range subs {
			if _, ok := active[id]; !ok {
				delete(subs, id)
			}
		}
		if len(subs) == 0 {
			delete(b.topics, topic)
		}
	}

	sortIDs(report.Created)
	sortIDs(report.Removed)
	return report
}

// Detach drops the session of id without touching its subscriptions. A
// window torn down between syncs leaves stale subscriptions behind; the next
// Publish or SyncWindows removes them.
func (b *Bus) Detach(id desktop.WindowID) bool {
	if _, ok := b.sessions[id]; !ok {
		return false
	}
	delete(b.sessions, id)
	return true
}

// SyncLifecycle updates every session's lifecycle signal from the window
// records and returns the ids whose lifecycle changed.
func (b *Bus) SyncLifecycle(windows []desktop.WindowRecord) []desktop.WindowID {
	var changed []desktop.WindowID
	for _, w := range windows {
		s, ok := b.sessions[w.ID]
		if !ok {
			continue
		}
		phase := LifecycleBackground
		switch {
		case w.Minimized:
			phase = LifecycleMinimized
		case w.IsFocused:
			phase = LifecycleFocused
		}
		if s.Lifecycle.Set(phase) {
			changed = append(changed, w.ID)
		}
	}
	return changed
}

// Subscribe adds id to topic's subscribers.
func (b *Bus) Subscribe(id desktop.WindowID, topic string) error {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return fmt.Errorf("topic is required")
	}
	if _, ok := b.sessions[id]; !ok {
		return fmt.Errorf("subscribe window %d: %w", id, ErrNoSession)
	}
	subs, ok := b.topics[topic]
	if !ok {
		subs = make(map[desktop.WindowID]struct{})
		b.topics[topic] = subs
	}
	subs[id] = struct{}{}
	return nil
}

// Unsubscribe removes id from topic and reports whether it was subscribed.
func (b *Bus) Unsubscribe(id desktop.WindowID, topic string) bool {
	subs, ok := b.topics[topic]
	if !ok {
		return false
	}
	if _, ok := subs[id]; !ok {
		return false
	}
	delete(subs, id)
	if len(subs) == 0 {
		delete(b.topics, topic)
	}
	return true
}

// Publish delivers an event to every subscriber of topic. Subscribers whose
// session no longer exists are reported as stale and unsubscribed before
// Publish returns. An empty correlationID is replaced with a fresh one.
func (b *Bus) Publish(source desktop.WindowID, topic string, payload json.RawMessage, correlationID string, replyTo *desktop.WindowID) PublishReport {
	eventID := uuid.NewString()
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	report := PublishReport{
		EventID:       eventID,
		CorrelationID: correlationID,
		Delivered:     []desktop.WindowID{},
		Stale:         []desktop.WindowID{},
	}

	subs := b.topics[topic]
	targets := make([]desktop.WindowID, 0, len(subs))
	for id := range subs {
		targets = append(targets, id)
	}
	sortIDs(targets)

	stamp := b.now()
	for _, id := range targets {
		s, ok := b.sessions[id]
		if !ok {
			report.Stale = append(report.Stale, id)
			continue
		}
		s.deliver(Event{
			ID:            eventID,
			Source:        source,
			Target:        id,
			Topic:         topic,
			Payload:       cloneRaw(payload),
			CorrelationID: correlationID,
			ReplyTo:       cloneID(replyTo),
			Timestamp:     stamp,
		})
		report.Delivered = append(report.Delivered, id)
	}

	for _, id := range report.Stale {
		b.Unsubscribe(id, topic)
	}
	return report
}

// Send delivers an event directly to one window regardless of subscriptions.
func (b *Bus) Send(source, target desktop.WindowID, topic string, payload json.RawMessage, correlationID string, replyTo *desktop.WindowID) (Event, error) {
	s, ok := b.sessions[target]
	if !ok {
		return Event{}, fmt.Errorf("send to window %d: %w", target, ErrNoSession)
	}
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	e := Event{
		ID:            uuid.NewString(),
		Source:        source,
		Target:        target,
		Topic:         topic,
		Payload:       cloneRaw(payload),
		CorrelationID: correlationID,
		ReplyTo:       cloneID(replyTo),
		Timestamp:     b.now(),
	}
	s.deliver(e)
	return e, nil
}

// Drain removes and returns every event waiting in id's inbox, oldest first.
func (b *Bus) Drain(id desktop.WindowID) ([]Event, error) {
	s, ok := b.sessions[id]
	if !ok {
		return nil, fmt.Errorf("drain window %d: %w", id, ErrNoSession)
	}
	return s.drain(), nil
}

// Inbox returns a copy of id's inbox without consuming it.
func (b *Bus) Inbox(id desktop.WindowID) ([]Event, error) {
	s, ok := b.sessions[id]
	if !ok {
		return nil, fmt.Errorf("inbox of window %d: %w", id, ErrNoSession)
	}
	return s.peek(), nil
}

// Session returns the session of id.
func (b *Bus) Session(id desktop.WindowID) (*Session, bool) {
	s, ok := b.sessions[id]
	return s, ok
}

// Sessions returns the ids with a live session in ascending order.
func (b *Bus) Sessions() []desktop.WindowID {
	ids := make([]desktop.WindowID, 0, len(b.sessions))
	for id := range b.sessions {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

// Subscribers returns the windows subscribed to topic in ascending order.
func (b *Bus) Subscribers(topic string) []desktop.WindowID {
	subs := b.topics[topic]
	ids := make([]desktop.WindowID, 0, len(subs))
	for id := range subs {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

// Topics returns every topic with at least one subscriber, sorted.
func (b *Bus) Topics() []string {
	topics := make([]string, 0, len(b.topics))
	for t := range b.topics {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}

func sortIDs(ids []desktop.WindowID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	return append(json.RawMessage(nil), raw...)
}

func cloneID(id *desktop.WindowID) *desktop.WindowID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
