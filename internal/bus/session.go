package bus

import "github.com/1broseidon/deskshell/internal/desktop"

// InboxCapacity is the number of undelivered events a session keeps.
const InboxCapacity = 256

// Session is the bus-side state of one open window.
type Session struct {
	ID        desktop.WindowID
	Lifecycle Signal[Lifecycle]

	inbox   []Event
	dropped uint64
}

func newSession(id desktop.WindowID) *Session {
	return &Session{ID: id}
}

// deliver appends e, evicting the oldest event when the inbox is full.
func (s *Session) deliver(e Event) {
	if len(s.inbox) >= InboxCapacity {
		copy(s.inbox, s.inbox[1:])
		s.inbox = s.inbox[:len(s.inbox)-1]
		s.dropped++
	}
	s.inbox = append(s.inbox, e)
}

func (s *Session) drain() []Event {
	events := s.inbox
	s.inbox = nil
	return events
}

func (s *Session) peek() []Event {
	return append([]Event(nil), s.inbox...)
}

// Dropped reports how many events were evicted because the inbox was full.
func (s *Session) Dropped() uint64 {
	return s.dropped
}
