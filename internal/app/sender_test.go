package app_test

import (
	"sync"
)

type sentEvent struct {
	ConnID string
	Event  string
	Data   any
}

// recordingSender captures everything the components push at the
// transport, in order.
type recordingSender struct {
	mu     sync.Mutex
	events []sentEvent
}

func (s *recordingSender) Send(connID, event string, data any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, sentEvent{ConnID: connID, Event: event, Data: data})
	return nil
}

func (s *recordingSender) all() []sentEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sentEvent, len(s.events))
	copy(out, s.events)
	return out
}

func (s *recordingSender) forConn(connID string) []sentEvent {
	var out []sentEvent
	for _, e := range s.all() {
		if e.ConnID == connID {
			out = append(out, e)
		}
	}
	return out
}

func (s *recordingSender) ofEvent(event string) []sentEvent {
	var out []sentEvent
	for _, e := range s.all() {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

func (s *recordingSender) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}
