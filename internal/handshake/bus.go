// Package handshake retrieves the page selection from a tab's content context.
//
// The requester arms a one-shot listener on a Bus, asks the tab's content
// context to run its sendSelection capability, and waits for whichever comes
// first: the selection message, a deadline, or proof that no message can come.
// The injection's completion signal is only a trigger; it never stands in for
// delivery of the message.
package handshake

import (
	"sync"
)

// KindSelection is the message type carrying a page selection.
const KindSelection = "selection"

// Message is the payload exchanged over a Bus.
type Message struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Sender delivers messages to listeners.
type Sender interface {
	Send(msg Message) int
}

type listener struct {
	kind string
	once bool
	fn   func(Message)
}

// Bus is an intra-process message channel with removable listeners.
type Bus struct {
	mu        sync.Mutex
	next      uint64
	listeners map[uint64]*listener
}

var _ Sender = (*Bus)(nil)

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{listeners: make(map[uint64]*listener)}
}

// On registers fn for every message of the given kind.
func (b *Bus) On(kind string, fn func(Message)) *Subscription {
	return b.add(&listener{kind: kind, fn: fn})
}

// Once registers fn for the next message of the given kind. The listener is
// removed before fn runs, so fn is called at most once.
func (b *Bus) Once(kind string, fn func(Message)) *Subscription {
	return b.add(&listener{kind: kind, once: true, fn: fn})
}

func (b *Bus) add(l *listener) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	b.listeners[b.next] = l
	return &Subscription{bus: b, id: b.next}
}

// Send delivers msg to every listener registered for its type and returns
// the number of listeners that received it.
func (b *Bus) Send(msg Message) int {
	b.mu.Lock()
	var targets []func(Message)
	for id, l := range b.listeners {
		if l.kind != msg.Type {
			continue
		}
		if l.once {
			delete(b.listeners, id)
		}
		targets = append(targets, l.fn)
	}
	b.mu.Unlock()

	for _, fn := range targets {
		fn(msg)
	}
	return len(targets)
}

// Listeners returns the number of armed listeners.
func (b *Bus) Listeners() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}

// Subscription identifies a registered listener.
type Subscription struct {
	bus *Bus
	id  uint64
}

// Remove unregisters the listener. Removing twice, or removing a one-shot
// listener that already fired, is a no-op.
func (s *Subscription) Remove() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	delete(s.bus.listeners, s.id)
}
