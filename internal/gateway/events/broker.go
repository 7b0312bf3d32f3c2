// Package events fans session events out to live subscribers.
package events

import (
	"strings"
	"sync"

	"speckit/internal/artifact"
)

type Kind string

const (
	KindProgress  Kind = "progress"
	KindTurn      Kind = "turn"
	KindCancelled Kind = "cancelled"
	KindError     Kind = "error"
)

// Event is one notification about a session.
type Event struct {
	Kind      Kind              `json:"type"`
	SessionID string            `json:"sessionId"`
	Status    string            `json:"status,omitempty"`
	Message   string            `json:"message,omitempty"`
	Step      string            `json:"step,omitempty"`
	Changes   []artifact.Change `json:"changes,omitempty"`
}

// Broker delivers events to every subscriber of a session. A slow
// subscriber loses its oldest pending event rather than blocking Publish.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[*subscriber]struct{}
}

type subscriber struct {
	ch chan Event
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[*subscriber]struct{})}
}

// Subscribe registers a subscriber for sessionID. The returned func
// unregisters it and closes the channel.
func (b *Broker) Subscribe(sessionID string, size int) (<-chan Event, func()) {
	if size <= 0 {
		size = 1
	}
	id := strings.TrimSpace(sessionID)
	sub := &subscriber{ch: make(chan Event, size)}

	b.mu.Lock()
	if b.subs[id] == nil {
		b.subs[id] = make(map[*subscriber]struct{})
	}
	b.subs[id][sub] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[id], sub)
			if len(b.subs[id]) == 0 {
				delete(b.subs, id)
			}
			close(sub.ch)
			b.mu.Unlock()
		})
	}
}

// Publish sends ev to the subscribers of ev.SessionID.
func (b *Broker) Publish(ev Event) {
	if b == nil {
		return
	}
	id := strings.TrimSpace(ev.SessionID)
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs[id] {
		push(sub.ch, ev)
	}
}

// Subscribers reports how many subscribers sessionID has.
func (b *Broker) Subscribers(sessionID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[strings.TrimSpace(sessionID)])
}

func push(ch chan Event, ev Event) {
	select {
	case ch <- ev:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- ev:
	default:
	}
}
