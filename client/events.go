// Package client maintains the duplex channel to the remote agent:
// reconnection with exponential backoff, a typed event bus, message
// correlation with deadlines, and the HTTP fallback exchange.
package client

import (
	"sync"
	"time"
)

// EventKind is the closed set of agent event classes.
type EventKind int

const (
	EventConnected EventKind = iota
	EventDisconnected
	EventTextReceived
	EventAudioReceived
	EventEmotionChanged
)

func (k EventKind) String() string {
	switch k {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventTextReceived:
		return "text_received"
	case EventAudioReceived:
		return "audio_received"
	case EventEmotionChanged:
		return "emotion_changed"
	}
	return "unknown"
}

// Event carries one agent event to subscribers. Only the fields
// relevant to the kind are set.
type Event struct {
	Kind     EventKind
	Text     string
	Audio    []byte
	Emotion  string
	Duration time.Duration
	Attempt  int
}

// Subscription is a cancellable handle returned by Subscribe. It must
// be released with Unsubscribe on every exit path, including timeouts.
type Subscription struct {
	kind EventKind
	id   int
}

type bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[EventKind]map[int]func(Event)
}

func newBus() *bus {
	return &bus{subs: make(map[EventKind]map[int]func(Event))}
}

func (b *bus) subscribe(kind EventKind, fn func(Event)) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	if b.subs[kind] == nil {
		b.subs[kind] = make(map[int]func(Event))
	}
	b.subs[kind][b.nextID] = fn
	return Subscription{kind: kind, id: b.nextID}
}

func (b *bus) unsubscribe(s Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m := b.subs[s.kind]; m != nil {
		delete(m, s.id)
	}
}

func (b *bus) publish(ev Event) {
	b.mu.Lock()
	fns := make([]func(Event), 0, len(b.subs[ev.Kind]))
	for _, fn := range b.subs[ev.Kind] {
		fns = append(fns, fn)
	}
	b.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
