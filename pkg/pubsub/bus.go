// Package pubsub carries the in-process change signal that keeps
// cart-derived views current after a store mutation. The web client
// piggybacked this on a synthetic storage event; here it is an explicit
// bus so same-process writers and readers do not depend on platform
// storage notifications.
package pubsub

import (
	"context"
	"sync"
)

// TopicCartChanged is published after every successful cart persist.
const TopicCartChanged = "cart.changed"

type Event struct {
	Topic   string `json:"topic"`
	Payload []byte `json:"payload,omitempty"`
	// Origin identifies the publishing process on bridged events so a
	// bridge can skip messages it published itself.
	Origin string `json:"origin,omitempty"`
}

// Publisher is the write side of the signal. Satisfied by Bus and Bridge.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Bus is an in-process topic bus. Delivery happens synchronously inside
// Publish, before the initiating call returns to its caller. Delivery is
// fire-and-forget: a subscriber whose buffer is full misses the event
// rather than blocking the writer, and re-reads the store on the next one.
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]chan Event
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string][]chan Event)}
}

func (b *Bus) Publish(_ context.Context, ev Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs[ev.Topic] {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

// Subscribe registers a listener for topic. The returned cancel func
// removes the subscription and closes the channel.
func (b *Bus) Subscribe(topic string) (<-chan Event, func()) {
	ch := make(chan Event, 16)
	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], ch)
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subs[topic]
		for i, c := range subs {
			if c == ch {
				b.subs[topic] = append(subs[:i], subs[i+1:]...)
				close(c)
				return
			}
		}
	}
	return ch, cancel
}
