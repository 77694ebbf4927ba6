// Package events allows for the registering and receiving of events.
package events

import (
	"fmt"
	"sync"
)

// messageBuffer is the capacity of every subscriber channel. A message is
// dropped when the receiver is not ready, so the buffer gives a slow
// websocket writer room to catch up.
const messageBuffer = 100

type subscriber[T any] struct {
	ch     chan T
	accept func(T) bool
}

// Events maintains a mapping of unique id and channels so goroutines
// can register and receive events of type T.
type Events[T any] struct {
	m  map[string]subscriber[T]
	mu sync.RWMutex
}

// New constructs an events for registering and receiving events.
func New[T any]() *Events[T] {
	return &Events[T]{
		m: make(map[string]subscriber[T]),
	}
}

// Shutdown closes and removes all channels that were provided by
// the call to Acquire.
func (evt *Events[T]) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, sub := range evt.m {
		delete(evt.m, id)
		close(sub.ch)
	}
}

// Acquire takes a unique id and returns a channel that can be used to
// receive events. Only events accept reports true for are delivered. A nil
// accept receives everything.
func (evt *Events[T]) Acquire(id string, accept func(T) bool) <-chan T {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	if sub, exists := evt.m[id]; exists {
		return sub.ch
	}

	sub := subscriber[T]{
		ch:     make(chan T, messageBuffer),
		accept: accept,
	}
	evt.m[id] = sub

	return sub.ch
}

// Release closes and removes the channel that was provided by
// the call to Acquire.
func (evt *Events[T]) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	sub, exists := evt.m[id]
	if !exists {
		return fmt.Errorf("id %q does not exist", id)
	}

	delete(evt.m, id)
	close(sub.ch)
	return nil
}

// Send signals a message to every registered channel that accepts it. Send
// will not block waiting for a receiver on any given channel.
func (evt *Events[T]) Send(v T) {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	for _, sub := range evt.m {
		if sub.accept != nil && !sub.accept(v) {
			continue
		}

		select {
		case sub.ch <- v:
		default:
		}
	}
}

// Len returns the number of registered subscribers.
func (evt *Events[T]) Len() int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return len(evt.m)
}
