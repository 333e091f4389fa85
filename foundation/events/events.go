// Package events allows for the registering and receiving of events.
package events

import (
	"fmt"
	"strings"
	"sync"
)

// messageBuffer is the number of events a receiver can fall behind before
// events are dropped for it. Websocket sends could take long.
const messageBuffer = 100

// subscriber is a registered receiver and the topics it asked for.
type subscriber struct {
	ch     chan string
	topics []string
}

// wants reports whether the event belongs to one of the topics. No topics
// means every event.
func (sub subscriber) wants(event string) bool {
	if len(sub.topics) == 0 {
		return true
	}

	for _, topic := range sub.topics {
		if strings.HasPrefix(event, topic+":") {
			return true
		}
	}

	return false
}

// =============================================================================

// Events maintains a mapping of unique id and channels so goroutines
// can register and receive events.
type Events struct {
	m  map[string]subscriber
	mu sync.RWMutex
}

// New constructs an events for registering and receiving events.
func New() *Events {
	return &Events{
		m: make(map[string]subscriber),
	}
}

// Shutdown closes and removes all channels that were provided by
// the call to Acquire.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, sub := range evt.m {
		delete(evt.m, id)
		close(sub.ch)
	}
}

// Acquire takes a unique id and returns a channel that can be used to
// receive events. Events are the log lines of the node, their topic is the
// text before the first colon, like "worker" or "gossip". Only events for the
// specified topics are received, all of them if none are specified.
func (evt *Events) Acquire(id string, topics ...string) chan string {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	if sub, exists := evt.m[id]; exists {
		return sub.ch
	}

	sub := subscriber{
		ch:     make(chan string, messageBuffer),
		topics: topics,
	}
	evt.m[id] = sub

	return sub.ch
}

// Release closes and removes the channel that was provided by
// the call to Acquire.
func (evt *Events) Release(id string) error {
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

// Len returns the number of registered receivers.
func (evt *Events) Len() int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return len(evt.m)
}

// Send signals a message to every registered channel that wants it. Send
// will not block waiting for a receiver on any given channel.
func (evt *Events) Send(s string) {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	for _, sub := range evt.m {
		if !sub.wants(s) {
			continue
		}

		select {
		case sub.ch <- s:
		default:
		}
	}
}
