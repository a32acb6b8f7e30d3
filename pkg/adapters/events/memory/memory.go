package memory

import (
	"context"
	"sync"

	"github.com/aescanero/fairdeal/pkg/ports"
)

// subscription wraps a handler so it can be removed again. Function values
// are not comparable, so each gets its own token.
type subscription struct {
	handler ports.EventHandler
}

// InMemoryEventBus implements EventBus with in-process handlers. Intended
// for development and testing.
type InMemoryEventBus struct {
	mu          sync.RWMutex
	subscribers map[string][]*subscription
}

// NewInMemoryEventBus creates a new in-memory event bus.
func NewInMemoryEventBus() *InMemoryEventBus {
	return &InMemoryEventBus{
		subscribers: make(map[string][]*subscription),
	}
}

// Publish delivers an event to all subscribers of a topic. Handlers run
// asynchronously so a slow subscriber never blocks the publisher.
func (e *InMemoryEventBus) Publish(ctx context.Context, topic string, event ports.Event) error {
	e.mu.RLock()
	subs := make([]*subscription, len(e.subscribers[topic]))
	copy(subs, e.subscribers[topic])
	e.mu.RUnlock()

	for _, sub := range subs {
		go func(s *subscription) {
			// Handler errors are the subscriber's problem.
			_ = s.handler(ctx, event)
		}(sub)
	}

	return nil
}

// Subscribe registers a handler for a topic. The subscription is removed
// when ctx is cancelled.
func (e *InMemoryEventBus) Subscribe(ctx context.Context, topic string, handler ports.EventHandler) error {
	sub := &subscription{handler: handler}

	e.mu.Lock()
	e.subscribers[topic] = append(e.subscribers[topic], sub)
	e.mu.Unlock()

	go func() {
		<-ctx.Done()
		e.remove(topic, sub)
	}()

	return nil
}

// Close drops all subscribers.
func (e *InMemoryEventBus) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.subscribers = make(map[string][]*subscription)
	return nil
}

func (e *InMemoryEventBus) remove(topic string, sub *subscription) {
	e.mu.Lock()
	defer e.mu.Unlock()

	subs := e.subscribers[topic]
	for i, s := range subs {
		if s == sub {
			e.subscribers[topic] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
}
