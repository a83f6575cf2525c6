package eventbus

import (
	"context"
	"sync"
)

// Event types published by the diagnostic pipeline.
const (
	TypeDiagnosticCompleted = "diagnostic.completed"
	TypeRecallNotified      = "recall.notified"
	TypeThreatDetected      = "threat.detected"
	TypeUserBlocked         = "user.blocked"
)

// Event represents a generic cross-component message.
type Event struct {
	Type    string
	Source  string
	Payload any
}

// Publisher publishes events.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Subscriber receives events of certain types.
type Subscriber interface {
	Handle(ctx context.Context, evt Event)
	Topics() []string
}

// Bus is a minimal in-memory pub/sub bus. Delivery is asynchronous and ordered
// per bus, not per subscriber.
type Bus struct {
	mu    sync.RWMutex
	subs  map[string][]Subscriber
	queue chan Event
	stop  chan struct{}
	done  chan struct{}
}

// NewBus constructs an in-memory Bus with the given queue depth.
func NewBus(buffer int) *Bus {
	b := &Bus{
		subs:  make(map[string][]Subscriber),
		queue: make(chan Event, buffer),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go b.loop()
	return b
}

func (b *Bus) loop() {
	defer close(b.done)
	for {
		select {
		case evt := <-b.queue:
			b.dispatch(evt)
		case <-b.stop:
			// drain anything already enqueued
			for {
				select {
				case evt := <-b.queue:
					b.dispatch(evt)
				default:
					return
				}
			}
		}
	}
}

// Close stops the bus after draining queued events.
func (b *Bus) Close() {
	close(b.stop)
	<-b.done
}

// Register adds a subscriber for all of its topics.
func (b *Bus) Register(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range sub.Topics() {
		b.subs[t] = append(b.subs[t], sub)
	}
}

// Publish enqueues an event. It blocks only when the queue is full.
func (b *Bus) Publish(ctx context.Context, evt Event) error {
	select {
	case b.queue <- evt:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bus) dispatch(evt Event) {
	b.mu.RLock()
	targets := append([]Subscriber(nil), b.subs[evt.Type]...)
	b.mu.RUnlock()
	for _, sub := range targets {
		sub.Handle(context.Background(), evt)
	}
}
