package eventbus

import (
	"context"
	"sync"
	"testing"
)

type recordingSubscriber struct {
	mu     sync.Mutex
	topics []string
	got    []Event
}

func (r *recordingSubscriber) Topics() []string { return r.topics }

func (r *recordingSubscriber) Handle(_ context.Context, evt Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, evt)
}

func (r *recordingSubscriber) events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.got...)
}

func TestBusDeliversToMatchingTopics(t *testing.T) {
	b := NewBus(16)
	threats := &recordingSubscriber{topics: []string{TypeThreatDetected}}
	all := &recordingSubscriber{topics: []string{TypeThreatDetected, TypeDiagnosticCompleted}}
	b.Register(threats)
	b.Register(all)

	ctx := context.Background()
	if err := b.Publish(ctx, Event{Type: TypeThreatDetected, Source: "test"}); err != nil {
		t.Fatal(err)
	}
	if err := b.Publish(ctx, Event{Type: TypeDiagnosticCompleted, Source: "test"}); err != nil {
		t.Fatal(err)
	}
	if err := b.Publish(ctx, Event{Type: TypeRecallNotified, Source: "test"}); err != nil {
		t.Fatal(err)
	}
	b.Close()

	if got := threats.events(); len(got) != 1 || got[0].Type != TypeThreatDetected {
		t.Errorf("threat subscriber got %+v", got)
	}
	if got := all.events(); len(got) != 2 {
		t.Errorf("two-topic subscriber got %d events, want 2", len(got))
	}
}

func TestBusCloseDrainsQueue(t *testing.T) {
	b := NewBus(64)
	sub := &recordingSubscriber{topics: []string{TypeUserBlocked}}
	b.Register(sub)

	ctx := context.Background()
	for i := 0; i < 50; i++ {
		if err := b.Publish(ctx, Event{Type: TypeUserBlocked}); err != nil {
			t.Fatal(err)
		}
	}
	b.Close()

	if got := len(sub.events()); got != 50 {
		t.Errorf("delivered %d events, want all 50 drained before Close returns", got)
	}
}

func TestBusPublishHonorsContext(t *testing.T) {
	b := NewBus(0)
	// No subscribers and an unbuffered queue with the loop busy is hard to
	// arrange deterministically; a cancelled context must fail fast either way.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := b.Publish(ctx, Event{Type: TypeUserBlocked})
	if err != nil && err != context.Canceled {
		t.Errorf("err = %v", err)
	}
	b.Close()
}
