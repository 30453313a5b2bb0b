package workers

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"pointdeck/contexts/estimation/estimation-service/adapters/memory"
	"pointdeck/contexts/estimation/estimation-service/ports"
)

type capturingPublisher struct {
	published []ports.EventEnvelope
	topics    []string
	failAfter int
}

func (p *capturingPublisher) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	if p.failAfter > 0 && len(p.published) >= p.failAfter {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, event)
	p.topics = append(p.topics, topic)
	return nil
}

func appendEvents(t *testing.T, store *memory.Store, count int) {
	t.Helper()

	for i := 0; i < count; i++ {
		err := store.AppendOutbox(context.Background(), ports.EventEnvelope{
			EventID:    fmt.Sprintf("event-%d", i+1),
			EventType:  "vote.cast",
			OccurredAt: time.Date(2026, 3, 14, 9, 30, i, 0, time.UTC),
			Data:       []byte(`{"story_id":"story-1"}`),
		})
		if err != nil {
			t.Fatalf("append outbox: %v", err)
		}
	}
}

func TestOutboxRelayPublishesInSequenceOrder(t *testing.T) {
	store := memory.NewStore()
	publisher := &capturingPublisher{}
	appendEvents(t, store, 3)

	relay := OutboxRelay{Outbox: store, Publisher: publisher}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("run relay: %v", err)
	}

	if len(publisher.published) != 3 {
		t.Fatalf("expected 3 published events, got %d", len(publisher.published))
	}
	for i, event := range publisher.published {
		want := fmt.Sprintf("event-%d", i+1)
		if event.EventID != want {
			t.Fatalf("expected %s at position %d, got %s", want, i, event.EventID)
		}
	}
	for _, topic := range publisher.topics {
		if topic != "vote.cast" {
			t.Fatalf("expected event type as topic, got %q", topic)
		}
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected empty outbox after relay, got %d pending", len(pending))
	}
}

func TestOutboxRelayNoopOnEmptyOutbox(t *testing.T) {
	store := memory.NewStore()
	publisher := &capturingPublisher{}

	relay := OutboxRelay{Outbox: store, Publisher: publisher}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("run relay on empty outbox: %v", err)
	}
	if len(publisher.published) != 0 {
		t.Fatalf("expected no publishes, got %d", len(publisher.published))
	}
}

func TestOutboxRelayStopsOnPublishFailure(t *testing.T) {
	store := memory.NewStore()
	publisher := &capturingPublisher{failAfter: 1}
	appendEvents(t, store, 3)

	relay := OutboxRelay{Outbox: store, Publisher: publisher}
	if err := relay.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected publish failure to surface")
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 rows left for retry, got %d", len(pending))
	}

	// The retry cycle picks up exactly where the failure left off.
	publisher.failAfter = 0
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("retry relay: %v", err)
	}
	if len(publisher.published) != 3 {
		t.Fatalf("expected all events published after retry, got %d", len(publisher.published))
	}
}

func TestOutboxRelayRespectsBatchSize(t *testing.T) {
	store := memory.NewStore()
	publisher := &capturingPublisher{}
	appendEvents(t, store, 5)

	relay := OutboxRelay{Outbox: store, Publisher: publisher, BatchSize: 2}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("run relay: %v", err)
	}
	if len(publisher.published) != 2 {
		t.Fatalf("expected batch of 2, got %d", len(publisher.published))
	}
}
