package queries

import (
	"context"
	"encoding/json"
	"log/slog"

	application "pointdeck/contexts/estimation/estimation-service/application"
	"pointdeck/contexts/estimation/estimation-service/ports"
)

// FeedEvent is one committed transition as served to feed consumers. Seq
// is the store-assigned commit order.
type FeedEvent struct {
	Seq       int64
	EventType string
	Envelope  ports.EventEnvelope
}

// EventFeedUseCase serves the committed event feed straight from the
// outbox, so feed readers see exactly what the relay publishes.
type EventFeedUseCase struct {
	Outbox ports.OutboxRepository
	Logger *slog.Logger
}

// RecentEvents returns the latest committed events in ascending sequence
// order.
func (uc EventFeedUseCase) RecentEvents(ctx context.Context, limit int) ([]FeedEvent, error) {
	logger := application.ResolveLogger(uc.Logger)
	if limit <= 0 {
		limit = 100
	}

	messages, err := uc.Outbox.ListRecentOutbox(ctx, limit)
	if err != nil {
		return nil, err
	}

	feed := make([]FeedEvent, 0, len(messages))
	for _, message := range messages {
		var envelope ports.EventEnvelope
		if err := json.Unmarshal(message.Payload, &envelope); err != nil {
			// A malformed row must not wedge the whole feed.
			logger.Warn("skipping undecodable outbox payload",
				"event", "estimation_feed_decode_failed",
				"module", "estimation/estimation-service",
				"layer", "application",
				"outbox_id", message.OutboxID,
				"error", err,
			)
			continue
		}
		feed = append(feed, FeedEvent{
			Seq:       message.Seq,
			EventType: message.EventType,
			Envelope:  envelope,
		})
	}
	return feed, nil
}
