package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"time"

	application "pointdeck/contexts/estimation/estimation-service/application"
	"pointdeck/contexts/estimation/estimation-service/ports"
)

// OutboxRelay publishes persisted outbox records to the event bus.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

// RunOnce publishes a bounded batch of pending outbox rows in sequence
// order and marks each row published only after broker publish succeeds.
// It stops on the first failure so the retry loop can reprocess remaining
// rows safely.
func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("estimation outbox list failed",
			"event", "estimation_outbox_list_failed",
			"module", "estimation/estimation-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(pending) == 0 {
		logger.Debug("estimation outbox relay found no pending rows",
			"event", "estimation_outbox_relay_noop",
			"module", "estimation/estimation-service",
			"layer", "worker",
			"batch_size", limit,
		)
		return nil
	}

	// Observers rely on commit order even if the store returned rows in
	// another order.
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].Seq < pending[j].Seq
	})

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	for _, row := range pending {
		var event ports.EventEnvelope
		if err := json.Unmarshal(row.Payload, &event); err != nil {
			logger.Error("estimation outbox decode failed",
				"event", "estimation_outbox_decode_failed",
				"module", "estimation/estimation-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
		topic := event.EventType
		if topic == "" {
			topic = row.EventType
		}
		if err := r.Publisher.Publish(ctx, topic, event); err != nil {
			logger.Error("estimation outbox publish failed",
				"event", "estimation_outbox_publish_failed",
				"module", "estimation/estimation-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"event_id", event.EventID,
				"event_type", event.EventType,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, now); err != nil {
			logger.Error("estimation outbox mark published failed",
				"event", "estimation_outbox_mark_published_failed",
				"module", "estimation/estimation-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
	}

	logger.Info("estimation outbox relay cycle completed",
		"event", "estimation_outbox_relay_completed",
		"module", "estimation/estimation-service",
		"layer", "worker",
		"published_count", len(pending),
	)
	return nil
}
