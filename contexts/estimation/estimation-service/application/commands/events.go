package commands

import (
	"encoding/json"
	"time"

	"pointdeck/contexts/estimation/estimation-service/ports"
)

func newEstimationEnvelope(
	eventID string,
	eventType string,
	storyID string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	// Transitions are partitioned by story so story-scoped observers see
	// them in commit order.
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "estimation-service",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "story_id",
		PartitionKey:     storyID,
		Data:             payload,
	}, nil
}
