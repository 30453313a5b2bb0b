package ports

import (
	"context"
	"time"

	"pointdeck/contexts/participants/participant-service/domain/entities"
	contractsv1 "pointdeck/contracts/gen/events/v1"
)

// ParticipantRepository owns the roster rows. Display names are unique
// among active participants so rejoining under the same name resumes the
// same identity.
type ParticipantRepository interface {
	CreateParticipant(ctx context.Context, participant entities.Participant) error
	GetParticipant(ctx context.Context, participantID string) (entities.Participant, error)
	FindByName(ctx context.Context, displayName string) (entities.Participant, bool, error)
	ListParticipants(ctx context.Context, activeOnly bool) ([]entities.Participant, error)
	SetSpectator(ctx context.Context, participantID string, spectator bool, at time.Time) (entities.Participant, error)
	SetActive(ctx context.Context, participantID string, active bool, at time.Time) (entities.Participant, error)
	TouchPresence(ctx context.Context, participantID string, at time.Time) error
}

// Clock allows deterministic testing of presence timestamps.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts participant identifier generation.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// EventEnvelope reuses the canonical cross-runtime envelope contract.
type EventEnvelope = contractsv1.Envelope

// EventPublisher broadcasts roster changes. Presence events are ephemeral
// so they go straight to the bus rather than through a durable outbox.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
