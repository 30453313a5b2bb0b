package workers

import (
	"context"
	"encoding/json"
	"log/slog"

	application "pointdeck/contexts/estimation/estimation-service/application"
	"pointdeck/contexts/estimation/estimation-service/ports"
)

const (
	topicParticipantJoined           = "participant.joined"
	topicParticipantLeft             = "participant.left"
	topicParticipantSpectatorChanged = "participant.spectator_changed"

	defaultRosterConsumerGroup = "estimation-roster-projection"
)

// RosterProjector keeps the estimation-side participant projection in step
// with roster events published by the participant service. The projection
// feeds vote eligibility and the auto-reveal quorum.
type RosterProjector struct {
	Subscriber    ports.EventSubscriber
	Participants  ports.ParticipantProjectionWriter
	ConsumerGroup string
	Logger        *slog.Logger
}

// Start registers the subscriptions. Handlers run until ctx is cancelled.
func (p RosterProjector) Start(ctx context.Context) error {
	logger := application.ResolveLogger(p.Logger)
	group := p.ConsumerGroup
	if group == "" {
		group = defaultRosterConsumerGroup
	}

	logger.Info("roster projector starting subscriptions",
		"event", "estimation_roster_projector_starting",
		"module", "estimation/estimation-service",
		"layer", "worker",
		"consumer_group", group,
	)
	for _, topic := range []string{
		topicParticipantJoined,
		topicParticipantLeft,
		topicParticipantSpectatorChanged,
	} {
		if err := p.Subscriber.Subscribe(ctx, topic, group, p.handleRosterEvent); err != nil {
			logger.Error("roster projector subscribe failed",
				"event", "estimation_roster_projector_subscribe_failed",
				"module", "estimation/estimation-service",
				"layer", "worker",
				"topic", topic,
				"error", err.Error(),
			)
			return err
		}
	}
	logger.Info("roster projector subscriptions active",
		"event", "estimation_roster_projector_active",
		"module", "estimation/estimation-service",
		"layer", "worker",
		"consumer_group", group,
	)
	return nil
}

func (p RosterProjector) handleRosterEvent(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(p.Logger)
	var payload struct {
		ParticipantID string `json:"participant_id"`
		DisplayName   string `json:"display_name"`
		Spectator     bool   `json:"spectator"`
		Active        bool   `json:"active"`
	}
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		logger.Error("roster event decode failed",
			"event", "estimation_roster_event_decode_failed",
			"module", "estimation/estimation-service",
			"layer", "worker",
			"event_id", event.EventID,
			"event_type", event.EventType,
			"error", err.Error(),
		)
		return err
	}
	if payload.ParticipantID == "" {
		logger.Warn("roster event missing participant id",
			"event", "estimation_roster_event_invalid",
			"module", "estimation/estimation-service",
			"layer", "worker",
			"event_id", event.EventID,
			"event_type", event.EventType,
		)
		return nil
	}

	var err error
	if event.EventType == topicParticipantLeft || !payload.Active {
		err = p.Participants.RemoveParticipant(ctx, payload.ParticipantID)
	} else {
		err = p.Participants.UpsertParticipant(ctx, ports.ParticipantRef{
			ParticipantID: payload.ParticipantID,
			DisplayName:   payload.DisplayName,
			Spectator:     payload.Spectator,
		})
	}
	if err != nil {
		logger.Error("roster projection write failed",
			"event", "estimation_roster_projection_write_failed",
			"module", "estimation/estimation-service",
			"layer", "worker",
			"event_id", event.EventID,
			"event_type", event.EventType,
			"participant_id", payload.ParticipantID,
			"error", err.Error(),
		)
		return err
	}

	logger.Debug("roster event applied",
		"event", "estimation_roster_event_applied",
		"module", "estimation/estimation-service",
		"layer", "worker",
		"event_type", event.EventType,
		"participant_id", payload.ParticipantID,
	)
	return nil
}
