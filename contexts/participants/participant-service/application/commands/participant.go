package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "pointdeck/contexts/participants/participant-service/application"
	"pointdeck/contexts/participants/participant-service/domain/entities"
	domainerrors "pointdeck/contexts/participants/participant-service/domain/errors"
	"pointdeck/contexts/participants/participant-service/ports"
)

// JoinCommand registers a participant, or resumes the identity already
// registered under the same display name.
type JoinCommand struct {
	DisplayName string
	Spectator   bool
}

// JoinResult reports the participant plus whether this call created it.
type JoinResult struct {
	Participant entities.Participant
	Created     bool
}

// ParticipantUseCase owns roster writes: join, leave, spectator toggling
// and presence heartbeats. DisableSpectators downgrades spectator joins to
// voters and rejects spectator toggles.
type ParticipantUseCase struct {
	Participants      ports.ParticipantRepository
	Publisher         ports.EventPublisher
	Clock             ports.Clock
	IDGen             ports.IDGenerator
	DisableSpectators bool
	Logger            *slog.Logger
}

// Join creates the participant, or reactivates the one holding the same
// display name. A name held by a currently active participant is taken.
func (uc ParticipantUseCase) Join(ctx context.Context, cmd JoinCommand) (JoinResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	displayName := strings.TrimSpace(cmd.DisplayName)
	if displayName == "" {
		return JoinResult{}, domainerrors.ErrInvalidParticipantInput
	}

	now := uc.now()
	existing, found, err := uc.Participants.FindByName(ctx, displayName)
	if err != nil {
		return JoinResult{}, err
	}
	if found {
		if existing.Active {
			return JoinResult{}, domainerrors.ErrNameTaken
		}
		rejoined, err := uc.Participants.SetActive(ctx, existing.ParticipantID, true, now)
		if err != nil {
			return JoinResult{}, err
		}
		if err := uc.publishRosterEvent(ctx, "participant.joined", rejoined, now); err != nil {
			return JoinResult{}, err
		}
		logger.Info("participant rejoined",
			"event", "participants_rejoined",
			"module", "participants/participant-service",
			"layer", "application",
			"participant_id", rejoined.ParticipantID,
		)
		return JoinResult{Participant: rejoined}, nil
	}

	participantID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return JoinResult{}, err
	}
	participant := entities.Participant{
		ParticipantID: participantID,
		DisplayName:   displayName,
		Spectator:     cmd.Spectator && !uc.DisableSpectators,
		Active:        true,
		JoinedAt:      now,
		LastSeenAt:    now,
	}
	if err := uc.Participants.CreateParticipant(ctx, participant); err != nil {
		return JoinResult{}, err
	}
	if err := uc.publishRosterEvent(ctx, "participant.joined", participant, now); err != nil {
		return JoinResult{}, err
	}
	logger.Info("participant joined",
		"event", "participants_joined",
		"module", "participants/participant-service",
		"layer", "application",
		"participant_id", participant.ParticipantID,
		"spectator", participant.Spectator,
	)
	return JoinResult{Participant: participant, Created: true}, nil
}

// ResolveSession returns the participant behind an identifier and touches
// their presence timestamp.
func (uc ParticipantUseCase) ResolveSession(ctx context.Context, participantID string) (entities.Participant, error) {
	participantID = strings.TrimSpace(participantID)
	if participantID == "" {
		return entities.Participant{}, domainerrors.ErrInvalidParticipantInput
	}
	participant, err := uc.Participants.GetParticipant(ctx, participantID)
	if err != nil {
		return entities.Participant{}, err
	}
	now := uc.now()
	if err := uc.Participants.TouchPresence(ctx, participantID, now); err != nil {
		return entities.Participant{}, err
	}
	participant.LastSeenAt = now
	return participant, nil
}

// SetSpectator toggles spectator mode. Votes already cast keep their
// audit record; the participant just stops counting toward the quorum.
func (uc ParticipantUseCase) SetSpectator(ctx context.Context, participantID string, spectator bool) (entities.Participant, error) {
	logger := application.ResolveLogger(uc.Logger)
	participantID = strings.TrimSpace(participantID)
	if participantID == "" {
		return entities.Participant{}, domainerrors.ErrInvalidParticipantInput
	}
	if spectator && uc.DisableSpectators {
		return entities.Participant{}, domainerrors.ErrInvalidParticipantInput
	}

	now := uc.now()
	participant, err := uc.Participants.SetSpectator(ctx, participantID, spectator, now)
	if err != nil {
		return entities.Participant{}, err
	}
	if err := uc.publishRosterEvent(ctx, "participant.spectator_changed", participant, now); err != nil {
		return entities.Participant{}, err
	}
	logger.Info("participant spectator mode changed",
		"event", "participants_spectator_changed",
		"module", "participants/participant-service",
		"layer", "application",
		"participant_id", participant.ParticipantID,
		"spectator", participant.Spectator,
	)
	return participant, nil
}

// Leave marks the participant inactive. The identifier stays valid so the
// story history keeps its attribution.
func (uc ParticipantUseCase) Leave(ctx context.Context, participantID string) (entities.Participant, error) {
	logger := application.ResolveLogger(uc.Logger)
	participantID = strings.TrimSpace(participantID)
	if participantID == "" {
		return entities.Participant{}, domainerrors.ErrInvalidParticipantInput
	}

	now := uc.now()
	participant, err := uc.Participants.SetActive(ctx, participantID, false, now)
	if err != nil {
		return entities.Participant{}, err
	}
	if err := uc.publishRosterEvent(ctx, "participant.left", participant, now); err != nil {
		return entities.Participant{}, err
	}
	logger.Info("participant left",
		"event", "participants_left",
		"module", "participants/participant-service",
		"layer", "application",
		"participant_id", participant.ParticipantID,
	)
	return participant, nil
}

func (uc ParticipantUseCase) publishRosterEvent(
	ctx context.Context,
	eventType string,
	participant entities.Participant,
	occurredAt time.Time,
) error {
	if uc.Publisher == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(map[string]any{
		"participant_id": participant.ParticipantID,
		"display_name":   participant.DisplayName,
		"spectator":      participant.Spectator,
		"active":         participant.Active,
	})
	if err != nil {
		return err
	}
	return uc.Publisher.Publish(ctx, eventType, ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "participant-service",
		SchemaVersion:    1,
		PartitionKeyPath: "participant_id",
		PartitionKey:     participant.ParticipantID,
		Data:             payload,
	})
}

func (uc ParticipantUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
