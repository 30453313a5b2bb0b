package queries

import (
	"context"
	"log/slog"

	"pointdeck/contexts/participants/participant-service/domain/entities"
	"pointdeck/contexts/participants/participant-service/ports"
)

// RosterView is the read model for the table roster.
type RosterView struct {
	Participants   []entities.Participant
	VoterCount     int
	SpectatorCount int
}

// RosterUseCase serves the roster read side.
type RosterUseCase struct {
	Participants ports.ParticipantRepository
	Logger       *slog.Logger
}

// Roster lists active participants with voter and spectator tallies.
func (uc RosterUseCase) Roster(ctx context.Context) (RosterView, error) {
	participants, err := uc.Participants.ListParticipants(ctx, true)
	if err != nil {
		return RosterView{}, err
	}
	view := RosterView{Participants: participants}
	for _, participant := range participants {
		if participant.Spectator {
			view.SpectatorCount++
			continue
		}
		view.VoterCount++
	}
	return view, nil
}
