package httpadapter

import (
	"context"
	"log/slog"

	"pointdeck/contexts/participants/participant-service/application/commands"
	"pointdeck/contexts/participants/participant-service/application/queries"
	"pointdeck/contexts/participants/participant-service/domain/entities"
	httptransport "pointdeck/contexts/participants/participant-service/transport/http"
)

type Handler struct {
	Participants commands.ParticipantUseCase
	Roster       queries.RosterUseCase
	Logger       *slog.Logger
}

func (h Handler) JoinHandler(ctx context.Context, req httptransport.JoinRequest) (httptransport.JoinResponse, error) {
	result, err := h.Participants.Join(ctx, commands.JoinCommand{
		DisplayName: req.DisplayName,
		Spectator:   req.Spectator,
	})
	if err != nil {
		return httptransport.JoinResponse{}, err
	}
	return httptransport.JoinResponse{
		Participant: participantResponse(result.Participant),
		Created:     result.Created,
	}, nil
}

func (h Handler) SessionHandler(ctx context.Context, participantID string) (httptransport.ParticipantResponse, error) {
	participant, err := h.Participants.ResolveSession(ctx, participantID)
	if err != nil {
		return httptransport.ParticipantResponse{}, err
	}
	return participantResponse(participant), nil
}

func (h Handler) SpectatorHandler(
	ctx context.Context,
	participantID string,
	req httptransport.SpectatorRequest,
) (httptransport.ParticipantResponse, error) {
	participant, err := h.Participants.SetSpectator(ctx, participantID, req.Spectator)
	if err != nil {
		return httptransport.ParticipantResponse{}, err
	}
	return participantResponse(participant), nil
}

func (h Handler) LeaveHandler(ctx context.Context, participantID string) (httptransport.ParticipantResponse, error) {
	participant, err := h.Participants.Leave(ctx, participantID)
	if err != nil {
		return httptransport.ParticipantResponse{}, err
	}
	return participantResponse(participant), nil
}

func (h Handler) RosterHandler(ctx context.Context) (httptransport.RosterResponse, error) {
	view, err := h.Roster.Roster(ctx)
	if err != nil {
		return httptransport.RosterResponse{}, err
	}
	response := httptransport.RosterResponse{
		Participants:   make([]httptransport.ParticipantResponse, 0, len(view.Participants)),
		VoterCount:     view.VoterCount,
		SpectatorCount: view.SpectatorCount,
	}
	for _, participant := range view.Participants {
		response.Participants = append(response.Participants, participantResponse(participant))
	}
	return response, nil
}

func participantResponse(participant entities.Participant) httptransport.ParticipantResponse {
	return httptransport.ParticipantResponse{
		ParticipantID: participant.ParticipantID,
		DisplayName:   participant.DisplayName,
		Spectator:     participant.Spectator,
		Active:        participant.Active,
		JoinedAt:      participant.JoinedAt,
		LastSeenAt:    participant.LastSeenAt,
	}
}
