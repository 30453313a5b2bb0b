package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "pointdeck/contexts/estimation/estimation-service/application"
	"pointdeck/contexts/estimation/estimation-service/domain/entities"
	domainerrors "pointdeck/contexts/estimation/estimation-service/domain/errors"
	"pointdeck/contexts/estimation/estimation-service/domain/services"
	"pointdeck/contexts/estimation/estimation-service/ports"
)

// CastVoteCommand is the write-model input for vote casting.
type CastVoteCommand struct {
	StoryID       string
	ParticipantID string
	Value         int
}

// CastVoteResult returns the recorded vote plus round progress. When every
// active participant has voted and auto-reveal is enabled, the reveal
// happens inside the same call and Decision is populated.
type CastVoteResult struct {
	Vote         entities.Vote
	VotersCount  int
	ActiveCount  int
	AutoRevealed bool
	Story        entities.Story
	Decision     *services.Decision
}

// VoteUseCase owns the vote ledger writes and the auto-reveal quorum check.
// Values stay hidden at this boundary; the vote.cast event carries counts
// only.
type VoteUseCase struct {
	Stories           ports.StoryRepository
	Votes             ports.VoteRepository
	Participants      ports.ParticipantDirectory
	Outbox            ports.OutboxWriter
	Clock             ports.Clock
	IDGen             ports.IDGenerator
	AutoRevealEnabled bool
	Logger            *slog.Logger
}

// CastVote upserts a vote for (story, participant, round). Re-casting in
// the same round overwrites; casting after the story left voting fails.
func (uc VoteUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (CastVoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	storyID := strings.TrimSpace(cmd.StoryID)
	participantID := strings.TrimSpace(cmd.ParticipantID)
	if storyID == "" || participantID == "" {
		logger.Warn("vote cast validation failed",
			"event", "estimation_vote_cast_validation_failed",
			"module", "estimation/estimation-service",
			"layer", "application",
			"story_id", storyID,
			"participant_id", participantID,
		)
		return CastVoteResult{}, domainerrors.ErrInvalidStoryInput
	}
	if !entities.OnScale(cmd.Value) {
		logger.Warn("vote cast rejected off-scale value",
			"event", "estimation_vote_cast_off_scale",
			"module", "estimation/estimation-service",
			"layer", "application",
			"story_id", storyID,
			"participant_id", participantID,
			"value", cmd.Value,
		)
		return CastVoteResult{}, domainerrors.ErrValueNotOnScale
	}

	story, err := uc.Stories.GetStory(ctx, storyID)
	if err != nil {
		return CastVoteResult{}, err
	}
	if story.Status != entities.StoryStatusVoting {
		return CastVoteResult{}, domainerrors.ErrVotingNotOpen
	}

	participant, err := uc.Participants.GetParticipant(ctx, participantID)
	if err != nil {
		return CastVoteResult{}, err
	}
	if participant.Spectator {
		return CastVoteResult{}, domainerrors.ErrSpectatorCannotVote
	}

	now := uc.now()
	voteID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CastVoteResult{}, err
	}
	vote, err := uc.Votes.CastVote(ctx, entities.Vote{
		VoteID:        voteID,
		StoryID:       storyID,
		ParticipantID: participantID,
		Round:         story.Round,
		Value:         cmd.Value,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return CastVoteResult{}, err
	}

	voterIDs, err := uc.Votes.ListVoterIDs(ctx, storyID, story.Round)
	if err != nil {
		return CastVoteResult{}, err
	}
	activeCount, err := uc.Participants.CountActiveParticipants(ctx)
	if err != nil {
		return CastVoteResult{}, err
	}

	if err := uc.appendVoteCastEvent(ctx, story, participantID, len(voterIDs), activeCount, now); err != nil {
		return CastVoteResult{}, err
	}
	logger.Info("vote cast",
		"event", "estimation_vote_cast",
		"module", "estimation/estimation-service",
		"layer", "application",
		"story_id", storyID,
		"participant_id", participantID,
		"round", story.Round,
		"voters_count", len(voterIDs),
		"active_count", activeCount,
	)

	result := CastVoteResult{
		Vote:        vote,
		VotersCount: len(voterIDs),
		ActiveCount: activeCount,
		Story:       story,
	}

	if !uc.AutoRevealEnabled || !uc.everyActiveParticipantVoted(ctx, voterIDs) {
		return result, nil
	}

	revealed, decision, _, err := uc.revealContext().reveal(ctx, story, "auto", now)
	if err != nil {
		// The cast itself committed; auto-reveal losing a race to an
		// explicit reveal is not a caller error.
		if err == domainerrors.ErrStoryNotRevealed || err == domainerrors.ErrVotingNotOpen {
			return result, nil
		}
		return CastVoteResult{}, err
	}
	result.AutoRevealed = true
	result.Story = revealed
	result.Decision = &decision
	return result, nil
}

// everyActiveParticipantVoted compares the voter set against the current
// non-spectator roster.
func (uc VoteUseCase) everyActiveParticipantVoted(ctx context.Context, voterIDs []string) bool {
	activeIDs, err := uc.Participants.ListActiveParticipantIDs(ctx)
	if err != nil || len(activeIDs) == 0 {
		return false
	}
	voted := make(map[string]struct{}, len(voterIDs))
	for _, id := range voterIDs {
		voted[id] = struct{}{}
	}
	for _, id := range activeIDs {
		if _, ok := voted[id]; !ok {
			return false
		}
	}
	return true
}

func (uc VoteUseCase) appendVoteCastEvent(
	ctx context.Context,
	story entities.Story,
	participantID string,
	votersCount int,
	activeCount int,
	occurredAt time.Time,
) error {
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	// No value in the payload: votes stay hidden until reveal.
	envelope, err := newEstimationEnvelope(eventID, "vote.cast", story.StoryID, occurredAt, map[string]any{
		"story_id":       story.StoryID,
		"status":         string(story.Status),
		"round":          story.Round,
		"participant_id": participantID,
		"voters_count":   votersCount,
		"active_count":   activeCount,
	})
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}

func (uc VoteUseCase) revealContext() revealContext {
	return revealContext{
		Stories: uc.Stories,
		Votes:   uc.Votes,
		Outbox:  uc.Outbox,
		IDGen:   uc.IDGen,
		Logger:  uc.Logger,
	}
}

func (uc VoteUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
