package commands

import (
	"context"
	"log/slog"
	"time"

	application "pointdeck/contexts/estimation/estimation-service/application"
	"pointdeck/contexts/estimation/estimation-service/domain/entities"
	domainerrors "pointdeck/contexts/estimation/estimation-service/domain/errors"
	"pointdeck/contexts/estimation/estimation-service/domain/services"
	"pointdeck/contexts/estimation/estimation-service/ports"
)

// revealContext is the slice of dependencies shared by the explicit reveal
// command and the auto-reveal path inside vote casting.
type revealContext struct {
	Stories ports.StoryRepository
	Votes   ports.VoteRepository
	Outbox  ports.OutboxWriter
	IDGen   ports.IDGenerator
	Logger  *slog.Logger
}

// reveal performs the voting -> revealed transition and resolves consensus
// over the current round. Only the caller whose conditional write lands
// emits the event; a racer that observes the post-state gets the same
// decision back as a no-op success.
func (rc revealContext) reveal(
	ctx context.Context,
	story entities.Story,
	trigger string,
	now time.Time,
) (entities.Story, services.Decision, bool, error) {
	logger := application.ResolveLogger(rc.Logger)

	votes, err := rc.Votes.ListVotes(ctx, story.StoryID, story.Round)
	if err != nil {
		return entities.Story{}, services.Decision{}, false, err
	}
	if len(votes) == 0 {
		return entities.Story{}, services.Decision{}, false, domainerrors.ErrNoVotesCast
	}

	decision, err := services.ResolveConsensus(voteValues(votes))
	if err != nil {
		return entities.Story{}, services.Decision{}, false, err
	}

	revealed, transitioned, err := rc.Stories.MarkRevealed(ctx, story.StoryID, now)
	if err != nil {
		return entities.Story{}, services.Decision{}, false, err
	}
	if !transitioned {
		// Someone else won the race; the deterministic resolver makes the
		// decision identical either way.
		if revealed.Status == entities.StoryStatusRevealed {
			return revealed, decision, false, nil
		}
		return entities.Story{}, services.Decision{}, false, domainerrors.ErrStoryNotRevealed
	}

	if err := rc.appendRevealedEvent(ctx, revealed, votes, decision, trigger, now); err != nil {
		return entities.Story{}, services.Decision{}, false, err
	}

	logger.Info("story revealed",
		"event", "estimation_story_revealed",
		"module", "estimation/estimation-service",
		"layer", "application",
		"story_id", revealed.StoryID,
		"round", revealed.Round,
		"trigger", trigger,
		"decision_type", string(decision.Type),
		"vote_count", len(votes),
	)
	return revealed, decision, true, nil
}

func (rc revealContext) appendRevealedEvent(
	ctx context.Context,
	story entities.Story,
	votes []entities.Vote,
	decision services.Decision,
	trigger string,
	occurredAt time.Time,
) error {
	if rc.Outbox == nil {
		return nil
	}
	eventID, err := rc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}

	// Vote values become visible to observers only on this event.
	voteData := make([]map[string]any, 0, len(votes))
	for _, vote := range votes {
		voteData = append(voteData, map[string]any{
			"participant_id": vote.ParticipantID,
			"value":          vote.Value,
		})
	}
	data := map[string]any{
		"story_id":      story.StoryID,
		"status":        string(story.Status),
		"round":         story.Round,
		"trigger":       trigger,
		"votes":         voteData,
		"decision_type": string(decision.Type),
		"primary":       decision.Primary,
	}
	if decision.Alternative != nil {
		data["alternative"] = *decision.Alternative
	}

	envelope, err := newEstimationEnvelope(eventID, "item.revealed", story.StoryID, occurredAt, data)
	if err != nil {
		return err
	}
	return rc.Outbox.AppendOutbox(ctx, envelope)
}

func voteValues(votes []entities.Vote) []int {
	values := make([]int, 0, len(votes))
	for _, vote := range votes {
		values = append(values, vote.Value)
	}
	return values
}
