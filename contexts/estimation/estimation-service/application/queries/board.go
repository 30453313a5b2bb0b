package queries

import (
	"context"
	"log/slog"
	"strings"

	"pointdeck/contexts/estimation/estimation-service/domain/entities"
	domainerrors "pointdeck/contexts/estimation/estimation-service/domain/errors"
	"pointdeck/contexts/estimation/estimation-service/domain/services"
	"pointdeck/contexts/estimation/estimation-service/ports"
)

// BoardVote is one vote as rendered on the board. Value is nil while the
// round is still hidden.
type BoardVote struct {
	ParticipantID string
	Value         *int
}

// BoardView is the read model for the main screen: the active story with
// hidden-until-reveal votes, quorum progress, and the pending queue.
type BoardView struct {
	Story        *entities.Story
	Votes        []BoardVote
	VotersCount  int
	ActiveCount  int
	Decision     *services.Decision
	UnlockCount  int
	PendingQueue []entities.Story
}

// StoryRoundVotes groups a story's audit trail by round.
type StoryRoundVotes struct {
	Round int
	Votes []entities.Vote
}

// BoardUseCase serves the read side. It never mutates state and never
// exposes vote values before the story is revealed.
type BoardUseCase struct {
	Stories      ports.StoryRepository
	Votes        ports.VoteRepository
	Unlocks      ports.UnlockRepository
	Comments     ports.CommentRepository
	Participants ports.ParticipantDirectory
	Logger       *slog.Logger
}

// Board assembles the current board. A board without an active story still
// carries the pending queue.
func (uc BoardUseCase) Board(ctx context.Context) (BoardView, error) {
	pending, err := uc.Stories.ListPendingStories(ctx)
	if err != nil {
		return BoardView{}, err
	}
	view := BoardView{PendingQueue: pending}

	active, found, err := uc.Stories.GetActiveStory(ctx)
	if err != nil {
		return BoardView{}, err
	}
	if !found {
		return view, nil
	}
	view.Story = &active

	activeCount, err := uc.Participants.CountActiveParticipants(ctx)
	if err != nil {
		return BoardView{}, err
	}
	view.ActiveCount = activeCount

	unlockCount, err := uc.Unlocks.CountUnlockRequests(ctx, active.StoryID)
	if err != nil {
		return BoardView{}, err
	}
	view.UnlockCount = unlockCount

	if active.Status == entities.StoryStatusRevealed {
		votes, err := uc.Votes.ListVotes(ctx, active.StoryID, active.Round)
		if err != nil {
			return BoardView{}, err
		}
		view.VotersCount = len(votes)
		view.Votes = make([]BoardVote, 0, len(votes))
		values := make([]int, 0, len(votes))
		for _, vote := range votes {
			value := vote.Value
			view.Votes = append(view.Votes, BoardVote{ParticipantID: vote.ParticipantID, Value: &value})
			values = append(values, vote.Value)
		}
		decision, err := services.ResolveConsensus(values)
		if err != nil {
			return BoardView{}, err
		}
		view.Decision = &decision
		return view, nil
	}

	// Voting in progress: who voted is public, what they voted is not.
	voterIDs, err := uc.Votes.ListVoterIDs(ctx, active.StoryID, active.Round)
	if err != nil {
		return BoardView{}, err
	}
	view.VotersCount = len(voterIDs)
	view.Votes = make([]BoardVote, 0, len(voterIDs))
	for _, id := range voterIDs {
		view.Votes = append(view.Votes, BoardVote{ParticipantID: id})
	}
	return view, nil
}

// PendingQueue lists queued stories in creation order.
func (uc BoardUseCase) PendingQueue(ctx context.Context) ([]entities.Story, error) {
	return uc.Stories.ListPendingStories(ctx)
}

// History lists completed stories, most recent first.
func (uc BoardUseCase) History(ctx context.Context, limit int) ([]entities.Story, error) {
	if limit <= 0 {
		limit = 50
	}
	return uc.Stories.ListCompletedStories(ctx, limit)
}

// StoryVotes returns the full per-round audit trail for a story. Values
// are only served once the story has been revealed or closed; a story
// still voting only exposes the current hidden round through Board.
func (uc BoardUseCase) StoryVotes(ctx context.Context, storyID string) ([]StoryRoundVotes, error) {
	storyID = strings.TrimSpace(storyID)
	if storyID == "" {
		return nil, domainerrors.ErrInvalidStoryInput
	}
	story, err := uc.Stories.GetStory(ctx, storyID)
	if err != nil {
		return nil, err
	}

	votes, err := uc.Votes.ListAllVotes(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if story.Status == entities.StoryStatusVoting || story.Status == entities.StoryStatusPending {
		// Drop the in-flight round; earlier revealed rounds stay auditable.
		filtered := votes[:0]
		for _, vote := range votes {
			if vote.Round < story.Round {
				filtered = append(filtered, vote)
			}
		}
		votes = filtered
	}

	var rounds []StoryRoundVotes
	for _, vote := range votes {
		if len(rounds) == 0 || rounds[len(rounds)-1].Round != vote.Round {
			rounds = append(rounds, StoryRoundVotes{Round: vote.Round})
		}
		last := &rounds[len(rounds)-1]
		last.Votes = append(last.Votes, vote)
	}
	return rounds, nil
}

// StoryComments lists a story's retrospective comments, newest first.
func (uc BoardUseCase) StoryComments(ctx context.Context, storyID string) ([]entities.StoryComment, error) {
	storyID = strings.TrimSpace(storyID)
	if storyID == "" {
		return nil, domainerrors.ErrInvalidStoryInput
	}
	if _, err := uc.Stories.GetStory(ctx, storyID); err != nil {
		return nil, err
	}
	return uc.Comments.ListComments(ctx, storyID)
}
