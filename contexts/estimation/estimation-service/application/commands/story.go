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

// CreateStoryCommand is the write-model input for story creation.
type CreateStoryCommand struct {
	OwnerID          string
	Title            string
	Description      string
	StartImmediately bool
	AutoStart        bool
}

// CreateStoryResult carries the snapshot the caller should render: the new
// story when it was created (and possibly started), or the already-active
// story when an immediate start lost the singleton race.
type CreateStoryResult struct {
	Story          entities.Story
	Created        bool
	Started        bool
	QueuedStoryID  string
	ActiveConflict bool
}

// StartVotingCommand starts a pending story's first round. Forced is the
// scheduler path: it skips the owner check because it runs as part of a
// completion step, never on behalf of a caller.
type StartVotingCommand struct {
	StoryID     string
	RequesterID string
	Forced      bool
}

// RevealCommand opens the cards for the active round.
type RevealCommand struct {
	StoryID     string
	RequesterID string
}

// RevealResult returns the revealed story plus the resolver decision.
// AlreadyRevealed marks the idempotent no-op path.
type RevealResult struct {
	Story           entities.Story
	Decision        services.Decision
	AlreadyRevealed bool
}

const (
	ResolutionFinalize = "finalize"
	ResolutionRevote   = "revote"
)

// ResolveCommand closes a revealed round: finalize with a scale value, or
// revote into the next round.
type ResolveCommand struct {
	StoryID    string
	Action     string
	FinalValue int
}

// ResolveResult reports the post-transition story. Replayed marks calls
// that observed the matching post-state instead of performing the
// transition. NextStory is set when the queue scheduler auto-started a
// successor in the same step.
type ResolveResult struct {
	Story     entities.Story
	Replayed  bool
	NextStory *entities.Story
}

// StoryUseCase orchestrates the story lifecycle: creation, the singleton
// active slot, reveal with consensus resolution, round resolution, and
// auto-start queue advancement.
type StoryUseCase struct {
	Stories          ports.StoryRepository
	Votes            ports.VoteRepository
	Outbox           ports.OutboxWriter
	Clock            ports.Clock
	IDGen            ports.IDGenerator
	AutoStartEnabled bool
	Logger           *slog.Logger
}

// CreateStory always creates a pending story; the backlog accepts new work
// while another story is active. An immediate start is attempted as a
// conditional write, and losing that race degrades to returning the
// existing active story instead of an error.
func (uc StoryUseCase) CreateStory(ctx context.Context, cmd CreateStoryCommand) (CreateStoryResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	title := strings.TrimSpace(cmd.Title)
	ownerID := strings.TrimSpace(cmd.OwnerID)
	if title == "" || ownerID == "" {
		logger.Warn("story create validation failed",
			"event", "estimation_story_create_validation_failed",
			"module", "estimation/estimation-service",
			"layer", "application",
			"owner_id", ownerID,
		)
		return CreateStoryResult{}, domainerrors.ErrInvalidStoryInput
	}

	now := uc.now()
	storyID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CreateStoryResult{}, err
	}
	story := entities.Story{
		StoryID:     storyID,
		Title:       title,
		Description: strings.TrimSpace(cmd.Description),
		OwnerID:     ownerID,
		Status:      entities.StoryStatusPending,
		Round:       0,
		AutoStart:   cmd.AutoStart,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.Stories.CreateStory(ctx, story); err != nil {
		return CreateStoryResult{}, err
	}
	if err := uc.appendStoryEvent(ctx, "item.created", story, now, map[string]any{
		"auto_start": story.AutoStart,
	}); err != nil {
		return CreateStoryResult{}, err
	}
	logger.Info("story created",
		"event", "estimation_story_created",
		"module", "estimation/estimation-service",
		"layer", "application",
		"story_id", story.StoryID,
		"owner_id", ownerID,
		"auto_start", story.AutoStart,
	)

	if !cmd.StartImmediately {
		return CreateStoryResult{Story: story, Created: true}, nil
	}

	started, transitioned, err := uc.Stories.StartVotingExclusive(ctx, story.StoryID, now)
	if err != nil {
		return CreateStoryResult{}, err
	}
	if !transitioned {
		active, found, err := uc.Stories.GetActiveStory(ctx)
		if err != nil {
			return CreateStoryResult{}, err
		}
		if !found {
			// The slot freed between the two reads; the story simply stays
			// queued rather than retrying here.
			return CreateStoryResult{Story: story, Created: true, QueuedStoryID: story.StoryID}, nil
		}
		logger.Info("story create degraded to active story",
			"event", "estimation_story_create_active_conflict",
			"module", "estimation/estimation-service",
			"layer", "application",
			"story_id", story.StoryID,
			"active_story_id", active.StoryID,
		)
		return CreateStoryResult{
			Story:          active,
			Created:        true,
			QueuedStoryID:  story.StoryID,
			ActiveConflict: true,
		}, nil
	}

	if err := uc.appendVotingStartedEvent(ctx, started, now); err != nil {
		return CreateStoryResult{}, err
	}
	return CreateStoryResult{Story: started, Created: true, Started: true}, nil
}

// StartVoting performs a manual (owner) or scheduler (forced) start.
func (uc StoryUseCase) StartVoting(ctx context.Context, cmd StartVotingCommand) (entities.Story, error) {
	logger := application.ResolveLogger(uc.Logger)
	storyID := strings.TrimSpace(cmd.StoryID)
	if storyID == "" {
		return entities.Story{}, domainerrors.ErrInvalidStoryInput
	}

	story, err := uc.Stories.GetStory(ctx, storyID)
	if err != nil {
		return entities.Story{}, err
	}
	if story.Status == entities.StoryStatusVoting {
		// A racer already started this story; the caller cannot tell who
		// was first and is not penalized for it.
		return story, nil
	}
	if story.Status != entities.StoryStatusPending {
		return entities.Story{}, domainerrors.ErrStoryNotPending
	}
	if !cmd.Forced && !strings.EqualFold(strings.TrimSpace(cmd.RequesterID), story.OwnerID) {
		logger.Warn("voting start denied for non-owner",
			"event", "estimation_voting_start_denied",
			"module", "estimation/estimation-service",
			"layer", "application",
			"story_id", storyID,
			"requester_id", strings.TrimSpace(cmd.RequesterID),
		)
		return entities.Story{}, domainerrors.ErrNotStoryOwner
	}

	now := uc.now()
	started, transitioned, err := uc.Stories.StartVotingExclusive(ctx, storyID, now)
	if err != nil {
		return entities.Story{}, err
	}
	if !transitioned {
		if started.Status == entities.StoryStatusVoting {
			return started, nil
		}
		return entities.Story{}, domainerrors.ErrActiveStoryExists
	}

	if err := uc.appendVotingStartedEvent(ctx, started, now); err != nil {
		return entities.Story{}, err
	}
	return started, nil
}

// Reveal opens the cards. Allowed for the owner, or anyone once the quorum
// unlocked the story.
func (uc StoryUseCase) Reveal(ctx context.Context, cmd RevealCommand) (RevealResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	storyID := strings.TrimSpace(cmd.StoryID)
	requesterID := strings.TrimSpace(cmd.RequesterID)
	if storyID == "" || requesterID == "" {
		return RevealResult{}, domainerrors.ErrInvalidStoryInput
	}

	story, err := uc.Stories.GetStory(ctx, storyID)
	if err != nil {
		return RevealResult{}, err
	}
	if story.Status == entities.StoryStatusRevealed {
		votes, err := uc.Votes.ListVotes(ctx, story.StoryID, story.Round)
		if err != nil {
			return RevealResult{}, err
		}
		decision, err := services.ResolveConsensus(voteValues(votes))
		if err != nil {
			return RevealResult{}, err
		}
		return RevealResult{Story: story, Decision: decision, AlreadyRevealed: true}, nil
	}
	if story.Status != entities.StoryStatusVoting {
		return RevealResult{}, domainerrors.ErrVotingNotOpen
	}
	if !strings.EqualFold(requesterID, story.OwnerID) && !story.Unlocked {
		logger.Warn("reveal denied",
			"event", "estimation_reveal_denied",
			"module", "estimation/estimation-service",
			"layer", "application",
			"story_id", storyID,
			"requester_id", requesterID,
			"unlocked", story.Unlocked,
		)
		return RevealResult{}, domainerrors.ErrRevealNotAllowed
	}

	revealed, decision, transitioned, err := uc.revealContext().reveal(ctx, story, "manual", uc.now())
	if err != nil {
		return RevealResult{}, err
	}
	return RevealResult{Story: revealed, Decision: decision, AlreadyRevealed: !transitioned}, nil
}

// Resolve closes a revealed round. finalize sets the immutable final value
// and lets the queue scheduler advance in the same step; revote starts the
// next round. A call that observes the matching post-state is a no-op
// success so racing resolvers are never punished.
func (uc StoryUseCase) Resolve(ctx context.Context, cmd ResolveCommand) (ResolveResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	storyID := strings.TrimSpace(cmd.StoryID)
	if storyID == "" {
		return ResolveResult{}, domainerrors.ErrInvalidStoryInput
	}

	switch strings.ToLower(strings.TrimSpace(cmd.Action)) {
	case ResolutionFinalize:
		if !entities.OnScale(cmd.FinalValue) {
			logger.Warn("resolution rejected off-scale value",
				"event", "estimation_resolve_validation_failed",
				"module", "estimation/estimation-service",
				"layer", "application",
				"story_id", storyID,
				"final_value", cmd.FinalValue,
			)
			return ResolveResult{}, domainerrors.ErrValueNotOnScale
		}
		return uc.finalize(ctx, storyID, cmd.FinalValue)
	case ResolutionRevote:
		return uc.revote(ctx, storyID)
	default:
		return ResolveResult{}, domainerrors.ErrInvalidResolution
	}
}

func (uc StoryUseCase) finalize(ctx context.Context, storyID string, finalValue int) (ResolveResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	story, err := uc.Stories.GetStory(ctx, storyID)
	if err != nil {
		return ResolveResult{}, err
	}
	if story.Status == entities.StoryStatusCompleted {
		return ResolveResult{Story: story, Replayed: true}, nil
	}
	if story.Status != entities.StoryStatusRevealed {
		return ResolveResult{}, domainerrors.ErrStoryNotRevealed
	}

	now := uc.now()
	completed, transitioned, err := uc.Stories.CompleteStory(ctx, storyID, finalValue, now)
	if err != nil {
		return ResolveResult{}, err
	}
	if !transitioned {
		if completed.Status == entities.StoryStatusCompleted {
			return ResolveResult{Story: completed, Replayed: true}, nil
		}
		return ResolveResult{}, domainerrors.ErrStoryNotRevealed
	}

	if err := uc.appendStoryEvent(ctx, "item.completed", completed, now, map[string]any{
		"final_value": finalValue,
	}); err != nil {
		return ResolveResult{}, err
	}
	logger.Info("story completed",
		"event", "estimation_story_completed",
		"module", "estimation/estimation-service",
		"layer", "application",
		"story_id", completed.StoryID,
		"final_value", finalValue,
		"round", completed.Round,
	)

	next, err := uc.advanceQueue(ctx, now)
	if err != nil {
		return ResolveResult{}, err
	}
	return ResolveResult{Story: completed, NextStory: next}, nil
}

func (uc StoryUseCase) revote(ctx context.Context, storyID string) (ResolveResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	story, err := uc.Stories.GetStory(ctx, storyID)
	if err != nil {
		return ResolveResult{}, err
	}
	if story.Status == entities.StoryStatusVoting {
		return ResolveResult{Story: story, Replayed: true}, nil
	}
	if story.Status != entities.StoryStatusRevealed {
		return ResolveResult{}, domainerrors.ErrStoryNotRevealed
	}

	now := uc.now()
	next, transitioned, err := uc.Stories.StartNextRound(ctx, storyID, now)
	if err != nil {
		return ResolveResult{}, err
	}
	if !transitioned {
		if next.Status == entities.StoryStatusVoting {
			return ResolveResult{Story: next, Replayed: true}, nil
		}
		return ResolveResult{}, domainerrors.ErrStoryNotRevealed
	}

	if err := uc.appendStoryEvent(ctx, "round.started", next, now, nil); err != nil {
		return ResolveResult{}, err
	}
	logger.Info("round started",
		"event", "estimation_round_started",
		"module", "estimation/estimation-service",
		"layer", "application",
		"story_id", next.StoryID,
		"round", next.Round,
	)
	return ResolveResult{Story: next}, nil
}

// advanceQueue starts the oldest auto-start candidate as part of the
// completion step, so observers never see an empty active slot while a
// candidate exists.
func (uc StoryUseCase) advanceQueue(ctx context.Context, now time.Time) (*entities.Story, error) {
	if !uc.AutoStartEnabled {
		return nil, nil
	}
	logger := application.ResolveLogger(uc.Logger)

	candidate, found, err := uc.Stories.NextAutoStartStory(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	started, transitioned, err := uc.Stories.StartVotingExclusive(ctx, candidate.StoryID, now)
	if err != nil {
		return nil, err
	}
	if !transitioned {
		// Someone claimed the slot between completion and advancement.
		return nil, nil
	}
	if err := uc.appendVotingStartedEvent(ctx, started, now); err != nil {
		return nil, err
	}
	logger.Info("queue auto-started next story",
		"event", "estimation_queue_auto_started",
		"module", "estimation/estimation-service",
		"layer", "application",
		"story_id", started.StoryID,
	)
	return &started, nil
}

func (uc StoryUseCase) revealContext() revealContext {
	return revealContext{
		Stories: uc.Stories,
		Votes:   uc.Votes,
		Outbox:  uc.Outbox,
		IDGen:   uc.IDGen,
		Logger:  uc.Logger,
	}
}

func (uc StoryUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

func (uc StoryUseCase) appendVotingStartedEvent(ctx context.Context, story entities.Story, occurredAt time.Time) error {
	return uc.appendStoryEvent(ctx, "voting.started", story, occurredAt, nil)
}

func (uc StoryUseCase) appendStoryEvent(
	ctx context.Context,
	eventType string,
	story entities.Story,
	occurredAt time.Time,
	metadata map[string]any,
) error {
	// Outbox is optional for pure read/test wiring, so nil is treated as no-op.
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	data := map[string]any{
		"story_id": story.StoryID,
		"status":   string(story.Status),
		"round":    story.Round,
	}
	for key, value := range metadata {
		data[key] = value
	}
	envelope, err := newEstimationEnvelope(eventID, eventType, story.StoryID, occurredAt, data)
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}
