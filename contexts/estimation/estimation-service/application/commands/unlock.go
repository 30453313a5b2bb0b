package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "pointdeck/contexts/estimation/estimation-service/application"
	"pointdeck/contexts/estimation/estimation-service/domain/entities"
	domainerrors "pointdeck/contexts/estimation/estimation-service/domain/errors"
	"pointdeck/contexts/estimation/estimation-service/ports"
)

// DefaultUnlockThreshold is the quorum policy fallback: two distinct
// participants force-unlock reveal rights.
const DefaultUnlockThreshold = 2

// RequestUnlockCommand asks to force-unlock reveal rights for a story.
type RequestUnlockCommand struct {
	StoryID       string
	ParticipantID string
}

// RequestUnlockResult reports quorum progress for display ("1 of 2 needed").
type RequestUnlockResult struct {
	StoryID   string
	Count     int
	Threshold int
	Unlocked  bool
}

// UnlockUseCase accumulates override requests and flips the sticky unlock
// flag at the configured threshold. Requests are idempotent per
// participant.
type UnlockUseCase struct {
	Stories   ports.StoryRepository
	Unlocks   ports.UnlockRepository
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Threshold int
	Logger    *slog.Logger
}

// RequestUnlock records the request and re-evaluates the quorum.
func (uc UnlockUseCase) RequestUnlock(ctx context.Context, cmd RequestUnlockCommand) (RequestUnlockResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	storyID := strings.TrimSpace(cmd.StoryID)
	participantID := strings.TrimSpace(cmd.ParticipantID)
	if storyID == "" || participantID == "" {
		return RequestUnlockResult{}, domainerrors.ErrInvalidStoryInput
	}

	story, err := uc.Stories.GetStory(ctx, storyID)
	if err != nil {
		return RequestUnlockResult{}, err
	}

	now := uc.now()
	inserted, err := uc.Unlocks.AddUnlockRequest(ctx, entities.UnlockRequest{
		StoryID:       storyID,
		ParticipantID: participantID,
		RequestedAt:   now,
	})
	if err != nil {
		return RequestUnlockResult{}, err
	}
	count, err := uc.Unlocks.CountUnlockRequests(ctx, storyID)
	if err != nil {
		return RequestUnlockResult{}, err
	}

	threshold := uc.resolveThreshold()
	result := RequestUnlockResult{
		StoryID:   storyID,
		Count:     count,
		Threshold: threshold,
		Unlocked:  story.Unlocked,
	}
	if story.Unlocked || count < threshold {
		if inserted {
			logger.Info("unlock request recorded",
				"event", "estimation_unlock_requested",
				"module", "estimation/estimation-service",
				"layer", "application",
				"story_id", storyID,
				"participant_id", participantID,
				"count", count,
				"threshold", threshold,
			)
		}
		return result, nil
	}

	unlocked, err := uc.Unlocks.MarkUnlocked(ctx, storyID, now)
	if err != nil {
		return RequestUnlockResult{}, err
	}
	result.Unlocked = unlocked.Unlocked
	if err := uc.appendUnlockedEvent(ctx, unlocked, count, threshold, now); err != nil {
		return RequestUnlockResult{}, err
	}
	logger.Info("story unlocked by quorum",
		"event", "estimation_story_unlocked",
		"module", "estimation/estimation-service",
		"layer", "application",
		"story_id", storyID,
		"count", count,
		"threshold", threshold,
	)
	return result, nil
}

func (uc UnlockUseCase) resolveThreshold() int {
	if uc.Threshold <= 0 {
		return DefaultUnlockThreshold
	}
	return uc.Threshold
}

func (uc UnlockUseCase) appendUnlockedEvent(
	ctx context.Context,
	story entities.Story,
	count int,
	threshold int,
	occurredAt time.Time,
) error {
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newEstimationEnvelope(eventID, "item.unlocked", story.StoryID, occurredAt, map[string]any{
		"story_id":  story.StoryID,
		"status":    string(story.Status),
		"round":     story.Round,
		"count":     count,
		"threshold": threshold,
	})
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}

func (uc UnlockUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
