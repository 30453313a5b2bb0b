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

// AddCommentCommand attaches a retrospective note to a completed story.
type AddCommentCommand struct {
	StoryID       string
	ParticipantID string
	Text          string
	Type          string
}

// AddCommentResult returns the stored comment.
type AddCommentResult struct {
	Comment entities.StoryComment
}

// CommentUseCase appends retrospective comments. Comments are accepted
// only once the story is completed; stories still in play have no
// discussion thread.
type CommentUseCase struct {
	Stories  ports.StoryRepository
	Comments ports.CommentRepository
	Outbox   ports.OutboxWriter
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger
}

// AddComment validates, guards on the completed status, and stores the
// comment. An omitted type defaults to general.
func (uc CommentUseCase) AddComment(ctx context.Context, cmd AddCommentCommand) (AddCommentResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	storyID := strings.TrimSpace(cmd.StoryID)
	participantID := strings.TrimSpace(cmd.ParticipantID)
	if storyID == "" || participantID == "" {
		return AddCommentResult{}, domainerrors.ErrInvalidStoryInput
	}

	text := strings.TrimSpace(cmd.Text)
	if text == "" {
		logger.Warn("comment validation failed",
			"event", "estimation_comment_validation_failed",
			"module", "estimation/estimation-service",
			"layer", "application",
			"story_id", storyID,
			"participant_id", participantID,
		)
		return AddCommentResult{}, domainerrors.ErrInvalidCommentInput
	}
	commentType := entities.CommentType(strings.ToLower(strings.TrimSpace(cmd.Type)))
	if commentType == "" {
		commentType = entities.CommentTypeGeneral
	}
	if !entities.ValidCommentType(commentType) {
		return AddCommentResult{}, domainerrors.ErrInvalidCommentInput
	}

	story, err := uc.Stories.GetStory(ctx, storyID)
	if err != nil {
		return AddCommentResult{}, err
	}
	if story.Status != entities.StoryStatusCompleted {
		logger.Warn("comment rejected for unfinished story",
			"event", "estimation_comment_rejected",
			"module", "estimation/estimation-service",
			"layer", "application",
			"story_id", storyID,
			"status", string(story.Status),
		)
		return AddCommentResult{}, domainerrors.ErrStoryNotCompleted
	}

	now := uc.now()
	commentID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return AddCommentResult{}, err
	}
	comment := entities.StoryComment{
		CommentID: commentID,
		StoryID:   storyID,
		AuthorID:  participantID,
		Text:      text,
		Type:      commentType,
		CreatedAt: now,
	}
	if err := uc.Comments.AddComment(ctx, comment); err != nil {
		return AddCommentResult{}, err
	}

	if err := uc.appendCommentEvent(ctx, comment, now); err != nil {
		return AddCommentResult{}, err
	}
	logger.Info("comment added",
		"event", "estimation_comment_added",
		"module", "estimation/estimation-service",
		"layer", "application",
		"story_id", storyID,
		"comment_id", commentID,
		"comment_type", string(commentType),
	)
	return AddCommentResult{Comment: comment}, nil
}

func (uc CommentUseCase) appendCommentEvent(ctx context.Context, comment entities.StoryComment, occurredAt time.Time) error {
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newEstimationEnvelope(eventID, "comment.added", comment.StoryID, occurredAt, map[string]any{
		"story_id":     comment.StoryID,
		"comment_id":   comment.CommentID,
		"author_id":    comment.AuthorID,
		"comment_type": string(comment.Type),
	})
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}

func (uc CommentUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
