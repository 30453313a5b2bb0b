package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"

	"pointdeck/contexts/estimation/estimation-service/application/commands"
	"pointdeck/contexts/estimation/estimation-service/application/queries"
	"pointdeck/contexts/estimation/estimation-service/domain/entities"
	"pointdeck/contexts/estimation/estimation-service/domain/services"
	httptransport "pointdeck/contexts/estimation/estimation-service/transport/http"
)

// Handler maps transport DTOs onto the application layer. The caller
// identity arrives as an argument because the HTTP server owns header
// parsing.
type Handler struct {
	Stories  commands.StoryUseCase
	Votes    commands.VoteUseCase
	Unlocks  commands.UnlockUseCase
	Comments commands.CommentUseCase
	Board    queries.BoardUseCase
	Feed     queries.EventFeedUseCase
	Logger   *slog.Logger
}

func (h Handler) CreateStoryHandler(
	ctx context.Context,
	ownerID string,
	req httptransport.CreateStoryRequest,
) (httptransport.CreateStoryResponse, error) {
	result, err := h.Stories.CreateStory(ctx, commands.CreateStoryCommand{
		OwnerID:          ownerID,
		Title:            req.Title,
		Description:      req.Description,
		StartImmediately: req.StartImmediately,
		AutoStart:        req.AutoStart,
	})
	if err != nil {
		return httptransport.CreateStoryResponse{}, err
	}
	return httptransport.CreateStoryResponse{
		Story:          storyResponse(result.Story),
		Started:        result.Started,
		QueuedStoryID:  result.QueuedStoryID,
		ActiveConflict: result.ActiveConflict,
	}, nil
}

func (h Handler) StartVotingHandler(ctx context.Context, storyID string, requesterID string) (httptransport.StoryResponse, error) {
	story, err := h.Stories.StartVoting(ctx, commands.StartVotingCommand{
		StoryID:     storyID,
		RequesterID: requesterID,
	})
	if err != nil {
		return httptransport.StoryResponse{}, err
	}
	return storyResponse(story), nil
}

func (h Handler) CastVoteHandler(
	ctx context.Context,
	storyID string,
	participantID string,
	req httptransport.CastVoteRequest,
) (httptransport.CastVoteResponse, error) {
	result, err := h.Votes.CastVote(ctx, commands.CastVoteCommand{
		StoryID:       storyID,
		ParticipantID: participantID,
		Value:         req.Value,
	})
	if err != nil {
		return httptransport.CastVoteResponse{}, err
	}
	return httptransport.CastVoteResponse{
		StoryID:      result.Story.StoryID,
		Round:        result.Vote.Round,
		VotersCount:  result.VotersCount,
		ActiveCount:  result.ActiveCount,
		AutoRevealed: result.AutoRevealed,
		Decision:     decisionResponse(result.Decision),
	}, nil
}

func (h Handler) RevealHandler(ctx context.Context, storyID string, requesterID string) (httptransport.RevealResponse, error) {
	result, err := h.Stories.Reveal(ctx, commands.RevealCommand{
		StoryID:     storyID,
		RequesterID: requesterID,
	})
	if err != nil {
		return httptransport.RevealResponse{}, err
	}
	return httptransport.RevealResponse{
		Story:           storyResponse(result.Story),
		Decision:        *decisionResponse(&result.Decision),
		AlreadyRevealed: result.AlreadyRevealed,
	}, nil
}

func (h Handler) ResolveHandler(
	ctx context.Context,
	storyID string,
	req httptransport.ResolveRequest,
) (httptransport.ResolveResponse, error) {
	result, err := h.Stories.Resolve(ctx, commands.ResolveCommand{
		StoryID:    storyID,
		Action:     req.Action,
		FinalValue: req.FinalValue,
	})
	if err != nil {
		return httptransport.ResolveResponse{}, err
	}
	response := httptransport.ResolveResponse{
		Story:    storyResponse(result.Story),
		Replayed: result.Replayed,
	}
	if result.NextStory != nil {
		next := storyResponse(*result.NextStory)
		response.NextStory = &next
	}
	return response, nil
}

func (h Handler) RequestUnlockHandler(ctx context.Context, storyID string, participantID string) (httptransport.UnlockResponse, error) {
	result, err := h.Unlocks.RequestUnlock(ctx, commands.RequestUnlockCommand{
		StoryID:       storyID,
		ParticipantID: participantID,
	})
	if err != nil {
		return httptransport.UnlockResponse{}, err
	}
	return httptransport.UnlockResponse{
		StoryID:   result.StoryID,
		Count:     result.Count,
		Threshold: result.Threshold,
		Unlocked:  result.Unlocked,
	}, nil
}

func (h Handler) AddCommentHandler(
	ctx context.Context,
	storyID string,
	participantID string,
	req httptransport.CommentRequest,
) (httptransport.CommentResponse, error) {
	result, err := h.Comments.AddComment(ctx, commands.AddCommentCommand{
		StoryID:       storyID,
		ParticipantID: participantID,
		Text:          req.Text,
		Type:          req.Type,
	})
	if err != nil {
		return httptransport.CommentResponse{}, err
	}
	return commentResponse(result.Comment), nil
}

func (h Handler) ListCommentsHandler(ctx context.Context, storyID string) (httptransport.CommentsResponse, error) {
	comments, err := h.Board.StoryComments(ctx, storyID)
	if err != nil {
		return httptransport.CommentsResponse{}, err
	}
	response := httptransport.CommentsResponse{
		StoryID: storyID,
		Items:   make([]httptransport.CommentResponse, 0, len(comments)),
	}
	for _, comment := range comments {
		response.Items = append(response.Items, commentResponse(comment))
	}
	return response, nil
}

func (h Handler) BoardHandler(ctx context.Context) (httptransport.BoardResponse, error) {
	view, err := h.Board.Board(ctx)
	if err != nil {
		return httptransport.BoardResponse{}, err
	}

	response := httptransport.BoardResponse{
		Votes:        make([]httptransport.BoardVoteItem, 0, len(view.Votes)),
		VotersCount:  view.VotersCount,
		ActiveCount:  view.ActiveCount,
		Decision:     decisionResponse(view.Decision),
		UnlockCount:  view.UnlockCount,
		PendingQueue: storyResponses(view.PendingQueue),
	}
	if view.Story != nil {
		story := storyResponse(*view.Story)
		response.Story = &story
	}
	for _, vote := range view.Votes {
		response.Votes = append(response.Votes, httptransport.BoardVoteItem{
			ParticipantID: vote.ParticipantID,
			Value:         vote.Value,
		})
	}
	return response, nil
}

func (h Handler) PendingQueueHandler(ctx context.Context) (httptransport.QueueResponse, error) {
	stories, err := h.Board.PendingQueue(ctx)
	if err != nil {
		return httptransport.QueueResponse{}, err
	}
	return httptransport.QueueResponse{Items: storyResponses(stories)}, nil
}

func (h Handler) HistoryHandler(ctx context.Context, limit int) (httptransport.HistoryResponse, error) {
	stories, err := h.Board.History(ctx, limit)
	if err != nil {
		return httptransport.HistoryResponse{}, err
	}
	return httptransport.HistoryResponse{Items: storyResponses(stories)}, nil
}

func (h Handler) StoryVotesHandler(ctx context.Context, storyID string) (httptransport.StoryVotesResponse, error) {
	rounds, err := h.Board.StoryVotes(ctx, storyID)
	if err != nil {
		return httptransport.StoryVotesResponse{}, err
	}
	response := httptransport.StoryVotesResponse{
		StoryID: storyID,
		Rounds:  make([]httptransport.RoundVotesItem, 0, len(rounds)),
	}
	for _, round := range rounds {
		item := httptransport.RoundVotesItem{
			Round: round.Round,
			Votes: make([]httptransport.VoteItem, 0, len(round.Votes)),
		}
		for _, vote := range round.Votes {
			item.Votes = append(item.Votes, httptransport.VoteItem{
				ParticipantID: vote.ParticipantID,
				Value:         vote.Value,
				CastAt:        vote.UpdatedAt,
			})
		}
		response.Rounds = append(response.Rounds, item)
	}
	return response, nil
}

func (h Handler) RecentEventsHandler(ctx context.Context, limit int) (httptransport.FeedResponse, error) {
	events, err := h.Feed.RecentEvents(ctx, limit)
	if err != nil {
		return httptransport.FeedResponse{}, err
	}
	response := httptransport.FeedResponse{
		Items: make([]httptransport.FeedEventItem, 0, len(events)),
	}
	for _, event := range events {
		var data any
		if len(event.Envelope.Data) > 0 {
			if err := json.Unmarshal(event.Envelope.Data, &data); err != nil {
				data = nil
			}
		}
		response.Items = append(response.Items, httptransport.FeedEventItem{
			Seq:        event.Seq,
			EventID:    event.Envelope.EventID,
			EventType:  event.EventType,
			OccurredAt: event.Envelope.OccurredAt,
			Data:       data,
		})
	}
	return response, nil
}

func storyResponse(story entities.Story) httptransport.StoryResponse {
	return httptransport.StoryResponse{
		StoryID:     story.StoryID,
		Title:       story.Title,
		Description: story.Description,
		OwnerID:     story.OwnerID,
		Status:      string(story.Status),
		Round:       story.Round,
		Unlocked:    story.Unlocked,
		FinalValue:  story.FinalValue,
		AutoStart:   story.AutoStart,
		CreatedAt:   story.CreatedAt,
		UpdatedAt:   story.UpdatedAt,
	}
}

func storyResponses(stories []entities.Story) []httptransport.StoryResponse {
	items := make([]httptransport.StoryResponse, 0, len(stories))
	for _, story := range stories {
		items = append(items, storyResponse(story))
	}
	return items
}

func commentResponse(comment entities.StoryComment) httptransport.CommentResponse {
	return httptransport.CommentResponse{
		CommentID: comment.CommentID,
		StoryID:   comment.StoryID,
		AuthorID:  comment.AuthorID,
		Text:      comment.Text,
		Type:      string(comment.Type),
		CreatedAt: comment.CreatedAt,
	}
}

func decisionResponse(decision *services.Decision) *httptransport.DecisionResponse {
	if decision == nil {
		return nil
	}
	return &httptransport.DecisionResponse{
		Type:        string(decision.Type),
		Primary:     decision.Primary,
		Alternative: decision.Alternative,
	}
}
