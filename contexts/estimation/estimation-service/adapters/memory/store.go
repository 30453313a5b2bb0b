// Package memory provides the in-memory estimation store used by tests
// and local development wiring. All conditional transitions happen under
// one mutex so the store gives the same atomicity guarantees as the
// Postgres adapter.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"pointdeck/contexts/estimation/estimation-service/domain/entities"
	domainerrors "pointdeck/contexts/estimation/estimation-service/domain/errors"
	"pointdeck/contexts/estimation/estimation-service/ports"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// Store keeps stories, votes, unlock requests, the outbox, and the
// participant projection in process memory.
type Store struct {
	mu           sync.Mutex
	stories      map[string]entities.Story
	votes        map[string]entities.Vote
	unlocks      map[string]map[string]entities.UnlockRequest
	comments     map[string][]entities.StoryComment
	participants map[string]ports.ParticipantRef
	outbox       []*outboxRecord
	nextSeq      int64
}

// NewStore builds an empty store.
func NewStore() *Store {
	return &Store{
		stories:      make(map[string]entities.Story),
		votes:        make(map[string]entities.Vote),
		unlocks:      make(map[string]map[string]entities.UnlockRequest),
		comments:     make(map[string][]entities.StoryComment),
		participants: make(map[string]ports.ParticipantRef),
	}
}

// Now implements ports.Clock for in-memory wiring.
func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

// NewID implements ports.IDGenerator for in-memory wiring.
func (s *Store) NewID(context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.StoryRepository = (*Store)(nil)
var _ ports.VoteRepository = (*Store)(nil)
var _ ports.UnlockRepository = (*Store)(nil)
var _ ports.CommentRepository = (*Store)(nil)
var _ ports.ParticipantDirectory = (*Store)(nil)
var _ ports.ParticipantProjectionWriter = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)

func voteKey(storyID string, participantID string, round int) string {
	return fmt.Sprintf("%s|%s|%d", storyID, participantID, round)
}

func (s *Store) CreateStory(_ context.Context, story entities.Story) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.stories[story.StoryID]; exists {
		return domainerrors.ErrConflict
	}
	s.stories[story.StoryID] = story
	return nil
}

func (s *Store) GetStory(_ context.Context, storyID string) (entities.Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	story, ok := s.stories[storyID]
	if !ok {
		return entities.Story{}, domainerrors.ErrStoryNotFound
	}
	return story, nil
}

func (s *Store) GetActiveStory(_ context.Context) (entities.Story, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	story, found := s.activeStoryLocked()
	return story, found, nil
}

func (s *Store) activeStoryLocked() (entities.Story, bool) {
	for _, story := range s.stories {
		if story.Active() {
			return story, true
		}
	}
	return entities.Story{}, false
}

func (s *Store) StartVotingExclusive(_ context.Context, storyID string, at time.Time) (entities.Story, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	story, ok := s.stories[storyID]
	if !ok {
		return entities.Story{}, false, domainerrors.ErrStoryNotFound
	}
	if story.Status != entities.StoryStatusPending {
		return story, false, nil
	}
	if _, taken := s.activeStoryLocked(); taken {
		return story, false, nil
	}

	story.Status = entities.StoryStatusVoting
	story.Round = 1
	story.Unlocked = false
	story.UpdatedAt = at
	s.stories[storyID] = story
	delete(s.unlocks, storyID)
	return story, true, nil
}

func (s *Store) MarkRevealed(_ context.Context, storyID string, at time.Time) (entities.Story, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	story, ok := s.stories[storyID]
	if !ok {
		return entities.Story{}, false, domainerrors.ErrStoryNotFound
	}
	if story.Status != entities.StoryStatusVoting {
		return story, false, nil
	}

	story.Status = entities.StoryStatusRevealed
	story.UpdatedAt = at
	s.stories[storyID] = story
	return story, true, nil
}

func (s *Store) CompleteStory(_ context.Context, storyID string, finalValue int, at time.Time) (entities.Story, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	story, ok := s.stories[storyID]
	if !ok {
		return entities.Story{}, false, domainerrors.ErrStoryNotFound
	}
	if story.Status != entities.StoryStatusRevealed {
		return story, false, nil
	}

	value := finalValue
	story.Status = entities.StoryStatusCompleted
	story.FinalValue = &value
	story.Unlocked = false
	story.UpdatedAt = at
	s.stories[storyID] = story
	delete(s.unlocks, storyID)
	return story, true, nil
}

func (s *Store) StartNextRound(_ context.Context, storyID string, at time.Time) (entities.Story, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	story, ok := s.stories[storyID]
	if !ok {
		return entities.Story{}, false, domainerrors.ErrStoryNotFound
	}
	if story.Status != entities.StoryStatusRevealed {
		return story, false, nil
	}

	story.Status = entities.StoryStatusVoting
	story.Round++
	story.Unlocked = false
	story.UpdatedAt = at
	s.stories[storyID] = story
	delete(s.unlocks, storyID)
	return story, true, nil
}

func (s *Store) ListPendingStories(_ context.Context) ([]entities.Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []entities.Story
	for _, story := range s.stories {
		if story.Status == entities.StoryStatusPending {
			pending = append(pending, story)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].StoryID < pending[j].StoryID
		}
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	return pending, nil
}

func (s *Store) NextAutoStartStory(ctx context.Context) (entities.Story, bool, error) {
	pending, err := s.ListPendingStories(ctx)
	if err != nil {
		return entities.Story{}, false, err
	}
	for _, story := range pending {
		if story.AutoStart {
			return story, true, nil
		}
	}
	return entities.Story{}, false, nil
}

func (s *Store) ListCompletedStories(_ context.Context, limit int) ([]entities.Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var completed []entities.Story
	for _, story := range s.stories {
		if story.Status == entities.StoryStatusCompleted {
			completed = append(completed, story)
		}
	}
	sort.Slice(completed, func(i, j int) bool {
		if completed[i].UpdatedAt.Equal(completed[j].UpdatedAt) {
			return completed[i].StoryID > completed[j].StoryID
		}
		return completed[i].UpdatedAt.After(completed[j].UpdatedAt)
	})
	if limit > 0 && len(completed) > limit {
		completed = completed[:limit]
	}
	return completed, nil
}

func (s *Store) CastVote(_ context.Context, vote entities.Vote) (entities.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	story, ok := s.stories[vote.StoryID]
	if !ok {
		return entities.Vote{}, domainerrors.ErrStoryNotFound
	}
	if story.Status != entities.StoryStatusVoting || story.Round != vote.Round {
		return entities.Vote{}, domainerrors.ErrVotingNotOpen
	}

	key := voteKey(vote.StoryID, vote.ParticipantID, vote.Round)
	if existing, found := s.votes[key]; found {
		existing.Value = vote.Value
		existing.UpdatedAt = vote.UpdatedAt
		s.votes[key] = existing
		return existing, nil
	}
	s.votes[key] = vote
	return vote, nil
}

func (s *Store) ListVotes(_ context.Context, storyID string, round int) ([]entities.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var votes []entities.Vote
	for _, vote := range s.votes {
		if vote.StoryID == storyID && vote.Round == round {
			votes = append(votes, vote)
		}
	}
	sortVotes(votes)
	return votes, nil
}

func (s *Store) ListVoterIDs(ctx context.Context, storyID string, round int) ([]string, error) {
	votes, err := s.ListVotes(ctx, storyID, round)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(votes))
	for _, vote := range votes {
		ids = append(ids, vote.ParticipantID)
	}
	return ids, nil
}

func (s *Store) ListAllVotes(_ context.Context, storyID string) ([]entities.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var votes []entities.Vote
	for _, vote := range s.votes {
		if vote.StoryID == storyID {
			votes = append(votes, vote)
		}
	}
	sortVotes(votes)
	return votes, nil
}

func sortVotes(votes []entities.Vote) {
	sort.Slice(votes, func(i, j int) bool {
		if votes[i].Round != votes[j].Round {
			return votes[i].Round < votes[j].Round
		}
		return votes[i].ParticipantID < votes[j].ParticipantID
	})
}

func (s *Store) AddUnlockRequest(_ context.Context, request entities.UnlockRequest) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.stories[request.StoryID]; !ok {
		return false, domainerrors.ErrStoryNotFound
	}
	requests, ok := s.unlocks[request.StoryID]
	if !ok {
		requests = make(map[string]entities.UnlockRequest)
		s.unlocks[request.StoryID] = requests
	}
	if _, exists := requests[request.ParticipantID]; exists {
		return false, nil
	}
	requests[request.ParticipantID] = request
	return true, nil
}

func (s *Store) CountUnlockRequests(_ context.Context, storyID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.unlocks[storyID]), nil
}

func (s *Store) MarkUnlocked(_ context.Context, storyID string, at time.Time) (entities.Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	story, ok := s.stories[storyID]
	if !ok {
		return entities.Story{}, domainerrors.ErrStoryNotFound
	}
	if !story.Unlocked {
		story.Unlocked = true
		story.UpdatedAt = at
		s.stories[storyID] = story
	}
	return story, nil
}

func (s *Store) AddComment(_ context.Context, comment entities.StoryComment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.stories[comment.StoryID]; !ok {
		return domainerrors.ErrStoryNotFound
	}
	s.comments[comment.StoryID] = append(s.comments[comment.StoryID], comment)
	return nil
}

func (s *Store) ListComments(_ context.Context, storyID string) ([]entities.StoryComment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := s.comments[storyID]
	comments := make([]entities.StoryComment, 0, len(stored))
	// Newest first; insertion order breaks created-at ties.
	for i := len(stored) - 1; i >= 0; i-- {
		comments = append(comments, stored[i])
	}
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CreatedAt.After(comments[j].CreatedAt)
	})
	return comments, nil
}

// UpsertParticipant applies a roster event to the participant projection.
func (s *Store) UpsertParticipant(_ context.Context, participant ports.ParticipantRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.participants[participant.ParticipantID] = participant
	return nil
}

// RemoveParticipant drops a departed participant from the projection.
func (s *Store) RemoveParticipant(_ context.Context, participantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.participants, participantID)
	return nil
}

func (s *Store) GetParticipant(_ context.Context, participantID string) (ports.ParticipantRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	participant, ok := s.participants[participantID]
	if !ok {
		return ports.ParticipantRef{}, domainerrors.ErrParticipantNotFound
	}
	return participant, nil
}

func (s *Store) CountActiveParticipants(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, participant := range s.participants {
		if !participant.Spectator {
			count++
		}
	}
	return count, nil
}

func (s *Store) ListActiveParticipantIDs(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for _, participant := range s.participants {
		if !participant.Spectator {
			ids = append(ids, participant.ParticipantID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) AppendOutbox(_ context.Context, event ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	s.nextSeq++
	s.outbox = append(s.outbox, &outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     event.EventID,
			Seq:          s.nextSeq,
			EventType:    event.EventType,
			PartitionKey: event.PartitionKey,
			Payload:      payload,
			CreatedAt:    event.OccurredAt,
		},
	})
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []ports.OutboxMessage
	for _, record := range s.outbox {
		if record.published {
			continue
		}
		pending = append(pending, record.message)
		if limit > 0 && len(pending) == limit {
			break
		}
	}
	return pending, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.outbox {
		if record.message.OutboxID == outboxID {
			record.published = true
			return nil
		}
	}
	return domainerrors.ErrConflict
}

func (s *Store) ListRecentOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := 0
	if limit > 0 && len(s.outbox) > limit {
		start = len(s.outbox) - limit
	}
	recent := make([]ports.OutboxMessage, 0, len(s.outbox)-start)
	for _, record := range s.outbox[start:] {
		recent = append(recent, record.message)
	}
	return recent, nil
}
