package ports

import (
	"context"
	"time"

	"pointdeck/contexts/estimation/estimation-service/domain/entities"
	contractsv1 "pointdeck/contracts/gen/events/v1"
)

// StoryRepository owns story persistence. Status transitions are expressed
// as conditional writes so concurrent processes enforce the same
// singleton-active invariant; the bool result reports whether this call
// performed the transition.
type StoryRepository interface {
	CreateStory(ctx context.Context, story entities.Story) error
	GetStory(ctx context.Context, storyID string) (entities.Story, error)
	GetActiveStory(ctx context.Context) (entities.Story, bool, error)
	// StartVotingExclusive transitions pending -> voting (round 1) iff no
	// story is active anywhere in the store. Unlock requests filed before
	// the transition are discarded with it.
	StartVotingExclusive(ctx context.Context, storyID string, at time.Time) (entities.Story, bool, error)
	// MarkRevealed transitions voting -> revealed.
	MarkRevealed(ctx context.Context, storyID string, at time.Time) (entities.Story, bool, error)
	// CompleteStory transitions revealed -> completed, sets the immutable
	// final value, and clears unlock state in the same write.
	CompleteStory(ctx context.Context, storyID string, finalValue int, at time.Time) (entities.Story, bool, error)
	// StartNextRound transitions revealed -> voting with round+1 and resets
	// unlock state. Prior-round votes are retained for audit.
	StartNextRound(ctx context.Context, storyID string, at time.Time) (entities.Story, bool, error)
	ListPendingStories(ctx context.Context) ([]entities.Story, error)
	// NextAutoStartStory returns the oldest pending story flagged for
	// auto-start, if any.
	NextAutoStartStory(ctx context.Context) (entities.Story, bool, error)
	ListCompletedStories(ctx context.Context, limit int) ([]entities.Story, error)
}

// VoteRepository is the append-only vote ledger.
type VoteRepository interface {
	// CastVote upserts on (story_id, participant_id, round) while the story
	// is still voting; it fails with ErrVotingNotOpen once the story left
	// that status, checked atomically against the story row.
	CastVote(ctx context.Context, vote entities.Vote) (entities.Vote, error)
	ListVotes(ctx context.Context, storyID string, round int) ([]entities.Vote, error)
	// ListVoterIDs exposes who voted without exposing values, supporting
	// hidden-until-reveal reads.
	ListVoterIDs(ctx context.Context, storyID string, round int) ([]string, error)
	ListAllVotes(ctx context.Context, storyID string) ([]entities.Vote, error)
}

// UnlockRepository tracks quorum requests to force-unlock reveal rights.
type UnlockRepository interface {
	// AddUnlockRequest inserts; false means this participant already
	// requested, which keeps the operation idempotent.
	AddUnlockRequest(ctx context.Context, request entities.UnlockRequest) (bool, error)
	CountUnlockRequests(ctx context.Context, storyID string) (int, error)
	// MarkUnlocked flips the sticky unlocked flag once quorum is reached.
	MarkUnlocked(ctx context.Context, storyID string, at time.Time) (entities.Story, error)
}

// CommentRepository stores retrospective comments on completed stories.
type CommentRepository interface {
	AddComment(ctx context.Context, comment entities.StoryComment) error
	// ListComments returns a story's comments newest first.
	ListComments(ctx context.Context, storyID string) ([]entities.StoryComment, error)
}

// ParticipantRef is the read-only projection of a participant owned by the
// participant service.
type ParticipantRef struct {
	ParticipantID string
	DisplayName   string
	Spectator     bool
}

// ParticipantDirectory resolves participants for vote eligibility and the
// auto-reveal quorum. Spectators are excluded from the active count.
type ParticipantDirectory interface {
	GetParticipant(ctx context.Context, participantID string) (ParticipantRef, error)
	CountActiveParticipants(ctx context.Context) (int, error)
	ListActiveParticipantIDs(ctx context.Context) ([]string, error)
}

// ParticipantProjectionWriter keeps the local participant projection in
// step with participant-service roster events.
type ParticipantProjectionWriter interface {
	UpsertParticipant(ctx context.Context, participant ParticipantRef) error
	RemoveParticipant(ctx context.Context, participantID string) error
}

// OutboxMessage is a committed transition ready to relay. Seq is the
// store-assigned commit order that observers rely on.
type OutboxMessage struct {
	OutboxID     string
	Seq          int64
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

// OutboxWriter appends an event in the same logical step as the state
// change it describes.
type OutboxWriter interface {
	AppendOutbox(ctx context.Context, event EventEnvelope) error
}

// OutboxRepository models worker-side polling/acknowledgement plus the
// committed event feed.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
	// ListRecentOutbox returns the most recent committed events in sequence
	// order, published or not.
	ListRecentOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
}

// Clock allows deterministic testing of time-dependent rules.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts story/vote/event identifier generation.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// EventEnvelope reuses the canonical cross-runtime envelope contract.
type EventEnvelope = contractsv1.Envelope

// EventPublisher publishes canonical envelopes to a topic.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

// EventSubscriber delivers canonical envelopes from a topic to a handler
// within a named consumer group.
type EventSubscriber interface {
	Subscribe(ctx context.Context, topic string, consumerGroup string, handler func(context.Context, EventEnvelope) error) error
}
