package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateStoryRequest struct {
	Title            string `json:"title"`
	Description      string `json:"description,omitempty"`
	StartImmediately bool   `json:"start_immediately,omitempty"`
	AutoStart        bool   `json:"auto_start,omitempty"`
}

type StoryResponse struct {
	StoryID     string    `json:"story_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	OwnerID     string    `json:"owner_id"`
	Status      string    `json:"status"`
	Round       int       `json:"round"`
	Unlocked    bool      `json:"unlocked"`
	FinalValue  *int      `json:"final_value,omitempty"`
	AutoStart   bool      `json:"auto_start"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreateStoryResponse struct {
	Story          StoryResponse `json:"story"`
	Started        bool          `json:"started"`
	QueuedStoryID  string        `json:"queued_story_id,omitempty"`
	ActiveConflict bool          `json:"active_conflict,omitempty"`
}

type CastVoteRequest struct {
	Value int `json:"value"`
}

type DecisionResponse struct {
	Type        string `json:"type"`
	Primary     int    `json:"primary"`
	Alternative *int   `json:"alternative,omitempty"`
}

type CastVoteResponse struct {
	StoryID      string            `json:"story_id"`
	Round        int               `json:"round"`
	VotersCount  int               `json:"voters_count"`
	ActiveCount  int               `json:"active_count"`
	AutoRevealed bool              `json:"auto_revealed"`
	Decision     *DecisionResponse `json:"decision,omitempty"`
}

type RevealResponse struct {
	Story           StoryResponse    `json:"story"`
	Decision        DecisionResponse `json:"decision"`
	AlreadyRevealed bool             `json:"already_revealed"`
}

type ResolveRequest struct {
	Action     string `json:"action"`
	FinalValue int    `json:"final_value,omitempty"`
}

type ResolveResponse struct {
	Story     StoryResponse  `json:"story"`
	Replayed  bool           `json:"replayed"`
	NextStory *StoryResponse `json:"next_story,omitempty"`
}

type UnlockResponse struct {
	StoryID   string `json:"story_id"`
	Count     int    `json:"count"`
	Threshold int    `json:"threshold"`
	Unlocked  bool   `json:"unlocked"`
}

type BoardVoteItem struct {
	ParticipantID string `json:"participant_id"`
	Value         *int   `json:"value,omitempty"`
}

type BoardResponse struct {
	Story        *StoryResponse    `json:"story,omitempty"`
	Votes        []BoardVoteItem   `json:"votes"`
	VotersCount  int               `json:"voters_count"`
	ActiveCount  int               `json:"active_count"`
	Decision     *DecisionResponse `json:"decision,omitempty"`
	UnlockCount  int               `json:"unlock_count"`
	PendingQueue []StoryResponse   `json:"pending_queue"`
}

type QueueResponse struct {
	Items []StoryResponse `json:"items"`
}

type HistoryResponse struct {
	Items []StoryResponse `json:"items"`
}

type VoteItem struct {
	ParticipantID string    `json:"participant_id"`
	Value         int       `json:"value"`
	CastAt        time.Time `json:"cast_at"`
}

type RoundVotesItem struct {
	Round int        `json:"round"`
	Votes []VoteItem `json:"votes"`
}

type StoryVotesResponse struct {
	StoryID string           `json:"story_id"`
	Rounds  []RoundVotesItem `json:"rounds"`
}

type CommentRequest struct {
	Text string `json:"text"`
	Type string `json:"type,omitempty"`
}

type CommentResponse struct {
	CommentID string    `json:"comment_id"`
	StoryID   string    `json:"story_id"`
	AuthorID  string    `json:"author_id"`
	Text      string    `json:"text"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

type CommentsResponse struct {
	StoryID string            `json:"story_id"`
	Items   []CommentResponse `json:"items"`
}

type FeedEventItem struct {
	Seq        int64     `json:"seq"`
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

type FeedResponse struct {
	Items []FeedEventItem `json:"items"`
}
