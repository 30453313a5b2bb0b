package entities

import "time"

type StoryStatus string

const (
	StoryStatusPending   StoryStatus = "pending"
	StoryStatusVoting    StoryStatus = "voting"
	StoryStatusRevealed  StoryStatus = "revealed"
	StoryStatusCompleted StoryStatus = "completed"
)

// Story is the unit being estimated. At most one story across the whole
// store may be active (voting or revealed) at any instant; the durable
// store enforces that with conditional writes, never an in-process lock.
type Story struct {
	StoryID     string
	Title       string
	Description string
	OwnerID     string
	Status      StoryStatus
	Round       int
	Unlocked    bool
	FinalValue  *int
	AutoStart   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Active reports whether the story occupies the singleton active slot.
func (s Story) Active() bool {
	return s.Status == StoryStatusVoting || s.Status == StoryStatusRevealed
}

// Vote is one participant's submission for a story round. Unique on
// (story_id, participant_id, round); a same-round re-cast overwrites.
type Vote struct {
	VoteID        string
	StoryID       string
	ParticipantID string
	Round         int
	Value         int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// UnlockRequest records one participant asking to force-unlock reveal
// rights. Unique on (story_id, participant_id); the distinct-requester
// count drives Story.Unlocked.
type UnlockRequest struct {
	StoryID       string
	ParticipantID string
	RequestedAt   time.Time
}
