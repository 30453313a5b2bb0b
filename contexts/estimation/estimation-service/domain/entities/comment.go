package entities

import "time"

// CommentType classifies retrospective discussion on a completed story.
type CommentType string

const (
	CommentTypeReasoning  CommentType = "reasoning"
	CommentTypeExecution  CommentType = "execution"
	CommentTypeAcceptance CommentType = "acceptance"
	CommentTypeGeneral    CommentType = "general"
)

// ValidCommentType reports whether t is one of the accepted kinds.
func ValidCommentType(t CommentType) bool {
	switch t {
	case CommentTypeReasoning, CommentTypeExecution, CommentTypeAcceptance, CommentTypeGeneral:
		return true
	}
	return false
}

// StoryComment is a retrospective note attached to a completed story.
// Comments are append-only and exist only once the estimate is final.
type StoryComment struct {
	CommentID string
	StoryID   string
	AuthorID  string
	Text      string
	Type      CommentType
	CreatedAt time.Time
}
