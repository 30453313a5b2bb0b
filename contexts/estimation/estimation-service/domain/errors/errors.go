package errors

import "errors"

var (
	ErrInvalidStoryInput   = errors.New("invalid story input")
	ErrInvalidResolution   = errors.New("invalid resolution action")
	ErrValueNotOnScale     = errors.New("value is not on the estimation scale")
	ErrStoryNotFound       = errors.New("story not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrStoryNotPending     = errors.New("story is not pending")
	ErrActiveStoryExists   = errors.New("another story is already active")
	ErrVotingNotOpen       = errors.New("story is not open for voting")
	ErrStoryNotRevealed    = errors.New("story is not revealed")
	ErrNoVotesCast         = errors.New("no votes cast in the current round")
	ErrStoryNotCompleted   = errors.New("story is not completed")
	ErrInvalidCommentInput = errors.New("invalid comment input")
	ErrNotStoryOwner       = errors.New("caller is not the story owner")
	ErrRevealNotAllowed    = errors.New("reveal requires the owner or an unlocked story")
	ErrSpectatorCannotVote = errors.New("spectators cannot vote")
	ErrConflict            = errors.New("estimation state conflict")
)
