package errors

import "errors"

var (
	ErrInvalidParticipantInput = errors.New("participant input is invalid")
	ErrParticipantNotFound     = errors.New("participant not found")
	ErrNameTaken               = errors.New("display name is already in use")
	ErrConflict                = errors.New("conflicting participant write")
)
