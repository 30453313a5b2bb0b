package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type JoinRequest struct {
	DisplayName string `json:"display_name"`
	Spectator   bool   `json:"spectator,omitempty"`
}

type ParticipantResponse struct {
	ParticipantID string    `json:"participant_id"`
	DisplayName   string    `json:"display_name"`
	Spectator     bool      `json:"spectator"`
	Active        bool      `json:"active"`
	JoinedAt      time.Time `json:"joined_at"`
	LastSeenAt    time.Time `json:"last_seen_at"`
}

type JoinResponse struct {
	Participant ParticipantResponse `json:"participant"`
	Created     bool                `json:"created"`
}

type SpectatorRequest struct {
	Spectator bool `json:"spectator"`
}

type RosterResponse struct {
	Participants   []ParticipantResponse `json:"participants"`
	VoterCount     int                   `json:"voter_count"`
	SpectatorCount int                   `json:"spectator_count"`
}
