package entities

import "time"

// Participant is one person at the estimation table. Spectators follow
// along without voting and are excluded from quorum counts. Active tracks
// presence; leaving clears it without losing the vote history tied to the
// identifier.
type Participant struct {
	ParticipantID string
	DisplayName   string
	Spectator     bool
	Active        bool
	JoinedAt      time.Time
	LastSeenAt    time.Time
}
