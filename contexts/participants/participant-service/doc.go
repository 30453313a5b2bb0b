// Package participantservice owns the session roster: who is at the
// table, their display name, spectator status, and presence. The
// estimation context consumes this data as a read-only projection for
// vote eligibility and the auto-reveal quorum.
package participantservice
