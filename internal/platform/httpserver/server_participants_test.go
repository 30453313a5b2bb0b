package httpserver

import (
	"net/http"
	"testing"

	participanthttp "pointdeck/contexts/participants/participant-service/transport/http"
)

func TestJoinCreatesParticipant(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodPost, "/api/participants/v1/join", "", `{"display_name":"Avery"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	joined := decodeBody[participanthttp.JoinResponse](t, rr)
	if !joined.Created || !joined.Participant.Active || joined.Participant.DisplayName != "Avery" {
		t.Fatalf("unexpected join response: %+v", joined)
	}
	if joined.Participant.ParticipantID == "" {
		t.Fatal("expected a participant identifier")
	}
}

func TestJoinRejectsBlankName(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodPost, "/api/participants/v1/join", "", `{"display_name":"   "}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestJoinDuplicateActiveNameConflicts(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodPost, "/api/participants/v1/join", "", `{"display_name":"Avery"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("first join: expected 201, got %d", rr.Code)
	}
	rr = doJSON(t, server, http.MethodPost, "/api/participants/v1/join", "", `{"display_name":"avery"}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestSessionRequiresParticipantHeader(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodGet, "/api/participants/v1/session", "", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestSessionResolvesJoinedParticipant(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodPost, "/api/participants/v1/join", "", `{"display_name":"Avery"}`)
	joined := decodeBody[participanthttp.JoinResponse](t, rr)

	rr = doJSON(t, server, http.MethodGet, "/api/participants/v1/session", joined.Participant.ParticipantID, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	session := decodeBody[participanthttp.ParticipantResponse](t, rr)
	if session.ParticipantID != joined.Participant.ParticipantID {
		t.Fatalf("expected the joined identity, got %+v", session)
	}
}

func TestSpectatorToggleChangesRosterCounts(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodPost, "/api/participants/v1/join", "", `{"display_name":"Avery"}`)
	joined := decodeBody[participanthttp.JoinResponse](t, rr)

	rr = doJSON(t, server, http.MethodPost, "/api/participants/v1/spectator", joined.Participant.ParticipantID, `{"spectator":true}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("spectator: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	toggled := decodeBody[participanthttp.ParticipantResponse](t, rr)
	if !toggled.Spectator {
		t.Fatalf("expected spectator mode on, got %+v", toggled)
	}

	rr = doJSON(t, server, http.MethodGet, "/api/participants/v1/roster", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("roster: expected 200, got %d", rr.Code)
	}
	roster := decodeBody[participanthttp.RosterResponse](t, rr)
	if roster.VoterCount != 0 || roster.SpectatorCount != 1 || len(roster.Participants) != 1 {
		t.Fatalf("unexpected roster: %+v", roster)
	}
}

func TestLeaveUnknownParticipantReturns404(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodPost, "/api/participants/v1/leave", "ghost", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
}
