package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	estimationservice "pointdeck/contexts/estimation/estimation-service"
	estimationports "pointdeck/contexts/estimation/estimation-service/ports"
	estimationhttp "pointdeck/contexts/estimation/estimation-service/transport/http"
	participantservice "pointdeck/contexts/participants/participant-service"
)

func newTestServer() *Server {
	return New(
		estimationservice.NewInMemoryModule(slog.Default()),
		participantservice.NewInMemoryModule(slog.Default()),
		slog.Default(),
		":0",
	)
}

func seedVoters(server *Server, participantIDs ...string) {
	for _, participantID := range participantIDs {
		_ = server.estimation.Store.UpsertParticipant(context.Background(), estimationports.ParticipantRef{
			ParticipantID: participantID,
			DisplayName:   participantID,
		})
	}
}

func doJSON(t *testing.T, server *Server, method string, path string, participantID string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if participantID != "" {
		req.Header.Set("X-Participant-Id", participantID)
	}
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v body=%s", err, rr.Body.String())
	}
	return out
}

func TestCreateStoryRequiresParticipantHeader(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodPost, "/api/estimation/v1/stories", "", `{"title":"Login page"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCreateStoryRejectsInvalidJSON(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodPost, "/api/estimation/v1/stories", "alice", `{"title":`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestEstimationRoundFlow(t *testing.T) {
	server := newTestServer()
	seedVoters(server, "alice", "bob")

	rr := doJSON(t, server, http.MethodPost, "/api/estimation/v1/stories", "alice",
		`{"title":"Login page","start_immediately":true}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	created := decodeBody[estimationhttp.CreateStoryResponse](t, rr)
	if !created.Started || created.Story.Status != "voting" || created.Story.Round != 1 {
		t.Fatalf("expected started voting round 1, got %+v", created)
	}
	storyID := created.Story.StoryID

	rr = doJSON(t, server, http.MethodPost, "/api/estimation/v1/stories/"+storyID+"/votes", "alice", `{"value":5}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("alice vote: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	first := decodeBody[estimationhttp.CastVoteResponse](t, rr)
	if first.AutoRevealed || first.VotersCount != 1 || first.ActiveCount != 2 {
		t.Fatalf("unexpected first vote response: %+v", first)
	}

	rr = doJSON(t, server, http.MethodGet, "/api/estimation/v1/board", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("board: expected 200, got %d", rr.Code)
	}
	board := decodeBody[estimationhttp.BoardResponse](t, rr)
	if len(board.Votes) != 1 || board.Votes[0].Value != nil {
		t.Fatalf("expected one hidden vote on the board, got %+v", board.Votes)
	}

	rr = doJSON(t, server, http.MethodPost, "/api/estimation/v1/stories/"+storyID+"/votes", "bob", `{"value":8}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("bob vote: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	second := decodeBody[estimationhttp.CastVoteResponse](t, rr)
	if !second.AutoRevealed {
		t.Fatalf("expected auto reveal once every voter cast, got %+v", second)
	}
	if second.Decision == nil || second.Decision.Type != "near_consensus" || second.Decision.Primary != 8 {
		t.Fatalf("unexpected decision: %+v", second.Decision)
	}

	rr = doJSON(t, server, http.MethodPost, "/api/estimation/v1/stories/"+storyID+"/resolve", "alice",
		`{"action":"finalize","final_value":8}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("resolve: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	resolved := decodeBody[estimationhttp.ResolveResponse](t, rr)
	if resolved.Story.Status != "completed" || resolved.Story.FinalValue == nil || *resolved.Story.FinalValue != 8 {
		t.Fatalf("expected completed story with final value 8, got %+v", resolved.Story)
	}

	rr = doJSON(t, server, http.MethodGet, "/api/estimation/v1/history", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("history: expected 200, got %d", rr.Code)
	}
	history := decodeBody[estimationhttp.HistoryResponse](t, rr)
	if len(history.Items) != 1 || history.Items[0].StoryID != storyID {
		t.Fatalf("expected the completed story in history, got %+v", history.Items)
	}
}

func TestCastVoteUnknownStoryReturns404(t *testing.T) {
	server := newTestServer()
	seedVoters(server, "alice")
	rr := doJSON(t, server, http.MethodPost, "/api/estimation/v1/stories/missing/votes", "alice", `{"value":5}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestRevealByNonOwnerReturns403(t *testing.T) {
	server := newTestServer()
	seedVoters(server, "alice", "bob")

	rr := doJSON(t, server, http.MethodPost, "/api/estimation/v1/stories", "alice",
		`{"title":"Search filters","start_immediately":true}`)
	created := decodeBody[estimationhttp.CreateStoryResponse](t, rr)
	storyID := created.Story.StoryID

	rr = doJSON(t, server, http.MethodPost, "/api/estimation/v1/stories/"+storyID+"/votes", "alice", `{"value":5}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("vote: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodPost, "/api/estimation/v1/stories/"+storyID+"/reveal", "bob", "")
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestSpectatorVoteReturns403(t *testing.T) {
	server := newTestServer()
	seedVoters(server, "alice", "bob")
	_ = server.estimation.Store.UpsertParticipant(context.Background(), estimationports.ParticipantRef{
		ParticipantID: "carol",
		DisplayName:   "carol",
		Spectator:     true,
	})

	rr := doJSON(t, server, http.MethodPost, "/api/estimation/v1/stories", "alice",
		`{"title":"Checkout","start_immediately":true}`)
	created := decodeBody[estimationhttp.CreateStoryResponse](t, rr)

	rr = doJSON(t, server, http.MethodPost, "/api/estimation/v1/stories/"+created.Story.StoryID+"/votes", "carol", `{"value":5}`)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestOffScaleVoteReturns422(t *testing.T) {
	server := newTestServer()
	seedVoters(server, "alice", "bob")

	rr := doJSON(t, server, http.MethodPost, "/api/estimation/v1/stories", "alice",
		`{"title":"Checkout","start_immediately":true}`)
	created := decodeBody[estimationhttp.CreateStoryResponse](t, rr)

	rr = doJSON(t, server, http.MethodPost, "/api/estimation/v1/stories/"+created.Story.StoryID+"/votes", "alice", `{"value":4}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestStoryCommentsFlow(t *testing.T) {
	server := newTestServer()
	seedVoters(server, "alice", "bob")

	rr := doJSON(t, server, http.MethodPost, "/api/estimation/v1/stories", "alice",
		`{"title":"Login page","start_immediately":true}`)
	created := decodeBody[estimationhttp.CreateStoryResponse](t, rr)
	storyID := created.Story.StoryID

	commentsPath := "/api/estimation/v1/stories/" + storyID + "/comments"

	rr = doJSON(t, server, http.MethodPost, commentsPath, "bob", `{"text":"too early"}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("comment before completion: expected 409, got %d body=%s", rr.Code, rr.Body.String())
	}

	doJSON(t, server, http.MethodPost, "/api/estimation/v1/stories/"+storyID+"/votes", "alice", `{"value":5}`)
	doJSON(t, server, http.MethodPost, "/api/estimation/v1/stories/"+storyID+"/votes", "bob", `{"value":8}`)
	rr = doJSON(t, server, http.MethodPost, "/api/estimation/v1/stories/"+storyID+"/resolve", "alice",
		`{"action":"finalize","final_value":8}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("resolve: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodPost, commentsPath, "", `{"text":"anonymous"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("comment without header: expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
	rr = doJSON(t, server, http.MethodPost, commentsPath, "bob", `{"text":""}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("blank comment: expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodPost, commentsPath, "bob", `{"text":"went smoother than round one","type":"execution"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("add comment: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	comment := decodeBody[estimationhttp.CommentResponse](t, rr)
	if comment.CommentID == "" || comment.AuthorID != "bob" || comment.Type != "execution" {
		t.Fatalf("unexpected comment: %+v", comment)
	}

	rr = doJSON(t, server, http.MethodGet, commentsPath, "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("list comments: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	listed := decodeBody[estimationhttp.CommentsResponse](t, rr)
	if len(listed.Items) != 1 || listed.Items[0].CommentID != comment.CommentID {
		t.Fatalf("expected the stored comment, got %+v", listed.Items)
	}
}

func TestHistoryRejectsInvalidLimit(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodGet, "/api/estimation/v1/history?limit=abc", "", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}
