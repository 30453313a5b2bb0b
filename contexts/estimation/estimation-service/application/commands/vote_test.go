package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"pointdeck/contexts/estimation/estimation-service/domain/entities"
	domainerrors "pointdeck/contexts/estimation/estimation-service/domain/errors"
	"pointdeck/contexts/estimation/estimation-service/domain/services"
)

func TestCastVoteRecordsAndCounts(t *testing.T) {
	f := newFixture(t)
	storyID := f.createStory(t, "alice", "Checkout flow")
	f.startVoting(t, storyID, "alice")

	result, err := f.vote.CastVote(context.Background(), CastVoteCommand{
		StoryID:       storyID,
		ParticipantID: "alice",
		Value:         5,
	})
	if err != nil {
		t.Fatalf("cast vote: %v", err)
	}
	if result.Vote.Value != 5 || result.Vote.Round != 1 {
		t.Fatalf("unexpected vote %+v", result.Vote)
	}
	if result.VotersCount != 1 || result.ActiveCount != 2 {
		t.Fatalf("expected 1 of 2 voted, got %d of %d", result.VotersCount, result.ActiveCount)
	}
	if result.AutoRevealed {
		t.Fatalf("auto-reveal disabled, yet story revealed")
	}
}

func TestCastVoteOverwritesSameRound(t *testing.T) {
	f := newFixture(t)
	storyID := f.createStory(t, "alice", "Checkout flow")
	f.startVoting(t, storyID, "alice")

	first, err := f.vote.CastVote(context.Background(), CastVoteCommand{
		StoryID:       storyID,
		ParticipantID: "alice",
		Value:         5,
	})
	if err != nil {
		t.Fatalf("first cast: %v", err)
	}
	f.clock.Advance(30 * time.Second)

	second, err := f.vote.CastVote(context.Background(), CastVoteCommand{
		StoryID:       storyID,
		ParticipantID: "alice",
		Value:         13,
	})
	if err != nil {
		t.Fatalf("second cast: %v", err)
	}
	if second.Vote.VoteID != first.Vote.VoteID {
		t.Fatalf("expected upsert to keep vote identity, got %s vs %s", second.Vote.VoteID, first.Vote.VoteID)
	}
	if second.Vote.Value != 13 {
		t.Fatalf("expected overwritten value 13, got %d", second.Vote.Value)
	}
	if second.VotersCount != 1 {
		t.Fatalf("expected one distinct voter, got %d", second.VotersCount)
	}

	votes, err := f.store.ListVotes(context.Background(), storyID, 1)
	if err != nil {
		t.Fatalf("list votes: %v", err)
	}
	if len(votes) != 1 || votes[0].Value != 13 {
		t.Fatalf("expected single vote with value 13, got %+v", votes)
	}
}

func TestCastVoteRejectsOffScaleValue(t *testing.T) {
	f := newFixture(t)
	storyID := f.createStory(t, "alice", "Checkout flow")
	f.startVoting(t, storyID, "alice")

	_, err := f.vote.CastVote(context.Background(), CastVoteCommand{
		StoryID:       storyID,
		ParticipantID: "alice",
		Value:         4,
	})
	if !errors.Is(err, domainerrors.ErrValueNotOnScale) {
		t.Fatalf("expected ErrValueNotOnScale, got %v", err)
	}
}

func TestCastVoteRequiresOpenVoting(t *testing.T) {
	f := newFixture(t)
	storyID := f.createStory(t, "alice", "Checkout flow")

	_, err := f.vote.CastVote(context.Background(), CastVoteCommand{
		StoryID:       storyID,
		ParticipantID: "alice",
		Value:         5,
	})
	if !errors.Is(err, domainerrors.ErrVotingNotOpen) {
		t.Fatalf("expected ErrVotingNotOpen for pending story, got %v", err)
	}
}

func TestCastVoteRejectsSpectator(t *testing.T) {
	f := newFixture(t)
	f.seedParticipant("carol", true)
	storyID := f.createStory(t, "alice", "Checkout flow")
	f.startVoting(t, storyID, "alice")

	_, err := f.vote.CastVote(context.Background(), CastVoteCommand{
		StoryID:       storyID,
		ParticipantID: "carol",
		Value:         5,
	})
	if !errors.Is(err, domainerrors.ErrSpectatorCannotVote) {
		t.Fatalf("expected ErrSpectatorCannotVote, got %v", err)
	}
}

func TestCastVoteUnknownParticipant(t *testing.T) {
	f := newFixture(t)
	storyID := f.createStory(t, "alice", "Checkout flow")
	f.startVoting(t, storyID, "alice")

	_, err := f.vote.CastVote(context.Background(), CastVoteCommand{
		StoryID:       storyID,
		ParticipantID: "mallory",
		Value:         5,
	})
	if !errors.Is(err, domainerrors.ErrParticipantNotFound) {
		t.Fatalf("expected ErrParticipantNotFound, got %v", err)
	}
}

func TestCastVoteEventCarriesCountsOnly(t *testing.T) {
	f := newFixture(t)
	storyID := f.createStory(t, "alice", "Checkout flow")
	f.startVoting(t, storyID, "alice")
	f.castVote(t, storyID, "alice", 21)

	data := f.lastEvent(t, "vote.cast")
	if _, leaked := data["value"]; leaked {
		t.Fatalf("vote.cast payload leaks the vote value: %v", data)
	}
	if data["voters_count"].(float64) != 1 || data["active_count"].(float64) != 2 {
		t.Fatalf("expected counts 1 of 2 in payload, got %v", data)
	}
}

func TestAutoRevealWhenAllActiveVoted(t *testing.T) {
	f := newFixture(t)
	f.vote.AutoRevealEnabled = true
	f.seedParticipant("carol", true)
	storyID := f.createStory(t, "alice", "Checkout flow")
	f.startVoting(t, storyID, "alice")

	f.castVote(t, storyID, "alice", 5)
	result, err := f.vote.CastVote(context.Background(), CastVoteCommand{
		StoryID:       storyID,
		ParticipantID: "bob",
		Value:         8,
	})
	if err != nil {
		t.Fatalf("final cast: %v", err)
	}
	if !result.AutoRevealed {
		t.Fatalf("expected auto-reveal once the spectator-free roster voted, got %+v", result)
	}
	if result.Story.Status != entities.StoryStatusRevealed {
		t.Fatalf("expected revealed story, got %s", result.Story.Status)
	}
	if result.Decision == nil || result.Decision.Type != services.DecisionNearConsensus {
		t.Fatalf("expected near consensus decision, got %+v", result.Decision)
	}
	data := f.lastEvent(t, "item.revealed")
	if data["trigger"] != "auto" {
		t.Fatalf("expected auto trigger on reveal event, got %v", data["trigger"])
	}
}

func TestAutoRevealDisabledKeepsVotingOpen(t *testing.T) {
	f := newFixture(t)
	storyID := f.createStory(t, "alice", "Checkout flow")
	f.startVoting(t, storyID, "alice")

	f.castVote(t, storyID, "alice", 5)
	f.castVote(t, storyID, "bob", 5)

	story, err := f.store.GetStory(context.Background(), storyID)
	if err != nil {
		t.Fatalf("get story: %v", err)
	}
	if story.Status != entities.StoryStatusVoting {
		t.Fatalf("expected voting to stay open, got %s", story.Status)
	}
}
