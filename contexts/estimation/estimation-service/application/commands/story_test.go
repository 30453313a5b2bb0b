package commands

import (
	"context"
	"errors"
	"testing"

	"pointdeck/contexts/estimation/estimation-service/domain/entities"
	domainerrors "pointdeck/contexts/estimation/estimation-service/domain/errors"
	"pointdeck/contexts/estimation/estimation-service/domain/services"
)

func TestCreateStoryQueuesPending(t *testing.T) {
	f := newFixture(t)

	result, err := f.story.CreateStory(context.Background(), CreateStoryCommand{
		OwnerID:     "alice",
		Title:       "  Checkout flow  ",
		Description: "rework the payment step",
	})
	if err != nil {
		t.Fatalf("create story: %v", err)
	}
	if !result.Created || result.Started {
		t.Fatalf("expected created-not-started, got %+v", result)
	}
	if result.Story.Status != entities.StoryStatusPending {
		t.Fatalf("expected pending status, got %s", result.Story.Status)
	}
	if result.Story.Title != "Checkout flow" {
		t.Fatalf("expected trimmed title, got %q", result.Story.Title)
	}
	if got := f.eventTypes(t); countEvents(got, "item.created") != 1 {
		t.Fatalf("expected one item.created event, got %v", got)
	}
}

func TestCreateStoryValidation(t *testing.T) {
	f := newFixture(t)

	cases := []CreateStoryCommand{
		{OwnerID: "alice", Title: "   "},
		{OwnerID: "", Title: "Checkout flow"},
	}
	for _, cmd := range cases {
		if _, err := f.story.CreateStory(context.Background(), cmd); !errors.Is(err, domainerrors.ErrInvalidStoryInput) {
			t.Fatalf("expected ErrInvalidStoryInput for %+v, got %v", cmd, err)
		}
	}
}

func TestCreateStoryStartImmediately(t *testing.T) {
	f := newFixture(t)

	result, err := f.story.CreateStory(context.Background(), CreateStoryCommand{
		OwnerID:          "alice",
		Title:            "Checkout flow",
		StartImmediately: true,
	})
	if err != nil {
		t.Fatalf("create story: %v", err)
	}
	if !result.Started {
		t.Fatalf("expected started, got %+v", result)
	}
	if result.Story.Status != entities.StoryStatusVoting || result.Story.Round != 1 {
		t.Fatalf("expected voting round 1, got %s round %d", result.Story.Status, result.Story.Round)
	}
	got := f.eventTypes(t)
	if countEvents(got, "item.created") != 1 || countEvents(got, "voting.started") != 1 {
		t.Fatalf("expected item.created then voting.started, got %v", got)
	}
}

func TestCreateStoryDegradesToActiveStory(t *testing.T) {
	f := newFixture(t)

	first, err := f.story.CreateStory(context.Background(), CreateStoryCommand{
		OwnerID:          "alice",
		Title:            "Checkout flow",
		StartImmediately: true,
	})
	if err != nil {
		t.Fatalf("create first story: %v", err)
	}

	second, err := f.story.CreateStory(context.Background(), CreateStoryCommand{
		OwnerID:          "bob",
		Title:            "Search ranking",
		StartImmediately: true,
	})
	if err != nil {
		t.Fatalf("create second story: %v", err)
	}
	if !second.ActiveConflict {
		t.Fatalf("expected active conflict, got %+v", second)
	}
	if second.Story.StoryID != first.Story.StoryID {
		t.Fatalf("expected active story %s back, got %s", first.Story.StoryID, second.Story.StoryID)
	}
	if second.QueuedStoryID == "" || second.QueuedStoryID == first.Story.StoryID {
		t.Fatalf("expected new story queued, got %q", second.QueuedStoryID)
	}

	queued, err := f.store.GetStory(context.Background(), second.QueuedStoryID)
	if err != nil {
		t.Fatalf("get queued story: %v", err)
	}
	if queued.Status != entities.StoryStatusPending {
		t.Fatalf("expected queued story pending, got %s", queued.Status)
	}
}

func TestStartVotingOwnerOnly(t *testing.T) {
	f := newFixture(t)
	storyID := f.createStory(t, "alice", "Checkout flow")

	_, err := f.story.StartVoting(context.Background(), StartVotingCommand{
		StoryID:     storyID,
		RequesterID: "bob",
	})
	if !errors.Is(err, domainerrors.ErrNotStoryOwner) {
		t.Fatalf("expected ErrNotStoryOwner, got %v", err)
	}

	started, err := f.story.StartVoting(context.Background(), StartVotingCommand{
		StoryID: storyID,
		Forced:  true,
	})
	if err != nil {
		t.Fatalf("forced start: %v", err)
	}
	if started.Status != entities.StoryStatusVoting {
		t.Fatalf("expected voting, got %s", started.Status)
	}
}

func TestStartVotingAlreadyVotingIsNoOp(t *testing.T) {
	f := newFixture(t)
	storyID := f.createStory(t, "alice", "Checkout flow")
	f.startVoting(t, storyID, "alice")

	again, err := f.story.StartVoting(context.Background(), StartVotingCommand{
		StoryID:     storyID,
		RequesterID: "alice",
	})
	if err != nil {
		t.Fatalf("repeat start: %v", err)
	}
	if again.Status != entities.StoryStatusVoting || again.Round != 1 {
		t.Fatalf("expected unchanged round 1 voting, got %s round %d", again.Status, again.Round)
	}
	if got := f.eventTypes(t); countEvents(got, "voting.started") != 1 {
		t.Fatalf("expected a single voting.started event, got %v", got)
	}
}

func TestStartVotingRejectsSecondActiveStory(t *testing.T) {
	f := newFixture(t)
	first := f.createStory(t, "alice", "Checkout flow")
	second := f.createStory(t, "bob", "Search ranking")
	f.startVoting(t, first, "alice")

	_, err := f.story.StartVoting(context.Background(), StartVotingCommand{
		StoryID:     second,
		RequesterID: "bob",
	})
	if !errors.Is(err, domainerrors.ErrActiveStoryExists) {
		t.Fatalf("expected ErrActiveStoryExists, got %v", err)
	}
}

func TestRevealResolvesConsensus(t *testing.T) {
	f := newFixture(t)
	storyID := f.createStory(t, "alice", "Checkout flow")
	f.startVoting(t, storyID, "alice")
	f.castVote(t, storyID, "alice", 5)
	f.castVote(t, storyID, "bob", 5)

	result, err := f.story.Reveal(context.Background(), RevealCommand{
		StoryID:     storyID,
		RequesterID: "alice",
	})
	if err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if result.AlreadyRevealed {
		t.Fatalf("expected first reveal to transition")
	}
	if result.Story.Status != entities.StoryStatusRevealed {
		t.Fatalf("expected revealed, got %s", result.Story.Status)
	}
	if result.Decision.Type != services.DecisionConsensus || result.Decision.Primary != 5 {
		t.Fatalf("expected consensus on 5, got %+v", result.Decision)
	}

	replay, err := f.story.Reveal(context.Background(), RevealCommand{
		StoryID:     storyID,
		RequesterID: "bob",
	})
	if err != nil {
		t.Fatalf("repeat reveal: %v", err)
	}
	if !replay.AlreadyRevealed {
		t.Fatalf("expected replayed reveal")
	}
	if replay.Decision != result.Decision {
		t.Fatalf("expected identical decision on replay, got %+v vs %+v", replay.Decision, result.Decision)
	}
	if got := f.eventTypes(t); countEvents(got, "item.revealed") != 1 {
		t.Fatalf("expected a single item.revealed event, got %v", got)
	}
}

func TestRevealDeniedForNonOwnerWhileLocked(t *testing.T) {
	f := newFixture(t)
	storyID := f.createStory(t, "alice", "Checkout flow")
	f.startVoting(t, storyID, "alice")
	f.castVote(t, storyID, "alice", 5)

	_, err := f.story.Reveal(context.Background(), RevealCommand{
		StoryID:     storyID,
		RequesterID: "bob",
	})
	if !errors.Is(err, domainerrors.ErrRevealNotAllowed) {
		t.Fatalf("expected ErrRevealNotAllowed, got %v", err)
	}
}

func TestRevealWithoutVotes(t *testing.T) {
	f := newFixture(t)
	storyID := f.createStory(t, "alice", "Checkout flow")
	f.startVoting(t, storyID, "alice")

	_, err := f.story.Reveal(context.Background(), RevealCommand{
		StoryID:     storyID,
		RequesterID: "alice",
	})
	if !errors.Is(err, domainerrors.ErrNoVotesCast) {
		t.Fatalf("expected ErrNoVotesCast, got %v", err)
	}
}

func TestResolveFinalizeAdvancesQueue(t *testing.T) {
	f := newFixture(t)
	active := f.createStory(t, "alice", "Checkout flow")
	f.startVoting(t, active, "alice")

	queued, err := f.story.CreateStory(context.Background(), CreateStoryCommand{
		OwnerID:   "bob",
		Title:     "Search ranking",
		AutoStart: true,
	})
	if err != nil {
		t.Fatalf("create queued story: %v", err)
	}

	f.castVote(t, active, "alice", 8)
	f.castVote(t, active, "bob", 8)
	if _, err := f.story.Reveal(context.Background(), RevealCommand{StoryID: active, RequesterID: "alice"}); err != nil {
		t.Fatalf("reveal: %v", err)
	}

	result, err := f.story.Resolve(context.Background(), ResolveCommand{
		StoryID:    active,
		Action:     ResolutionFinalize,
		FinalValue: 8,
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if result.Story.Status != entities.StoryStatusCompleted {
		t.Fatalf("expected completed, got %s", result.Story.Status)
	}
	if result.Story.FinalValue == nil || *result.Story.FinalValue != 8 {
		t.Fatalf("expected final value 8, got %v", result.Story.FinalValue)
	}
	if result.NextStory == nil || result.NextStory.StoryID != queued.Story.StoryID {
		t.Fatalf("expected queued story auto-started, got %+v", result.NextStory)
	}
	if result.NextStory.Status != entities.StoryStatusVoting || result.NextStory.Round != 1 {
		t.Fatalf("expected next story voting round 1, got %+v", result.NextStory)
	}
	got := f.eventTypes(t)
	if countEvents(got, "item.completed") != 1 || countEvents(got, "voting.started") != 2 {
		t.Fatalf("expected completion plus auto-start events, got %v", got)
	}
}

func TestResolveFinalizeRejectsOffScaleValue(t *testing.T) {
	f := newFixture(t)
	storyID := f.createStory(t, "alice", "Checkout flow")
	f.startVoting(t, storyID, "alice")
	f.castVote(t, storyID, "alice", 5)
	if _, err := f.story.Reveal(context.Background(), RevealCommand{StoryID: storyID, RequesterID: "alice"}); err != nil {
		t.Fatalf("reveal: %v", err)
	}

	_, err := f.story.Resolve(context.Background(), ResolveCommand{
		StoryID:    storyID,
		Action:     ResolutionFinalize,
		FinalValue: 7,
	})
	if !errors.Is(err, domainerrors.ErrValueNotOnScale) {
		t.Fatalf("expected ErrValueNotOnScale, got %v", err)
	}
}

func TestResolveRevoteRetainsPriorRoundVotes(t *testing.T) {
	f := newFixture(t)
	storyID := f.createStory(t, "alice", "Checkout flow")
	f.startVoting(t, storyID, "alice")
	f.castVote(t, storyID, "alice", 5)
	f.castVote(t, storyID, "bob", 21)
	if _, err := f.story.Reveal(context.Background(), RevealCommand{StoryID: storyID, RequesterID: "alice"}); err != nil {
		t.Fatalf("reveal: %v", err)
	}

	result, err := f.story.Resolve(context.Background(), ResolveCommand{
		StoryID: storyID,
		Action:  ResolutionRevote,
	})
	if err != nil {
		t.Fatalf("revote: %v", err)
	}
	if result.Story.Status != entities.StoryStatusVoting || result.Story.Round != 2 {
		t.Fatalf("expected voting round 2, got %s round %d", result.Story.Status, result.Story.Round)
	}

	f.castVote(t, storyID, "alice", 8)
	all, err := f.store.ListAllVotes(context.Background(), storyID)
	if err != nil {
		t.Fatalf("list all votes: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected round 1 votes retained plus round 2 cast, got %d votes", len(all))
	}
	if got := f.eventTypes(t); countEvents(got, "round.started") != 1 {
		t.Fatalf("expected round.started event, got %v", got)
	}
}

func TestResolveReplaysObservedPostState(t *testing.T) {
	f := newFixture(t)
	storyID := f.createStory(t, "alice", "Checkout flow")
	f.startVoting(t, storyID, "alice")
	f.castVote(t, storyID, "alice", 13)
	if _, err := f.story.Reveal(context.Background(), RevealCommand{StoryID: storyID, RequesterID: "alice"}); err != nil {
		t.Fatalf("reveal: %v", err)
	}

	first, err := f.story.Resolve(context.Background(), ResolveCommand{
		StoryID:    storyID,
		Action:     ResolutionFinalize,
		FinalValue: 13,
	})
	if err != nil || first.Replayed {
		t.Fatalf("first resolve: %+v err=%v", first, err)
	}

	second, err := f.story.Resolve(context.Background(), ResolveCommand{
		StoryID:    storyID,
		Action:     ResolutionFinalize,
		FinalValue: 13,
	})
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if !second.Replayed {
		t.Fatalf("expected replayed resolve, got %+v", second)
	}
	if got := f.eventTypes(t); countEvents(got, "item.completed") != 1 {
		t.Fatalf("expected a single item.completed event, got %v", got)
	}
}

func TestResolveRejectsUnknownAction(t *testing.T) {
	f := newFixture(t)
	storyID := f.createStory(t, "alice", "Checkout flow")

	_, err := f.story.Resolve(context.Background(), ResolveCommand{
		StoryID: storyID,
		Action:  "abandon",
	})
	if !errors.Is(err, domainerrors.ErrInvalidResolution) {
		t.Fatalf("expected ErrInvalidResolution, got %v", err)
	}
}
