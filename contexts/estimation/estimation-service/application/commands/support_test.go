package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"pointdeck/contexts/estimation/estimation-service/adapters/memory"
	"pointdeck/contexts/estimation/estimation-service/ports"
)

type fakeClock struct {
	current time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.current
}

func (c *fakeClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}

type sequenceIDGenerator struct {
	next int
}

func (g *sequenceIDGenerator) NewID(context.Context) (string, error) {
	g.next++
	return fmt.Sprintf("id-%d", g.next), nil
}

type fixture struct {
	store   *memory.Store
	clock   *fakeClock
	story   StoryUseCase
	vote    VoteUseCase
	unlock  UnlockUseCase
	comment CommentUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	clock := &fakeClock{current: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)}
	idgen := &sequenceIDGenerator{}

	f := &fixture{
		store: store,
		clock: clock,
		story: StoryUseCase{
			Stories:          store,
			Votes:            store,
			Outbox:           store,
			Clock:            clock,
			IDGen:            idgen,
			AutoStartEnabled: true,
		},
		vote: VoteUseCase{
			Stories:           store,
			Votes:             store,
			Participants:      store,
			Outbox:            store,
			Clock:             clock,
			IDGen:             idgen,
			AutoRevealEnabled: false,
		},
		unlock: UnlockUseCase{
			Stories:   store,
			Unlocks:   store,
			Outbox:    store,
			Clock:     clock,
			IDGen:     idgen,
			Threshold: 2,
		},
		comment: CommentUseCase{
			Stories:  store,
			Comments: store,
			Outbox:   store,
			Clock:    clock,
			IDGen:    idgen,
		},
	}
	f.seedParticipant("alice", false)
	f.seedParticipant("bob", false)
	return f
}

func (f *fixture) seedParticipant(participantID string, spectator bool) {
	_ = f.store.UpsertParticipant(context.Background(), ports.ParticipantRef{
		ParticipantID: participantID,
		DisplayName:   participantID,
		Spectator:     spectator,
	})
}

func (f *fixture) createStory(t *testing.T, owner string, title string) string {
	t.Helper()

	result, err := f.story.CreateStory(context.Background(), CreateStoryCommand{
		OwnerID: owner,
		Title:   title,
	})
	if err != nil {
		t.Fatalf("create story: %v", err)
	}
	return result.Story.StoryID
}

func (f *fixture) startVoting(t *testing.T, storyID string, requester string) {
	t.Helper()

	if _, err := f.story.StartVoting(context.Background(), StartVotingCommand{
		StoryID:     storyID,
		RequesterID: requester,
	}); err != nil {
		t.Fatalf("start voting for %s: %v", storyID, err)
	}
}

func (f *fixture) castVote(t *testing.T, storyID string, participant string, value int) {
	t.Helper()

	if _, err := f.vote.CastVote(context.Background(), CastVoteCommand{
		StoryID:       storyID,
		ParticipantID: participant,
		Value:         value,
	}); err != nil {
		t.Fatalf("cast vote %s=%d on %s: %v", participant, value, storyID, err)
	}
}

func (f *fixture) eventTypes(t *testing.T) []string {
	t.Helper()

	messages, err := f.store.ListRecentOutbox(context.Background(), 0)
	if err != nil {
		t.Fatalf("list outbox: %v", err)
	}
	types := make([]string, 0, len(messages))
	for _, message := range messages {
		types = append(types, message.EventType)
	}
	return types
}

func (f *fixture) lastEvent(t *testing.T, eventType string) map[string]any {
	t.Helper()

	messages, err := f.store.ListRecentOutbox(context.Background(), 0)
	if err != nil {
		t.Fatalf("list outbox: %v", err)
	}
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].EventType != eventType {
			continue
		}
		var envelope ports.EventEnvelope
		if err := json.Unmarshal(messages[i].Payload, &envelope); err != nil {
			t.Fatalf("decode envelope: %v", err)
		}
		var data map[string]any
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			t.Fatalf("decode event data: %v", err)
		}
		return data
	}
	t.Fatalf("no %s event in outbox, have %v", eventType, f.eventTypes(t))
	return nil
}

func countEvents(types []string, eventType string) int {
	count := 0
	for _, t := range types {
		if t == eventType {
			count++
		}
	}
	return count
}
