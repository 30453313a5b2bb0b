// Package memory provides the in-memory roster store used by tests and
// local development wiring.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"pointdeck/contexts/participants/participant-service/domain/entities"
	domainerrors "pointdeck/contexts/participants/participant-service/domain/errors"
	"pointdeck/contexts/participants/participant-service/ports"
)

type Store struct {
	mu           sync.Mutex
	participants map[string]entities.Participant
}

func NewStore() *Store {
	return &Store{
		participants: make(map[string]entities.Participant),
	}
}

var _ ports.ParticipantRepository = (*Store)(nil)

func (s *Store) CreateParticipant(_ context.Context, participant entities.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.participants[participant.ParticipantID]; exists {
		return domainerrors.ErrConflict
	}
	s.participants[participant.ParticipantID] = participant
	return nil
}

func (s *Store) GetParticipant(_ context.Context, participantID string) (entities.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	participant, ok := s.participants[participantID]
	if !ok {
		return entities.Participant{}, domainerrors.ErrParticipantNotFound
	}
	return participant, nil
}

func (s *Store) FindByName(_ context.Context, displayName string) (entities.Participant, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, participant := range s.participants {
		if strings.EqualFold(participant.DisplayName, displayName) {
			return participant, true, nil
		}
	}
	return entities.Participant{}, false, nil
}

func (s *Store) ListParticipants(_ context.Context, activeOnly bool) ([]entities.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []entities.Participant
	for _, participant := range s.participants {
		if activeOnly && !participant.Active {
			continue
		}
		items = append(items, participant)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].JoinedAt.Equal(items[j].JoinedAt) {
			return items[i].ParticipantID < items[j].ParticipantID
		}
		return items[i].JoinedAt.Before(items[j].JoinedAt)
	})
	return items, nil
}

func (s *Store) SetSpectator(_ context.Context, participantID string, spectator bool, at time.Time) (entities.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	participant, ok := s.participants[participantID]
	if !ok {
		return entities.Participant{}, domainerrors.ErrParticipantNotFound
	}
	participant.Spectator = spectator
	participant.LastSeenAt = at
	s.participants[participantID] = participant
	return participant, nil
}

func (s *Store) SetActive(_ context.Context, participantID string, active bool, at time.Time) (entities.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	participant, ok := s.participants[participantID]
	if !ok {
		return entities.Participant{}, domainerrors.ErrParticipantNotFound
	}
	participant.Active = active
	participant.LastSeenAt = at
	s.participants[participantID] = participant
	return participant, nil
}

func (s *Store) TouchPresence(_ context.Context, participantID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	participant, ok := s.participants[participantID]
	if !ok {
		return domainerrors.ErrParticipantNotFound
	}
	participant.LastSeenAt = at
	s.participants[participantID] = participant
	return nil
}

// Now implements ports.Clock for in-memory wiring.
func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

// NewID implements ports.IDGenerator for in-memory wiring.
func (s *Store) NewID(context.Context) (string, error) {
	return uuid.NewString(), nil
}
