package memory

import (
	"context"
	"sync"

	"github.com/kweriko/medverify-backend/internal/domain/entities"
	"github.com/kweriko/medverify-backend/internal/domain/repositories"
	apperrors "github.com/kweriko/medverify-backend/pkg/errors"
)

// VerificationStore keeps intake verification events in memory, newest last.
type VerificationStore struct {
	mu     sync.Mutex
	events []*entities.VerificationEvent
	byID   map[string]*entities.VerificationEvent
}

// NewVerificationStore creates an empty verification event store
func NewVerificationStore() *VerificationStore {
	return &VerificationStore{
		byID: make(map[string]*entities.VerificationEvent),
	}
}

var _ repositories.VerificationRepository = (*VerificationStore)(nil)

// Save stores a verification event
func (s *VerificationStore) Save(_ context.Context, event *entities.VerificationEvent) error {
	if event == nil || event.EventID == "" {
		return apperrors.NewValidationError("event with event ID is required")
	}

	copied := *event

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[event.EventID]; !exists {
		s.events = append(s.events, &copied)
	}
	s.byID[event.EventID] = &copied
	return nil
}

// Get returns the event with the given ID
func (s *VerificationStore) Get(_ context.Context, eventID string) (*entities.VerificationEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.byID[eventID]
	if !ok {
		return nil, apperrors.NewNotFoundError("verification event " + eventID + " not found")
	}
	copied := *event
	return &copied, nil
}

// List returns stored events, newest first, up to limit (0 means all)
func (s *VerificationStore) List(_ context.Context, limit int) ([]*entities.VerificationEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := []*entities.VerificationEvent{}
	for i := len(s.events) - 1; i >= 0; i-- {
		if limit > 0 && len(results) >= limit {
			break
		}
		copied := *s.events[i]
		results = append(results, &copied)
	}
	return results, nil
}
