package memory

import (
	"context"
	"sync"

	"github.com/kweriko/medverify-backend/internal/domain/entities"
	"github.com/kweriko/medverify-backend/internal/domain/repositories"
	apperrors "github.com/kweriko/medverify-backend/pkg/errors"
)

// ReviewStore is the in-memory review queue: an insertion-ordered map guarded
// by one mutex. Entries are replaced whole, never mutated field by field, so
// readers can never observe a partially-written score.
type ReviewStore struct {
	mu      sync.Mutex
	entries map[string]*entities.ConfidenceScore
	order   []string
}

// NewReviewStore creates an empty review store
func NewReviewStore() *ReviewStore {
	return &ReviewStore{
		entries: make(map[string]*entities.ConfidenceScore),
	}
}

var _ repositories.ReviewRepository = (*ReviewStore)(nil)

// Put inserts or overwrites the entry for the score's extraction ID. A
// re-scored ID keeps its original queue position.
func (s *ReviewStore) Put(_ context.Context, score *entities.ConfidenceScore) error {
	if score == nil || score.ExtractionID == "" {
		return apperrors.NewValidationError("score with extraction ID is required")
	}

	copied := *score

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[score.ExtractionID]; !exists {
		s.order = append(s.order, score.ExtractionID)
	}
	s.entries[score.ExtractionID] = &copied
	return nil
}

// Get returns a copy of the entry for the given extraction ID
func (s *ReviewStore) Get(_ context.Context, extractionID string) (*entities.ConfidenceScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[extractionID]
	if !ok {
		return nil, apperrors.NewNotFoundError("extraction " + extractionID + " not found in review queue")
	}
	copied := *entry
	return &copied, nil
}

// Decide marks a PENDING entry approved or rejected. The status check and
// the write happen under the same lock, so only one of two racing decisions
// can succeed.
func (s *ReviewStore) Decide(_ context.Context, extractionID string, status entities.ReviewStatus, notes string) (*entities.ConfidenceScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[extractionID]
	if !ok {
		return nil, apperrors.NewNotFoundError("extraction " + extractionID + " not found in review queue")
	}
	if entry.ReviewStatus != entities.ReviewStatusPending {
		return nil, apperrors.NewInvalidTransitionError("extraction " + extractionID + " has already been reviewed")
	}

	updated := *entry
	updated.ReviewStatus = status
	updated.ReviewNotes = notes
	s.entries[extractionID] = &updated

	copied := updated
	return &copied, nil
}

// ListPending returns PENDING entries in insertion order
func (s *ReviewStore) ListPending(_ context.Context) ([]*entities.ConfidenceScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := []*entities.ConfidenceScore{}
	for _, id := range s.order {
		if entry := s.entries[id]; entry.ReviewStatus == entities.ReviewStatusPending {
			copied := *entry
			pending = append(pending, &copied)
		}
	}
	return pending, nil
}

// ListAll returns every entry in insertion order
func (s *ReviewStore) ListAll(_ context.Context) ([]*entities.ConfidenceScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]*entities.ConfidenceScore, 0, len(s.order))
	for _, id := range s.order {
		copied := *s.entries[id]
		all = append(all, &copied)
	}
	return all, nil
}
