package repositories

import (
	"context"

	"github.com/kweriko/medverify-backend/internal/domain/entities"
)

// ReviewRepository defines the review queue store. Implementations must
// preserve insertion order (reviewers triage earliest-first) and replace
// entries atomically; entries are never deleted once queued.
type ReviewRepository interface {
	// Put inserts a score keyed by its extraction ID, overwriting any prior
	// entry for the same ID while keeping its original queue position.
	Put(ctx context.Context, score *entities.ConfidenceScore) error

	// Get returns the entry for the given extraction ID.
	Get(ctx context.Context, extractionID string) (*entities.ConfidenceScore, error)

	// Decide marks a PENDING entry approved or rejected and returns the
	// updated entry. The check and the write are one atomic step: a decision
	// on an already-decided entry fails with an invalid-transition error even
	// under concurrent reviewers. The entry keeps its queue position.
	Decide(ctx context.Context, extractionID string, status entities.ReviewStatus, notes string) (*entities.ConfidenceScore, error)

	// ListPending returns all PENDING entries in insertion order.
	ListPending(ctx context.Context) ([]*entities.ConfidenceScore, error)

	// ListAll returns every entry ever queued, in insertion order.
	ListAll(ctx context.Context) ([]*entities.ConfidenceScore, error)
}
