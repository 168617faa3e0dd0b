package repositories

import (
	"context"

	"github.com/kweriko/medverify-backend/internal/domain/entities"
)

// VerificationRepository defines the store of past intake verification events.
type VerificationRepository interface {
	// Save stores a verification event.
	Save(ctx context.Context, event *entities.VerificationEvent) error

	// Get returns the event with the given ID.
	Get(ctx context.Context, eventID string) (*entities.VerificationEvent, error)

	// List returns stored events, newest first, up to limit.
	List(ctx context.Context, limit int) ([]*entities.VerificationEvent, error)
}
