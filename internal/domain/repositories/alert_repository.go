package repositories

import (
	"context"

	"github.com/kweriko/medverify-backend/internal/domain/entities"
)

// AlertRepository defines the store of caregiver alerts.
type AlertRepository interface {
	// Save stores an alert.
	Save(ctx context.Context, alert *entities.IntakeAlert) error

	// ListByEvent returns alerts raised for a verification event.
	ListByEvent(ctx context.Context, eventID string) ([]*entities.IntakeAlert, error)
}
