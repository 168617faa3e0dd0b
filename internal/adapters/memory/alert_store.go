package memory

import (
	"context"
	"sync"

	"github.com/kweriko/medverify-backend/internal/domain/entities"
	"github.com/kweriko/medverify-backend/internal/domain/repositories"
	apperrors "github.com/kweriko/medverify-backend/pkg/errors"
)

// AlertStore keeps caregiver alerts in memory, in creation order.
type AlertStore struct {
	mu     sync.Mutex
	alerts []*entities.IntakeAlert
}

// NewAlertStore creates an empty alert store
func NewAlertStore() *AlertStore {
	return &AlertStore{}
}

var _ repositories.AlertRepository = (*AlertStore)(nil)

// Save stores an alert
func (s *AlertStore) Save(_ context.Context, alert *entities.IntakeAlert) error {
	if alert == nil || alert.AlertID == "" {
		return apperrors.NewValidationError("alert with alert ID is required")
	}

	copied := *alert

	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, &copied)
	return nil
}

// ListByEvent returns alerts raised for a verification event
func (s *AlertStore) ListByEvent(_ context.Context, eventID string) ([]*entities.IntakeAlert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := []*entities.IntakeAlert{}
	for _, a := range s.alerts {
		if a.EventID == eventID {
			copied := *a
			result = append(result, &copied)
		}
	}
	return result, nil
}
