package services

import (
	"context"
	"time"

	"github.com/kweriko/medverify-backend/internal/domain/entities"
	"github.com/kweriko/medverify-backend/internal/domain/providers"
	"github.com/kweriko/medverify-backend/internal/domain/repositories"
	"github.com/kweriko/medverify-backend/internal/infrastructure/observability"
	apperrors "github.com/kweriko/medverify-backend/pkg/errors"
)

// VerificationService wraps the fusion engine with persistence, statistics
// and event publication.
type VerificationService struct {
	engine   *VerificationEngine
	repo     repositories.VerificationRepository
	eventBus providers.EventBus
	metrics  *observability.Metrics
	alerts   *CaregiverAlertService
}

func NewVerificationService(engine *VerificationEngine, repo repositories.VerificationRepository) *VerificationService {
	return &VerificationService{engine: engine, repo: repo}
}

// SetEventBus attaches an event bus for intake notifications. Optional; the
// service works without one.
func (s *VerificationService) SetEventBus(bus providers.EventBus) {
	s.eventBus = bus
}

// SetMetrics attaches OTEL metrics recording. Optional.
func (s *VerificationService) SetMetrics(m *observability.Metrics) {
	s.metrics = m
}

// SetAlerts attaches caregiver alerting for rejected and uncertain
// intakes. Optional.
func (s *VerificationService) SetAlerts(alerts *CaregiverAlertService) {
	s.alerts = alerts
}

// Verify fuses the modality evidence, stores the resulting event and
// notifies subscribers.
func (s *VerificationService) Verify(
	ctx context.Context,
	pill *entities.PillTrajectory,
	hand *entities.HandTrajectory,
	action *entities.ActionSequence,
	meta *entities.VideoMetadata,
) (*entities.VerificationEvent, error) {
	start := time.Now()

	event := s.engine.VerifyIntake(ctx, pill, hand, action, meta)
	observability.RecordFusionDuration(ctx, s.metrics, string(event.Status), time.Since(start))

	if err := s.repo.Save(ctx, event); err != nil {
		return nil, apperrors.NewInternalError("failed to store verification event", err)
	}

	s.publish(ctx, event)

	if s.alerts != nil {
		if _, err := s.alerts.HandleVerification(ctx, event); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).
				Str("event_id", event.EventID).
				Msg("Failed to raise caregiver alert")
		}
	}
	return event, nil
}

// GetEvent fetches a stored verification event by ID.
func (s *VerificationService) GetEvent(ctx context.Context, eventID string) (*entities.VerificationEvent, error) {
	if eventID == "" {
		return nil, apperrors.NewValidationError("event ID is required")
	}
	return s.repo.Get(ctx, eventID)
}

// Report renders the stored event as a human-readable summary.
func (s *VerificationService) Report(ctx context.Context, eventID string) (string, error) {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return "", err
	}
	return s.engine.GenerateReport(event), nil
}

// Statistics aggregates all stored verification events. Computed fresh on
// every call.
func (s *VerificationService) Statistics(ctx context.Context) (*entities.VerificationStatistics, error) {
	events, err := s.repo.List(ctx, 0)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list verification events", err)
	}

	stats := &entities.VerificationStatistics{
		Total:    len(events),
		ByStatus: make(map[entities.IntakeStatus]int),
	}
	var sum float64
	for _, e := range events {
		stats.ByStatus[e.Status]++
		sum += e.FinalConfidence
	}
	if stats.Total > 0 {
		stats.MeanConfidence = sum / float64(stats.Total)
	}
	return stats, nil
}

func (s *VerificationService) publish(ctx context.Context, event *entities.VerificationEvent) {
	if s.eventBus == nil {
		return
	}

	notice := entities.NewReviewEvent(event.EventID, entities.ReviewEventTypeIntakeVerification, event.FinalConfidence)
	notice.IntakeStatus = event.Status

	if err := s.eventBus.Publish(ctx, providers.EventChannelVerifications, notice); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).
			Str("event_id", event.EventID).
			Msg("Failed to publish verification event")
	}
}
