package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kweriko/medverify-backend/internal/domain/entities"
	"github.com/kweriko/medverify-backend/internal/domain/repositories"
	"github.com/kweriko/medverify-backend/internal/infrastructure/observability"
	apperrors "github.com/kweriko/medverify-backend/pkg/errors"
)

// MessageSender delivers a text message to a phone number and returns the
// provider message ID.
type MessageSender interface {
	SendText(to, body string) (string, error)
}

// CaregiverAlertService notifies a caregiver when an intake verification
// comes back rejected or uncertain. Every alert is persisted with its
// delivery outcome so missed doses can be audited later.
type CaregiverAlertService struct {
	sender     MessageSender
	repo       repositories.AlertRepository
	recipient  string
	shadowMode bool
}

func NewCaregiverAlertService(sender MessageSender, repo repositories.AlertRepository, recipient string) *CaregiverAlertService {
	return &CaregiverAlertService{
		sender:    sender,
		repo:      repo,
		recipient: recipient,
	}
}

// SetShadowMode makes the service log alerts instead of sending them.
// Useful while tuning fusion thresholds against live traffic.
func (s *CaregiverAlertService) SetShadowMode(enabled bool) {
	s.shadowMode = enabled
}

// HandleVerification raises an alert for the event if its status warrants
// one. Returns nil without error when no alert is needed.
func (s *CaregiverAlertService) HandleVerification(ctx context.Context, event *entities.VerificationEvent) (*entities.IntakeAlert, error) {
	if event == nil {
		return nil, apperrors.NewValidationError("verification event is required")
	}
	if !s.shouldAlert(event.Status) {
		return nil, nil
	}
	if s.recipient == "" {
		return nil, apperrors.NewValidationError("no caregiver recipient configured")
	}

	alert := &entities.IntakeAlert{
		AlertID:      uuid.New().String(),
		EventID:      event.EventID,
		IntakeStatus: event.Status,
		Recipient:    s.recipient,
		Message:      s.composeMessage(event),
		Status:       entities.AlertStatusPending,
		CreatedAt:    time.Now().UTC(),
	}

	logger := observability.LoggerFromContext(ctx)

	if s.shadowMode {
		logger.Info().
			Str("event_id", event.EventID).
			Str("intake_status", string(event.Status)).
			Msg("Shadow mode: caregiver alert suppressed")
	} else {
		messageID, err := s.sender.SendText(alert.Recipient, alert.Message)
		if err != nil {
			alert.Status = entities.AlertStatusFailed
			alert.Error = err.Error()
			logger.Error().Err(err).
				Str("event_id", event.EventID).
				Msg("Failed to send caregiver alert")
		} else {
			alert.Status = entities.AlertStatusSent
			alert.MessageID = messageID
		}
	}

	if err := s.repo.Save(ctx, alert); err != nil {
		return nil, apperrors.NewInternalError("failed to store caregiver alert", err)
	}
	return alert, nil
}

// AlertsForEvent returns the alerts raised for a verification event.
func (s *CaregiverAlertService) AlertsForEvent(ctx context.Context, eventID string) ([]*entities.IntakeAlert, error) {
	if eventID == "" {
		return nil, apperrors.NewValidationError("event ID is required")
	}
	return s.repo.ListByEvent(ctx, eventID)
}

func (s *CaregiverAlertService) shouldAlert(status entities.IntakeStatus) bool {
	return status == entities.IntakeStatusRejected || status == entities.IntakeStatusUncertain
}

func (s *CaregiverAlertService) composeMessage(event *entities.VerificationEvent) string {
	when := event.Timestamp.Format("Jan 2 15:04")
	switch event.Status {
	case entities.IntakeStatusRejected:
		return fmt.Sprintf(
			"Medication intake at %s could not be verified (confidence %.0f%%). Please check on the patient.",
			when, event.FinalConfidence*100,
		)
	default:
		return fmt.Sprintf(
			"Medication intake at %s is uncertain (confidence %.0f%%). A follow-up may be needed.",
			when, event.FinalConfidence*100,
		)
	}
}
