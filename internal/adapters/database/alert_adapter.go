package database

import (
	"context"

	"github.com/doug-martin/goqu/v9"

	"github.com/kweriko/medverify-backend/internal/domain/entities"
	"github.com/kweriko/medverify-backend/internal/domain/repositories"
	"github.com/kweriko/medverify-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/kweriko/medverify-backend/pkg/errors"
)

const intakeAlertsTable = "intake_alerts"

// AlertAdapter persists caregiver alerts in Postgres.
type AlertAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewAlertAdapter creates a new alert adapter
func NewAlertAdapter(client *postgres.Client) repositories.AlertRepository {
	return &AlertAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Save stores an alert
func (a *AlertAdapter) Save(ctx context.Context, alert *entities.IntakeAlert) error {
	record := goqu.Record{
		"alert_id":      alert.AlertID,
		"event_id":      alert.EventID,
		"intake_status": string(alert.IntakeStatus),
		"recipient":     alert.Recipient,
		"message":       alert.Message,
		"status":        string(alert.Status),
		"message_id":    alert.MessageID,
		"error":         alert.Error,
		"created_at":    alert.CreatedAt,
	}

	query, args, err := a.db.Insert(intakeAlertsTable).Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build alert insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to store alert", err)
	}
	return nil
}

// ListByEvent returns alerts raised for a verification event
func (a *AlertAdapter) ListByEvent(ctx context.Context, eventID string) ([]*entities.IntakeAlert, error) {
	query, args, err := a.db.From(intakeAlertsTable).
		Select("alert_id", "event_id", "intake_status", "recipient", "message", "status", "message_id", "error", "created_at").
		Where(goqu.C("event_id").Eq(eventID)).
		Order(goqu.C("created_at").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build alert list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list alerts", err)
	}
	defer rows.Close()

	alerts := []*entities.IntakeAlert{}
	for rows.Next() {
		alert := &entities.IntakeAlert{}
		var status, intakeStatus string
		if err := rows.Scan(
			&alert.AlertID,
			&alert.EventID,
			&intakeStatus,
			&alert.Recipient,
			&alert.Message,
			&status,
			&alert.MessageID,
			&alert.Error,
			&alert.CreatedAt,
		); err != nil {
			return nil, apperrors.NewInternalError("failed to scan alert", err)
		}
		alert.IntakeStatus = entities.IntakeStatus(intakeStatus)
		alert.Status = entities.AlertStatus(status)
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate alerts", err)
	}
	return alerts, nil
}
