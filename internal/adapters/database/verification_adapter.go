package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/kweriko/medverify-backend/internal/domain/entities"
	"github.com/kweriko/medverify-backend/internal/domain/repositories"
	"github.com/kweriko/medverify-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/kweriko/medverify-backend/pkg/errors"
)

const verificationEventsTable = "verification_events"

// VerificationAdapter persists intake verification events in Postgres.
// The full event is stored as JSONB next to the queryable columns so the
// audit trail keeps the complete evidence.
type VerificationAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewVerificationAdapter creates a new verification event adapter
func NewVerificationAdapter(client *postgres.Client) repositories.VerificationRepository {
	return &VerificationAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Save stores a verification event
func (a *VerificationAdapter) Save(ctx context.Context, event *entities.VerificationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return apperrors.NewInternalError("failed to marshal verification event", err)
	}

	record := goqu.Record{
		"event_id":         event.EventID,
		"event_timestamp":  event.Timestamp,
		"status":           string(event.Status),
		"final_confidence": event.FinalConfidence,
		"payload":          payload,
	}

	query, args, err := a.db.Insert(verificationEventsTable).Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build verification insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to store verification event", err)
	}
	return nil
}

// Get retrieves a verification event by ID
func (a *VerificationAdapter) Get(ctx context.Context, eventID string) (*entities.VerificationEvent, error) {
	query, args, err := a.db.From(verificationEventsTable).
		Select("payload").
		Where(goqu.C("event_id").Eq(eventID)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build verification select query", err)
	}

	var payload []byte
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("verification event %s not found", eventID))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get verification event", err)
	}

	event := &entities.VerificationEvent{}
	if err := json.Unmarshal(payload, event); err != nil {
		return nil, apperrors.NewInternalError("failed to unmarshal verification event", err)
	}
	return event, nil
}

// List returns stored events newest first; limit 0 means all
func (a *VerificationAdapter) List(ctx context.Context, limit int) ([]*entities.VerificationEvent, error) {
	ds := a.db.From(verificationEventsTable).
		Select("payload").
		Order(goqu.C("event_timestamp").Desc())
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build verification list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list verification events", err)
	}
	defer rows.Close()

	events := []*entities.VerificationEvent{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, apperrors.NewInternalError("failed to scan verification event", err)
		}
		event := &entities.VerificationEvent{}
		if err := json.Unmarshal(payload, event); err != nil {
			return nil, apperrors.NewInternalError("failed to unmarshal verification event", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate verification events", err)
	}
	return events, nil
}
