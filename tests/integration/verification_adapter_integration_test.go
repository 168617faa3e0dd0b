//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kweriko/medverify-backend/internal/adapters/database"
	"github.com/kweriko/medverify-backend/internal/domain/entities"
	apperrors "github.com/kweriko/medverify-backend/pkg/errors"
)

func newEvent(eventID string, status entities.IntakeStatus, confidence float64, at time.Time) *entities.VerificationEvent {
	return &entities.VerificationEvent{
		EventID:         eventID,
		Timestamp:       at,
		Status:          status,
		FinalConfidence: confidence,
	}
}

func TestVerificationAdapterIntegration(t *testing.T) {
	if os.Getenv("TEST_DB_HOST") == "" {
		t.Skip("Skipping integration test: TEST_DB_HOST not set")
	}

	pgClient := newTestPostgresClient(t)
	defer pgClient.Close()
	setupSchema(t, pgClient)

	repo := database.NewVerificationAdapter(pgClient)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	t.Run("save and get round trip", func(t *testing.T) {
		event := newEvent("evt_roundtrip", entities.IntakeStatusConfirmed, 0.7575, base)
		require.NoError(t, repo.Save(ctx, event))

		got, err := repo.Get(ctx, "evt_roundtrip")
		require.NoError(t, err)
		assert.Equal(t, entities.IntakeStatusConfirmed, got.Status)
		assert.InDelta(t, 0.7575, got.FinalConfidence, 1e-9)
	})

	t.Run("get missing returns not found", func(t *testing.T) {
		_, err := repo.Get(ctx, "evt_missing")
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})

	t.Run("list returns newest first with limit", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			event := newEvent(
				fmt.Sprintf("evt_order_%d", i),
				entities.IntakeStatusLikely,
				0.65,
				base.Add(time.Duration(i+1)*time.Minute),
			)
			require.NoError(t, repo.Save(ctx, event))
		}

		events, err := repo.List(ctx, 2)
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, "evt_order_2", events[0].EventID)
		assert.Equal(t, "evt_order_1", events[1].EventID)
	})
}

func TestAlertAdapterIntegration(t *testing.T) {
	if os.Getenv("TEST_DB_HOST") == "" {
		t.Skip("Skipping integration test: TEST_DB_HOST not set")
	}

	pgClient := newTestPostgresClient(t)
	defer pgClient.Close()
	setupSchema(t, pgClient)

	repo := database.NewAlertAdapter(pgClient)
	ctx := context.Background()

	alert := &entities.IntakeAlert{
		AlertID:      "alert_1",
		EventID:      "evt_rejected",
		IntakeStatus: entities.IntakeStatusRejected,
		Recipient:    "+14155550100",
		Message:      "Medication intake could not be verified.",
		Status:       entities.AlertStatusSent,
		MessageID:    "wamid.abc123",
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, repo.Save(ctx, alert))

	alerts, err := repo.ListByEvent(ctx, "evt_rejected")
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "alert_1", alerts[0].AlertID)
	assert.Equal(t, entities.AlertStatusSent, alerts[0].Status)
	assert.Equal(t, "wamid.abc123", alerts[0].MessageID)

	none, err := repo.ListByEvent(ctx, "evt_other")
	require.NoError(t, err)
	assert.Empty(t, none)
}
