//go:build integration

package integration

import (
	"context"
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kweriko/medverify-backend/internal/infrastructure/clients/postgres"
	"github.com/kweriko/medverify-backend/internal/infrastructure/clients/redis"
	"github.com/kweriko/medverify-backend/pkg/config"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func newTestRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	cfg := &config.RedisConfig{
		Host:     getEnv("TEST_REDIS_HOST", "localhost"),
		Port:     getEnvAsInt("TEST_REDIS_PORT", 6379),
		Password: getEnv("TEST_REDIS_PASSWORD", ""),
		DB:       getEnvAsInt("TEST_REDIS_DB", 0),
	}

	client, err := redis.NewClient(cfg)
	require.NoError(t, err, "Failed to create redis client")
	return client
}

func newTestPostgresClient(t *testing.T) *postgres.Client {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Host:     getEnv("TEST_DB_HOST", "localhost"),
		Port:     getEnvAsInt("TEST_DB_PORT", 5432),
		User:     getEnv("TEST_DB_USER", "postgres"),
		Password: getEnv("TEST_DB_PASSWORD", "postgres"),
		Database: getEnv("TEST_DB_NAME", "medverify_test"),
		SSLMode:  getEnv("TEST_DB_SSLMODE", "disable"),
	}

	client, err := postgres.NewClient(cfg)
	require.NoError(t, err, "Failed to create postgres client")
	return client
}

const testSchema = `
CREATE TABLE IF NOT EXISTS review_queue (
	position               BIGSERIAL,
	extraction_id          TEXT PRIMARY KEY,
	ocr_confidence         DOUBLE PRECISION NOT NULL,
	ner_confidence         DOUBLE PRECISION NOT NULL,
	validation_confidence  DOUBLE PRECISION NOT NULL,
	overall_confidence     DOUBLE PRECISION NOT NULL,
	requires_manual_review BOOLEAN NOT NULL,
	review_status          TEXT NOT NULL,
	review_notes           TEXT NOT NULL DEFAULT '',
	extracted_data         JSONB,
	created_at             TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS verification_events (
	event_id         TEXT PRIMARY KEY,
	event_timestamp  TIMESTAMPTZ NOT NULL,
	status           TEXT NOT NULL,
	final_confidence DOUBLE PRECISION NOT NULL,
	payload          JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS intake_alerts (
	alert_id      TEXT PRIMARY KEY,
	event_id      TEXT NOT NULL,
	intake_status TEXT NOT NULL,
	recipient     TEXT NOT NULL,
	message       TEXT NOT NULL,
	status        TEXT NOT NULL,
	message_id    TEXT NOT NULL DEFAULT '',
	error         TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// setupSchema creates the tables and truncates them so each test starts clean.
func setupSchema(t *testing.T, client *postgres.Client) {
	t.Helper()
	ctx := context.Background()

	_, err := client.DB().ExecContext(ctx, testSchema)
	require.NoError(t, err, "Failed to create test schema")

	_, err = client.DB().ExecContext(ctx, `
		TRUNCATE TABLE review_queue, verification_events, intake_alerts RESTART IDENTITY
	`)
	require.NoError(t, err, "Failed to truncate test tables")
}
