// Command seed bootstraps the Postgres schema and the Typesense collection,
// then optionally queues a few demo extractions so the review dashboard has
// something to show. Re-runnable; pass RESET_DB=true to start clean.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/kweriko/medverify-backend/internal/adapters/database"
	"github.com/kweriko/medverify-backend/internal/adapters/search"
	"github.com/kweriko/medverify-backend/internal/application/services"
	"github.com/kweriko/medverify-backend/internal/domain/entities"
	"github.com/kweriko/medverify-backend/internal/infrastructure/clients/postgres"
	"github.com/kweriko/medverify-backend/internal/infrastructure/clients/typesense"
	"github.com/kweriko/medverify-backend/pkg/config"
)

const schema = `
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

CREATE INDEX IF NOT EXISTS idx_review_queue_status ON review_queue (review_status, position);

CREATE TABLE IF NOT EXISTS verification_events (
	event_id         TEXT PRIMARY KEY,
	event_timestamp  TIMESTAMPTZ NOT NULL,
	status           TEXT NOT NULL,
	final_confidence DOUBLE PRECISION NOT NULL,
	payload          JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_verification_events_status ON verification_events (status, event_timestamp DESC);

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

CREATE INDEX IF NOT EXISTS idx_intake_alerts_event ON intake_alerts (event_id, created_at);
`

func main() {
	start := time.Now()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	ctx := context.Background()

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, dropping tables before bootstrapping")
		_, err := pgClient.DB().ExecContext(ctx, `
			DROP TABLE IF EXISTS review_queue, verification_events, intake_alerts CASCADE
		`)
		if err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
	}

	if _, err := pgClient.DB().ExecContext(ctx, schema); err != nil {
		log.Fatalf("Failed to create schema: %v", err)
	}
	log.Println("Postgres schema ready")

	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		log.Printf("Warning: Typesense unavailable, skipping collection setup: %v", err)
	} else if err := tsClient.InitSchema(ctx); err != nil {
		log.Printf("Warning: failed to init Typesense collection: %v", err)
	} else {
		log.Println("Typesense collection ready")
	}

	if os.Getenv("SEED_DEMO_DATA") != "true" {
		return
	}

	reviewRepo := database.NewReviewAdapter(pgClient)
	scorer, err := services.NewConfidenceScorer(cfg.Scoring, reviewRepo)
	if err != nil {
		log.Fatalf("Failed to build scorer: %v", err)
	}

	demo := []struct {
		ocr, ner, validation float64
		data                 *entities.ExtractedData
	}{
		{0.52, 0.61, 0.5, &entities.ExtractedData{
			Medications: []entities.Medication{{DrugName: "amoxicillin", Dosage: "500mg", Frequency: "tid"}},
			FullText:    "Amoxicillin 500mg three times daily",
		}},
		{0.48, 0.55, 0.7, &entities.ExtractedData{
			Medications: []entities.Medication{{DrugName: "lisinopril", Dosage: "10mg", Frequency: "qd"}},
			FullText:    "Lisinopril 10mg once daily",
		}},
		{0.95, 0.92, 0.9, &entities.ExtractedData{
			Medications: []entities.Medication{{DrugName: "metformin", Dosage: "850mg", Frequency: "bid"}},
			FullText:    "Metformin 850mg twice daily",
		}},
	}

	indexed := 0
	var searchRepo *search.TypesenseAdapter
	if tsClient != nil {
		searchRepo = search.NewTypesenseAdapter(tsClient)
	}

	for _, d := range demo {
		id := uuid.New().String()
		score, err := scorer.Calculate(ctx, id, d.ocr, d.ner, d.validation, d.data)
		if err != nil {
			log.Fatalf("Failed to score demo extraction: %v", err)
		}
		if searchRepo != nil {
			if err := searchRepo.Index(ctx, score); err != nil {
				log.Printf("Warning: failed to index %s: %v", id, err)
				continue
			}
			indexed++
		}
	}

	log.Printf("Seeded %d demo extractions (%d indexed) in %s", len(demo), indexed, time.Since(start).Round(time.Millisecond))
}
