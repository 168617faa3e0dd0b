package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kweriko/medverify-backend/internal/adapters/database"
	"github.com/kweriko/medverify-backend/internal/adapters/search"
	"github.com/kweriko/medverify-backend/internal/infrastructure/clients/postgres"
	"github.com/kweriko/medverify-backend/internal/infrastructure/clients/typesense"
	"github.com/kweriko/medverify-backend/pkg/config"
)

// Rebuilds the Typesense extraction index from the review queue table.
// Run once after schema changes, or on an interval as a consistency sweep.
func main() {
	var reset bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete existing Typesense collection before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	var err error
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			log.Fatalf("Invalid interval %q: %v", intervalValue, err)
		}
		if interval <= 0 {
			log.Fatalf("Interval must be greater than zero")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, reset); err != nil {
			log.Printf("Reindex failed: %v", err)
		}

		if interval <= 0 {
			break
		}

		reset = false
		log.Printf("Reindex complete. Next run in %s.", interval)

		select {
		case <-ctx.Done():
			log.Println("Reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, reset bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	reviewRepo := database.NewReviewAdapter(pgClient)

	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		return err
	}

	if reset || os.Getenv("RESET_TYPESENSE") == "true" {
		log.Println("Deleting extractions collection before reindex")
		if _, err := tsClient.Client().Collection(typesense.ExtractionsCollection).Delete(ctx); err != nil {
			log.Printf("Warning: failed to delete collection: %v", err)
		}
	}

	if err := tsClient.InitSchema(ctx); err != nil {
		return err
	}

	searchRepo := search.NewTypesenseAdapter(tsClient)

	scores, err := reviewRepo.ListAll(ctx)
	if err != nil {
		return err
	}

	indexed := 0
	for _, score := range scores {
		if err := searchRepo.Index(ctx, score); err != nil {
			log.Printf("Warning: failed to index extraction %s: %v", score.ExtractionID, err)
			continue
		}
		indexed++
	}

	log.Printf("Indexed %d of %d extractions", indexed, len(scores))
	return nil
}
