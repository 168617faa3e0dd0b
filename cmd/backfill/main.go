package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/kweriko/medverify-backend/internal/adapters/cache"
	"github.com/kweriko/medverify-backend/internal/adapters/database"
	"github.com/kweriko/medverify-backend/internal/adapters/providers/extraction"
	"github.com/kweriko/medverify-backend/internal/application/services"
	"github.com/kweriko/medverify-backend/internal/domain/entities"
	"github.com/kweriko/medverify-backend/internal/domain/providers"
	"github.com/kweriko/medverify-backend/internal/infrastructure/clients/postgres"
	"github.com/kweriko/medverify-backend/internal/infrastructure/clients/redis"
	"github.com/kweriko/medverify-backend/pkg/config"
)

// Re-runs drug validation for queued extractions against the current drug
// database and re-scores them in place. Useful after RxNav catches up with a
// new formulary: entries keep their queue position, only confidences move.
func main() {
	var workers int
	var extractionID string

	flag.IntVar(&workers, "workers", 3, "Number of concurrent workers")
	flag.StringVar(&extractionID, "extraction", "", "Single extraction ID to revalidate")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pgClient.Close()

	reviewRepo := database.NewReviewAdapter(pgClient)

	var cacheProvider providers.CacheProvider
	if redisClient, err := redis.NewClient(&cfg.Redis); err == nil {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient)
	} else {
		log.Printf("Warning: Redis unavailable, revalidating without cache: %v", err)
	}

	validator := extraction.NewRxNavProvider(
		cfg.Extraction.RxNavURL,
		cacheProvider,
		cfg.Extraction.ValidationCacheTTLSeconds,
	)

	scorer, err := services.NewConfidenceScorer(cfg.Scoring, reviewRepo)
	if err != nil {
		log.Fatalf("Failed to build confidence scorer: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	start := time.Now()

	var entries []*entities.ConfidenceScore
	if extractionID != "" {
		entry, err := reviewRepo.Get(ctx, extractionID)
		if err != nil {
			log.Fatalf("Failed to load extraction %s: %v", extractionID, err)
		}
		entries = append(entries, entry)
	} else {
		entries, err = reviewRepo.ListPending(ctx)
		if err != nil {
			log.Fatalf("Failed to list pending extractions: %v", err)
		}
	}

	log.Printf("Revalidating %d extraction(s) with %d workers...", len(entries), workers)

	var processed, changed, failed atomic.Int64
	jobs := make(chan *entities.ConfidenceScore)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range jobs {
				updated, err := revalidate(ctx, validator, scorer, entry)
				if err != nil {
					failed.Add(1)
					log.Printf("Failed to revalidate %s: %v", entry.ExtractionID, err)
					continue
				}
				processed.Add(1)
				if updated {
					changed.Add(1)
				}
			}
		}()
	}

feed:
	for _, entry := range entries {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- entry:
		}
	}
	close(jobs)
	wg.Wait()

	log.Printf("Revalidation complete in %s", time.Since(start))
	log.Printf("Processed: %d", processed.Load())
	log.Printf("Changed:   %d", changed.Load())
	log.Printf("Failed:    %d", failed.Load())
}

// revalidate recomputes the validation confidence for one queue entry and
// re-scores it; reports whether the validation component moved.
func revalidate(
	ctx context.Context,
	validator providers.DrugValidationProvider,
	scorer *services.ConfidenceScorer,
	entry *entities.ConfidenceScore,
) (bool, error) {
	if entry.ExtractedData == nil || len(entry.ExtractedData.Medications) == 0 {
		return false, nil
	}

	validation := 0.0
	for _, med := range entry.ExtractedData.Medications {
		if med.DrugName == "" {
			continue
		}
		result, err := validator.ValidatePrescription(ctx, med.DrugName, med.Dosage, med.Frequency)
		if err != nil {
			return false, err
		}
		if confidence := services.DeriveValidationConfidence(result); confidence > validation {
			validation = confidence
		}
	}
	if validation == 0 {
		return false, nil
	}

	if validation == entry.ValidationConfidence {
		return false, nil
	}

	_, err := scorer.Calculate(ctx, entry.ExtractionID, entry.OCRConfidence, entry.NERConfidence, validation, entry.ExtractedData)
	return err == nil, err
}
