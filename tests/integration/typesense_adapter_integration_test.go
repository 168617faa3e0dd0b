//go:build integration

package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kweriko/medverify-backend/internal/adapters/search"
	"github.com/kweriko/medverify-backend/internal/domain/entities"
	"github.com/kweriko/medverify-backend/internal/domain/repositories"
	"github.com/kweriko/medverify-backend/internal/infrastructure/clients/typesense"
	"github.com/kweriko/medverify-backend/pkg/config"
)

func TestTypesenseAdapterIntegration(t *testing.T) {
	if os.Getenv("TEST_TYPESENSE_URL") == "" {
		t.Skip("Skipping integration test: TEST_TYPESENSE_URL not set")
	}

	cfg := &config.TypesenseConfig{
		URL:    os.Getenv("TEST_TYPESENSE_URL"),
		APIKey: getEnv("TEST_TYPESENSE_API_KEY", "xyz"),
	}
	client, err := typesense.NewClient(cfg)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, client.InitSchema(ctx))

	adapter := search.NewTypesenseAdapter(client)

	score := &entities.ConfidenceScore{
		ExtractionID:         "rx_search_1",
		OCRConfidence:        0.5,
		NERConfidence:        0.5,
		ValidationConfidence: 0.5,
		OverallConfidence:    0.5,
		RequiresManualReview: true,
		ReviewStatus:         entities.ReviewStatusPending,
		ExtractedData: &entities.ExtractedData{
			Medications: []entities.Medication{{DrugName: "amoxicillin", Dosage: "500mg", Frequency: "tid"}},
			FullText:    "Amoxicillin 500mg three times daily",
		},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, adapter.Index(ctx, score))
	defer adapter.Delete(ctx, "rx_search_1")

	// Typesense indexes asynchronously enough that an immediate search can
	// miss the document.
	time.Sleep(500 * time.Millisecond)

	requiresReview := true
	results, err := adapter.Search(ctx, repositories.ExtractionSearchParams{
		Query:          "amoxicillin",
		Status:         entities.ReviewStatusPending,
		RequiresReview: &requiresReview,
		Limit:          10,
	})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	found := false
	for _, r := range results {
		if r.ExtractionID == "rx_search_1" {
			found = true
			assert.Contains(t, r.DrugNames, "amoxicillin")
			assert.True(t, r.RequiresReview)
		}
	}
	assert.True(t, found, "indexed extraction must be searchable")
}
