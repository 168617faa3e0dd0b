package repositories

import (
	"context"

	"github.com/kweriko/medverify-backend/internal/domain/entities"
)

// ExtractionSearchParams filters an extraction search
type ExtractionSearchParams struct {
	// Query matches against drug names and recognized text; "*" matches all
	Query string
	// Status filters by review status when set
	Status entities.ReviewStatus
	// RequiresReview filters to queued extractions when set
	RequiresReview *bool
	Limit          int
	Offset         int
}

// ExtractionSearchResult is the indexed projection of a scored extraction
type ExtractionSearchResult struct {
	ExtractionID      string                `json:"extraction_id"`
	DrugNames         []string              `json:"drug_names"`
	ReviewStatus      entities.ReviewStatus `json:"review_status"`
	RequiresReview    bool                  `json:"requires_review"`
	OverallConfidence float64               `json:"overall_confidence"`
}

// ExtractionSearchRepository indexes scored extractions for reviewer triage
type ExtractionSearchRepository interface {
	// Index upserts a scored extraction into the search index
	Index(ctx context.Context, score *entities.ConfidenceScore) error

	// Delete removes an extraction from the index
	Delete(ctx context.Context, extractionID string) error

	// Search finds extractions by drug name or text
	Search(ctx context.Context, params ExtractionSearchParams) ([]*ExtractionSearchResult, error)
}
