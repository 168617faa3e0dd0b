package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/kweriko/medverify-backend/internal/domain/entities"
	"github.com/kweriko/medverify-backend/internal/domain/repositories"
	tsclient "github.com/kweriko/medverify-backend/internal/infrastructure/clients/typesense"
)

// TypesenseAdapter indexes scored extractions for reviewer triage
type TypesenseAdapter struct {
	client *tsclient.Client
}

var _ repositories.ExtractionSearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// Index upserts a scored extraction into the search index
func (a *TypesenseAdapter) Index(ctx context.Context, score *entities.ConfidenceScore) error {
	drugNames := []string{}
	fullText := ""
	if score.ExtractedData != nil {
		fullText = score.ExtractedData.FullText
		for _, med := range score.ExtractedData.Medications {
			if med.DrugName != "" {
				drugNames = append(drugNames, med.DrugName)
			}
		}
	}

	document := map[string]interface{}{
		"id":                 score.ExtractionID,
		"drug_names":         drugNames,
		"full_text":          fullText,
		"review_status":      string(score.ReviewStatus),
		"requires_review":    score.RequiresManualReview,
		"overall_confidence": score.OverallConfidence,
		"created_at":         score.CreatedAt.Unix(),
	}

	if _, err := a.client.Client().Collection(tsclient.ExtractionsCollection).Documents().Upsert(ctx, document); err != nil {
		return fmt.Errorf("failed to index extraction: %w", err)
	}
	return nil
}

// Delete removes an extraction from the index
func (a *TypesenseAdapter) Delete(ctx context.Context, extractionID string) error {
	if _, err := a.client.Client().Collection(tsclient.ExtractionsCollection).Document(extractionID).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete extraction from index: %w", err)
	}
	return nil
}

// Search finds extractions by drug name or recognized text
func (a *TypesenseAdapter) Search(ctx context.Context, params repositories.ExtractionSearchParams) ([]*repositories.ExtractionSearchResult, error) {
	query := params.Query
	if query == "" {
		query = "*"
	}
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	filters := []string{}
	if params.Status != "" {
		filters = append(filters, fmt.Sprintf("review_status:=%s", params.Status))
	}
	if params.RequiresReview != nil {
		filters = append(filters, fmt.Sprintf("requires_review:=%t", *params.RequiresReview))
	}

	searchParams := &api.SearchCollectionParams{
		Q:       pointer.String(query),
		QueryBy: pointer.String("drug_names,full_text"),
		SortBy:  pointer.String("created_at:desc"),
		Page:    pointer.Int(params.Offset/limit + 1),
		PerPage: pointer.Int(limit),
	}
	if len(filters) > 0 {
		searchParams.FilterBy = pointer.String(strings.Join(filters, " && "))
	}

	result, err := a.client.Client().Collection(tsclient.ExtractionsCollection).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("failed to search extractions: %w", err)
	}

	results := []*repositories.ExtractionSearchResult{}
	if result.Hits == nil {
		return results, nil
	}
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		results = append(results, documentToResult(*hit.Document))
	}
	return results, nil
}

func documentToResult(doc map[string]interface{}) *repositories.ExtractionSearchResult {
	result := &repositories.ExtractionSearchResult{}

	if id, ok := doc["id"].(string); ok {
		result.ExtractionID = id
	}
	if status, ok := doc["review_status"].(string); ok {
		result.ReviewStatus = entities.ReviewStatus(status)
	}
	if requires, ok := doc["requires_review"].(bool); ok {
		result.RequiresReview = requires
	}
	if confidence, ok := doc["overall_confidence"].(float64); ok {
		result.OverallConfidence = confidence
	}
	if names, ok := doc["drug_names"].([]interface{}); ok {
		for _, n := range names {
			if name, ok := n.(string); ok {
				result.DrugNames = append(result.DrugNames, name)
			}
		}
	}
	return result
}
