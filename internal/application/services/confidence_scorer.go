package services

import (
	"context"
	"time"

	"github.com/kweriko/medverify-backend/internal/domain/entities"
	"github.com/kweriko/medverify-backend/internal/domain/providers"
	"github.com/kweriko/medverify-backend/internal/domain/repositories"
	"github.com/kweriko/medverify-backend/internal/infrastructure/observability"
	"github.com/kweriko/medverify-backend/pkg/config"
	apperrors "github.com/kweriko/medverify-backend/pkg/errors"
)

// ConfidenceScorer fuses the three upstream extraction confidences into one
// actionable score and maintains the manual review queue. All weighting and
// threshold rules live here; callers never recompute confidence values.
type ConfidenceScorer struct {
	cfg      config.ScoringConfig
	repo     repositories.ReviewRepository
	eventBus providers.EventBus
	metrics  *observability.Metrics
}

// NewConfidenceScorer creates a scorer with an injected review store.
// Weights that do not sum to 1.0 or a threshold outside [0,1] are rejected.
func NewConfidenceScorer(cfg config.ScoringConfig, repo repositories.ReviewRepository) (*ConfidenceScorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	return &ConfidenceScorer{cfg: cfg, repo: repo}, nil
}

// SetEventBus enables real-time review queue updates
func (s *ConfidenceScorer) SetEventBus(bus providers.EventBus) {
	s.eventBus = bus
}

// SetMetrics attaches OTEL metrics recording. Optional.
func (s *ConfidenceScorer) SetMetrics(m *observability.Metrics) {
	s.metrics = m
}

// Calculate scores one extraction attempt. Out-of-range component confidences
// are clamped to [0,1]; an out-of-range input is a caller bug, not a fatal
// error. Items below the review threshold are queued as PENDING; calling
// Calculate again with the same extraction ID overwrites the queue entry
// (idempotent re-scoring, preserved source behavior).
func (s *ConfidenceScorer) Calculate(ctx context.Context, extractionID string, ocr, ner, validation float64, data *entities.ExtractedData) (*entities.ConfidenceScore, error) {
	if extractionID == "" {
		return nil, apperrors.NewValidationError("extraction ID is required")
	}

	ocr = clamp01(ocr)
	ner = clamp01(ner)
	validation = clamp01(validation)

	overall := s.cfg.OCRWeight*ocr + s.cfg.NERWeight*ner + s.cfg.ValidationWeight*validation

	// Boundary overall == threshold does not require review.
	requiresReview := overall < s.cfg.ManualReviewThreshold

	score := &entities.ConfidenceScore{
		ExtractionID:         extractionID,
		OCRConfidence:        ocr,
		NERConfidence:        ner,
		ValidationConfidence: validation,
		OverallConfidence:    overall,
		RequiresManualReview: requiresReview,
		ExtractedData:        data,
		CreatedAt:            time.Now().UTC(),
	}

	if requiresReview {
		score.ReviewStatus = entities.ReviewStatusPending
		if err := s.repo.Put(ctx, score); err != nil {
			return nil, err
		}
		s.publish(ctx, entities.NewReviewEvent(extractionID, entities.ReviewEventTypeQueued, overall))
	}

	return score, nil
}

// PendingReviews returns queue entries awaiting a decision, earliest first
func (s *ConfidenceScorer) PendingReviews(ctx context.Context) ([]*entities.ConfidenceScore, error) {
	return s.repo.ListPending(ctx)
}

// UpdateReviewStatus applies a reviewer decision. Unknown extraction IDs and
// decisions on non-PENDING items are rejected; a terminal decision is never
// overwritten. The pending check lives in the store's Decide so two racing
// reviewers cannot both succeed.
func (s *ConfidenceScorer) UpdateReviewStatus(ctx context.Context, extractionID string, status entities.ReviewStatus, notes string) (*entities.ConfidenceScore, error) {
	if !status.IsTerminal() {
		return nil, apperrors.NewValidationError("review status must be approved or rejected")
	}

	updated, err := s.repo.Decide(ctx, extractionID, status, notes)
	if err != nil {
		return nil, err
	}

	eventType := entities.ReviewEventTypeApproved
	if status == entities.ReviewStatusRejected {
		eventType = entities.ReviewEventTypeRejected
	}
	event := entities.NewReviewEvent(extractionID, eventType, updated.OverallConfidence)
	event.Notes = notes
	s.publish(ctx, event)
	observability.RecordReviewDecision(ctx, s.metrics, string(status))

	return updated, nil
}

// Statistics aggregates the queue, computed fresh on every call
func (s *ConfidenceScorer) Statistics(ctx context.Context) (*entities.ReviewStatistics, error) {
	all, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	stats := &entities.ReviewStatistics{TotalQueued: len(all)}
	var sum float64
	for _, entry := range all {
		sum += entry.OverallConfidence
		switch entry.ReviewStatus {
		case entities.ReviewStatusPending:
			stats.Pending++
		case entities.ReviewStatusApproved:
			stats.Approved++
		case entities.ReviewStatusRejected:
			stats.Rejected++
		}
	}
	if len(all) > 0 {
		stats.MeanConfidence = sum / float64(len(all))
	}
	return stats, nil
}

// DeriveValidationConfidence converts the drug database booleans into the
// validation component confidence: 0.9 when drug and dosage check out, 0.7
// when only the drug is known, 0.5 otherwise.
func DeriveValidationConfidence(validation *entities.DrugValidation) float64 {
	if validation == nil || !validation.DrugValid {
		return 0.5
	}
	if validation.DosageValid {
		return 0.9
	}
	return 0.7
}

func (s *ConfidenceScorer) publish(ctx context.Context, event *entities.ReviewEvent) {
	if s.eventBus == nil {
		return
	}
	channels := []string{
		providers.EventChannelReviewQueue,
		providers.GetExtractionChannel(event.ExtractionID),
	}
	for _, channel := range channels {
		if err := s.eventBus.Publish(ctx, channel, event); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).
				Str("extraction_id", event.ExtractionID).
				Str("channel", channel).
				Msg("failed to publish review event")
		}
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
