package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kweriko/medverify-backend/internal/domain/entities"
	"github.com/kweriko/medverify-backend/internal/domain/providers"
	"github.com/kweriko/medverify-backend/internal/infrastructure/observability"
	apperrors "github.com/kweriko/medverify-backend/pkg/errors"
)

// defaultStageConfidence is used when a downstream collaborator produced no
// usable signal. A missing stage is uncertainty, not failure.
const defaultStageConfidence = 0.5

// ExtractionResult is the full outcome of digitizing one prescription image.
type ExtractionResult struct {
	ExtractionID string                              `json:"extraction_id"`
	Timestamp    time.Time                           `json:"timestamp"`
	FullText     string                              `json:"full_text"`
	Medications  []entities.Medication               `json:"medications"`
	Validations  map[string]*entities.DrugValidation `json:"validations,omitempty"`
	Score        *entities.ConfidenceScore           `json:"score"`
}

// BatchResult aggregates a batch run of the digitizer.
type BatchResult struct {
	Processed      int                 `json:"processed"`
	Successful     int                 `json:"successful"`
	Failed         int                 `json:"failed"`
	ReviewRequired int                 `json:"review_required"`
	Results        []*ExtractionResult `json:"results"`
}

// DigitizerService orchestrates the prescription digitization pipeline:
// OCR, entity extraction, drug validation and confidence scoring.
type DigitizerService struct {
	ocr       providers.OCRProvider
	ner       providers.EntityProvider
	validator providers.DrugValidationProvider
	scorer    *ConfidenceScorer
	metrics   *observability.Metrics
}

func NewDigitizerService(
	ocr providers.OCRProvider,
	ner providers.EntityProvider,
	validator providers.DrugValidationProvider,
	scorer *ConfidenceScorer,
) *DigitizerService {
	return &DigitizerService{
		ocr:       ocr,
		ner:       ner,
		validator: validator,
		scorer:    scorer,
	}
}

// SetMetrics attaches OTEL metrics recording. Optional.
func (s *DigitizerService) SetMetrics(m *observability.Metrics) {
	s.metrics = m
}

// ProcessPrescription runs the full pipeline over one prescription image.
// OCR failure aborts the extraction; failures further down the pipeline
// degrade to default confidences so a score is always produced.
func (s *DigitizerService) ProcessPrescription(ctx context.Context, image []byte) (*ExtractionResult, error) {
	if len(image) == 0 {
		return nil, apperrors.NewValidationError("prescription image is required")
	}

	extractionID := uuid.New().String()
	logger := observability.LoggerFromContext(ctx)

	ocrResult, err := s.ocr.ExtractText(ctx, image)
	if err != nil {
		return nil, apperrors.NewExternalError("ocr extraction failed", err)
	}

	nerConfidence := defaultStageConfidence
	var medications []entities.Medication
	entityResult, err := s.ner.ExtractEntities(ctx, ocrResult.FullText)
	if err != nil {
		logger.Warn().Err(err).Str("extraction_id", extractionID).
			Msg("Entity extraction failed, continuing with defaults")
	} else if entityResult.NumEntities > 0 {
		nerConfidence = entityResult.Confidence
		medications = entityResult.Medications
	}

	validations, validationConfidence := s.validateMedications(ctx, extractionID, medications)

	score, err := s.scorer.Calculate(ctx, extractionID,
		ocrResult.Confidence, nerConfidence, validationConfidence,
		&entities.ExtractedData{Medications: medications, FullText: ocrResult.FullText})
	if err != nil {
		return nil, err
	}

	observability.RecordExtractionScored(ctx, s.metrics, score.RequiresManualReview)
	logger.Info().
		Str("extraction_id", extractionID).
		Float64("overall_confidence", score.OverallConfidence).
		Bool("requires_review", score.RequiresManualReview).
		Int("medications", len(medications)).
		Msg("Prescription processed")

	return &ExtractionResult{
		ExtractionID: extractionID,
		Timestamp:    time.Now().UTC(),
		FullText:     ocrResult.FullText,
		Medications:  medications,
		Validations:  validations,
		Score:        score,
	}, nil
}

// ProcessBatch runs the pipeline over a set of images and aggregates the
// outcomes. Individual failures do not stop the batch.
func (s *DigitizerService) ProcessBatch(ctx context.Context, images [][]byte) *BatchResult {
	batch := &BatchResult{Processed: len(images)}

	for _, image := range images {
		result, err := s.ProcessPrescription(ctx, image)
		if err != nil {
			batch.Failed++
			observability.LoggerFromContext(ctx).Warn().Err(err).Msg("Batch item failed")
			continue
		}
		batch.Successful++
		if result.Score.RequiresManualReview {
			batch.ReviewRequired++
		}
		batch.Results = append(batch.Results, result)
	}

	return batch
}

// validateMedications checks each extracted medication against the drug
// database. The aggregate confidence is the best validation observed; a
// provider failure leaves the default in place.
func (s *DigitizerService) validateMedications(
	ctx context.Context,
	extractionID string,
	medications []entities.Medication,
) (map[string]*entities.DrugValidation, float64) {
	confidence := defaultStageConfidence
	if s.validator == nil || len(medications) == 0 {
		return nil, confidence
	}

	validations := make(map[string]*entities.DrugValidation, len(medications))
	for _, med := range medications {
		if med.DrugName == "" {
			continue
		}
		validation, err := s.validator.ValidatePrescription(ctx, med.DrugName, med.Dosage, med.Frequency)
		if err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).
				Str("extraction_id", extractionID).
				Str("drug_name", med.DrugName).
				Msg("Drug validation failed, keeping default confidence")
			continue
		}
		validations[med.DrugName] = validation
		if c := DeriveValidationConfidence(validation); c > confidence {
			confidence = c
		}
	}
	return validations, confidence
}
