package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kweriko/medverify-backend/internal/adapters/providers/extraction"
	"github.com/kweriko/medverify-backend/internal/domain/entities"
	"github.com/kweriko/medverify-backend/internal/domain/providers"
	apperrors "github.com/kweriko/medverify-backend/pkg/errors"
)

type failingOCR struct{}

func (failingOCR) ExtractText(ctx context.Context, image []byte) (*providers.OCRResult, error) {
	return nil, errors.New("ocr service unreachable")
}

type failingNER struct{}

func (failingNER) ExtractEntities(ctx context.Context, text string) (*providers.EntityResult, error) {
	return nil, errors.New("ner model crashed")
}

type failingValidator struct{}

func (failingValidator) ValidatePrescription(ctx context.Context, drugName, dosage, frequency string) (*entities.DrugValidation, error) {
	return nil, errors.New("drug database timeout")
}

func newTestDigitizer(t *testing.T, ocr providers.OCRProvider, ner providers.EntityProvider, validator providers.DrugValidationProvider) *DigitizerService {
	t.Helper()
	if ocr == nil {
		ocr = extraction.NewMockOCRProvider()
	}
	if ner == nil {
		ner = extraction.NewMockEntityProvider()
	}
	if validator == nil {
		validator = extraction.NewMockDrugValidationProvider()
	}
	return NewDigitizerService(ocr, ner, validator, newTestScorer(t))
}

func TestProcessPrescription_FullPipeline(t *testing.T) {
	svc := newTestDigitizer(t, nil, nil, nil)

	result, err := svc.ProcessPrescription(context.Background(), []byte("image-bytes"))
	require.NoError(t, err)

	assert.NotEmpty(t, result.ExtractionID)
	assert.NotEmpty(t, result.FullText)
	require.Len(t, result.Medications, 2)
	assert.Equal(t, "Amoxicillin", result.Medications[0].DrugName)
	assert.Equal(t, "500mg", result.Medications[0].Dosage)
	assert.Equal(t, "BID", result.Medications[0].Frequency)
	assert.Equal(t, "Metformin", result.Medications[1].DrugName)

	// Amoxicillin 500mg is in the formulary: validation confidence 0.9.
	// 0.40*0.96 + 0.35*0.90 + 0.25*0.9 = 0.924, above the review threshold.
	require.NotNil(t, result.Score)
	assert.InDelta(t, 0.924, result.Score.OverallConfidence, 1e-9)
	assert.False(t, result.Score.RequiresManualReview)
	require.Contains(t, result.Validations, "Amoxicillin")
	assert.True(t, result.Validations["Amoxicillin"].DrugValid)
	assert.True(t, result.Validations["Amoxicillin"].DosageValid)
}

func TestProcessPrescription_RejectsEmptyImage(t *testing.T) {
	svc := newTestDigitizer(t, nil, nil, nil)

	_, err := svc.ProcessPrescription(context.Background(), nil)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestProcessPrescription_OCRFailureAborts(t *testing.T) {
	svc := newTestDigitizer(t, failingOCR{}, nil, nil)

	_, err := svc.ProcessPrescription(context.Background(), []byte("image"))
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
}

func TestProcessPrescription_NERFailureDegrades(t *testing.T) {
	svc := newTestDigitizer(t, nil, failingNER{}, nil)

	result, err := svc.ProcessPrescription(context.Background(), []byte("image"))
	require.NoError(t, err)

	assert.Empty(t, result.Medications)
	// NER and validation both fall back to 0.5: 0.40*0.96 + 0.35*0.5 + 0.25*0.5 = 0.684.
	assert.InDelta(t, 0.684, result.Score.OverallConfidence, 1e-9)
	assert.True(t, result.Score.RequiresManualReview)
}

func TestProcessPrescription_ValidatorFailureDegrades(t *testing.T) {
	svc := newTestDigitizer(t, nil, nil, failingValidator{})

	result, err := svc.ProcessPrescription(context.Background(), []byte("image"))
	require.NoError(t, err)

	assert.Empty(t, result.Validations)
	// 0.40*0.96 + 0.35*0.90 + 0.25*0.5 = 0.824.
	assert.InDelta(t, 0.824, result.Score.OverallConfidence, 1e-9)
}

func TestProcessPrescription_LowConfidenceLandsInReviewQueue(t *testing.T) {
	scorer := newTestScorer(t)
	ocr := extraction.NewMockOCRProvider()
	ocr.Confidence = 0.30
	svc := NewDigitizerService(ocr, extraction.NewMockEntityProvider(), extraction.NewMockDrugValidationProvider(), scorer)

	result, err := svc.ProcessPrescription(context.Background(), []byte("blurry"))
	require.NoError(t, err)
	require.True(t, result.Score.RequiresManualReview)

	pending, err := scorer.PendingReviews(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, result.ExtractionID, pending[0].ExtractionID)
	require.NotNil(t, pending[0].ExtractedData)
	assert.Len(t, pending[0].ExtractedData.Medications, 2)
}

func TestProcessBatch(t *testing.T) {
	svc := newTestDigitizer(t, nil, nil, nil)

	batch := svc.ProcessBatch(context.Background(), [][]byte{
		[]byte("one"),
		nil, // fails validation
		[]byte("three"),
	})

	assert.Equal(t, 3, batch.Processed)
	assert.Equal(t, 2, batch.Successful)
	assert.Equal(t, 1, batch.Failed)
	assert.Equal(t, 0, batch.ReviewRequired)
	assert.Len(t, batch.Results, 2)
}
