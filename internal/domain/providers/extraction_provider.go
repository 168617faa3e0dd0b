package providers

import (
	"context"

	"github.com/kweriko/medverify-backend/internal/domain/entities"
)

// OCRResult is what the OCR collaborator returns for one prescription image:
// the recognized text and an aggregate confidence over all spans.
type OCRResult struct {
	FullText   string
	Confidence float64
	NumSpans   int
}

// EntityResult is what the NER/pattern collaborator returns: candidate
// medication fields and an aggregate entity confidence.
type EntityResult struct {
	Medications []entities.Medication
	Confidence  float64
	NumEntities int
}

// OCRProvider extracts text from a prescription image
type OCRProvider interface {
	ExtractText(ctx context.Context, image []byte) (*OCRResult, error)
}

// EntityProvider extracts medication entities from recognized text
type EntityProvider interface {
	ExtractEntities(ctx context.Context, text string) (*EntityResult, error)
}

// DrugValidationProvider checks extracted medications against an external
// drug database
type DrugValidationProvider interface {
	ValidatePrescription(ctx context.Context, drugName, dosage, frequency string) (*entities.DrugValidation, error)
}
