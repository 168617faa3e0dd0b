package extraction

import (
	"context"
	"regexp"
	"strings"

	"github.com/kweriko/medverify-backend/internal/domain/entities"
	"github.com/kweriko/medverify-backend/internal/domain/providers"
	"github.com/kweriko/medverify-backend/pkg/utils"
)

const mockPrescriptionText = "Rx: Amoxicillin 500mg twice daily for 7 days, oral. Metformin 1000mg twice daily."

// MockOCRProvider returns canned prescription text for testing and local
// development.
type MockOCRProvider struct {
	Text       string
	Confidence float64
}

// NewMockOCRProvider creates an OCR provider that recognizes the same
// prescription for every image.
func NewMockOCRProvider() *MockOCRProvider {
	return &MockOCRProvider{Text: mockPrescriptionText, Confidence: 0.96}
}

func (m *MockOCRProvider) ExtractText(ctx context.Context, image []byte) (*providers.OCRResult, error) {
	return &providers.OCRResult{
		FullText:   m.Text,
		Confidence: m.Confidence,
		NumSpans:   len(strings.Fields(m.Text)),
	}, nil
}

var (
	knownDrugPattern = regexp.MustCompile(`(?i)\b(amoxicillin|ibuprofen|metformin|aspirin|lisinopril|atorvastatin|omeprazole|paracetamol|warfarin)\b`)
	dosagePattern    = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(mg|mcg|g|ml)\b`)
	frequencyPattern = regexp.MustCompile(`(?i)\b(once daily|twice daily|three times daily|four times daily|every \d+ hours|as needed|at bedtime)\b`)
	durationPattern  = regexp.MustCompile(`(?i)\bfor (\d+ (?:days?|weeks?|months?))\b`)
	routePattern     = regexp.MustCompile(`(?i)\b(oral|topical|intravenous|intramuscular|subcutaneous|sublingual)\b`)
)

// MockEntityProvider extracts medications from text with the drug lexicon and
// dosage patterns, standing in for an NER model.
type MockEntityProvider struct{}

func NewMockEntityProvider() *MockEntityProvider {
	return &MockEntityProvider{}
}

func (m *MockEntityProvider) ExtractEntities(ctx context.Context, text string) (*providers.EntityResult, error) {
	drugs := knownDrugPattern.FindAllString(text, -1)
	dosages := dosagePattern.FindAllString(text, -1)
	frequencies := frequencyPattern.FindAllString(text, -1)
	durations := durationPattern.FindAllStringSubmatch(text, -1)
	route := routePattern.FindString(text)

	medications := make([]entities.Medication, 0, len(drugs))
	for i, drug := range drugs {
		med := entities.Medication{DrugName: utils.NormalizeDrugName(drug)}
		if i < len(dosages) {
			med.Dosage = utils.FormatDosage(dosages[i])
		}
		if i < len(frequencies) {
			med.Frequency = utils.StandardizeFrequency(frequencies[i])
		}
		if i < len(durations) {
			med.Duration = durations[i][1]
		}
		med.Route = utils.NormalizeRoute(route)
		medications = append(medications, med)
	}

	numEntities := len(drugs) + len(dosages) + len(frequencies)
	confidence := 0.0
	if numEntities > 0 {
		// Lexicon matches are high-precision.
		confidence = 0.90
	}

	return &providers.EntityResult{
		Medications: medications,
		Confidence:  confidence,
		NumEntities: numEntities,
	}, nil
}

// mockFormulary maps known drugs to their marketed dosage strengths.
var mockFormulary = map[string][]string{
	"Amoxicillin":  {"250mg", "500mg", "875mg"},
	"Ibuprofen":    {"200mg", "400mg", "600mg", "800mg"},
	"Metformin":    {"500mg", "850mg", "1000mg"},
	"Aspirin":      {"81mg", "325mg", "500mg"},
	"Lisinopril":   {"5mg", "10mg", "20mg", "40mg"},
	"Atorvastatin": {"10mg", "20mg", "40mg", "80mg"},
	"Omeprazole":   {"10mg", "20mg", "40mg"},
	"Paracetamol":  {"325mg", "500mg", "650mg"},
	"Warfarin":     {"1mg", "2mg", "5mg", "10mg"},
}

// MockDrugValidationProvider validates prescriptions against a small local
// formulary instead of the RxNav API.
type MockDrugValidationProvider struct{}

func NewMockDrugValidationProvider() *MockDrugValidationProvider {
	return &MockDrugValidationProvider{}
}

func (m *MockDrugValidationProvider) ValidatePrescription(ctx context.Context, drugName, dosage, frequency string) (*entities.DrugValidation, error) {
	normalized := utils.NormalizeDrugName(drugName)
	validation := &entities.DrugValidation{
		DrugName:       drugName,
		NormalizedName: normalized,
	}

	strengths, ok := mockFormulary[normalized]
	if !ok {
		return validation, nil
	}
	validation.DrugValid = true

	formatted := utils.FormatDosage(dosage)
	for _, s := range strengths {
		if strings.EqualFold(formatted, s) {
			validation.DosageValid = true
			break
		}
	}
	return validation, nil
}
