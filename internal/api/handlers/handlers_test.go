package handlers_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kweriko/medverify-backend/internal/adapters/memory"
	"github.com/kweriko/medverify-backend/internal/adapters/providers/extraction"
	"github.com/kweriko/medverify-backend/internal/application/services"
	"github.com/kweriko/medverify-backend/pkg/config"
)

func newScorer(t *testing.T) *services.ConfidenceScorer {
	t.Helper()
	scorer, _ := newScorerWithStore(t)
	return scorer
}

func newScorerWithStore(t *testing.T) (*services.ConfidenceScorer, *memory.ReviewStore) {
	t.Helper()
	store := memory.NewReviewStore()
	scorer, err := services.NewConfidenceScorer(config.ScoringConfig{
		OCRWeight:             0.40,
		NERWeight:             0.35,
		ValidationWeight:      0.25,
		ManualReviewThreshold: 0.70,
	}, store)
	require.NoError(t, err)
	return scorer, store
}

func newDigitizer(t *testing.T) (*services.DigitizerService, *services.ConfidenceScorer) {
	t.Helper()
	digitizer, scorer, _ := newDigitizerWithStore(t)
	return digitizer, scorer
}

func newDigitizerWithStore(t *testing.T) (*services.DigitizerService, *services.ConfidenceScorer, *memory.ReviewStore) {
	t.Helper()
	scorer, store := newScorerWithStore(t)
	digitizer := services.NewDigitizerService(
		extraction.NewMockOCRProvider(),
		extraction.NewMockEntityProvider(),
		extraction.NewMockDrugValidationProvider(),
		scorer,
	)
	return digitizer, scorer, store
}

func newVerificationService(t *testing.T) *services.VerificationService {
	t.Helper()
	engine, err := services.NewVerificationEngine(config.FusionConfig{
		PillWeight:         0.30,
		HandWeight:         0.25,
		ActionWeight:       0.45,
		ConfirmedThreshold: 0.80,
		LikelyThreshold:    0.60,
		UncertainThreshold: 0.35,
		FrameTolerance:     3,
		BufferSize:         90,
	})
	require.NoError(t, err)
	return services.NewVerificationService(engine, memory.NewVerificationStore())
}
