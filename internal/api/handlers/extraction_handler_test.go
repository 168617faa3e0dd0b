package handlers_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kweriko/medverify-backend/internal/api/handlers"
	"github.com/kweriko/medverify-backend/internal/application/services"
	"github.com/kweriko/medverify-backend/internal/domain/entities"
	"github.com/kweriko/medverify-backend/internal/domain/repositories"
)

type stubSearchRepo struct {
	indexed    []*entities.ConfidenceScore
	lastParams repositories.ExtractionSearchParams
	results    []*repositories.ExtractionSearchResult
}

func (s *stubSearchRepo) Index(ctx context.Context, score *entities.ConfidenceScore) error {
	s.indexed = append(s.indexed, score)
	return nil
}

func (s *stubSearchRepo) Delete(ctx context.Context, extractionID string) error {
	return nil
}

func (s *stubSearchRepo) Search(ctx context.Context, params repositories.ExtractionSearchParams) ([]*repositories.ExtractionSearchResult, error) {
	s.lastParams = params
	return s.results, nil
}

func TestExtractionHandler_ProcessPrescription(t *testing.T) {
	digitizer, _ := newDigitizer(t)
	search := &stubSearchRepo{}
	handler := handlers.NewExtractionHandler(digitizer, nil, search)

	req := httptest.NewRequest("POST", "/api/extractions", bytes.NewReader([]byte("fake-image-bytes")))
	w := httptest.NewRecorder()

	handler.ProcessPrescription(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var result services.ExtractionResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	assert.NotEmpty(t, result.ExtractionID)
	assert.Len(t, result.Medications, 2)
	assert.False(t, result.Score.RequiresManualReview)

	require.Len(t, search.indexed, 1)
	assert.Equal(t, result.ExtractionID, search.indexed[0].ExtractionID)
}

func TestExtractionHandler_ProcessPrescription_EmptyBody(t *testing.T) {
	digitizer, _ := newDigitizer(t)
	handler := handlers.NewExtractionHandler(digitizer, nil, nil)

	req := httptest.NewRequest("POST", "/api/extractions", bytes.NewReader(nil))
	w := httptest.NewRecorder()

	handler.ProcessPrescription(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExtractionHandler_ProcessBatch(t *testing.T) {
	digitizer, _ := newDigitizer(t)
	handler := handlers.NewExtractionHandler(digitizer, nil, nil)

	image := base64.StdEncoding.EncodeToString([]byte("fake-image-bytes"))
	body, err := json.Marshal(map[string][]string{"images": {image, image}})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/extractions/batch", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.ProcessBatch(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var batch services.BatchResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&batch))
	assert.Equal(t, 2, batch.Processed)
	assert.Equal(t, 2, batch.Successful)
	assert.Equal(t, 0, batch.Failed)
}

func TestExtractionHandler_ProcessBatch_InvalidBase64(t *testing.T) {
	digitizer, _ := newDigitizer(t)
	handler := handlers.NewExtractionHandler(digitizer, nil, nil)

	req := httptest.NewRequest("POST", "/api/extractions/batch", strings.NewReader(`{"images":["not-base64!!"]}`))
	w := httptest.NewRecorder()

	handler.ProcessBatch(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExtractionHandler_ProcessBatch_NoImages(t *testing.T) {
	digitizer, _ := newDigitizer(t)
	handler := handlers.NewExtractionHandler(digitizer, nil, nil)

	req := httptest.NewRequest("POST", "/api/extractions/batch", strings.NewReader(`{"images":[]}`))
	w := httptest.NewRecorder()

	handler.ProcessBatch(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExtractionHandler_GetExtraction(t *testing.T) {
	digitizer, scorer, store := newDigitizerWithStore(t)
	_, err := scorer.Calculate(context.Background(), "rx_low", 0.5, 0.5, 0.5, nil)
	require.NoError(t, err)
	handler := handlers.NewExtractionHandler(digitizer, store, nil)

	req := httptest.NewRequest("GET", "/api/extractions/rx_low", nil)
	req.SetPathValue("id", "rx_low")
	w := httptest.NewRecorder()

	handler.GetExtraction(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var score entities.ConfidenceScore
	require.NoError(t, json.NewDecoder(w.Body).Decode(&score))
	assert.Equal(t, "rx_low", score.ExtractionID)
	assert.True(t, score.RequiresManualReview)
}

func TestExtractionHandler_GetExtraction_NotFound(t *testing.T) {
	digitizer, _, store := newDigitizerWithStore(t)
	handler := handlers.NewExtractionHandler(digitizer, store, nil)

	req := httptest.NewRequest("GET", "/api/extractions/rx_missing", nil)
	req.SetPathValue("id", "rx_missing")
	w := httptest.NewRecorder()

	handler.GetExtraction(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExtractionHandler_SearchExtractions(t *testing.T) {
	digitizer, _ := newDigitizer(t)
	search := &stubSearchRepo{
		results: []*repositories.ExtractionSearchResult{
			{ExtractionID: "rx_1", DrugNames: []string{"Amoxicillin"}, ReviewStatus: entities.ReviewStatusPending, RequiresReview: true, OverallConfidence: 0.55},
		},
	}
	handler := handlers.NewExtractionHandler(digitizer, nil, search)

	req := httptest.NewRequest("GET", "/api/extractions/search?q=amoxicillin&status=pending&requires_review=true&limit=5", nil)
	w := httptest.NewRecorder()

	handler.SearchExtractions(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "amoxicillin", search.lastParams.Query)
	assert.Equal(t, entities.ReviewStatusPending, search.lastParams.Status)
	require.NotNil(t, search.lastParams.RequiresReview)
	assert.True(t, *search.lastParams.RequiresReview)
	assert.Equal(t, 5, search.lastParams.Limit)

	var response map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	var count int
	require.NoError(t, json.Unmarshal(response["count"], &count))
	assert.Equal(t, 1, count)
}

func TestExtractionHandler_SearchExtractions_InvalidStatus(t *testing.T) {
	digitizer, _ := newDigitizer(t)
	handler := handlers.NewExtractionHandler(digitizer, nil, &stubSearchRepo{})

	req := httptest.NewRequest("GET", "/api/extractions/search?status=bogus", nil)
	w := httptest.NewRecorder()

	handler.SearchExtractions(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExtractionHandler_SearchExtractions_NotConfigured(t *testing.T) {
	digitizer, _ := newDigitizer(t)
	handler := handlers.NewExtractionHandler(digitizer, nil, nil)

	req := httptest.NewRequest("GET", "/api/extractions/search", nil)
	w := httptest.NewRecorder()

	handler.SearchExtractions(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
