package handlers

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/kweriko/medverify-backend/internal/application/services"
	"github.com/kweriko/medverify-backend/internal/domain/entities"
	"github.com/kweriko/medverify-backend/internal/domain/repositories"
	"github.com/kweriko/medverify-backend/internal/infrastructure/observability"
)

// maxImageBytes caps uploaded prescription images
const maxImageBytes = 10 << 20

// ExtractionHandler handles prescription digitization HTTP requests
type ExtractionHandler struct {
	digitizer  *services.DigitizerService
	reviewRepo repositories.ReviewRepository
	searchRepo repositories.ExtractionSearchRepository
}

// NewExtractionHandler creates a new extraction handler. The search
// repository is optional; without it the search endpoint is unavailable.
func NewExtractionHandler(
	digitizer *services.DigitizerService,
	reviewRepo repositories.ReviewRepository,
	searchRepo repositories.ExtractionSearchRepository,
) *ExtractionHandler {
	return &ExtractionHandler{
		digitizer:  digitizer,
		reviewRepo: reviewRepo,
		searchRepo: searchRepo,
	}
}

// ProcessPrescription handles POST /api/extractions. The request body is the
// raw prescription image.
func (h *ExtractionHandler) ProcessPrescription(w http.ResponseWriter, r *http.Request) {
	image, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImageBytes))
	if err != nil {
		respondWithError(w, http.StatusRequestEntityTooLarge, "image exceeds the upload limit")
		return
	}

	result, err := h.digitizer.ProcessPrescription(r.Context(), image)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	h.index(r, result.Score)

	respondWithJSON(w, http.StatusCreated, result)
}

// batchRequest carries base64-encoded images for a batch run
type batchRequest struct {
	Images []string `json:"images"`
}

// ProcessBatch handles POST /api/extractions/batch
func (h *ExtractionHandler) ProcessBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Images) == 0 {
		respondWithError(w, http.StatusBadRequest, "at least one image is required")
		return
	}

	images := make([][]byte, 0, len(req.Images))
	for i, encoded := range req.Images {
		image, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "image "+strconv.Itoa(i)+" is not valid base64")
			return
		}
		images = append(images, image)
	}

	batch := h.digitizer.ProcessBatch(r.Context(), images)
	for _, result := range batch.Results {
		h.index(r, result.Score)
	}

	respondWithJSON(w, http.StatusOK, batch)
}

// GetExtraction handles GET /api/extractions/{id}
func (h *ExtractionHandler) GetExtraction(w http.ResponseWriter, r *http.Request) {
	extractionID := r.PathValue("id")
	if extractionID == "" {
		respondWithError(w, http.StatusBadRequest, "extraction ID is required")
		return
	}

	score, err := h.reviewRepo.Get(r.Context(), extractionID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, score)
}

// SearchExtractions handles GET /api/extractions/search
func (h *ExtractionHandler) SearchExtractions(w http.ResponseWriter, r *http.Request) {
	if h.searchRepo == nil {
		respondWithError(w, http.StatusServiceUnavailable, "search is not configured")
		return
	}

	query := r.URL.Query()
	params := repositories.ExtractionSearchParams{
		Query: query.Get("q"),
	}

	if status := query.Get("status"); status != "" {
		reviewStatus := entities.ReviewStatus(status)
		if !reviewStatus.IsValid() {
			respondWithError(w, http.StatusBadRequest, "invalid status parameter")
			return
		}
		params.Status = reviewStatus
	}

	if raw := query.Get("requires_review"); raw != "" {
		requiresReview, err := strconv.ParseBool(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid requires_review parameter")
			return
		}
		params.RequiresReview = &requiresReview
	}

	if raw := query.Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			params.Limit = limit
		}
	}
	if raw := query.Get("offset"); raw != "" {
		if offset, err := strconv.Atoi(raw); err == nil && offset > 0 {
			params.Offset = offset
		}
	}

	results, err := h.searchRepo.Search(r.Context(), params)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to search extractions")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}

// index upserts a scored extraction into the search index, best effort
func (h *ExtractionHandler) index(r *http.Request, score *entities.ConfidenceScore) {
	if h.searchRepo == nil || score == nil {
		return
	}
	if err := h.searchRepo.Index(r.Context(), score); err != nil {
		observability.LoggerFromContext(r.Context()).Warn().Err(err).
			Str("extraction_id", score.ExtractionID).
			Msg("failed to index extraction")
	}
}
