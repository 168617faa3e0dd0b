package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/kweriko/medverify-backend/internal/application/services"
	"github.com/kweriko/medverify-backend/internal/domain/entities"
)

// ReviewHandler handles manual review queue HTTP requests
type ReviewHandler struct {
	scorer *services.ConfidenceScorer
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(scorer *services.ConfidenceScorer) *ReviewHandler {
	return &ReviewHandler{scorer: scorer}
}

// ListPending handles GET /api/reviews/pending
func (h *ReviewHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.scorer.PendingReviews(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to list pending reviews")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"reviews": reviews,
		"count":   len(reviews),
	})
}

// decisionRequest carries a reviewer's verdict on a queued extraction
type decisionRequest struct {
	Decision string `json:"decision"`
	Notes    string `json:"notes"`
}

// Decide handles POST /api/reviews/{id}
func (h *ReviewHandler) Decide(w http.ResponseWriter, r *http.Request) {
	extractionID := r.PathValue("id")
	if extractionID == "" {
		respondWithError(w, http.StatusBadRequest, "extraction ID is required")
		return
	}

	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var status entities.ReviewStatus
	switch req.Decision {
	case "approve":
		status = entities.ReviewStatusApproved
	case "reject":
		status = entities.ReviewStatusRejected
	default:
		respondWithError(w, http.StatusBadRequest, "decision must be approve or reject")
		return
	}

	updated, err := h.scorer.UpdateReviewStatus(r.Context(), extractionID, status, req.Notes)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}

// GetStatistics handles GET /api/reviews/stats
func (h *ReviewHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.scorer.Statistics(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to compute review statistics")
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}
