package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kweriko/medverify-backend/internal/application/services"
	"github.com/kweriko/medverify-backend/internal/domain/entities"
)

// VerificationHandler handles intake verification HTTP requests
type VerificationHandler struct {
	service *services.VerificationService
	alerts  *services.CaregiverAlertService
}

// NewVerificationHandler creates a new verification handler
func NewVerificationHandler(service *services.VerificationService) *VerificationHandler {
	return &VerificationHandler{service: service}
}

// SetAlerts enables the alert listing endpoint. Optional.
func (h *VerificationHandler) SetAlerts(alerts *services.CaregiverAlertService) {
	h.alerts = alerts
}

// verifyRequest carries the per-modality evidence for one intake attempt.
// A nil modality means its analyzer produced nothing for the clip.
type verifyRequest struct {
	PillDetection     *entities.PillTrajectory `json:"pill_detection"`
	HandTracking      *entities.HandTrajectory `json:"hand_tracking"`
	ActionRecognition *entities.ActionSequence `json:"action_recognition"`
	VideoMetadata     *entities.VideoMetadata  `json:"video_metadata"`
}

// VerifyIntake handles POST /api/verifications
func (h *VerificationHandler) VerifyIntake(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	event, err := h.service.Verify(r.Context(), req.PillDetection, req.HandTracking, req.ActionRecognition, req.VideoMetadata)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, event)
}

// GetEvent handles GET /api/verifications/{id}
func (h *VerificationHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	if eventID == "" {
		respondWithError(w, http.StatusBadRequest, "event ID is required")
		return
	}

	event, err := h.service.GetEvent(r.Context(), eventID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, event)
}

// GetReport handles GET /api/verifications/{id}/report
func (h *VerificationHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	if eventID == "" {
		respondWithError(w, http.StatusBadRequest, "event ID is required")
		return
	}

	report, err := h.service.Report(r.Context(), eventID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, report)
}

// GetAlerts handles GET /api/verifications/{id}/alerts
func (h *VerificationHandler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	if h.alerts == nil {
		respondWithError(w, http.StatusServiceUnavailable, "caregiver alerts are not enabled")
		return
	}

	eventID := r.PathValue("id")
	if eventID == "" {
		respondWithError(w, http.StatusBadRequest, "event ID is required")
		return
	}

	alerts, err := h.alerts.AlertsForEvent(r.Context(), eventID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// GetStatistics handles GET /api/verifications/stats
func (h *VerificationHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Statistics(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to compute verification statistics")
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}
