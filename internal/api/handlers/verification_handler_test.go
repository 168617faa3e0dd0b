package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kweriko/medverify-backend/internal/adapters/memory"
	"github.com/kweriko/medverify-backend/internal/api/handlers"
	"github.com/kweriko/medverify-backend/internal/application/services"
	"github.com/kweriko/medverify-backend/internal/domain/entities"
)

const verifyRequestBody = `{
	"pill_detection": {"detected": true, "avg_confidence": 0.85, "disappearance_frame": 25, "num_frames": 30},
	"hand_tracking": {"detected": true, "avg_confidence": 0.75, "mouth_contact_frames": [20, 21, 22, 23, 24], "total_frames": 30},
	"action_recognition": {"detected": true, "avg_confidence": 0.70, "swallow_windows": [{"start": 16, "end": 20}]},
	"video_metadata": {"duration_seconds": 1.0, "frame_count": 30, "fps": 30.0}
}`

func storeVerification(t *testing.T, service *services.VerificationService) *entities.VerificationEvent {
	t.Helper()
	event, err := service.Verify(context.Background(),
		&entities.PillTrajectory{Detected: true, AvgConfidence: 0.85, DisappearanceFrame: 25, NumFrames: 30},
		&entities.HandTrajectory{Detected: true, AvgConfidence: 0.75, MouthContactFrames: []int{20, 21, 22, 23, 24}, TotalFrames: 30},
		&entities.ActionSequence{Detected: true, AvgConfidence: 0.70, SwallowWindows: []entities.FrameWindow{{Start: 16, End: 20}}},
		&entities.VideoMetadata{DurationSeconds: 1.0, FrameCount: 30, FPS: 30.0},
	)
	require.NoError(t, err)
	return event
}

func TestVerificationHandler_VerifyIntake(t *testing.T) {
	handler := handlers.NewVerificationHandler(newVerificationService(t))

	req := httptest.NewRequest("POST", "/api/verifications", strings.NewReader(verifyRequestBody))
	w := httptest.NewRecorder()

	handler.VerifyIntake(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var event entities.VerificationEvent
	require.NoError(t, json.NewDecoder(w.Body).Decode(&event))
	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, entities.IntakeStatusConfirmed, event.Status)
	assert.InDelta(t, 0.7575, event.FinalConfidence, 1e-9)
}

func TestVerificationHandler_VerifyIntake_AbsentModalities(t *testing.T) {
	handler := handlers.NewVerificationHandler(newVerificationService(t))

	req := httptest.NewRequest("POST", "/api/verifications", strings.NewReader(`{}`))
	w := httptest.NewRecorder()

	handler.VerifyIntake(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var event entities.VerificationEvent
	require.NoError(t, json.NewDecoder(w.Body).Decode(&event))
	assert.Equal(t, entities.IntakeStatusRejected, event.Status)
	assert.InDelta(t, 0.1, event.FinalConfidence, 1e-9)
}

func TestVerificationHandler_VerifyIntake_InvalidBody(t *testing.T) {
	handler := handlers.NewVerificationHandler(newVerificationService(t))

	req := httptest.NewRequest("POST", "/api/verifications", strings.NewReader("{not-json"))
	w := httptest.NewRecorder()

	handler.VerifyIntake(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerificationHandler_GetEvent(t *testing.T) {
	service := newVerificationService(t)
	stored := storeVerification(t, service)
	handler := handlers.NewVerificationHandler(service)

	req := httptest.NewRequest("GET", "/api/verifications/"+stored.EventID, nil)
	req.SetPathValue("id", stored.EventID)
	w := httptest.NewRecorder()

	handler.GetEvent(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var event entities.VerificationEvent
	require.NoError(t, json.NewDecoder(w.Body).Decode(&event))
	assert.Equal(t, stored.EventID, event.EventID)
	assert.Equal(t, stored.Status, event.Status)
}

func TestVerificationHandler_GetEvent_NotFound(t *testing.T) {
	handler := handlers.NewVerificationHandler(newVerificationService(t))

	req := httptest.NewRequest("GET", "/api/verifications/evt_missing", nil)
	req.SetPathValue("id", "evt_missing")
	w := httptest.NewRecorder()

	handler.GetEvent(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVerificationHandler_GetReport(t *testing.T) {
	service := newVerificationService(t)
	stored := storeVerification(t, service)
	handler := handlers.NewVerificationHandler(service)

	req := httptest.NewRequest("GET", "/api/verifications/"+stored.EventID+"/report", nil)
	req.SetPathValue("id", stored.EventID)
	w := httptest.NewRecorder()

	handler.GetReport(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, w.Body.String(), "MEDICATION INTAKE VERIFICATION REPORT")
	assert.Contains(t, w.Body.String(), stored.EventID)
}

func TestVerificationHandler_GetStatistics(t *testing.T) {
	service := newVerificationService(t)
	storeVerification(t, service)
	storeVerification(t, service)
	handler := handlers.NewVerificationHandler(service)

	req := httptest.NewRequest("GET", "/api/verifications/stats", nil)
	w := httptest.NewRecorder()

	handler.GetStatistics(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var stats entities.VerificationStatistics
	require.NoError(t, json.NewDecoder(w.Body).Decode(&stats))
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.ByStatus[entities.IntakeStatusConfirmed])
}

type fakeSender struct{}

func (fakeSender) SendText(to, body string) (string, error) { return "wamid.fake", nil }

func TestVerificationHandler_GetAlerts(t *testing.T) {
	service := newVerificationService(t)
	alerts := services.NewCaregiverAlertService(fakeSender{}, memory.NewAlertStore(), "+14155550100")
	service.SetAlerts(alerts)

	handler := handlers.NewVerificationHandler(service)
	handler.SetAlerts(alerts)

	// An empty clip fuses to rejected and raises an alert.
	event, err := service.Verify(context.Background(), nil, nil, nil, nil)
	require.NoError(t, err)
	require.Equal(t, entities.IntakeStatusRejected, event.Status)

	req := httptest.NewRequest(http.MethodGet, "/api/verifications/"+event.EventID+"/alerts", nil)
	req.SetPathValue("id", event.EventID)
	w := httptest.NewRecorder()
	handler.GetAlerts(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Alerts []*entities.IntakeAlert `json:"alerts"`
		Count  int                     `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, event.EventID, resp.Alerts[0].EventID)
	assert.Equal(t, entities.AlertStatusSent, resp.Alerts[0].Status)
}

func TestVerificationHandler_GetAlerts_Disabled(t *testing.T) {
	handler := handlers.NewVerificationHandler(newVerificationService(t))

	req := httptest.NewRequest(http.MethodGet, "/api/verifications/evt_x/alerts", nil)
	req.SetPathValue("id", "evt_x")
	w := httptest.NewRecorder()
	handler.GetAlerts(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
