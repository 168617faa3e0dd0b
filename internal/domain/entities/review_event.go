package entities

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// ReviewEventType represents the type of review queue event
type ReviewEventType string

const (
	ReviewEventTypeQueued             ReviewEventType = "review_queued"
	ReviewEventTypeApproved           ReviewEventType = "review_approved"
	ReviewEventTypeRejected           ReviewEventType = "review_rejected"
	ReviewEventTypeIntakeVerification ReviewEventType = "intake_verification"
)

// ReviewEvent is a real-time update published when the review queue or the
// verification event store changes.
type ReviewEvent struct {
	ID                string          `json:"id"`
	ExtractionID      string          `json:"extraction_id,omitempty"`
	EventType         ReviewEventType `json:"event_type"`
	Timestamp         time.Time       `json:"timestamp"`
	OverallConfidence float64         `json:"overall_confidence,omitempty"`
	IntakeStatus      IntakeStatus    `json:"intake_status,omitempty"`
	Notes             string          `json:"notes,omitempty"`
}

// NewReviewEvent creates a new review event
func NewReviewEvent(extractionID string, eventType ReviewEventType, confidence float64) *ReviewEvent {
	return &ReviewEvent{
		ID:                generateEventID(),
		ExtractionID:      extractionID,
		EventType:         eventType,
		Timestamp:         time.Now(),
		OverallConfidence: confidence,
	}
}

// generateEventID generates a unique event ID
func generateEventID() string {
	return time.Now().Format("20060102150405") + "-" + randomString(8)
}

// randomString generates a random string of specified length
func randomString(length int) string {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp-based if crypto/rand fails
		return time.Now().Format("150405.000")
	}
	return hex.EncodeToString(bytes)[:length]
}
