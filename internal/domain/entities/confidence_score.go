package entities

import "time"

// ReviewStatus represents the manual review state of a scored extraction
type ReviewStatus string

const (
	// ReviewStatusPending is the initial state for low-confidence extractions
	ReviewStatusPending ReviewStatus = "pending"

	// ReviewStatusApproved is a terminal state set by a human reviewer
	ReviewStatusApproved ReviewStatus = "approved"

	// ReviewStatusRejected is a terminal state set by a human reviewer
	ReviewStatusRejected ReviewStatus = "rejected"
)

// IsValid checks if the status is one of the defined constants
func (s ReviewStatus) IsValid() bool {
	switch s {
	case ReviewStatusPending, ReviewStatusApproved, ReviewStatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether the status can no longer change
func (s ReviewStatus) IsTerminal() bool {
	return s == ReviewStatusApproved || s == ReviewStatusRejected
}

// ConfidenceScore captures one scored extraction attempt. OverallConfidence is
// always derived from the three component confidences by the scorer; it is
// never written directly.
type ConfidenceScore struct {
	ExtractionID         string         `json:"extraction_id" db:"extraction_id"`
	OCRConfidence        float64        `json:"ocr_confidence" db:"ocr_confidence"`
	NERConfidence        float64        `json:"ner_confidence" db:"ner_confidence"`
	ValidationConfidence float64        `json:"validation_confidence" db:"validation_confidence"`
	OverallConfidence    float64        `json:"overall_confidence" db:"overall_confidence"`
	RequiresManualReview bool           `json:"requires_manual_review" db:"requires_manual_review"`
	ReviewStatus         ReviewStatus   `json:"review_status" db:"review_status"`
	ReviewNotes          string         `json:"review_notes" db:"review_notes"`
	ExtractedData        *ExtractedData `json:"extracted_data,omitempty" db:"extracted_data"`
	CreatedAt            time.Time      `json:"created_at" db:"created_at"`
}

// ReviewStatistics aggregates the review queue for operator dashboards
type ReviewStatistics struct {
	TotalQueued    int     `json:"total_queued"`
	Pending        int     `json:"pending"`
	Approved       int     `json:"approved"`
	Rejected       int     `json:"rejected"`
	MeanConfidence float64 `json:"mean_confidence"`
}
