package evaluation

import (
	"time"

	"github.com/kweriko/medverify-backend/internal/domain/entities"
)

// GoldenScenario is a labeled intake clip with its expected verification
// outcome. A nil modality means that analyzer produced nothing for the clip.
type GoldenScenario struct {
	ID                string                   `json:"id"`
	Description       string                   `json:"description"`
	PillDetection     *entities.PillTrajectory `json:"pill_detection"`
	HandTracking      *entities.HandTrajectory `json:"hand_tracking"`
	ActionRecognition *entities.ActionSequence `json:"action_recognition"`
	VideoMetadata     *entities.VideoMetadata  `json:"video_metadata"`
	ExpectedStatus    entities.IntakeStatus    `json:"expected_status"`
	Difficulty        string                   `json:"difficulty"` // easy, medium, hard
}

// ScenarioResult holds the evaluation outcome for a single scenario.
type ScenarioResult struct {
	ScenarioID     string
	ExpectedStatus entities.IntakeStatus
	ActualStatus   entities.IntakeStatus
	Confidence     float64
	Correct        bool
	Latency        time.Duration
}

// EvalSummary holds aggregate metrics across all golden scenarios.
type EvalSummary struct {
	TotalScenarios int
	Correct        int
	Accuracy       float64
	MeanConfidence float64
	AvgLatency     time.Duration

	// Confusion counts expected status -> actual status.
	Confusion map[entities.IntakeStatus]map[entities.IntakeStatus]int

	ByStatus map[entities.IntakeStatus]*StatusSummary
}

// StatusSummary holds metrics grouped by expected status.
type StatusSummary struct {
	Count          int
	Correct        int
	Accuracy       float64
	MeanConfidence float64
}
