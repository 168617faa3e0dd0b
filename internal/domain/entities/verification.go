package entities

import "time"

// IntakeStatus classifies the outcome of a medication intake verification
type IntakeStatus string

const (
	IntakeStatusConfirmed IntakeStatus = "confirmed"
	IntakeStatusLikely    IntakeStatus = "likely"
	IntakeStatusUncertain IntakeStatus = "uncertain"
	IntakeStatusRejected  IntakeStatus = "rejected"
)

// IsValid checks if the status is one of the defined constants
func (s IntakeStatus) IsValid() bool {
	switch s {
	case IntakeStatusConfirmed, IntakeStatusLikely, IntakeStatusUncertain, IntakeStatusRejected:
		return true
	}
	return false
}

// Modality names used as keys in VerificationEvent.ModalConfidences
const (
	ModalityPillDetection     = "pill_detection"
	ModalityHandTracking      = "hand_tracking"
	ModalityActionRecognition = "action_recognition"
)

// FrameWindow is an inclusive frame range
type FrameWindow struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Contains reports whether frame lies within the window extended by tolerance
// frames on both sides.
func (w FrameWindow) Contains(frame, tolerance int) bool {
	return frame >= w.Start-tolerance && frame <= w.End+tolerance
}

// Overlaps reports whether two windows overlap when each is extended by
// tolerance frames.
func (w FrameWindow) Overlaps(other FrameWindow, tolerance int) bool {
	return w.Start-tolerance <= other.End && other.Start-tolerance <= w.End
}

// PillTrajectory summarizes the pill detector's tracking output for one video
type PillTrajectory struct {
	Detected           bool    `json:"detected"`
	AvgConfidence      float64 `json:"avg_confidence"`
	MovementDistance   float64 `json:"movement_distance"`
	DisappearanceFrame int     `json:"disappearance_frame"`
	NumFrames          int     `json:"num_frames"`
}

// HandTrajectory summarizes the hand pose estimator's output for one video
type HandTrajectory struct {
	Detected           bool    `json:"detected"`
	AvgConfidence      float64 `json:"avg_confidence"`
	MouthContactFrames []int   `json:"mouth_contact_frames"`
	TotalFrames        int     `json:"total_frames"`
}

// ActionSequence summarizes the action recognizer's swallow predictions
type ActionSequence struct {
	Detected       bool          `json:"detected"`
	AvgConfidence  float64       `json:"avg_confidence"`
	SwallowWindows []FrameWindow `json:"swallow_windows"`
}

// VideoMetadata describes the analyzed clip
type VideoMetadata struct {
	DurationSeconds float64 `json:"duration_seconds"`
	FrameCount      int     `json:"frame_count"`
	FPS             float64 `json:"fps"`
}

// VerificationEvent is the immutable result of fusing pill, hand and action
// evidence for one intake attempt. Status is derived from FinalConfidence and
// temporal corroboration; it is never set independently.
type VerificationEvent struct {
	EventID           string             `json:"event_id" db:"event_id"`
	Timestamp         time.Time          `json:"timestamp" db:"timestamp"`
	PillDetection     PillTrajectory     `json:"pill_detection"`
	HandTracking      HandTrajectory     `json:"hand_tracking"`
	ActionRecognition ActionSequence     `json:"action_recognition"`
	ModalConfidences  map[string]float64 `json:"modal_confidences"`
	FinalConfidence   float64            `json:"final_confidence" db:"final_confidence"`
	Status            IntakeStatus       `json:"status" db:"status"`
	Reasoning         []string           `json:"reasoning"`
}

// FrameEvidence is the per-frame input to the real-time verifier
type FrameEvidence struct {
	FrameID          int     `json:"frame_id"`
	PillVisible      bool    `json:"pill_visible"`
	PillConfidence   float64 `json:"pill_confidence"`
	HandConfidence   float64 `json:"hand_confidence"`
	MouthContact     bool    `json:"mouth_contact"`
	SwallowDetected  bool    `json:"swallow_detected"`
	ActionConfidence float64 `json:"action_confidence"`
}

// VerificationStatistics aggregates stored verification events
type VerificationStatistics struct {
	Total          int                  `json:"total"`
	ByStatus       map[IntakeStatus]int `json:"by_status"`
	MeanConfidence float64              `json:"mean_confidence"`
}
