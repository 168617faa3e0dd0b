package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kweriko/medverify-backend/internal/domain/entities"
	"github.com/kweriko/medverify-backend/internal/infrastructure/observability"
	"github.com/kweriko/medverify-backend/pkg/config"
	apperrors "github.com/kweriko/medverify-backend/pkg/errors"
)

// absentModalityConfidence is used when a modality produced no evidence.
// Missing evidence is a weak signal, not an error.
const absentModalityConfidence = 0.1

// VerificationEngine fuses pill detection, hand tracking and action
// recognition evidence into a single verdict on whether a medication
// intake actually happened.
type VerificationEngine struct {
	cfg config.FusionConfig
}

// NewVerificationEngine creates a fusion engine. Configuration is validated
// once here so VerifyIntake never has to.
func NewVerificationEngine(cfg config.FusionConfig) (*VerificationEngine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid fusion configuration: %v", err))
	}
	return &VerificationEngine{cfg: cfg}, nil
}

// VerifyIntake runs the fusion over the three modality summaries. A nil
// trajectory means the corresponding detector saw nothing. The returned
// event is always populated; there is no error path.
func (e *VerificationEngine) VerifyIntake(
	ctx context.Context,
	pill *entities.PillTrajectory,
	hand *entities.HandTrajectory,
	action *entities.ActionSequence,
	meta *entities.VideoMetadata,
) *entities.VerificationEvent {
	logger := observability.LoggerFromContext(ctx)

	pillConf := modalityConfidence(pill != nil && pill.Detected, trajectoryConfidence(pill))
	handConf := modalityConfidence(hand != nil && hand.Detected, handConfidence(hand))
	actionConf := modalityConfidence(action != nil && action.Detected, actionConfidence(action))

	final := e.cfg.PillWeight*pillConf +
		e.cfg.HandWeight*handConf +
		e.cfg.ActionWeight*actionConf

	corroborated := e.temporallyCorroborated(pill, hand, action)
	status := e.deriveStatus(final, corroborated)
	reasoning := e.buildReasoning(pill, hand, action, pillConf, handConf, actionConf, final, corroborated)

	event := &entities.VerificationEvent{
		EventID:   uuid.New().String(),
		Timestamp: time.Now().UTC(),
		ModalConfidences: map[string]float64{
			entities.ModalityPillDetection:     pillConf,
			entities.ModalityHandTracking:      handConf,
			entities.ModalityActionRecognition: actionConf,
		},
		FinalConfidence: final,
		Status:          status,
		Reasoning:       reasoning,
	}
	if pill != nil {
		event.PillDetection = *pill
	}
	if hand != nil {
		event.HandTracking = *hand
	}
	if action != nil {
		event.ActionRecognition = *action
	}

	logger.Debug().
		Str("event_id", event.EventID).
		Float64("final_confidence", final).
		Str("status", string(status)).
		Bool("corroborated", corroborated).
		Msg("Intake verification computed")

	return event
}

// temporallyCorroborated checks that the hand's mouth-contact window lines up
// with both the pill disappearance and a recognized swallow, within the
// configured frame tolerance.
func (e *VerificationEngine) temporallyCorroborated(
	pill *entities.PillTrajectory,
	hand *entities.HandTrajectory,
	action *entities.ActionSequence,
) bool {
	if pill == nil || !pill.Detected || hand == nil || !hand.Detected || action == nil || !action.Detected {
		return false
	}
	if len(hand.MouthContactFrames) == 0 || len(action.SwallowWindows) == 0 {
		return false
	}

	contact := mouthContactWindow(hand.MouthContactFrames)
	if !contact.Contains(pill.DisappearanceFrame, e.cfg.FrameTolerance) {
		return false
	}
	for _, w := range action.SwallowWindows {
		if contact.Overlaps(w, e.cfg.FrameTolerance) {
			return true
		}
	}
	return false
}

// deriveStatus maps fused confidence and corroboration onto an IntakeStatus.
// Corroboration promotes a score at or above LikelyThreshold to CONFIRMED;
// without it even a score past ConfirmedThreshold stays at LIKELY, and
// buildReasoning calls out the cap.
func (e *VerificationEngine) deriveStatus(final float64, corroborated bool) entities.IntakeStatus {
	switch {
	case corroborated && final >= e.cfg.LikelyThreshold:
		return entities.IntakeStatusConfirmed
	case final >= e.cfg.LikelyThreshold:
		return entities.IntakeStatusLikely
	case final >= e.cfg.UncertainThreshold:
		return entities.IntakeStatusUncertain
	default:
		return entities.IntakeStatusRejected
	}
}

func (e *VerificationEngine) buildReasoning(
	pill *entities.PillTrajectory,
	hand *entities.HandTrajectory,
	action *entities.ActionSequence,
	pillConf, handConf, actionConf, final float64,
	corroborated bool,
) []string {
	reasoning := make([]string, 0, 4)

	if pill != nil && pill.Detected {
		reasoning = append(reasoning, fmt.Sprintf(
			"Pill detected across %d frames (confidence %.2f), disappearing at frame %d",
			pill.NumFrames, pillConf, pill.DisappearanceFrame))
	} else {
		reasoning = append(reasoning, "No pill detected; floor confidence applied")
	}

	if hand != nil && hand.Detected {
		reasoning = append(reasoning, fmt.Sprintf(
			"Hand tracked with %d mouth-contact frames (confidence %.2f)",
			len(hand.MouthContactFrames), handConf))
	} else {
		reasoning = append(reasoning, "No hand tracking evidence; floor confidence applied")
	}

	if action != nil && action.Detected {
		reasoning = append(reasoning, fmt.Sprintf(
			"Swallowing action recognized in %d window(s) (confidence %.2f)",
			len(action.SwallowWindows), actionConf))
	} else {
		reasoning = append(reasoning, "No swallowing action recognized; floor confidence applied")
	}

	switch {
	case corroborated:
		reasoning = append(reasoning, "Mouth contact coincides with pill disappearance and a swallow window")
	case final >= e.cfg.ConfirmedThreshold:
		reasoning = append(reasoning, fmt.Sprintf(
			"Fused confidence %.2f clears the confirmed threshold %.2f but modalities are not temporally aligned; capped at likely",
			final, e.cfg.ConfirmedThreshold))
	default:
		reasoning = append(reasoning, "Modalities are not temporally aligned; intake cannot be confirmed")
	}

	return reasoning
}

// GenerateReport renders a verification event as a human-readable summary.
// It formats only; nothing is recomputed.
func (e *VerificationEngine) GenerateReport(event *entities.VerificationEvent) string {
	var b strings.Builder

	b.WriteString("MEDICATION INTAKE VERIFICATION REPORT\n")
	b.WriteString(strings.Repeat("=", 45) + "\n")
	fmt.Fprintf(&b, "Event ID:   %s\n", event.EventID)
	fmt.Fprintf(&b, "Timestamp:  %s\n", event.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(&b, "Status:     %s\n", strings.ToUpper(string(event.Status)))
	fmt.Fprintf(&b, "Confidence: %.1f%%\n\n", event.FinalConfidence*100)

	b.WriteString("Modality confidences:\n")
	fmt.Fprintf(&b, "  Pill detection:     %.2f\n", event.ModalConfidences[entities.ModalityPillDetection])
	fmt.Fprintf(&b, "  Hand tracking:      %.2f\n", event.ModalConfidences[entities.ModalityHandTracking])
	fmt.Fprintf(&b, "  Action recognition: %.2f\n", event.ModalConfidences[entities.ModalityActionRecognition])

	b.WriteString("\nReasoning:\n")
	for _, r := range event.Reasoning {
		fmt.Fprintf(&b, "  - %s\n", r)
	}

	return b.String()
}

func modalityConfidence(detected bool, avg float64) float64 {
	if !detected {
		return absentModalityConfidence
	}
	return clamp01(avg)
}

func trajectoryConfidence(pill *entities.PillTrajectory) float64 {
	if pill == nil {
		return 0
	}
	return pill.AvgConfidence
}

func handConfidence(hand *entities.HandTrajectory) float64 {
	if hand == nil {
		return 0
	}
	return hand.AvgConfidence
}

func actionConfidence(action *entities.ActionSequence) float64 {
	if action == nil {
		return 0
	}
	return action.AvgConfidence
}

// mouthContactWindow collapses the discrete contact frames into one
// inclusive range.
func mouthContactWindow(frames []int) entities.FrameWindow {
	start, end := frames[0], frames[0]
	for _, f := range frames[1:] {
		if f < start {
			start = f
		}
		if f > end {
			end = f
		}
	}
	return entities.FrameWindow{Start: start, End: end}
}
