package services

import (
	"context"
	"sync"

	"github.com/kweriko/medverify-backend/internal/domain/entities"
	"github.com/kweriko/medverify-backend/internal/infrastructure/observability"
)

// defaultFrameBufferSize holds roughly three seconds of video at 30fps.
const defaultFrameBufferSize = 90

// RealTimeVerifier accumulates per-frame evidence from a live stream and
// runs the fusion engine as soon as the buffered window contains a full
// intake gesture. Frames beyond the buffer capacity are evicted oldest
// first.
type RealTimeVerifier struct {
	engine     *VerificationEngine
	bufferSize int

	mu     sync.Mutex
	frames []entities.FrameEvidence
}

func NewRealTimeVerifier(engine *VerificationEngine, bufferSize int) *RealTimeVerifier {
	if bufferSize <= 0 {
		bufferSize = defaultFrameBufferSize
	}
	return &RealTimeVerifier{
		engine:     engine,
		bufferSize: bufferSize,
		frames:     make([]entities.FrameEvidence, 0, bufferSize),
	}
}

// ProcessFrame adds one frame of evidence to the window. When the window
// holds a pill disappearance, mouth contact and a detected swallow, the
// fusion runs over the window, the window is cleared, and the resulting
// event is returned. Otherwise it returns nil.
func (v *RealTimeVerifier) ProcessFrame(ctx context.Context, frame entities.FrameEvidence) *entities.VerificationEvent {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.frames = append(v.frames, frame)
	if len(v.frames) > v.bufferSize {
		v.frames = v.frames[len(v.frames)-v.bufferSize:]
	}

	if !v.windowComplete() {
		return nil
	}

	pill, hand, action := v.summarizeWindow()
	event := v.engine.VerifyIntake(ctx, pill, hand, action, nil)
	v.frames = v.frames[:0]

	observability.LoggerFromContext(ctx).Info().
		Str("event_id", event.EventID).
		Str("status", string(event.Status)).
		Msg("Real-time intake gesture detected")

	return event
}

// BufferedFrames returns the number of frames currently in the window.
func (v *RealTimeVerifier) BufferedFrames() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.frames)
}

// Reset discards the buffered window, e.g. when the stream switches scenes.
func (v *RealTimeVerifier) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.frames = v.frames[:0]
}

// windowComplete requires the pill to have appeared and then left the
// frame, at least one mouth-contact frame, and at least one swallow frame.
func (v *RealTimeVerifier) windowComplete() bool {
	pillSeen, pillGone, mouthContact, swallow := false, false, false, false
	for _, f := range v.frames {
		if f.PillVisible {
			pillSeen = true
			pillGone = false
		} else if pillSeen {
			pillGone = true
		}
		if f.MouthContact {
			mouthContact = true
		}
		if f.SwallowDetected {
			swallow = true
		}
	}
	return pillSeen && pillGone && mouthContact && swallow
}

// summarizeWindow collapses the buffered frames into the per-modality
// trajectory summaries the fusion engine consumes.
func (v *RealTimeVerifier) summarizeWindow() (*entities.PillTrajectory, *entities.HandTrajectory, *entities.ActionSequence) {
	pill := &entities.PillTrajectory{}
	hand := &entities.HandTrajectory{TotalFrames: len(v.frames)}
	action := &entities.ActionSequence{}

	var pillSum, handSum, actionSum float64
	handFrames, swallowFrames := 0, 0
	var currentSwallow *entities.FrameWindow

	for _, f := range v.frames {
		if f.PillVisible {
			pill.Detected = true
			pill.NumFrames++
			pill.DisappearanceFrame = f.FrameID
			pillSum += f.PillConfidence
		}
		if f.HandConfidence > 0 {
			hand.Detected = true
			handFrames++
			handSum += f.HandConfidence
		}
		if f.MouthContact {
			hand.MouthContactFrames = append(hand.MouthContactFrames, f.FrameID)
		}
		if f.SwallowDetected {
			action.Detected = true
			swallowFrames++
			actionSum += f.ActionConfidence
			if currentSwallow == nil {
				currentSwallow = &entities.FrameWindow{Start: f.FrameID, End: f.FrameID}
			} else {
				currentSwallow.End = f.FrameID
			}
		} else if currentSwallow != nil {
			action.SwallowWindows = append(action.SwallowWindows, *currentSwallow)
			currentSwallow = nil
		}
	}
	if currentSwallow != nil {
		action.SwallowWindows = append(action.SwallowWindows, *currentSwallow)
	}

	if pill.NumFrames > 0 {
		pill.AvgConfidence = pillSum / float64(pill.NumFrames)
	}
	if handFrames > 0 {
		hand.AvgConfidence = handSum / float64(handFrames)
	}
	if swallowFrames > 0 {
		action.AvgConfidence = actionSum / float64(swallowFrames)
	}

	return pill, hand, action
}
