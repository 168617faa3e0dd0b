package evaluation

import (
	"context"
	"time"

	"github.com/kweriko/medverify-backend/internal/application/services"
	"github.com/kweriko/medverify-backend/internal/domain/entities"
)

// Runner evaluates the fusion engine across a set of golden scenarios.
type Runner struct {
	engine *services.VerificationEngine
}

func NewRunner(engine *services.VerificationEngine) *Runner {
	return &Runner{engine: engine}
}

func (r *Runner) Run(ctx context.Context, scenarios []GoldenScenario) (*EvalSummary, []ScenarioResult, error) {
	if err := ValidateGoldenScenarios(scenarios); err != nil {
		return nil, nil, err
	}

	summary := &EvalSummary{
		TotalScenarios: len(scenarios),
		ByStatus:       make(map[entities.IntakeStatus]*StatusSummary),
	}
	results := make([]ScenarioResult, 0, len(scenarios))

	for _, gs := range scenarios {
		start := time.Now()
		event := r.engine.VerifyIntake(ctx, gs.PillDetection, gs.HandTracking, gs.ActionRecognition, gs.VideoMetadata)
		duration := time.Since(start)

		result := ScenarioResult{
			ScenarioID:     gs.ID,
			ExpectedStatus: gs.ExpectedStatus,
			ActualStatus:   event.Status,
			Confidence:     event.FinalConfidence,
			Correct:        event.Status == gs.ExpectedStatus,
			Latency:        duration,
		}
		results = append(results, result)

		r.updateSummary(summary, result)
	}

	r.finalizeSummary(summary, results)
	return summary, results, nil
}

func (r *Runner) updateSummary(s *EvalSummary, res ScenarioResult) {
	if res.Correct {
		s.Correct++
	}
	s.MeanConfidence += res.Confidence
	s.AvgLatency += res.Latency

	if _, ok := s.ByStatus[res.ExpectedStatus]; !ok {
		s.ByStatus[res.ExpectedStatus] = &StatusSummary{}
	}
	ss := s.ByStatus[res.ExpectedStatus]
	ss.Count++
	ss.MeanConfidence += res.Confidence
	if res.Correct {
		ss.Correct++
	}
}

func (r *Runner) finalizeSummary(s *EvalSummary, results []ScenarioResult) {
	if s.TotalScenarios > 0 {
		n := float64(s.TotalScenarios)
		s.Accuracy = float64(s.Correct) / n
		s.MeanConfidence /= n
		s.AvgLatency /= time.Duration(s.TotalScenarios)
	}

	for _, ss := range s.ByStatus {
		if ss.Count > 0 {
			n := float64(ss.Count)
			ss.Accuracy = float64(ss.Correct) / n
			ss.MeanConfidence /= n
		}
	}

	s.Confusion = Confusion(results)
}
