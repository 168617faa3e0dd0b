package evaluation

import "fmt"

// GuardrailConfig sets the regression thresholds an evaluation run must meet
// before a fusion configuration change ships.
type GuardrailConfig struct {
	MinAccuracy         float64
	MaxFalseConfirmRate float64
}

type Guardrails struct {
	config GuardrailConfig
}

func NewGuardrails(config GuardrailConfig) *Guardrails {
	if config.MinAccuracy <= 0 {
		config.MinAccuracy = 0.8
	}
	if config.MaxFalseConfirmRate <= 0 {
		config.MaxFalseConfirmRate = 0.05
	}
	return &Guardrails{config: config}
}

// Violations returns a description of every threshold the run failed. An
// empty slice means the run passed.
func (g *Guardrails) Violations(summary *EvalSummary, results []ScenarioResult) []string {
	var violations []string

	if summary.Accuracy < g.config.MinAccuracy {
		violations = append(violations, fmt.Sprintf(
			"accuracy %.3f below minimum %.3f", summary.Accuracy, g.config.MinAccuracy))
	}

	if rate := FalseConfirmRate(results); rate > g.config.MaxFalseConfirmRate {
		violations = append(violations, fmt.Sprintf(
			"false confirm rate %.3f above maximum %.3f", rate, g.config.MaxFalseConfirmRate))
	}

	return violations
}
