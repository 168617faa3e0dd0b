package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kweriko/medverify-backend/internal/domain/entities"
)

func TestGuardrails_Pass(t *testing.T) {
	g := NewGuardrails(GuardrailConfig{MinAccuracy: 0.8, MaxFalseConfirmRate: 0.1})

	summary := &EvalSummary{Accuracy: 0.9}
	results := []ScenarioResult{
		{ExpectedStatus: entities.IntakeStatusRejected, ActualStatus: entities.IntakeStatusRejected},
	}

	assert.Empty(t, g.Violations(summary, results))
}

func TestGuardrails_Violations(t *testing.T) {
	g := NewGuardrails(GuardrailConfig{MinAccuracy: 0.9, MaxFalseConfirmRate: 0.1})

	summary := &EvalSummary{Accuracy: 0.5}
	results := []ScenarioResult{
		{ExpectedStatus: entities.IntakeStatusRejected, ActualStatus: entities.IntakeStatusConfirmed},
		{ExpectedStatus: entities.IntakeStatusRejected, ActualStatus: entities.IntakeStatusConfirmed},
	}

	violations := g.Violations(summary, results)
	assert.Len(t, violations, 2)
	assert.Contains(t, violations[0], "accuracy")
	assert.Contains(t, violations[1], "false confirm rate")
}

func TestGuardrails_Defaults(t *testing.T) {
	g := NewGuardrails(GuardrailConfig{})

	assert.InDelta(t, 0.8, g.config.MinAccuracy, 1e-9)
	assert.InDelta(t, 0.05, g.config.MaxFalseConfirmRate, 1e-9)
}
