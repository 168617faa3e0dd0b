package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kweriko/medverify-backend/internal/domain/entities"
)

func TestAccuracy(t *testing.T) {
	assert.Equal(t, 0.0, Accuracy(nil))

	results := []ScenarioResult{
		{Correct: true},
		{Correct: true},
		{Correct: false},
		{Correct: true},
	}
	assert.InDelta(t, 0.75, Accuracy(results), 1e-9)
}

func TestConfusion(t *testing.T) {
	results := []ScenarioResult{
		{ExpectedStatus: entities.IntakeStatusConfirmed, ActualStatus: entities.IntakeStatusConfirmed},
		{ExpectedStatus: entities.IntakeStatusConfirmed, ActualStatus: entities.IntakeStatusLikely},
		{ExpectedStatus: entities.IntakeStatusRejected, ActualStatus: entities.IntakeStatusRejected},
		{ExpectedStatus: entities.IntakeStatusRejected, ActualStatus: entities.IntakeStatusRejected},
	}

	matrix := Confusion(results)

	assert.Equal(t, 1, matrix[entities.IntakeStatusConfirmed][entities.IntakeStatusConfirmed])
	assert.Equal(t, 1, matrix[entities.IntakeStatusConfirmed][entities.IntakeStatusLikely])
	assert.Equal(t, 2, matrix[entities.IntakeStatusRejected][entities.IntakeStatusRejected])
	assert.Empty(t, matrix[entities.IntakeStatusLikely])
}

func TestFalseConfirmRate(t *testing.T) {
	results := []ScenarioResult{
		// Expected confirms never count toward the rate.
		{ExpectedStatus: entities.IntakeStatusConfirmed, ActualStatus: entities.IntakeStatusConfirmed},
		{ExpectedStatus: entities.IntakeStatusRejected, ActualStatus: entities.IntakeStatusConfirmed},
		{ExpectedStatus: entities.IntakeStatusRejected, ActualStatus: entities.IntakeStatusRejected},
		{ExpectedStatus: entities.IntakeStatusUncertain, ActualStatus: entities.IntakeStatusUncertain},
		{ExpectedStatus: entities.IntakeStatusLikely, ActualStatus: entities.IntakeStatusLikely},
	}

	assert.InDelta(t, 0.25, FalseConfirmRate(results), 1e-9)
}

func TestFalseConfirmRate_AllConfirmExpected(t *testing.T) {
	results := []ScenarioResult{
		{ExpectedStatus: entities.IntakeStatusConfirmed, ActualStatus: entities.IntakeStatusLikely},
	}
	assert.Equal(t, 0.0, FalseConfirmRate(results))
}
