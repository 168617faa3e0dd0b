package evaluation

import "github.com/kweriko/medverify-backend/internal/domain/entities"

// Accuracy computes the fraction of results whose actual status matches the
// expected status. Returns 0.0 for an empty result set.
func Accuracy(results []ScenarioResult) float64 {
	if len(results) == 0 {
		return 0.0
	}

	correct := 0
	for _, r := range results {
		if r.Correct {
			correct++
		}
	}

	return float64(correct) / float64(len(results))
}

// Confusion builds the expected -> actual status count matrix.
func Confusion(results []ScenarioResult) map[entities.IntakeStatus]map[entities.IntakeStatus]int {
	matrix := make(map[entities.IntakeStatus]map[entities.IntakeStatus]int)
	for _, r := range results {
		row, ok := matrix[r.ExpectedStatus]
		if !ok {
			row = make(map[entities.IntakeStatus]int)
			matrix[r.ExpectedStatus] = row
		}
		row[r.ActualStatus]++
	}
	return matrix
}

// FalseConfirmRate computes how often a scenario that should not confirm was
// classified CONFIRMED. This is the safety-critical failure mode: reporting a
// dose as taken when it was not.
func FalseConfirmRate(results []ScenarioResult) float64 {
	eligible := 0
	falseConfirms := 0
	for _, r := range results {
		if r.ExpectedStatus == entities.IntakeStatusConfirmed {
			continue
		}
		eligible++
		if r.ActualStatus == entities.IntakeStatusConfirmed {
			falseConfirms++
		}
	}
	if eligible == 0 {
		return 0.0
	}
	return float64(falseConfirms) / float64(eligible)
}
