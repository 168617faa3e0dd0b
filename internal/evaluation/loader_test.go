package evaluation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kweriko/medverify-backend/internal/domain/entities"
)

const goldenScenarioJSON = `[
  {
    "id": "clean_intake",
    "description": "pill visible then swallowed on camera",
    "pill_detection": {"detected": true, "avg_confidence": 0.85, "disappearance_frame": 25, "num_frames": 30},
    "hand_tracking": {"detected": true, "avg_confidence": 0.75, "mouth_contact_frames": [20, 21, 22, 23, 24], "total_frames": 30},
    "action_recognition": {"detected": true, "avg_confidence": 0.70, "swallow_windows": [{"start": 16, "end": 20}]},
    "expected_status": "confirmed",
    "difficulty": "easy"
  },
  {
    "id": "empty_clip",
    "description": "nothing detected in any modality",
    "expected_status": "rejected",
    "difficulty": "easy"
  }
]`

func writeGoldenFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "golden_scenarios.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadGoldenScenarios(t *testing.T) {
	path := writeGoldenFile(t, goldenScenarioJSON)

	scenarios, err := LoadGoldenScenarios(path)
	require.NoError(t, err)
	require.Len(t, scenarios, 2)

	assert.Equal(t, "clean_intake", scenarios[0].ID)
	assert.Equal(t, entities.IntakeStatusConfirmed, scenarios[0].ExpectedStatus)
	require.NotNil(t, scenarios[0].PillDetection)
	assert.Equal(t, 25, scenarios[0].PillDetection.DisappearanceFrame)

	assert.Equal(t, "empty_clip", scenarios[1].ID)
	assert.Nil(t, scenarios[1].PillDetection)
	assert.Nil(t, scenarios[1].ActionRecognition)
}

func TestLoadGoldenScenarios_MissingFile(t *testing.T) {
	_, err := LoadGoldenScenarios(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadGoldenScenarios_InvalidJSON(t *testing.T) {
	path := writeGoldenFile(t, "{not json")
	_, err := LoadGoldenScenarios(path)
	assert.Error(t, err)
}

func TestValidateGoldenScenarios(t *testing.T) {
	valid := []GoldenScenario{
		{ID: "a", ExpectedStatus: entities.IntakeStatusConfirmed, Difficulty: "easy"},
		{ID: "b", ExpectedStatus: entities.IntakeStatusRejected, Difficulty: "hard"},
	}
	assert.NoError(t, ValidateGoldenScenarios(valid))
}

func TestValidateGoldenScenarios_Errors(t *testing.T) {
	tests := []struct {
		name      string
		scenarios []GoldenScenario
	}{
		{
			name:      "missing id",
			scenarios: []GoldenScenario{{ExpectedStatus: entities.IntakeStatusConfirmed, Difficulty: "easy"}},
		},
		{
			name: "duplicate id",
			scenarios: []GoldenScenario{
				{ID: "a", ExpectedStatus: entities.IntakeStatusConfirmed, Difficulty: "easy"},
				{ID: "a", ExpectedStatus: entities.IntakeStatusRejected, Difficulty: "easy"},
			},
		},
		{
			name:      "invalid status",
			scenarios: []GoldenScenario{{ID: "a", ExpectedStatus: "definitely", Difficulty: "easy"}},
		},
		{
			name:      "invalid difficulty",
			scenarios: []GoldenScenario{{ID: "a", ExpectedStatus: entities.IntakeStatusLikely, Difficulty: "brutal"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, ValidateGoldenScenarios(tt.scenarios))
		})
	}
}
